package common

import (
	"context"
)

// UserContext holds the caller identity resolved from the bearer token.
type UserContext struct {
	UserID int64
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveUserID returns the user id carried by the context and whether one was present.
func ResolveUserID(ctx context.Context) (int64, bool) {
	if uc := UserContextFromContext(ctx); uc != nil && uc.UserID != 0 {
		return uc.UserID, true
	}
	return 0, false
}
