package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tptkds/assetManagement/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string   `json:"error"`
	Code  string   `json:"code,omitempty"`
	Keys  []string `json:"keys,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// QueryList collects a repeated query parameter. Comma separated values are
// split, blanks dropped.
func QueryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// WriteServiceError maps domain errors to status codes. Anything unrecognised
// is a 500 with a generic message.
func WriteServiceError(w http.ResponseWriter, err error) {
	var (
		gap      *models.DataGapError
		rate     *models.MissingRateError
		unknown  *models.UnknownIndexError
		notFound *models.NotFoundError
	)
	switch {
	case errors.As(err, &gap):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "price_data_missing", Keys: gap.Codes})
	case errors.As(err, &rate):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "exchange_rate_missing", Keys: rate.Currencies})
	case errors.As(err, &unknown):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "unknown_market_index", Keys: unknown.Names})
	case errors.As(err, &notFound):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found", Keys: notFound.Keys})
	case errors.Is(err, models.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "not_found")
	default:
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// isClientError reports whether err maps to a 4xx response.
func isClientError(err error) bool {
	var (
		gap     *models.DataGapError
		rate    *models.MissingRateError
		unknown *models.UnknownIndexError
	)
	return errors.As(err, &gap) || errors.As(err, &rate) || errors.As(err, &unknown) || errors.Is(err, models.ErrNotFound)
}
