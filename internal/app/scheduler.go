package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

// safeGo launches a goroutine with panic recovery and logging.
func (a *App) safeGo(name string, fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.Logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in background task")
			}
		}()
		fn()
	}()
}

// StartRefreshLoop launches the real-time price refresh loop. It is a no-op
// when refresh is disabled or no quote client is configured.
func (a *App) StartRefreshLoop() {
	if a.Refresh == nil || !a.Config.Refresh.Enabled {
		a.Logger.Info().Msg("Refresh loop: disabled")
		return
	}
	if a.refreshCancel != nil {
		a.refreshCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.refreshCancel = cancel
	a.safeGo("refresh-loop", func() {
		if err := a.Refresh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Error().Err(err).Msg("Refresh loop: exited")
			return
		}
		a.Logger.Info().Msg("Refresh loop: stopped")
	})
}

// StartPublisher launches the exchange rate, index and tip publishers.
func (a *App) StartPublisher() {
	if a.Publisher == nil || !a.Config.Publisher.Enabled {
		a.Logger.Info().Msg("Publisher: disabled")
		return
	}
	if a.publisherCancel != nil {
		a.publisherCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.publisherCancel = cancel
	a.safeGo("publisher", func() {
		a.Publisher.Run(ctx)
		a.Logger.Info().Msg("Publisher: stopped")
	})
}
