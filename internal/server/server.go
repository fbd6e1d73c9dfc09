// Package server exposes the chart operations over a small REST API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/tptkds/assetManagement/internal/app"
	"github.com/tptkds/assetManagement/internal/common"
)

// Server serves the chart API for one App.
type Server struct {
	app    *app.App
	server *http.Server
	logger *common.Logger
}

// NewServer builds the routed, middleware-wrapped handler. Timeouts come
// from the [server] config section.
func NewServer(a *app.App) *Server {
	s := &Server{app: a, logger: a.Logger}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	cfg := &a.Config.Server
	s.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           applyMiddleware(mux, a.Logger, a.Config),
		ReadHeaderTimeout: cfg.GetReadTimeout(),
		ReadTimeout:       cfg.GetReadTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		IdleTimeout:       2 * cfg.GetWriteTimeout(),
	}
	return s
}

// Handler returns the wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve blocks serving ln. A graceful Shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("REST API listening")
	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
