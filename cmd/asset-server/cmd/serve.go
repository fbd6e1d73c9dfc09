package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tptkds/assetManagement/internal/app"
	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API with the refresh loop and publishers",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := app.NewApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}

	common.PrintBanner(a.Config, a.Logger)

	a.StartRefreshLoop()
	a.StartPublisher()

	srv := server.NewServer(a)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		a.Logger.Info().Msg("Shutdown signal received")
	case err = <-serverErr:
		a.Logger.Error().Err(err).Msg("HTTP server failed")
	}

	common.PrintShutdownBanner(a.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
		a.Logger.Error().Err(shutdownErr).Msg("HTTP server shutdown failed")
	}

	a.Close()
	a.Logger.Info().Msg("Server stopped")
	return err
}
