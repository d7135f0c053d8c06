package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/venue-discovery/internal/adapter/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the venue search HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger := env.cfg, env.logger

		engine, err := env.engine()
		if err != nil {
			return err
		}
		srv := httpadapter.NewServer(cfg.HTTPAddr, engine, httpadapter.Radii{
			Search: cfg.CityRadiusMeters,
			Nearby: cfg.WideRadiusMeters,
		}, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			return err
		}
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
