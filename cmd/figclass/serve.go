package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpserver "github.com/fyrsmithlabs/figclass/internal/http"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classification API over HTTP",
		Long: `Serve the classification API over HTTP.

Endpoints:
  GET  /health
  GET  /metrics
  POST /api/v1/classify[?explain=true]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			if port == 0 {
				port = a.cfg.Server.Port
			}
			server, err := httpserver.NewServer(a.pipeline, a.logger, &httpserver.Config{
				Host:         host,
				Port:         port,
				MaxBodyBytes: a.cfg.Server.MaxBodyBytes,
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error(shutdownCtx, "http server shutdown failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (all interfaces when empty)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (server.port when zero)")
	return cmd
}
