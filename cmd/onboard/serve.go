package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/onboard/internal/cli"
	httpAdapter "github.com/aretw0/onboard/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the onboarding engine behind a JSON API with an SSE event stream and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMaxUploadBytes(cfg.HTTP.MaxUploadBytes),
		}
		if stack.Registry != nil {
			opts = append(opts, httpAdapter.WithMetrics(stack.Registry))
		}

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpAdapter.NewHandler(stack.Engine, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting onboard server", "addr", srv.Addr, "store", cfg.Store.Kind, "gateway", cfg.Gateway.URL)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err

		case <-sigCtx.Done():
			logger.Info("shutting down", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			logger.Info("onboard server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
}
