package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/sessionauth"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func newServeCommand(logOpts *logOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server.

Configuration is read from the environment (GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET,
SESSION_SECRET, SALT, ...). --port overrides PORT.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logOpts.newLogger()
			if err != nil {
				return err
			}

			cfg, err := sessionauth.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(logger); err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := sessionauth.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := app.Close(closeCtx); err != nil {
					logger.Error("Failed to release resources", "error", err)
				}
			}()

			srv := &http.Server{
				Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
				Handler:           app.HTTPHandler(),
				ReadHeaderTimeout: readHeaderTimeout,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Server listening", "addr", srv.Addr, "session_store", cfg.Storage.Backend,
					"metrics", cfg.Instrumentation.MetricsEnabled)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 5000, "port to listen on (overrides PORT)")
	return cmd
}
