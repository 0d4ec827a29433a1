package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/himnario/pkg/api"
	"github.com/hazyhaar/himnario/pkg/source"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// SIGINT/SIGTERM: graceful shutdown.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				if addr != "" {
					a.cfg.Addr = addr
				}
				return serve(ctx, a)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	checker := source.NewChecker(a.cfg.Source.Kind, a.repo, a.logger, a.cfg.CheckInterval)
	go checker.Start(ctx)

	router := api.NewRouter(api.NewEndpoints(a.catalog, a.logger), checker, a.logger)
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("himnario listening", "addr", a.cfg.Addr, "source", a.cfg.Source.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the hymn tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(_ context.Context, a *app) error {
				srv := server.NewMCPServer("himnario", version, server.WithToolCapabilities(false))
				api.RegisterMCPTools(srv, api.NewEndpoints(a.catalog, a.logger))
				// Logs go to stderr; stdout carries the MCP stream.
				a.logger.Info("mcp server on stdio", "source", a.cfg.Source.Kind)
				return server.ServeStdio(srv)
			})
		},
	}
}
