package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/howard-nolan/studyproxy/internal/auth"
	"github.com/howard-nolan/studyproxy/internal/config"
	"github.com/howard-nolan/studyproxy/internal/logger"
	"github.com/howard-nolan/studyproxy/internal/provider"
	"github.com/howard-nolan/studyproxy/internal/server"
	"github.com/howard-nolan/studyproxy/internal/waitlist"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Setup(cfg.Server)

	handler, cleanup, err := buildServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("studyproxy listening", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server shutdown completed")
	return nil
}

// buildServer constructs every long-lived dependency once and wires them
// into the HTTP handler. Missing credentials do not stop startup: the
// affected endpoints answer with a configuration error instead.
func buildServer(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	cleanup := func() {}

	// No client-level timeout: each upstream call is bounded by its
	// request context.
	client := &http.Client{}

	providers, err := provider.NewRegistry(ctx, cfg.Providers, nil, client)
	if err != nil {
		return nil, cleanup, fmt.Errorf("building providers: %w", err)
	}

	var store waitlist.Store
	db, err := waitlist.Open(ctx, cfg.Backend.DatabaseURL)
	switch {
	case errors.Is(err, waitlist.ErrNotConfigured):
		slog.Warn("no database configured, waitlist and access endpoints will fail")
	case err != nil:
		return nil, cleanup, fmt.Errorf("connecting to database: %w", err)
	default:
		store = waitlist.NewPostgresStore(db)
		cleanup = func() {
			if err := db.Close(); err != nil {
				slog.Error("closing database", "error", err)
			}
		}
		slog.Info("database connection established")
	}

	verifier, err := auth.NewVerifier(cfg.Backend.JWTSecret, cfg.Backend.JWTAudience)
	if err != nil {
		slog.Warn("no JWT secret configured, access checks will fail")
		verifier = nil
	}

	srv := server.New(cfg, server.Deps{
		Providers: providers,
		Waitlist:  waitlist.NewService(store),
		Verifier:  verifier,
	})

	return srv, cleanup, nil
}
