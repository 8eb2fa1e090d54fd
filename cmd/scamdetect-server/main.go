// Package main provides the HTTP and WebSocket server for ScamDetect.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/scamdetect/internal/api"
	"github.com/raphaelgruber/scamdetect/internal/app"
	"github.com/raphaelgruber/scamdetect/internal/config"
	"github.com/raphaelgruber/scamdetect/internal/triage"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs first.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.Level())
	defer cleanup()

	logger.Info("starting scamdetect-server", "port", cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := app.NewSession(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create session", "error", err)
		return 1
	}

	srv := api.New(triage.NewShared(sess), sess.Controller().Metrics(), logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second, // Classifier plus LLM reply
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api/view", cfg.ServerPort))
		logger.Info("WebSocket endpoint available", "url", fmt.Sprintf("ws://localhost:%s/ws", cfg.ServerPort))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		return 1
	}

	logger.Info("server stopped")
	return 0
}
