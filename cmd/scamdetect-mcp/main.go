// Package main provides the entry point for the scamdetect MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/scamdetect/internal/app"
	"github.com/raphaelgruber/scamdetect/internal/config"
	"github.com/raphaelgruber/scamdetect/internal/server"
	"github.com/raphaelgruber/scamdetect/internal/tools"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs first.
func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.Level())
	defer cleanup()

	logger.Info("scamdetect-mcp starting",
		"version", version,
		"classifier", cfg.ClassifierProvider,
		"llm_model", cfg.LLMModel,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	sess, err := app.NewSession(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create session", "error", err)
		return 1
	}

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup()

	deps := &tools.Dependencies{
		Session: triage.NewShared(sess),
		Metrics: sess.Controller().Metrics(),
		Logger:  logger,
	}
	tools.RegisterAll(srv.MCPServer(), deps)
	logger.Info("tools registered", "count", 7)

	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		return 1
	}

	logger.Info("shutdown complete")
	return 0
}
