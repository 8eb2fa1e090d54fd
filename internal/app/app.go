// Package app wires configured backends into a triage session.
// It serves as dependency injection for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/classifier"
	"github.com/raphaelgruber/scamdetect/internal/config"
	"github.com/raphaelgruber/scamdetect/internal/llm"
	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/raphaelgruber/scamdetect/internal/prompt"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// NewSession builds a session from configuration: prompt profile, classifier,
// responder and a fresh metrics collector.
func NewSession(ctx context.Context, cfg config.Config, logger *slog.Logger) (*triage.Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	profile, err := prompt.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	c, err := classifier.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init model: %w", err)
	}

	logger.Info("session configured",
		"classifier", cfg.ClassifierProvider,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
	)

	controller := triage.NewController(c, model, prompt.NewTemplate(profile), metrics.NewCollector(), logger)
	return triage.NewSession(chat.NewStore(profile.Greeting), controller, logger), nil
}
