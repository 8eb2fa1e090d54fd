package app_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphaelgruber/scamdetect/internal/app"
	"github.com/raphaelgruber/scamdetect/internal/config"
	"github.com/raphaelgruber/scamdetect/internal/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.Config {
	return config.Config{
		LLMProvider:        config.ProviderOllama,
		LLMModel:           "llama3",
		OllamaHost:         "http://localhost:11434",
		ClassifierProvider: config.ProviderHTTP,
		ClassifierURL:      "http://localhost:9/classify",
		ClassifierLabels:   []string{"safe", "scam"},
		ClassifierTimeout:  time.Second,
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSessionDefaults(t *testing.T) {
	sess, err := app.NewSession(context.Background(), baseConfig(), discard())
	require.NoError(t, err)

	view := sess.View()
	require.Len(t, view.Turns, 1)
	assert.Equal(t, "Please input your suspicious text.", view.Turns[0].Content)
	assert.Equal(t, triage.AwaitingUser, view.State)
	assert.NotNil(t, sess.Controller().Metrics())
}

func TestNewSessionProfileGreeting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("greeting: Paste the message you received.\n"), 0o600))

	cfg := baseConfig()
	cfg.ProfilePath = path
	sess, err := app.NewSession(context.Background(), cfg, discard())
	require.NoError(t, err)
	assert.Equal(t, "Paste the message you received.", sess.View().Turns[0].Content)
}

func TestNewSessionErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "missing profile",
			mutate:  func(c *config.Config) { c.ProfilePath = "/nonexistent/profile.yaml" },
			wantErr: "load profile",
		},
		{
			name:    "unknown classifier",
			mutate:  func(c *config.Config) { c.ClassifierProvider = "carrier-pigeon" },
			wantErr: "init classifier",
		},
		{
			name:    "openai without key",
			mutate:  func(c *config.Config) { c.LLMProvider = config.ProviderOpenAI },
			wantErr: "init model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			_, err := app.NewSession(context.Background(), cfg, discard())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
