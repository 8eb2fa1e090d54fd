// Package config loads deployment settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Provider identifies an LLM or classifier backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"

	// ProviderHTTP is a text-classification inference endpoint.
	ProviderHTTP Provider = "http"
)

// Config holds all configuration values.
type Config struct {
	// Logging
	LogFile  string `env:"SCAMDETECT_LOG_FILE" envDefault:"/tmp/scamdetect.log"`
	LogLevel string `env:"SCAMDETECT_LOG_LEVEL" envDefault:"INFO"`

	// Prompt profile (YAML); empty uses built-in defaults
	ProfilePath string `env:"SCAMDETECT_PROFILE"`

	// Server
	ServerPort string `env:"SCAMDETECT_SERVER_PORT" envDefault:"8501"`

	// Responder
	LLMProvider     Provider `env:"LLM_PROVIDER" envDefault:"ollama"`
	LLMModel        string   `env:"LLM_MODEL" envDefault:"llama3"`
	OllamaHost      string   `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	OpenAIAPIKey    string   `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string   `env:"ANTHROPIC_API_KEY"`

	// Classifier
	ClassifierProvider Provider      `env:"CLASSIFIER_PROVIDER" envDefault:"http"`
	ClassifierURL      string        `env:"CLASSIFIER_URL" envDefault:"https://api-inference.huggingface.co/models/pippinnie/scam_text_classifier"`
	ClassifierToken    string        `env:"CLASSIFIER_TOKEN"`
	ClassifierModel    string        `env:"CLASSIFIER_MODEL" envDefault:"llama3"`
	ClassifierLabels   []string      `env:"CLASSIFIER_LABELS" envSeparator:"," envDefault:"safe,scam"`
	ClassifierTimeout  time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"30s"`
	ClassifierCache    bool          `env:"CLASSIFIER_CACHE" envDefault:"false"`
}

// Load reads an optional .env file from the working directory and then
// parses the environment. Variables already set win over the .env file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Level returns the configured slog level.
func (c Config) Level() slog.Level {
	return parseLogLevel(c.LogLevel)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
