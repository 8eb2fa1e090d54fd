// Package classifier maps suspicious text to a label with a likelihood.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/raphaelgruber/scamdetect/internal/config"
)

// Labels produced by the default scam classifier.
const (
	LabelScam = "scam"
	LabelSafe = "safe"
)

var (
	// ErrUnknownLabel indicates the backend answered with a label or class
	// index outside the configured vocabulary.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrEmptyResponse indicates the backend returned no scores.
	ErrEmptyResponse = errors.New("empty classifier response")
)

// Result is the verdict for one text.
type Result struct {
	Label string `json:"label"`
	// Likelihood is the probability mass the model assigns to Label, in [0,1].
	Likelihood float64 `json:"likelihood"`
}

// Percent renders the likelihood with one decimal place, e.g. "97.0%".
func (r Result) Percent() string {
	return fmt.Sprintf("%.1f%%", r.Likelihood*100)
}

// Classifier defines the interface for classification backends.
// Implementations must be a pure function of the text for a fixed model.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// New creates a Classifier based on configuration, wrapped in a cache when
// CLASSIFIER_CACHE is enabled.
func New(cfg config.Config, logger *slog.Logger) (Classifier, error) {
	var c Classifier

	switch cfg.ClassifierProvider {
	case config.ProviderHTTP, "":
		if cfg.ClassifierURL == "" {
			return nil, fmt.Errorf("classifier URL required")
		}
		c = NewHTTPClassifier(cfg.ClassifierURL, cfg.ClassifierToken, cfg.ClassifierLabels,
			&http.Client{Timeout: cfg.ClassifierTimeout})

	case config.ProviderOllama:
		base, err := url.Parse(cfg.OllamaHost)
		if err != nil {
			return nil, fmt.Errorf("parse ollama host: %w", err)
		}
		c = NewOllamaClassifier(api.NewClient(base, &http.Client{Timeout: cfg.ClassifierTimeout}),
			cfg.ClassifierModel, cfg.ClassifierLabels)

	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", cfg.ClassifierProvider)
	}

	if cfg.ClassifierCache {
		if logger != nil {
			logger.Info("classifier cache enabled")
		}
		c = NewCached(c)
	}
	return c, nil
}

// softmax converts logits into probabilities.
func softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	// Shift by the max for numerical stability
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		maxLogit = math.Max(maxLogit, l)
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax returns the index of the largest value; ties go to the first.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// normalizeLabel lowercases and trims a label for vocabulary lookups.
func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
