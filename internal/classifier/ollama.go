package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ollama/ollama/api"
)

const zeroShotSystem = `You are a text classifier for scam detection.
Classify the user's text into exactly one of these labels: %s.
Respond only with JSON of the form {"label": "<label>", "likelihood": <probability between 0 and 1>}.`

// OllamaClassifier classifies text zero-shot with a local Ollama model.
type OllamaClassifier struct {
	client *api.Client
	model  string
	labels []string
}

// Compile-time check that OllamaClassifier implements Classifier.
var _ Classifier = (*OllamaClassifier)(nil)

// NewOllamaClassifier creates a zero-shot classifier over labels.
func NewOllamaClassifier(client *api.Client, model string, labels []string) *OllamaClassifier {
	normalized := make([]string, 0, len(labels))
	for _, l := range labels {
		normalized = append(normalized, normalizeLabel(l))
	}
	return &OllamaClassifier{
		client: client,
		model:  model,
		labels: normalized,
	}
}

type zeroShotAnswer struct {
	Label      string  `json:"label"`
	Likelihood float64 `json:"likelihood"`
}

// Classify asks the model for a JSON verdict and validates it.
func (c *OllamaClassifier) Classify(ctx context.Context, text string) (Result, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   c.model,
		System:  fmt.Sprintf(zeroShotSystem, strings.Join(c.labels, ", ")),
		Prompt:  text,
		Format:  json.RawMessage(`"json"`),
		Stream:  &stream,
		Options: map[string]any{"temperature": 0},
	}

	var out strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}
	if out.Len() == 0 {
		return Result{}, ErrEmptyResponse
	}

	var answer zeroShotAnswer
	if err := json.Unmarshal([]byte(out.String()), &answer); err != nil {
		return Result{}, fmt.Errorf("unmarshal verdict: %w", err)
	}

	label := normalizeLabel(answer.Label)
	if !slices.Contains(c.labels, label) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownLabel, answer.Label)
	}
	return Result{Label: label, Likelihood: clamp01(answer.Likelihood)}, nil
}
