package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// genericLabelPrefix marks model outputs without an id2label config, e.g.
// "LABEL_1". These are mapped through the configured vocabulary.
const genericLabelPrefix = "label_"

// HTTPClassifier calls a Hugging Face style text-classification endpoint.
type HTTPClassifier struct {
	endpoint   string
	token      string
	labels     []string
	httpClient *http.Client
}

// Compile-time check that HTTPClassifier implements Classifier.
var _ Classifier = (*HTTPClassifier)(nil)

// NewHTTPClassifier creates a classifier for endpoint. labels is the id2label
// vocabulary used when the endpoint answers with raw logits.
func NewHTTPClassifier(endpoint, token string, labels []string, httpClient *http.Client) *HTTPClassifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClassifier{
		endpoint:   endpoint,
		token:      token,
		labels:     labels,
		httpClient: httpClient,
	}
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify sends text to the endpoint and returns the top label.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (Result, error) {
	reqBody, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("classifier error: %s - %s", resp.Status, string(body))
	}

	return c.parse(body)
}

// parse accepts [[{label,score}]], [{label,score}] and {"logits": ...}.
func (c *HTTPClassifier) parse(body []byte) (Result, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return Result{}, ErrEmptyResponse
		}
		return c.topScore(nested[0])
	}

	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err == nil {
		return c.topScore(flat)
	}

	var raw struct {
		Logits json.RawMessage `json:"logits"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Result{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(raw.Logits) == 0 {
		return Result{}, ErrEmptyResponse
	}

	var logits []float64
	var batch [][]float64
	if err := json.Unmarshal(raw.Logits, &batch); err == nil {
		if len(batch) == 0 {
			return Result{}, ErrEmptyResponse
		}
		logits = batch[0]
	} else if err := json.Unmarshal(raw.Logits, &logits); err != nil {
		return Result{}, fmt.Errorf("unmarshal logits: %w", err)
	}
	return c.fromLogits(logits)
}

func (c *HTTPClassifier) fromLogits(logits []float64) (Result, error) {
	if len(logits) == 0 {
		return Result{}, ErrEmptyResponse
	}
	probs := softmax(logits)
	id := argmax(probs)
	if id >= len(c.labels) {
		return Result{}, fmt.Errorf("%w: class %d with %d labels", ErrUnknownLabel, id, len(c.labels))
	}
	return Result{Label: normalizeLabel(c.labels[id]), Likelihood: probs[id]}, nil
}

func (c *HTTPClassifier) topScore(scores []labelScore) (Result, error) {
	if len(scores) == 0 {
		return Result{}, ErrEmptyResponse
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	label, err := c.resolveLabel(best.Label)
	if err != nil {
		return Result{}, err
	}
	return Result{Label: label, Likelihood: clamp01(best.Score)}, nil
}

// resolveLabel normalizes label and maps generic "LABEL_n" names to the
// n-th configured label. Named labels pass through unchanged.
func (c *HTTPClassifier) resolveLabel(label string) (string, error) {
	label = normalizeLabel(label)
	suffix, ok := strings.CutPrefix(label, genericLabelPrefix)
	if !ok {
		return label, nil
	}
	id, err := strconv.Atoi(suffix)
	if err != nil {
		return label, nil
	}
	if id < 0 || id >= len(c.labels) {
		return "", fmt.Errorf("%w: %s with %d labels", ErrUnknownLabel, label, len(c.labels))
	}
	return normalizeLabel(c.labels[id]), nil
}
