// Package triagetest provides in-memory Classifier and Responder fakes and a
// session builder for tests.
package triagetest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/classifier"
	"github.com/raphaelgruber/scamdetect/internal/prompt"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// Classifier returns a fixed verdict and records every input.
type Classifier struct {
	mu     sync.Mutex
	Result classifier.Result
	Err    error
	inputs []string
}

// Classify records text and returns the configured verdict or error.
func (c *Classifier) Classify(_ context.Context, text string) (classifier.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, text)
	if c.Err != nil {
		return classifier.Result{}, c.Err
	}
	return c.Result, nil
}

// SetErr changes the error returned by later calls.
func (c *Classifier) SetErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Err = err
}

// Inputs returns the texts classified so far.
func (c *Classifier) Inputs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.inputs...)
}

// Responder replies with Reply (or "reply N") and records every prompt.
type Responder struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	prompts []string
}

// Respond records prompt and returns the configured reply or error.
func (r *Responder) Respond(_ context.Context, p string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, p)
	if r.Err != nil {
		return "", r.Err
	}
	if r.Reply != "" {
		return r.Reply, nil
	}
	return fmt.Sprintf("reply %d", len(r.prompts)), nil
}

// SetErr changes the error returned by later calls.
func (r *Responder) SetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Err = err
}

// Prompts returns the prompts received so far.
func (r *Responder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

// ScamVerdict is the verdict used by most tests.
var ScamVerdict = classifier.Result{Label: classifier.LabelScam, Likelihood: 0.97}

// NewSession builds a session with the default profile, a discarded logger
// and the given fakes.
func NewSession(c *Classifier, r *Responder) *triage.Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	profile := prompt.DefaultProfile()
	controller := triage.NewController(c, r, prompt.NewTemplate(profile), nil, logger)
	return triage.NewSession(chat.NewStore(profile.Greeting), controller, logger)
}
