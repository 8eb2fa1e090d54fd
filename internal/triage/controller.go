// Package triage decides, per trigger, whether a room needs an assistant
// turn and runs the classifier-to-responder handoff that produces it.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/classifier"
	"github.com/raphaelgruber/scamdetect/internal/llm"
	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/raphaelgruber/scamdetect/internal/prompt"
)

var (
	// ErrClassifierFailure wraps any error from the classifier call.
	ErrClassifierFailure = errors.New("classifier failure")

	// ErrResponderFailure wraps any error from the responder call.
	ErrResponderFailure = errors.New("responder failure")

	// ErrStaleGeneration is returned when a reply is committed to a room that
	// changed after the generation was prepared.
	ErrStaleGeneration = errors.New("room changed during generation")
)

// State is the generation state of a room, derived from its last turn.
type State int

const (
	// AwaitingUser: the last turn is from the assistant.
	AwaitingUser State = iota
	// GenerationPending: the last turn is from the user and needs a reply.
	GenerationPending
)

func (s State) String() string {
	switch s {
	case AwaitingUser:
		return "awaiting_user"
	case GenerationPending:
		return "generation_pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "awaiting_user":
		*s = AwaitingUser
	case "generation_pending":
		*s = GenerationPending
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// Evaluate reports the state of room.
func Evaluate(room *chat.Room) State {
	if room.Last().Role == chat.RoleAssistant {
		return AwaitingUser
	}
	return GenerationPending
}

// Pending is a snapshot of everything a generation needs. It is taken from
// the room up front so the slow calls never read live room state.
type Pending struct {
	RoomID    uuid.UUID
	RoomIndex int
	// Revision is the room revision at prepare time; Commit refuses to
	// append if it changed.
	Revision uint64
	Turns    []chat.Turn
	SeedText string
	Input    string
}

// Composition is the derived Classifier input and Responder prompt.
type Composition struct {
	SeedText string
	Verdict  classifier.Result
	Prompt   string
}

// Controller runs the classifier-to-responder pipeline for pending rooms.
type Controller struct {
	classifier classifier.Classifier
	responder  llm.Responder
	template   *prompt.Template
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// NewController creates a controller. metrics and logger may be nil.
func NewController(c classifier.Classifier, r llm.Responder, t *prompt.Template, m *metrics.Collector, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Controller{
		classifier: c,
		responder:  r,
		template:   t,
		metrics:    m,
		logger:     logger,
	}
}

// Metrics returns the collector the controller records into.
func (c *Controller) Metrics() *metrics.Collector {
	return c.metrics
}

// Prepare snapshots room if it is GenerationPending. The second return is
// false when the room is AwaitingUser and nothing needs to happen.
func (c *Controller) Prepare(room *chat.Room) (Pending, bool) {
	if Evaluate(room) != GenerationPending {
		return Pending{}, false
	}
	return Pending{
		RoomID:   room.ID,
		Revision: room.Revision(),
		Turns:    room.Turns(),
		SeedText: room.SeedText(),
		Input:    room.Last().Content,
	}, true
}

// Classify runs the classifier on text with timing and logging.
func (c *Controller) Classify(ctx context.Context, text string) (classifier.Result, error) {
	start := time.Now()
	verdict, err := c.classifier.Classify(ctx, text)
	if err != nil {
		c.metrics.RecordFailure(metrics.OpClassify)
		return classifier.Result{}, fmt.Errorf("%w: %w", ErrClassifierFailure, err)
	}
	c.metrics.RecordTiming(metrics.OpClassify, time.Since(start))
	return verdict, nil
}

// Compose classifies the seed text and renders the Responder prompt.
// The seed is reclassified on every call; wrap the classifier in
// classifier.Cached to memoize.
func (c *Controller) Compose(ctx context.Context, p Pending) (Composition, error) {
	verdict, err := c.Classify(ctx, p.SeedText)
	if err != nil {
		return Composition{}, err
	}
	c.logger.Info("classified seed text",
		"room", p.RoomID,
		"label", verdict.Label,
		"likelihood", verdict.Likelihood,
	)

	rendered, err := c.template.Render(verdict, prompt.History(p.Turns), p.Input)
	if err != nil {
		return Composition{}, err
	}

	return Composition{
		SeedText: p.SeedText,
		Verdict:  verdict,
		Prompt:   rendered,
	}, nil
}

// Generate produces the assistant turn for p. It touches no room state.
func (c *Controller) Generate(ctx context.Context, p Pending) (chat.Turn, error) {
	start := time.Now()

	comp, err := c.Compose(ctx, p)
	if err != nil {
		c.metrics.RecordFailure(metrics.OpTurn)
		c.logger.Warn("generation aborted", "room", p.RoomID, "error", err)
		return chat.Turn{}, err
	}

	respondStart := time.Now()
	reply, err := c.responder.Respond(ctx, comp.Prompt)
	if err != nil {
		c.metrics.RecordFailure(metrics.OpRespond)
		c.metrics.RecordFailure(metrics.OpTurn)
		c.logger.Warn("generation aborted", "room", p.RoomID, "error", err)
		return chat.Turn{}, fmt.Errorf("%w: %w", ErrResponderFailure, err)
	}
	c.metrics.RecordTiming(metrics.OpRespond, time.Since(respondStart))

	duration := time.Since(start)
	c.metrics.RecordTiming(metrics.OpTurn, duration)
	c.logger.Debug("generation complete",
		"room", p.RoomID,
		"prompt_len", len(comp.Prompt),
		"reply_len", len(reply),
		"duration_ms", duration.Milliseconds(),
	)

	return chat.Turn{Role: chat.RoleAssistant, Content: reply}, nil
}

// Commit appends turn to room if room is still the one p was prepared from
// and has not changed since.
func (c *Controller) Commit(room *chat.Room, p Pending, turn chat.Turn) error {
	if room.ID != p.RoomID || room.Revision() != p.Revision {
		return ErrStaleGeneration
	}
	room.Append(turn)
	return nil
}

// Step evaluates room and, when a reply is pending, generates and appends
// it. It reports whether a turn was appended. On error the room is left
// unchanged so the next trigger retries from scratch.
func (c *Controller) Step(ctx context.Context, room *chat.Room) (bool, error) {
	p, ok := c.Prepare(room)
	if !ok {
		return false, nil
	}
	turn, err := c.Generate(ctx, p)
	if err != nil {
		return false, err
	}
	if err := c.Commit(room, p, turn); err != nil {
		return false, err
	}
	return true, nil
}
