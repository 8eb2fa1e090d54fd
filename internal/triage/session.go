package triage

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/classifier"
)

// View is what presentations render after every command.
type View struct {
	Current int                `json:"current"`
	Rooms   []chat.RoomSummary `json:"rooms"`
	Turns   []chat.Turn        `json:"turns"`
	State   State              `json:"state"`
}

// Session is the single-owner state of one user: the room store plus the
// controller that answers it. It is not safe for concurrent use; see Shared.
type Session struct {
	store      *chat.Store
	controller *Controller
	logger     *slog.Logger
}

// NewSession creates a session over store.
func NewSession(store *chat.Store, controller *Controller, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:      store,
		controller: controller,
		logger:     logger,
	}
}

// Store exposes the room store for read access.
func (s *Session) Store() *chat.Store {
	return s.store
}

// View snapshots the session.
func (s *Session) View() View {
	room := s.store.Current()
	return View{
		Current: s.store.CurrentIndex(),
		Rooms:   s.store.Rooms(),
		Turns:   room.Turns(),
		State:   Evaluate(room),
	}
}

// AppendUser adds a user turn to the current room without generating.
// Blank input is ignored and reported as false.
func (s *Session) AppendUser(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	s.store.Current().Append(chat.Turn{Role: chat.RoleUser, Content: content})
	return true
}

// Submit appends a user turn to the current room and fires the trigger.
func (s *Session) Submit(ctx context.Context, content string) (View, error) {
	if s.AppendUser(content) {
		s.logger.Debug("user turn appended", "room", s.store.CurrentIndex(), "len", len(content))
	}
	return s.Trigger(ctx)
}

// NewRoom creates and selects a fresh room.
func (s *Session) NewRoom(ctx context.Context) (View, error) {
	idx := s.store.Create()
	s.logger.Debug("room created", "room", idx)
	return s.Trigger(ctx)
}

// ClearRoom resets the current room to the greeting.
func (s *Session) ClearRoom(ctx context.Context) (View, error) {
	s.store.ClearCurrent()
	s.logger.Debug("room cleared", "room", s.store.CurrentIndex())
	return s.Trigger(ctx)
}

// SelectRoom switches to the room at index. An invalid index is a caller
// bug: the error is returned and nothing changes.
func (s *Session) SelectRoom(ctx context.Context, index int) (View, error) {
	if err := s.store.Select(index); err != nil {
		return s.View(), err
	}
	s.logger.Debug("room selected", "room", index)
	return s.Trigger(ctx)
}

// Trigger re-evaluates the current room and generates a reply if one is
// pending. A failed generation leaves the room pending for the next trigger.
func (s *Session) Trigger(ctx context.Context) (View, error) {
	if _, err := s.controller.Step(ctx, s.store.Current()); err != nil {
		return s.View(), err
	}
	return s.View(), nil
}

// Prepare snapshots the current room for an off-thread Generate.
func (s *Session) Prepare() (Pending, bool) {
	p, ok := s.controller.Prepare(s.store.Current())
	if ok {
		p.RoomIndex = s.store.CurrentIndex()
	}
	return p, ok
}

// Generate runs the pipeline for p without touching session state.
func (s *Session) Generate(ctx context.Context, p Pending) (chat.Turn, error) {
	return s.controller.Generate(ctx, p)
}

// Commit appends a generated turn to the room p was prepared from.
func (s *Session) Commit(p Pending, turn chat.Turn) error {
	room, err := s.store.Room(p.RoomIndex)
	if err != nil {
		return err
	}
	return s.controller.Commit(room, p, turn)
}

// Classify runs the classifier alone, outside any room.
func (s *Session) Classify(ctx context.Context, text string) (classifier.Result, error) {
	return s.controller.Classify(ctx, text)
}

// Controller returns the session's controller.
func (s *Session) Controller() *Controller {
	return s.controller
}

// Shared serializes access to a Session for transports that serve requests
// concurrently, keeping one command in flight at a time.
type Shared struct {
	mu      sync.Mutex
	session *Session
}

// NewShared wraps session.
func NewShared(session *Session) *Shared {
	return &Shared{session: session}
}

// Do runs fn with exclusive access to the session.
func (s *Shared) Do(fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.session)
}
