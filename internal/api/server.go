package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// Server exposes a shared session to HTTP and WebSocket clients.
type Server struct {
	shared   *triage.Shared
	metrics  *metrics.Collector
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a server. metrics may be nil, which disables /stats data.
func New(shared *triage.Shared, m *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Server{
		shared:  shared,
		metrics: m,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local dev
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("POST /api/messages", s.handleSubmit)
	mux.HandleFunc("POST /api/rooms", s.handleNewRoom)
	mux.HandleFunc("POST /api/rooms/{index}/select", s.handleSelect)
	mux.HandleFunc("POST /api/rooms/current/clear", s.handleClear)

	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return loggingMiddleware(s.logger, mux)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var view triage.View
	_ = s.shared.Do(func(sess *triage.Session) error {
		view = sess.View()
		return nil
	})
	writeJSON(w, http.StatusOK, Response{View: view})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid request body: " + err.Error()})
		return
	}
	s.run(w, func(sess *triage.Session) (triage.View, error) {
		return sess.Submit(r.Context(), req.Content)
	})
}

func (s *Server) handleNewRoom(w http.ResponseWriter, r *http.Request) {
	s.run(w, func(sess *triage.Session) (triage.View, error) {
		return sess.NewRoom(r.Context())
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.run(w, func(sess *triage.Session) (triage.View, error) {
		return sess.ClearRoom(r.Context())
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid room index"})
		return
	}
	s.run(w, func(sess *triage.Session) (triage.View, error) {
		return sess.SelectRoom(r.Context(), index)
	})
}

// run executes a session command and writes the resulting view.
func (s *Server) run(w http.ResponseWriter, fn func(*triage.Session) (triage.View, error)) {
	var view triage.View
	err := s.shared.Do(func(sess *triage.Session) error {
		var err error
		view, err = fn(sess)
		return err
	})
	if err != nil {
		s.logger.Warn("command failed", "error", err)
		writeJSON(w, statusFor(err), Response{View: view, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Response{View: view})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("websocket client connected", "remote", r.RemoteAddr)
	ctx := r.Context()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		if err := s.dispatch(ctx, conn, cmd); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

// dispatch runs cmd and writes its frames. The returned error is a write
// failure; command failures are reported to the client as error frames.
func (s *Server) dispatch(ctx context.Context, conn *websocket.Conn, cmd Command) error {
	var writeErr error
	var view triage.View

	cmdErr := s.shared.Do(func(sess *triage.Session) error {
		var err error
		switch cmd.Type {
		case CommandSubmit:
			if sess.AppendUser(cmd.Content) {
				pending := sess.View()
				if writeErr = writeFrame(conn, Frame{ID: cmd.ID, Type: FrameView, View: &pending}); writeErr != nil {
					return nil
				}
			}
			view, err = sess.Trigger(ctx)
		case CommandNewRoom:
			view, err = sess.NewRoom(ctx)
		case CommandClear:
			view, err = sess.ClearRoom(ctx)
		case CommandSelect:
			view, err = sess.SelectRoom(ctx, cmd.Index)
		case CommandView:
			view = sess.View()
		default:
			view = sess.View()
			err = fmt.Errorf("unknown command %q", cmd.Type)
		}
		return err
	})
	if writeErr != nil {
		return writeErr
	}

	frame := Frame{ID: cmd.ID, Type: FrameView, Final: true, View: &view}
	if cmdErr != nil {
		s.logger.Warn("command failed", "command", cmd.Type, "error", cmdErr)
		frame.Type = FrameError
		frame.Error = cmdErr.Error()
	}
	return writeFrame(conn, frame)
}

func writeFrame(conn *websocket.Conn, f Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	return conn.WriteJSON(f)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrRoomOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, triage.ErrClassifierFailure), errors.Is(err, triage.ErrResponderFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
