package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/scamdetect/internal/api"
	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/raphaelgruber/scamdetect/internal/triage"
	"github.com/raphaelgruber/scamdetect/internal/triage/triagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cruise = "You won a free cruise, click here!"

type fixture struct {
	classifier *triagetest.Classifier
	responder  *triagetest.Responder
	handler    http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		classifier: &triagetest.Classifier{Result: triagetest.ScamVerdict},
		responder:  &triagetest.Responder{Reply: "prize scam"},
	}
	sess := triagetest.NewSession(f.classifier, f.responder)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.handler = api.New(triage.NewShared(sess), sess.Controller().Metrics(), logger).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, api.Response) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var resp api.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestViewStartsWithGreeting(t *testing.T) {
	f := newFixture(t)
	code, resp := f.do(t, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, 0, resp.View.Current)
	require.Len(t, resp.View.Turns, 1)
	assert.Equal(t, chat.RoleAssistant, resp.View.Turns[0].Role)
	assert.Equal(t, chat.DefaultGreeting, resp.View.Turns[0].Content)
	assert.Equal(t, triage.AwaitingUser, resp.View.State)
}

func TestSubmitMessage(t *testing.T) {
	f := newFixture(t)
	code, resp := f.do(t, http.MethodPost, "/api/messages", `{"content":"`+cruise+`"}`)
	require.Equal(t, http.StatusOK, code)

	require.Len(t, resp.View.Turns, 3)
	assert.Equal(t, cruise, resp.View.Turns[1].Content)
	assert.Equal(t, "prize scam", resp.View.Turns[2].Content)
	assert.Equal(t, []string{cruise}, f.classifier.Inputs())
}

func TestSubmitInvalidBody(t *testing.T) {
	f := newFixture(t)
	code, resp := f.do(t, http.MethodPost, "/api/messages", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "invalid request body")
}

func TestRoomRoutes(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/api/messages", `{"content":"`+cruise+`"}`)

	code, resp := f.do(t, http.MethodPost, "/api/rooms", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, resp.View.Current)
	assert.Len(t, resp.View.Rooms, 2)
	assert.Len(t, resp.View.Turns, 1)

	code, resp = f.do(t, http.MethodPost, "/api/rooms/0/select", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, resp.View.Current)
	assert.Len(t, resp.View.Turns, 3)

	code, resp = f.do(t, http.MethodPost, "/api/rooms/current/clear", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.View.Turns, 1)
	assert.Len(t, resp.View.Rooms, 2)
}

func TestSelectErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "out of range", path: "/api/rooms/5/select", wantErr: chat.ErrRoomOutOfRange.Error()},
		{name: "negative", path: "/api/rooms/-1/select", wantErr: chat.ErrRoomOutOfRange.Error()},
		{name: "not a number", path: "/api/rooms/two/select", wantErr: "invalid room index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			code, resp := f.do(t, http.MethodPost, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, resp.Error, tt.wantErr)
			assert.Equal(t, 0, resp.View.Current)
		})
	}
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.responder.SetErr(errors.New("connection refused"))

	code, resp := f.do(t, http.MethodPost, "/api/messages", `{"content":"`+cruise+`"}`)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, resp.Error, "responder failure")
	assert.Len(t, resp.View.Turns, 2)
	assert.Equal(t, triage.GenerationPending, resp.View.State)

	// Reselecting the room retries the pending generation.
	f.responder.SetErr(nil)
	code, resp = f.do(t, http.MethodPost, "/api/rooms/0/select", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.View.Turns, 3)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/api/messages", `{"content":"`+cruise+`"}`)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotNil(t, snap.Classify)
	require.NotNil(t, snap.Turn)
	assert.Equal(t, int64(1), snap.Classify.Count)
	assert.Equal(t, int64(1), snap.Turn.Count)
}

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) api.Frame {
	t.Helper()
	var frame api.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketSubmit(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(api.Command{ID: "1", Type: api.CommandSubmit, Content: cruise}))

	pending := readFrame(t, conn)
	assert.Equal(t, "1", pending.ID)
	assert.False(t, pending.Final)
	require.NotNil(t, pending.View)
	assert.Equal(t, triage.GenerationPending, pending.View.State)

	final := readFrame(t, conn)
	assert.Equal(t, "1", final.ID)
	assert.True(t, final.Final)
	assert.Equal(t, api.FrameView, final.Type)
	require.NotNil(t, final.View)
	assert.Len(t, final.View.Turns, 3)
}

func TestWebSocketBlankSubmitSendsOnlyFinal(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(api.Command{ID: "1", Type: api.CommandSubmit, Content: "   "}))

	frame := readFrame(t, conn)
	assert.True(t, frame.Final)
	require.NotNil(t, frame.View)
	assert.Len(t, frame.View.Turns, 1)
	assert.Empty(t, f.classifier.Inputs())
}

func TestWebSocketErrors(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(api.Command{ID: "a", Type: api.CommandSelect, Index: 3}))
	frame := readFrame(t, conn)
	assert.True(t, frame.Final)
	assert.Equal(t, api.FrameError, frame.Type)
	assert.Contains(t, frame.Error, "out of range")

	require.NoError(t, conn.WriteJSON(api.Command{ID: "b", Type: "bogus"}))
	frame = readFrame(t, conn)
	assert.Equal(t, "b", frame.ID)
	assert.Equal(t, api.FrameError, frame.Type)
	assert.Contains(t, frame.Error, "unknown command")

	// The connection stays usable after errors.
	require.NoError(t, conn.WriteJSON(api.Command{ID: "c", Type: api.CommandNewRoom}))
	frame = readFrame(t, conn)
	assert.Equal(t, api.FrameView, frame.Type)
	require.NotNil(t, frame.View)
	assert.Equal(t, 1, frame.View.Current)
}
