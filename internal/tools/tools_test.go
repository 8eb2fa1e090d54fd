package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/raphaelgruber/scamdetect/internal/tools"
	"github.com/raphaelgruber/scamdetect/internal/triage"
	"github.com/raphaelgruber/scamdetect/internal/triage/triagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cruise = "You won a free cruise, click here!"

type fixture struct {
	classifier *triagetest.Classifier
	responder  *triagetest.Responder
	session    *mcp.ClientSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		classifier: &triagetest.Classifier{Result: triagetest.ScamVerdict},
		responder:  &triagetest.Responder{Reply: "This is a prize scam."},
	}
	sess := triagetest.NewSession(f.classifier, f.responder)

	server := mcp.NewServer(&mcp.Implementation{Name: "test-scamdetect", Version: "0.0.1-test"}, nil)
	tools.RegisterAll(server, &tools.Dependencies{
		Session: triage.NewShared(sess),
		Metrics: sess.Controller().Metrics(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client should connect successfully")
	t.Cleanup(func() { _ = session.Close() })

	f.session = session
	return f
}

// call invokes a tool and returns its text content and error flag.
func (f *fixture) call(t *testing.T, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := f.session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, result.IsError
}

func (f *fixture) callView(t *testing.T, name string, args map[string]any) tools.ViewResult {
	t.Helper()
	text, isErr := f.call(t, name, args)
	require.False(t, isErr, text)
	var view tools.ViewResult
	require.NoError(t, json.Unmarshal([]byte(text), &view))
	return view
}

func TestToolsRegistered(t *testing.T) {
	f := newFixture(t)

	result, err := f.session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{
		"classify_text", "submit_message", "new_room", "select_room",
		"clear_room", "list_rooms", "get_stats",
	}, names)
}

func TestClassifyText(t *testing.T) {
	f := newFixture(t)

	text, isErr := f.call(t, "classify_text", map[string]any{"text": cruise})
	require.False(t, isErr, text)

	var result tools.ClassifyResult
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, "scam", result.Label)
	assert.InDelta(t, 0.97, result.Likelihood, 1e-9)
	assert.Equal(t, "| scam | 97.0% |", result.Table)

	// No room was touched.
	view := f.callView(t, "select_room", map[string]any{"index": 0})
	assert.Len(t, view.Turns, 1)
}

func TestClassifyTextValidation(t *testing.T) {
	f := newFixture(t)

	text, isErr := f.call(t, "classify_text", map[string]any{"text": "  "})
	assert.True(t, isErr)
	assert.Contains(t, text, "Text is required")

	f.classifier.SetErr(errors.New("503 model loading"))
	text, isErr = f.call(t, "classify_text", map[string]any{"text": cruise})
	assert.True(t, isErr)
	assert.Contains(t, text, "classifier failure")
}

func TestSubmitMessage(t *testing.T) {
	f := newFixture(t)

	view := f.callView(t, "submit_message", map[string]any{"content": cruise})
	assert.Equal(t, triage.AwaitingUser, view.State)
	assert.Len(t, view.Turns, 3)
	assert.Equal(t, "This is a prize scam.", view.Reply)

	text, isErr := f.call(t, "submit_message", map[string]any{"content": ""})
	assert.True(t, isErr)
	assert.Contains(t, text, "Content is required")
}

func TestRoomTools(t *testing.T) {
	f := newFixture(t)

	f.callView(t, "submit_message", map[string]any{"content": cruise})

	view := f.callView(t, "new_room", nil)
	assert.Equal(t, 1, view.Current)
	assert.Len(t, view.Turns, 1)
	assert.Equal(t, "Please input your suspicious text.", view.Reply)

	text, isErr := f.call(t, "list_rooms", nil)
	require.False(t, isErr)
	assert.Equal(t, "0: Room 1, 3 turns\n1: Room 2, 1 turns (current)", text)

	view = f.callView(t, "select_room", map[string]any{"index": 0})
	assert.Equal(t, 0, view.Current)
	assert.Len(t, view.Turns, 3)

	view = f.callView(t, "clear_room", nil)
	assert.Len(t, view.Turns, 1)

	text, isErr = f.call(t, "select_room", map[string]any{"index": 5})
	assert.True(t, isErr)
	assert.Contains(t, text, "Room index out of range")
	assert.Contains(t, text, "There are 2 rooms")
}

func TestSubmitFailureHintsRetry(t *testing.T) {
	f := newFixture(t)
	f.responder.SetErr(errors.New("connection refused"))

	text, isErr := f.call(t, "submit_message", map[string]any{"content": cruise})
	assert.True(t, isErr)
	assert.Contains(t, text, "responder failure")
	assert.Contains(t, text, "call select_room with index 0 to retry")

	f.responder.SetErr(nil)
	view := f.callView(t, "select_room", map[string]any{"index": 0})
	assert.Equal(t, "This is a prize scam.", view.Reply)
}

func TestGetStats(t *testing.T) {
	f := newFixture(t)
	f.callView(t, "submit_message", map[string]any{"content": cruise})

	text, isErr := f.call(t, "get_stats", nil)
	require.False(t, isErr)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text), &snap))
	require.NotNil(t, snap.Turn)
	assert.Equal(t, int64(1), snap.Turn.Count)
}
