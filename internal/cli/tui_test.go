package cli

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/scamdetect/internal/triage"
	"github.com/raphaelgruber/scamdetect/internal/triage/triagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(m chatModel, key string) (chatModel, tea.Cmd) {
	var k tea.Key
	switch key {
	case "enter":
		k = tea.Key{Code: tea.KeyEnter}
	case "tab":
		k = tea.Key{Code: tea.KeyTab}
	case "shift+tab":
		k = tea.Key{Code: tea.KeyTab, Mod: tea.ModShift}
	case "ctrl+n":
		k = tea.Key{Code: 'n', Mod: tea.ModCtrl}
	case "ctrl+l":
		k = tea.Key{Code: 'l', Mod: tea.ModCtrl}
	case "ctrl+r":
		k = tea.Key{Code: 'r', Mod: tea.ModCtrl}
	}
	next, cmd := m.Update(tea.KeyPressMsg(k))
	return next.(chatModel), cmd
}

func submit(t *testing.T, m chatModel, text string) chatModel {
	t.Helper()
	m.input.SetValue(text)
	m, _ = press(m, "enter")
	return m
}

// complete runs the in-flight generation the way the program would.
func complete(t *testing.T, m chatModel) chatModel {
	t.Helper()
	require.True(t, m.generating)
	p, ok := m.session.Prepare()
	require.True(t, ok)
	next, _ := m.Update(m.generate(p)())
	return next.(chatModel)
}

func TestChatModelSubmit(t *testing.T) {
	c := &triagetest.Classifier{Result: triagetest.ScamVerdict}
	sess := triagetest.NewSession(c, &triagetest.Responder{})
	m := newChatModel(context.Background(), sess)

	m = submit(t, m, cruise)
	assert.True(t, m.generating)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.renderContent(), "Thinking...")
	assert.Equal(t, triage.GenerationPending, m.view.State)

	m = complete(t, m)
	assert.False(t, m.generating)
	require.Len(t, m.view.Turns, 3)
	assert.Equal(t, "reply 1", m.view.Turns[2].Content)
	assert.NotContains(t, m.renderContent(), "Thinking...")
}

func TestChatModelBlankEnter(t *testing.T) {
	c := &triagetest.Classifier{Result: triagetest.ScamVerdict}
	sess := triagetest.NewSession(c, &triagetest.Responder{})
	m := newChatModel(context.Background(), sess)

	m = submit(t, m, "  ")
	assert.False(t, m.generating)
	assert.Len(t, m.view.Turns, 1)
	assert.Empty(t, c.Inputs())
}

func TestChatModelRooms(t *testing.T) {
	c := &triagetest.Classifier{Result: triagetest.ScamVerdict}
	sess := triagetest.NewSession(c, &triagetest.Responder{})
	m := newChatModel(context.Background(), sess)

	m = complete(t, submit(t, m, cruise))

	m, _ = press(m, "ctrl+n")
	assert.Equal(t, 1, m.view.Current)
	assert.Len(t, m.view.Turns, 1)
	assert.Contains(t, m.renderRooms(), "📌 Room 2")

	m, _ = press(m, "tab")
	assert.Equal(t, 0, m.view.Current)
	assert.Len(t, m.view.Turns, 3)

	m, _ = press(m, "shift+tab")
	assert.Equal(t, 1, m.view.Current)

	m, _ = press(m, "shift+tab")
	m, _ = press(m, "ctrl+l")
	assert.Equal(t, 0, m.view.Current)
	assert.Len(t, m.view.Turns, 1)
	assert.False(t, m.generating)
}

func TestChatModelFailureAndRetry(t *testing.T) {
	c := &triagetest.Classifier{Result: triagetest.ScamVerdict}
	r := &triagetest.Responder{Err: errors.New("connection refused")}
	sess := triagetest.NewSession(c, r)
	m := newChatModel(context.Background(), sess)

	m = complete(t, submit(t, m, cruise))
	assert.False(t, m.generating)
	require.Error(t, m.err)
	assert.Contains(t, m.renderContent(), "Ctrl+R to retry")
	assert.Equal(t, triage.GenerationPending, m.view.State)

	r.SetErr(nil)
	m, _ = press(m, "ctrl+r")
	require.True(t, m.generating)
	assert.NoError(t, m.err)

	m = complete(t, m)
	assert.Len(t, m.view.Turns, 3)
	assert.Equal(t, triage.AwaitingUser, m.view.State)
}

func TestChatModelSwitchDuringGeneration(t *testing.T) {
	c := &triagetest.Classifier{Result: triagetest.ScamVerdict}
	sess := triagetest.NewSession(c, &triagetest.Responder{})
	m := newChatModel(context.Background(), sess)

	m = submit(t, m, cruise)
	p, ok := sess.Prepare()
	require.True(t, ok)
	inflight := m.generate(p)

	// Switching rooms while the reply is being generated.
	m, _ = press(m, "ctrl+n")
	assert.True(t, m.generating)
	assert.Equal(t, 1, m.view.Current)

	next, _ := m.Update(inflight())
	m = next.(chatModel)
	assert.False(t, m.generating)

	room, err := sess.Store().Room(0)
	require.NoError(t, err)
	assert.Equal(t, 3, room.Len())
	assert.Equal(t, 1, m.view.Current)
}
