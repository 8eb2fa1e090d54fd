package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/classifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestLoadProfileDefaults(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)
	assert.Equal(t, chat.DefaultGreeting, p.Greeting)
}

func TestLoadProfileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("greeting: Paste the text you received.\n"), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Paste the text you received.", p.Greeting)
	assert.Equal(t, DefaultPersona, p.Persona, "missing fields keep defaults")
	assert.Equal(t, DefaultClosing, p.Closing)
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("greeting: [unterminated\n"), 0o600))
	_, err = LoadProfile(path)
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	turns := []chat.Turn{
		{Role: chat.RoleAssistant, Content: "greeting"},
		{Role: chat.RoleUser, Content: "cruise"},
		{Role: chat.RoleAssistant, Content: "scam"},
	}

	got := History(turns)
	require.Len(t, got, 3)
	assert.Equal(t, llms.ChatMessageTypeAI, got[0].GetType())
	assert.Equal(t, llms.ChatMessageTypeHuman, got[1].GetType())
	assert.Equal(t, "cruise", got[1].GetContent())
	assert.Equal(t, llms.ChatMessageTypeAI, got[2].GetType())
}

func TestRender(t *testing.T) {
	tmpl := NewTemplate(DefaultProfile())
	turns := []chat.Turn{
		{Role: chat.RoleAssistant, Content: chat.DefaultGreeting},
		{Role: chat.RoleUser, Content: "You won a free cruise, click here!"},
	}
	verdict := classifier.Result{Label: "scam", Likelihood: 0.97}

	out, err := tmpl.Render(verdict, History(turns), "You won a free cruise, click here!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, DefaultPersona))
	assert.Contains(t, out, "| Label | Possibility |")
	assert.Contains(t, out, "| scam | 97.0% |")
	assert.Contains(t, out, "Explanation")
	assert.Contains(t, out, DefaultClosing)
	assert.Contains(t, out, "Assistant: "+chat.DefaultGreeting)
	assert.Contains(t, out, "User: You won a free cruise, click here!")
	assert.True(t, strings.HasSuffix(out, "Assistant:"))
}

func TestRenderIsDeterministic(t *testing.T) {
	tmpl := NewTemplate(DefaultProfile())
	history := History([]chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	verdict := classifier.Result{Label: "safe", Likelihood: 0.6}

	a, err := tmpl.Render(verdict, history, "why?")
	require.NoError(t, err)
	b, err := tmpl.Render(verdict, history, "why?")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTableRow(t *testing.T) {
	assert.Equal(t, "| scam | 97.0% |", TableRow(classifier.Result{Label: "scam", Likelihood: 0.97}))
}
