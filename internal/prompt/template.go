package prompt

import (
	"fmt"

	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/classifier"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// History prefixes used when flattening a room into text.
const (
	UserPrefix      = "User"
	AssistantPrefix = "Assistant"
)

const layout = `{{.persona}}

Analyze the provided text based on the label and the likelihood, and present your analysis in the following format:

| Label | Possibility |
|---|---|
| {{.label}} | {{.likelihood}} |

Explanation

{{.closing}}
{{.chat_history}}

User: {{.input}}
Assistant:`

// Template renders Responder prompts for one profile.
type Template struct {
	profile Profile
	tmpl    prompts.PromptTemplate
}

// NewTemplate creates a template for profile.
func NewTemplate(profile Profile) *Template {
	return &Template{
		profile: profile,
		tmpl: prompts.NewPromptTemplate(layout, []string{
			"persona", "label", "likelihood", "closing", "chat_history", "input",
		}),
	}
}

// Profile returns the profile the template renders with.
func (t *Template) Profile() Profile {
	return t.profile
}

// Render builds the prompt from the verdict, the room history and the
// newest user input.
func (t *Template) Render(verdict classifier.Result, history []llms.ChatMessage, input string) (string, error) {
	buffer, err := llms.GetBufferString(history, UserPrefix, AssistantPrefix)
	if err != nil {
		return "", fmt.Errorf("format history: %w", err)
	}

	out, err := t.tmpl.Format(map[string]any{
		"persona":      t.profile.Persona,
		"label":        verdict.Label,
		"likelihood":   verdict.Percent(),
		"closing":      t.profile.Closing,
		"chat_history": buffer,
		"input":        input,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out, nil
}

// History maps turns to role-tagged chat messages in conversation order.
func History(turns []chat.Turn) []llms.ChatMessage {
	out := make([]llms.ChatMessage, 0, len(turns))
	for _, t := range turns {
		if t.Role == chat.RoleAssistant {
			out = append(out, llms.AIChatMessage{Content: t.Content})
		} else {
			out = append(out, llms.HumanChatMessage{Content: t.Content})
		}
	}
	return out
}

// TableRow is the verdict row the prompt asks the model to reproduce.
func TableRow(verdict classifier.Result) string {
	return fmt.Sprintf("| %s | %s |", verdict.Label, verdict.Percent())
}
