package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

const (
	appTitle   = "ScamDetect"
	appCaption = "Paste a suspicious message to find out whether it is a scam."

	sidebarWidth = 18
)

// Theme holds the color scheme for the chat UI.
type Theme struct {
	Title     lipgloss.Color
	User      lipgloss.Color
	Assistant lipgloss.Color
	Status    lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
	Border    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Title:     lipgloss.Color("#FF875F"), // orange
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Status:    lipgloss.Color("#5FAFD7"), // light blue
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
	Border:    lipgloss.Color("#3A3A3A"), // dark gray
}

// Style functions for dynamic theming
func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) speakerStyle(role chat.Role) lipgloss.Style {
	if role == chat.RoleUser {
		return lipgloss.NewStyle().Foreground(t.User).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) sidebarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(t.Border).
		PaddingRight(1)
}

// generatedMsg carries the outcome of an off-loop generation.
type generatedMsg struct {
	pending triage.Pending
	turn    chat.Turn
	err     error
}

// chatModel is the bubbletea model for the chat UI. The session is only
// touched from Update; generation runs in a command on a snapshot.
type chatModel struct {
	ctx     context.Context
	session *triage.Session
	input   textinput.Model
	spinner spinner.Model
	theme   Theme

	view       triage.View
	generating bool
	err        error
	width      int
}

func newChatModel(ctx context.Context, sess *triage.Session) chatModel {
	input := textinput.New()
	input.Placeholder = "Your message"
	input.Prompt = "> "
	input.Focus()

	return chatModel{
		ctx:     ctx,
		session: sess,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:   defaultTheme,
		view:    sess.View(),
	}
}

// Init starts the cursor blink.
func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(max(msg.Width-sidebarWidth-6, 10))
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "enter":
			if m.generating {
				return m, nil
			}
			text := m.input.Value()
			m.input.Reset()
			m.session.AppendUser(text)
			return m.trigger()

		case "ctrl+n":
			m.session.Store().Create()
			return m.trigger()

		case "ctrl+l":
			m.session.Store().ClearCurrent()
			return m.trigger()

		case "ctrl+r":
			return m.trigger()

		case "tab", "shift+tab":
			store := m.session.Store()
			step := 1
			if msg.String() == "shift+tab" {
				step = store.Len() - 1
			}
			if err := store.Select((store.CurrentIndex() + step) % store.Len()); err != nil {
				m.err = err
				return m, nil
			}
			return m.trigger()
		}

	case generatedMsg:
		return m.finish(msg)

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// trigger refreshes the view and starts generation if the current room is
// waiting for a reply. Only one generation runs at a time; rooms switched
// to meanwhile are picked up when it finishes.
func (m chatModel) trigger() (tea.Model, tea.Cmd) {
	m.err = nil
	m.view = m.session.View()
	if m.generating {
		return m, nil
	}

	p, ok := m.session.Prepare()
	if !ok {
		return m, nil
	}
	m.generating = true
	m.view = m.session.View()
	return m, tea.Batch(m.spinner.Tick, m.generate(p))
}

// generate runs the pipeline without touching session state.
func (m chatModel) generate(p triage.Pending) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.session.Generate(m.ctx, p)
		return generatedMsg{pending: p, turn: turn, err: err}
	}
}

func (m chatModel) finish(msg generatedMsg) (tea.Model, tea.Cmd) {
	m.generating = false

	if msg.err != nil {
		m.view = m.session.View()
		m.err = msg.err
		// A failed room stays pending until the user triggers it again
		if msg.pending.RoomIndex == m.session.Store().CurrentIndex() {
			return m, nil
		}
		return m.trigger()
	}

	if err := m.session.Commit(msg.pending, msg.turn); err != nil && !errors.Is(err, triage.ErrStaleGeneration) {
		m.view = m.session.View()
		m.err = err
		return m, nil
	}
	return m.trigger()
}

// View renders the chat UI.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	header := m.theme.titleStyle().Render(appTitle) + "\n" +
		m.theme.hintStyle().Render(appCaption) + "\n"

	sidebar := m.theme.sidebarStyle().Render(m.renderRooms())
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", m.renderTranscript())

	var status string
	switch {
	case m.generating:
		status = m.spinner.View() + m.theme.statusStyle().Render("Thinking...")
	case m.err != nil:
		status = m.theme.errorStyle().Render("✗ " + m.err.Error())
		if m.view.State == triage.GenerationPending {
			status += "\n" + m.theme.hintStyle().Render("Press Ctrl+R to retry or Ctrl+L to clear the room.")
		}
	}

	hint := m.theme.hintStyle().Render("Enter send • Ctrl+N new room • Ctrl+L clear • Tab switch room • Ctrl+C quit")

	return strings.Join([]string{header, body, status, m.input.View(), hint}, "\n") + "\n"
}

func (m chatModel) renderRooms() string {
	var b strings.Builder
	for _, room := range m.view.Rooms {
		if room.Current {
			fmt.Fprintf(&b, "📌 %s\n", room.Title)
		} else {
			fmt.Fprintf(&b, "   %s\n", room.Title)
		}
	}
	return b.String()
}

func (m chatModel) renderTranscript() string {
	width := 60
	if m.width > 0 {
		width = max(m.width-sidebarWidth-4, 20)
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, t := range m.view.Turns {
		speaker := "You"
		if t.Role == chat.RoleAssistant {
			speaker = appTitle
		}
		b.WriteString(m.theme.speakerStyle(t.Role).Render(speaker) + "\n")
		b.WriteString(wrap.Render(t.Content) + "\n\n")
	}
	return b.String()
}

// runTUI runs the interactive chat until the user quits.
func runTUI(ctx context.Context, sess *triage.Session) error {
	p := tea.NewProgram(newChatModel(ctx, sess), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
