package reader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailterm/internal/keys"
	"github.com/nhle/mailterm/internal/model"
	"github.com/nhle/mailterm/internal/theme"
)

// BackMsg signals the parent to navigate back to the mailbox view.
type BackMsg struct{}

// ReplyMsg signals the parent to open the compose form pre-filled as a reply
// to the shown message.
type ReplyMsg struct {
	Message model.EmailMessage
}

// DeleteRequestMsg signals the parent to delete the shown message.
type DeleteRequestMsg struct {
	Message model.EmailMessage
}

// Model is the message reading pane.
type Model struct {
	message  *model.EmailMessage
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new reader model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the reader view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the reader view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(keyMsg, m.keys.Reply):
			if m.message != nil {
				em := *m.message
				return m, func() tea.Msg {
					return ReplyMsg{Message: em}
				}
			}

		case key.Matches(keyMsg, m.keys.Delete):
			if m.message != nil {
				em := *m.message
				return m, func() tea.Msg {
					return DeleteRequestMsg{Message: em}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the reader view.
func (m Model) View() string {
	if m.message == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full message content string for the viewport.
func (m Model) renderContent() string {
	if m.message == nil {
		return ""
	}

	msg := m.message
	var sections []string

	subjectStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, subjectStyle.Render(msg.Subject))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("From:"),
		valStyle.Render(msg.From),
	))
	if len(msg.To) > 0 {
		sections = append(sections, fmt.Sprintf(
			"%s    %s",
			metaStyle.Render("To:"),
			valStyle.Render(strings.Join(msg.To, ", ")),
		))
	}
	if msg.SentDate != nil {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Date:"),
			theme.DateStyle.Render(msg.SentDate.Format("2006-01-02 15:04")),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	if m.loading {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Loading message body..."))
	} else if msg.HasBody() {
		body := *msg.Body
		if body == "" {
			body = lipgloss.NewStyle().
				Foreground(theme.ColorGray).
				Italic(true).
				Render("(empty message)")
		}
		sections = append(sections, body)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetMessage updates the message being displayed and re-renders the content.
// loading marks the body as still being fetched.
func (m *Model) SetMessage(msg *model.EmailMessage, loading bool) {
	m.message = msg
	m.loading = loading
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetBody fills in a lazily fetched body without resetting scroll position
// metadata beyond a re-render.
func (m *Model) SetBody(body string) {
	if m.message == nil {
		return
	}
	m.message.Body = &body
	m.loading = false
	m.viewport.SetContent(m.renderContent())
}

// Message returns the message currently shown, or nil.
func (m Model) Message() *model.EmailMessage {
	return m.message
}

// SetSize updates the reader view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
