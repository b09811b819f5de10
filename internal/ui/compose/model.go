package compose

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailterm/internal/model"
	"github.com/nhle/mailterm/internal/sender"
	"github.com/nhle/mailterm/internal/theme"
)

// SendRequestMsg is dispatched when the user submits the compose form.
type SendRequestMsg struct {
	Message model.EmailMessage
}

// ComposeCancelMsg is dispatched when the user cancels the form.
type ComposeCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to          string
	subject     string
	body        string
	attachments string
}

// Model is the Bubble Tea model for the compose/reply form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	replyMode bool
	width     int
	height    int
}

// New creates a new compose form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCompose initializes the form for a fresh message.
func (m *Model) StartCompose() tea.Cmd {
	m.replyMode = false
	m.fb.to = ""
	m.fb.subject = ""
	m.fb.body = ""
	m.fb.attachments = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// StartReply initializes the form as a reply to original: the recipient is
// the original sender and the subject gains a single "Re: " prefix.
func (m *Model) StartReply(original model.EmailMessage) tea.Cmd {
	m.replyMode = true
	m.fb.to = bareAddress(original.From)
	m.fb.subject = replySubject(original.Subject)
	m.fb.body = ""
	m.fb.attachments = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return ComposeCancelMsg{} }
	}

	return m, cmd
}

// View renders the compose form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Message"
	if m.replyMode {
		titleText = "Reply"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("To").
				Description("Separate multiple recipients with , or ;").
				Placeholder("alice@example.com, bob@example.com").
				Value(&m.fb.to).
				Validate(validateRecipients),
			huh.NewInput().
				Title("Subject").
				Value(&m.fb.subject),
			huh.NewText().
				Title("Body").
				Value(&m.fb.body),
			huh.NewInput().
				Title("Attachments").
				Description("Local file paths, separated by , or ; (optional)").
				Value(&m.fb.attachments).
				Validate(validateAttachments),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	body := m.fb.body
	msg := model.EmailMessage{
		To:          sender.SplitRecipients(m.fb.to),
		Subject:     m.fb.subject,
		Body:        &body,
		Attachments: sender.SplitRecipients(m.fb.attachments),
	}

	return func() tea.Msg { return SendRequestMsg{Message: msg} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// bareAddress extracts the address from a "Display Name <addr>" sender.
func bareAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return strings.TrimSpace(from)
}

// replySubject prefixes the subject with "Re: " unless it already has one.
func replySubject(subject string) string {
	if strings.HasPrefix(subject, "Re: ") {
		return subject
	}
	return "Re: " + subject
}

func validateRecipients(s string) error {
	if len(sender.SplitRecipients(s)) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	return nil
}

func validateAttachments(s string) error {
	for _, path := range sender.SplitRecipients(s) {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("attachment not found: %s", path)
		}
	}
	return nil
}
