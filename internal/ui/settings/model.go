package settings

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/mailterm/internal/credential"
	"github.com/nhle/mailterm/internal/model"
	"github.com/nhle/mailterm/internal/theme"
)

// SavedMsg is dispatched when the host form is submitted. Config carries the
// password in memory; it is persisted to the keyring, never to disk.
type SavedMsg struct {
	Config model.HostConfiguration
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	protocol    string
	receiveHost string
	receivePort string
	sendHost    string
	sendPort    string
	username    string
	password    string
}

// Model is the Bubble Tea model for the host configuration form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	editID string
	width  int
	height int

	statusMsg string
}

// New creates a new settings form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form, pre-filled from existing when editing.
// Passwords are never pre-filled.
func (m *Model) Start(existing *model.HostConfiguration) tea.Cmd {
	def := model.DefaultHostConfiguration()
	src := def
	m.editID = ""
	if existing != nil {
		src = *existing
		m.editID = existing.ID
	}

	m.fb.protocol = src.ReceiveProtocol
	m.fb.receiveHost = src.ReceiveHost
	m.fb.receivePort = strconv.Itoa(src.ReceivePort)
	m.fb.sendHost = src.SendHost
	m.fb.sendPort = strconv.Itoa(src.SendPort)
	m.fb.username = src.Username
	m.fb.password = ""
	m.statusMsg = ""

	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the settings form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Account Settings") + "\n" + m.form.View()

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		content += "\n" + statusStyle.Render(m.statusMsg)
	}

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
			huh.NewSelect[string]().
				Title("Receive Protocol").
				Options(
					huh.NewOption("IMAP", model.ProtocolIMAP),
					huh.NewOption("POP3", model.ProtocolPOP3),
				).
				Value(&m.fb.protocol),
			huh.NewInput().
				Title("Receive Host").
				Placeholder("imap.example.com").
				Value(&m.fb.receiveHost).
				Validate(validateRequired("Receive host")),
			huh.NewInput().
				Title("Receive Port").
				Placeholder("993").
				Value(&m.fb.receivePort).
				Validate(validatePort),
			huh.NewInput().
				Title("SMTP Host").
				Placeholder("smtp.example.com").
				Value(&m.fb.sendHost).
				Validate(validateRequired("SMTP host")),
			huh.NewInput().
				Title("SMTP Port").
				Placeholder("465").
				Value(&m.fb.sendPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("user@example.com").
				Value(&m.fb.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() (Model, tea.Cmd) {
	receivePort, _ := strconv.Atoi(m.fb.receivePort)
	sendPort, _ := strconv.Atoi(m.fb.sendPort)

	cfg := model.HostConfiguration{
		ID:              m.editID,
		ReceiveProtocol: m.fb.protocol,
		ReceiveHost:     strings.TrimSpace(m.fb.receiveHost),
		ReceivePort:     receivePort,
		SendHost:        strings.TrimSpace(m.fb.sendHost),
		SendPort:        sendPort,
		Username:        strings.TrimSpace(m.fb.username),
		Password:        m.fb.password,
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}

	if err := cfg.Validate(); err != nil {
		m.statusMsg = fmt.Sprintf("Invalid configuration: %v", err)
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	if err := credential.SetHostPassword(cfg.ID, cfg.Password); err != nil {
		m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	return m, func() tea.Msg { return SavedMsg{Config: cfg} }
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
