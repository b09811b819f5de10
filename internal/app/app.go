package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/mailterm/internal/credential"
	"github.com/nhle/mailterm/internal/fetch"
	"github.com/nhle/mailterm/internal/keys"
	"github.com/nhle/mailterm/internal/mailstore"
	"github.com/nhle/mailterm/internal/model"
	"github.com/nhle/mailterm/internal/sender"
	"github.com/nhle/mailterm/internal/ui"
	"github.com/nhle/mailterm/internal/ui/compose"
	"github.com/nhle/mailterm/internal/ui/mailbox"
	"github.com/nhle/mailterm/internal/ui/reader"
	"github.com/nhle/mailterm/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewMailbox ViewState = iota
	ViewReader
	ViewCompose
	ViewSettings
	ViewHelp
)

// messageSentMsg carries the outcome of an SMTP submission.
type messageSentMsg struct {
	err error
}

// firstRunMsg bootstraps the settings form when no account is configured.
// Init cannot mutate the model, so the form is built in Update.
type firstRunMsg struct{}

// pendingDelete remembers a message removed from view while the server-side
// delete is in flight, so a failure can restore it at its original position.
type pendingDelete struct {
	message model.EmailMessage
	index   int
}

// Model is the root Bubble Tea model that manages view routing, layout, and
// the canonical message list of the current folder.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	coord        *fetch.Coordinator
	log          zerolog.Logger

	cfg     *model.AppConfig
	cfgPath string

	mailboxView  mailbox.Model
	readerView   reader.Model
	composeView  compose.Model
	settingsView settings.Model

	// messages is the canonical list shown in the mailbox. The view models
	// hold copies for rendering only.
	messages []model.EmailMessage
	folder   string

	// liveLoaded flips once the live result of the newest folder load has
	// landed; later cache reads for that load are then ignored.
	liveLoaded bool

	// openID is the Message-ID shown in the reader; a lazily fetched body is
	// applied there only while the selection is unchanged.
	openID string

	pendingDeletes map[string]pendingDelete

	statusMsg string
	ready     bool
}

// New creates the root application model.
func New(cfg *model.AppConfig, cfgPath string, coord *fetch.Coordinator, log zerolog.Logger) Model {
	k := keys.DefaultKeyMap()

	// Resolve the active host's password from the keyring up front so every
	// request carries complete credentials.
	if host := cfg.CurrentHost(); host != nil {
		if pw, err := credential.HostPassword(host.ID); err == nil {
			host.Password = pw
		} else {
			log.Warn().Err(err).Str("host", host.ID).Msg("no stored credential for host")
		}
	}

	view := ViewMailbox
	if cfg.CurrentHost() == nil {
		// First run: nothing to show until an account exists.
		view = ViewSettings
	}

	return Model{
		currentView:    view,
		keys:           k,
		coord:          coord,
		log:            log,
		cfg:            cfg,
		cfgPath:        cfgPath,
		mailboxView:    mailbox.New(k, 80, 24),
		readerView:     reader.New(k, 80, 24),
		composeView:    compose.New(80, 24),
		settingsView:   settings.New(80, 24),
		folder:         "INBOX",
		pendingDeletes: make(map[string]pendingDelete),
	}
}

// Init lists folders and loads the inbox, or opens settings on first run.
func (m Model) Init() tea.Cmd {
	host, ok := m.hostConfig()
	if !ok {
		return func() tea.Msg { return firstRunMsg{} }
	}

	loadCmd := m.startFolderLoad(m.folder)
	return tea.Batch(m.coord.ListFolders(host), loadCmd)
}

// hostConfig returns a copy of the active host configuration.
func (m Model) hostConfig() (model.HostConfiguration, bool) {
	host := m.cfg.CurrentHost()
	if host == nil {
		return model.HostConfiguration{}, false
	}
	return *host, true
}

// startFolderLoad issues a new load for folder. The shown list is dropped
// right away; with caching on, the snapshot backfills the view until the
// live result lands, and the live result always refreshes the snapshot.
// Folder switches and refreshes take the same path.
func (m *Model) startFolderLoad(folder string) tea.Cmd {
	host, ok := m.hostConfig()
	if !ok {
		return nil
	}

	useCache := m.cfg.Display.CacheEnabled
	_, cmd := m.coord.LoadFolder(folder, host, m.cfg.Display.FetchLimit, useCache)

	m.folder = folder
	m.liveLoaded = false
	m.messages = nil
	m.mailboxView.SetMessages(nil)
	m.mailboxView.SetLoading(true)

	return cmd
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.mailboxView.SetSize(contentWidth, contentHeight, m.layout.SidebarWidth())
		m.readerView.SetSize(contentWidth, contentHeight)
		m.composeView.SetSize(contentWidth, contentHeight)
		m.settingsView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case firstRunMsg:
		m.currentView = ViewSettings
		return m, m.settingsView.Start(nil)

	case fetch.FoldersListedMsg:
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Msg("listing folders failed")
			return m, nil
		}
		m.mailboxView.SetFolders(msg.Folders)
		return m, nil

	case fetch.CacheServedMsg:
		// The cached snapshot backfills the view only while this request is
		// still current and the live result has not landed yet.
		if !m.coord.Current(msg.Token) || m.liveLoaded {
			return m, nil
		}
		m.messages = msg.Messages
		m.mailboxView.SetMessages(m.messages)
		return m, nil

	case fetch.FolderLoadedMsg:
		m.coord.Settle(msg.Token)
		if !m.coord.Current(msg.Token) {
			return m, nil
		}
		m.messages = msg.Messages
		m.liveLoaded = true
		m.statusMsg = ""
		m.mailboxView.SetLoading(false)
		m.mailboxView.SetMessages(m.messages)
		return m, nil

	case fetch.LoadFailedMsg:
		m.coord.Settle(msg.Token)
		if !m.coord.Current(msg.Token) {
			return m, nil
		}
		m.mailboxView.SetLoading(false)
		m.statusMsg = errorText(msg.Err)
		return m, nil

	case fetch.BodyLoadedMsg:
		return m.handleBodyLoaded(msg)

	case fetch.MessageDeletedMsg:
		return m.handleMessageDeleted(msg)

	case mailbox.SelectedMessageMsg:
		return m.openMessage(msg.Index)

	case mailbox.FolderChangedMsg:
		cmd := m.startFolderLoad(msg.Folder)
		return m, cmd

	case reader.BackMsg:
		m.currentView = ViewMailbox
		m.openID = ""
		return m, nil

	case reader.ReplyMsg:
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m, m.composeView.StartReply(msg.Message)

	case reader.DeleteRequestMsg:
		return m.deleteMessage(msg.Message)

	case compose.SendRequestMsg:
		m.currentView = ViewMailbox
		m.statusMsg = "Sending..."
		return m, m.sendMessage(msg.Message)

	case compose.ComposeCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case messageSentMsg:
		if msg.err != nil {
			m.statusMsg = errorText(msg.err)
		} else {
			m.statusMsg = "Message sent"
		}
		return m, nil

	case settings.SavedMsg:
		return m.applySettings(msg.Config)

	case settings.CancelMsg:
		// Without a configured host there is nothing to go back to.
		if _, ok := m.hostConfig(); !ok {
			return m, m.settingsView.Start(nil)
		}
		m.currentView = ViewMailbox
		return m, nil

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work regardless of the focused view.
// Form views keep full key ownership except for ctrl+c.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return true, m, tea.Quit
	}

	// Text inputs own their keys.
	if m.currentView == ViewCompose || m.currentView == ViewSettings {
		return false, m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewMailbox {
			return true, m, tea.Quit
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case key.Matches(msg, m.keys.Refresh):
		// A refresh while one is outstanding is a no-op.
		if m.coord.Busy() {
			return true, m, nil
		}
		cmd := m.startFolderLoad(m.folder)
		return true, m, cmd

	case key.Matches(msg, m.keys.Compose):
		if m.currentView == ViewMailbox || m.currentView == ViewReader {
			m.previousView = m.currentView
			m.currentView = ViewCompose
			return true, m, m.composeView.StartCompose()
		}

	case key.Matches(msg, m.keys.Settings):
		if m.currentView == ViewMailbox {
			m.previousView = m.currentView
			m.currentView = ViewSettings
			return true, m, m.settingsView.Start(m.cfg.CurrentHost())
		}

	case key.Matches(msg, m.keys.ToggleCache):
		if m.currentView == ViewMailbox {
			m.cfg.Display.CacheEnabled = !m.cfg.Display.CacheEnabled
			if err := model.SaveConfig(m.cfgPath, m.cfg); err != nil {
				m.log.Warn().Err(err).Msg("saving config")
			}
			if m.cfg.Display.CacheEnabled {
				m.statusMsg = "Offline cache enabled"
			} else {
				m.statusMsg = "Offline cache disabled"
			}
			return true, m, nil
		}

	case key.Matches(msg, m.keys.Delete):
		if m.currentView == ViewMailbox {
			idx := m.mailboxView.SelectedIndex()
			if idx < 0 || idx >= len(m.messages) {
				return true, m, nil
			}
			mdl, cmd := m.deleteMessage(m.messages[idx])
			return true, mdl, cmd
		}
	}

	return false, m, nil
}

// openMessage switches to the reader for the message at idx, fetching the
// body lazily on first open.
func (m Model) openMessage(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.messages) {
		return m, nil
	}

	m.messages[idx].Read = true
	em := m.messages[idx]

	m.previousView = m.currentView
	m.currentView = ViewReader
	m.openID = em.MessageID
	m.mailboxView.SetMessages(m.messages)

	if em.HasBody() {
		m.readerView.SetMessage(&em, false)
		return m, nil
	}

	host, ok := m.hostConfig()
	if !ok {
		m.readerView.SetMessage(&em, false)
		return m, nil
	}

	cmd, err := m.coord.LoadBody(em, host)
	if err != nil {
		m.readerView.SetMessage(&em, false)
		m.statusMsg = errorText(err)
		return m, nil
	}

	m.readerView.SetMessage(&em, true)
	return m, cmd
}

func (m Model) handleBodyLoaded(msg fetch.BodyLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn().Err(msg.Err).Str("message_id", msg.MessageID).Msg("body fetch failed")
		if m.currentView == ViewReader && m.openID == msg.MessageID {
			m.statusMsg = errorText(msg.Err)
			m.readerView.SetBody("")
		}
		return m, nil
	}

	// Keep the fetched body on the canonical list so reopening is instant.
	if idx := indexByID(m.messages, msg.MessageID); idx >= 0 {
		body := msg.Body
		m.messages[idx].Body = &body
	}

	// Apply to the reader only while the same message is still open.
	if m.currentView == ViewReader && m.openID == msg.MessageID {
		m.readerView.SetBody(msg.Body)
	}
	return m, nil
}

// deleteMessage removes em from view immediately and issues the server-side
// delete. The view is the optimist; handleMessageDeleted is the corrector.
func (m Model) deleteMessage(em model.EmailMessage) (tea.Model, tea.Cmd) {
	host, ok := m.hostConfig()
	if !ok {
		return m, nil
	}

	cmd, err := m.coord.DeleteMessage(em, host)
	if err != nil {
		// Nothing was removed from view; just report.
		m.statusMsg = errorText(err)
		return m, nil
	}

	idx := indexByID(m.messages, em.MessageID)
	if idx >= 0 {
		m.pendingDeletes[em.MessageID] = pendingDelete{message: m.messages[idx], index: idx}
		m.messages = removeAt(m.messages, idx)
		m.mailboxView.SetMessages(m.messages)
	}

	if m.currentView == ViewReader {
		m.currentView = ViewMailbox
		m.openID = ""
	}

	return m, cmd
}

func (m Model) handleMessageDeleted(msg fetch.MessageDeletedMsg) (tea.Model, tea.Cmd) {
	pd, ok := m.pendingDeletes[msg.MessageID]
	if ok {
		delete(m.pendingDeletes, msg.MessageID)
	}

	if msg.Err != nil {
		m.log.Warn().Err(msg.Err).Str("message_id", msg.MessageID).Msg("delete failed")
		// Put the message back where it was.
		if ok && msg.Folder == m.folder {
			m.messages = insertAt(m.messages, pd.index, pd.message)
			m.mailboxView.SetMessages(m.messages)
		}
		m.statusMsg = errorText(msg.Err)
		return m, nil
	}

	m.statusMsg = "Message deleted"
	return m, nil
}

// sendMessage submits an outbound message over SMTP in the background.
func (m Model) sendMessage(em model.EmailMessage) tea.Cmd {
	host, ok := m.hostConfig()
	if !ok {
		return func() tea.Msg {
			return messageSentMsg{err: &mailstore.MissingInfoError{Reason: "no host configured"}}
		}
	}

	em.From = host.Username
	return func() tea.Msg {
		err := sender.Send(context.Background(), em, host)
		return messageSentMsg{err: err}
	}
}

// applySettings persists a submitted host configuration and reconnects.
func (m Model) applySettings(cfg model.HostConfiguration) (tea.Model, tea.Cmd) {
	m.cfg.SetHost(cfg)
	if err := model.SaveConfig(m.cfgPath, m.cfg); err != nil {
		m.log.Error().Err(err).Msg("saving config")
		m.statusMsg = fmt.Sprintf("Error saving settings: %v", err)
	}

	m.currentView = ViewMailbox
	m.statusMsg = ""

	host, _ := m.hostConfig()
	loadCmd := m.startFolderLoad("INBOX")
	return m, tea.Batch(m.coord.ListFolders(host), loadCmd)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewMailbox:
		m.mailboxView, cmd = m.mailboxView.Update(msg)
	case ViewReader:
		m.readerView, cmd = m.readerView.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		// Help is static; any unhandled key returns.
		if _, ok := msg.(tea.KeyMsg); ok {
			m.currentView = m.previousView
		}
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Mailterm", m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewMailbox:
		return m.mailboxView.View()
	case ViewReader:
		return m.readerView.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.renderHelp()
	default:
		return ""
	}
}

// headerStatus returns the right-hand header text: account and fetch state.
func (m Model) headerStatus() string {
	host, ok := m.hostConfig()
	if !ok {
		return "no account"
	}
	if m.coord.Busy() {
		return fmt.Sprintf("%s | fetching...", host.Username)
	}
	return fmt.Sprintf("%s | %s", host.Username, m.folder)
}

// statusLine returns the bottom bar content: a pending error if any,
// otherwise key hints for the active view.
func (m Model) statusLine() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewReader:
		return "esc back | R reply | d delete | j/k scroll"
	case ViewCompose:
		return "enter next field | esc cancel"
	case ViewSettings:
		return "enter next field | esc cancel"
	case ViewHelp:
		return "? close help"
	default:
		return "q quit | ? help | enter open | c compose | d delete | r refresh | tab folder"
	}
}

// renderHelp lists all keybindings grouped the way the keymap groups them.
func (m Model) renderHelp() string {
	var b strings.Builder
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// errorText maps a failure to a short actionable status bar message.
func errorText(err error) string {
	switch {
	case mailstore.IsAuthError(err):
		return "Authentication failed. Check username and password in settings (s)."
	case mailstore.IsConnectionError(err):
		return "Cannot reach the server. Check your network and host settings."
	case mailstore.IsNotFound(err):
		return "Message no longer exists on the server."
	case mailstore.IsMissingInfo(err):
		return "This message cannot be used for that: " + err.Error()
	case mailstore.IsTransportError(err):
		return "Sending failed. The message was not sent."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
