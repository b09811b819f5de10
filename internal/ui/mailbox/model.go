package mailbox

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailterm/internal/keys"
	"github.com/nhle/mailterm/internal/model"
	"github.com/nhle/mailterm/internal/theme"
)

// SelectedMessageMsg is sent when the user opens a message from the list.
type SelectedMessageMsg struct {
	Index int
}

// FolderChangedMsg is sent when the user switches to another folder.
type FolderChangedMsg struct {
	Folder string
}

// Model is the mailbox view: a folder sidebar next to the message list of
// the current folder.
type Model struct {
	list      list.Model
	keys      *keys.KeyMap
	folders   []string
	folderIdx int
	loading   bool
	width     int
	height    int

	sidebarWidth int
}

// New creates a new mailbox model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Messages"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:    l,
		keys:    k,
		folders: []string{"INBOX"},
		width:   width,
		height:  height,
	}
}

// Init returns the initial command for the mailbox view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the mailbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Select):
			if len(m.list.Items()) == 0 {
				return m, nil
			}
			idx := m.list.Index()
			return m, func() tea.Msg {
				return SelectedMessageMsg{Index: idx}
			}

		case key.Matches(keyMsg, m.keys.NextFolder):
			return m.changeFolder(1)

		case key.Matches(keyMsg, m.keys.PrevFolder):
			return m.changeFolder(-1)
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) changeFolder(delta int) (Model, tea.Cmd) {
	if len(m.folders) < 2 {
		return m, nil
	}

	m.folderIdx = (m.folderIdx + delta + len(m.folders)) % len(m.folders)
	folder := m.folders[m.folderIdx]
	return m, func() tea.Msg {
		return FolderChangedMsg{Folder: folder}
	}
}

// SetFolders replaces the sidebar folder list, keeping the current folder
// selected when it still exists.
func (m *Model) SetFolders(folders []string) {
	if len(folders) == 0 {
		return
	}

	current := m.CurrentFolder()
	m.folders = folders
	m.folderIdx = 0
	for i, f := range folders {
		if f == current {
			m.folderIdx = i
			break
		}
	}
}

// SetMessages replaces the displayed message list, clamping the selection so
// it stays in range. The loading state is left alone: a cache-served backfill
// replaces the list while the live fetch is still outstanding, and only the
// caller knows when that fetch has settled.
func (m *Model) SetMessages(msgs []model.EmailMessage) {
	items := make([]list.Item, len(msgs))
	for i, em := range msgs {
		items[i] = MessageItem{Message: em}
	}

	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
}

// SetLoading marks the list as waiting for a live fetch.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SelectedIndex returns the index of the highlighted message, or -1 when the
// list is empty.
func (m Model) SelectedIndex() int {
	if len(m.list.Items()) == 0 {
		return -1
	}
	return m.list.Index()
}

// CurrentFolder returns the folder shown in the message list.
func (m Model) CurrentFolder() string {
	if len(m.folders) == 0 {
		return "INBOX"
	}
	return m.folders[m.folderIdx]
}

// View renders the folder sidebar and the message list side by side.
func (m Model) View() string {
	sidebar := m.renderSidebar()

	var main string
	if len(m.list.Items()) == 0 {
		main = m.renderEmptyState()
	} else {
		main = m.list.View()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m Model) renderSidebar() string {
	var rows []string
	rows = append(rows, theme.HeaderStyle.Render("Folders"))

	for i, f := range m.folders {
		if i == m.folderIdx {
			rows = append(rows, theme.SelectedFolderStyle.Render(f))
		} else {
			rows = append(rows, theme.FolderStyle.Render(f))
		}
	}

	return theme.SidebarStyle.
		Width(m.sidebarWidth).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width - m.sidebarWidth).
		Height(m.height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return style.Render("Fetching messages...")
	}
	return style.Render("No messages in " + m.CurrentFolder() + ".\nPress r to refresh.")
}

// SetSize updates the mailbox dimensions. sidebarWidth is the portion
// reserved for the folder pane.
func (m *Model) SetSize(width, height, sidebarWidth int) {
	m.width = width
	m.height = height
	m.sidebarWidth = sidebarWidth
	m.list.SetSize(width-sidebarWidth, height-2)
}
