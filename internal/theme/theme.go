package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorStyle renders failure notices in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// ReaderPanelStyle wraps the message reading pane.
var ReaderPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// SidebarStyle wraps the folder list on the left.
var SidebarStyle = lipgloss.NewStyle().
	Padding(1, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// FolderStyle renders a folder entry in the sidebar.
var FolderStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Foreground(ColorGray)

// SelectedFolderStyle highlights the folder currently shown.
var SelectedFolderStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// SubjectStyle returns the style for a message subject line. Unread messages
// stand out; read ones recede.
func SubjectStyle(read bool) lipgloss.Style {
	if read {
		return lipgloss.NewStyle().Foreground(ColorGray)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
}

// SenderStyle returns the style for the sender column of a list row.
func SenderStyle(read bool) lipgloss.Style {
	if read {
		return lipgloss.NewStyle().Foreground(ColorGray)
	}
	return lipgloss.NewStyle().Foreground(ColorGreen)
}

// DateStyle renders message dates in lists and headers.
var DateStyle = lipgloss.NewStyle().Foreground(ColorYellow)
