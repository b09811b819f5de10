package mailbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailterm/internal/model"
	"github.com/nhle/mailterm/internal/theme"
)

// senderWidth is the fixed column width for the sender in a list row.
const senderWidth = 24

// MessageItem wraps a model.EmailMessage so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.EmailMessage
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string { return i.Message.Subject }

// Title returns the message subject for the list.
func (i MessageItem) Title() string { return i.Message.Subject }

// Description returns a short summary line for the list.
func (i MessageItem) Description() string {
	return fmt.Sprintf("%s | %s", i.Message.From, shortDate(i.Message.SentDate))
}

// ItemDelegate implements list.ItemDelegate for rendering message rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single message row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	msg := mi.Message
	isSelected := index == m.Index()

	// Unread marker
	marker := " "
	if !msg.Read {
		marker = "●"
	}

	sender := theme.SenderStyle(msg.Read).Render(padRight(msg.From, senderWidth))
	subject := theme.SubjectStyle(msg.Read).Render(msg.Subject)
	date := theme.DateStyle.Render(shortDate(msg.SentDate))

	line := fmt.Sprintf("%s %s %s  %s", marker, sender, subject, date)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// shortDate formats a message date compactly: time of day for today,
// month and day within the year, full date otherwise.
func shortDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	now := time.Now()
	switch {
	case t.Year() == now.Year() && t.YearDay() == now.YearDay():
		return t.Format("15:04")
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("2006-01-02")
	}
}

// padRight pads or truncates s to exactly width cells.
func padRight(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width > 1 {
			return string(r[:width-1]) + "…"
		}
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
