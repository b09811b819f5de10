package mailbox

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/mailterm/internal/keys"
	"github.com/nhle/mailterm/internal/model"
)

func sampleMessages(n int) []model.EmailMessage {
	msgs := make([]model.EmailMessage, n)
	for i := range msgs {
		msgs[i] = model.EmailMessage{
			MessageID: string(rune('a'+i)) + "@example.com",
			Subject:   "subject",
			Folder:    "INBOX",
		}
	}
	return msgs
}

func TestSetMessagesKeepsLoadingState(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	// A cache-served backfill replaces the list while the live fetch is
	// still in flight; it must not clear the loading state.
	m.SetLoading(true)
	m.SetMessages(sampleMessages(2))
	require.True(t, m.loading)

	m.SetLoading(false)
	require.False(t, m.loading)
}

func TestSetMessagesClampsSelection(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	m.SetMessages(sampleMessages(3))
	m.list.Select(2)

	m.SetMessages(sampleMessages(1))
	require.Equal(t, 0, m.SelectedIndex())

	m.SetMessages(nil)
	require.Equal(t, -1, m.SelectedIndex())
}
