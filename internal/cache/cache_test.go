package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailterm/internal/model"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	return New(t.TempDir(), zerolog.Nop())
}

func sampleMessages() []model.EmailMessage {
	body := "hello"
	d1 := time.Date(2023, 3, 14, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2023, 3, 15, 9, 30, 0, 0, time.UTC)

	return []model.EmailMessage{
		{
			MessageID: "a@example.com",
			From:      "Alice <alice@example.com>",
			To:        []string{"bob@example.com"},
			Subject:   "first",
			SentDate:  &d1,
			Read:      true,
			Folder:    "INBOX",
		},
		{
			MessageID: "b@example.com",
			From:      "carol@example.com",
			Subject:   "second",
			Body:      &body,
			SentDate:  &d2,
			Folder:    "INBOX",
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := testCache(t)
	want := sampleMessages()

	c.Save("INBOX", want)

	got, ok := c.Load("INBOX")
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestLoadMissingIsMiss(t *testing.T) {
	c := testCache(t)

	_, ok := c.Load("INBOX")
	require.False(t, ok)
}

func TestEmptySnapshotIsHit(t *testing.T) {
	c := testCache(t)

	c.Save("INBOX", nil)

	got, ok := c.Load("INBOX")
	require.True(t, ok)
	require.Empty(t, got)
}

func TestCorruptSnapshotIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, zerolog.Nop())

	path := filepath.Join(dir, Sanitize("INBOX")+".dat")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok := c.Load("INBOX")
	require.False(t, ok)
}

func TestVersionMismatchIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, zerolog.Nop())

	path := filepath.Join(dir, Sanitize("INBOX")+".dat")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"messages":[]}`), 0o600))

	_, ok := c.Load("INBOX")
	require.False(t, ok)
}

func TestSaveOverwritesWholesale(t *testing.T) {
	c := testCache(t)
	msgs := sampleMessages()

	c.Save("INBOX", msgs)
	c.Save("INBOX", msgs[:1])

	got, ok := c.Load("INBOX")
	require.True(t, ok)
	require.Len(t, got, 1)
	require.Equal(t, "a@example.com", got[0].MessageID)
}

func TestFoldersAreIndependent(t *testing.T) {
	c := testCache(t)
	msgs := sampleMessages()

	c.Save("INBOX", msgs)

	_, ok := c.Load("Sent")
	require.False(t, ok)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"INBOX", "INBOX"},
		{"INBOX/Sent Items", "INBOX_Sent_Items"},
		{"Archive.2023", "Archive.2023"},
		{"weird*name?", "weird_name_"},
		{"keep-dashes", "keep-dashes"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, Sanitize(tc.in))
		// Sanitizing twice changes nothing.
		require.Equal(t, tc.want, Sanitize(Sanitize(tc.in)))
	}
}
