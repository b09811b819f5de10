package sender

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/mailterm/internal/model"
)

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"alice@example.com", []string{"alice@example.com"}},
		{"a@x.com,b@x.com", []string{"a@x.com", "b@x.com"}},
		{"a@x.com; b@x.com", []string{"a@x.com", "b@x.com"}},
		{"  a@x.com , ,; b@x.com  ", []string{"a@x.com", "b@x.com"}},
		{"", nil},
		{" ,;, ", nil},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, SplitRecipients(tc.in), "input %q", tc.in)
	}
}

func TestBuildMessage(t *testing.T) {
	body := "See attached."
	em := model.EmailMessage{
		To:      []string{"bob@example.com"},
		Subject: "Weekly report",
		Body:    &body,
	}
	cfg := model.HostConfiguration{Username: "alice@example.com"}

	m, err := build(em, cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	wire := buf.String()
	require.Contains(t, wire, "From: <alice@example.com>")
	require.Contains(t, wire, "To: <bob@example.com>")
	require.Contains(t, wire, "Subject: Weekly report")
	require.Contains(t, wire, "See attached.")
}

func TestBuildMessageWithAttachment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("quarterly numbers"), 0o600))

	body := "See attached."
	em := model.EmailMessage{
		To:          []string{"bob@example.com"},
		Subject:     "Weekly report",
		Body:        &body,
		Attachments: []string{path},
	}
	cfg := model.HostConfiguration{Username: "alice@example.com"}

	m, err := build(em, cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	wire := buf.String()
	require.Contains(t, wire, "multipart/mixed")
	require.Contains(t, wire, `filename="report.txt"`)
	require.Contains(t, wire, "See attached.")
}

func TestBuildMessageRequiresRecipients(t *testing.T) {
	cfg := model.HostConfiguration{Username: "alice@example.com"}

	_, err := build(model.EmailMessage{Subject: "no one to send to"}, cfg)
	require.Error(t, err)
}

func TestBuildMessageRejectsInvalidSender(t *testing.T) {
	cfg := model.HostConfiguration{Username: "not an address"}

	_, err := build(model.EmailMessage{To: []string{"bob@example.com"}}, cfg)
	require.Error(t, err)
}
