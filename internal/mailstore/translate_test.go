package mailstore

import (
	"strings"
	"testing"

	"github.com/emersion/go-message"
	"github.com/stretchr/testify/require"
)

const multipartRaw = "MIME-Version: 1.0\r\n" +
	"From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Weekly report\r\n" +
	"Date: Tue, 14 Mar 2023 10:00:00 +0000\r\n" +
	"Message-Id: <abc@example.com>\r\n" +
	"Content-Type: multipart/mixed; boundary=outer\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"A\r\n" +
	"--outer\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>B</p>\r\n" +
	"--outer\r\n" +
	"Content-Type: application/octet-stream\r\n" +
	"\r\n" +
	"binary\r\n" +
	"--outer--\r\n"

func parseMessage(t *testing.T, raw string) *message.Entity {
	t.Helper()
	e, err := message.Read(strings.NewReader(raw))
	require.NoError(t, err)
	return e
}

func TestExtractTextMultipartOrder(t *testing.T) {
	e := parseMessage(t, multipartRaw)

	// Plain and HTML parts contribute in stored order; the attachment does not.
	require.Equal(t, "A<p>B</p>", ExtractText(e))
}

func TestExtractTextPlainVerbatim(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Hello\r\nWorld"

	e := parseMessage(t, raw)
	require.Equal(t, "Hello\r\nWorld", ExtractText(e))
}

func TestExtractTextNoContentTypeDefaultsToPlain(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"\r\n" +
		"just text"

	e := parseMessage(t, raw)
	require.Equal(t, "just text", ExtractText(e))
}

func TestExtractTextTopLevelHTMLYieldsNothing(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>hi</p>"

	e := parseMessage(t, raw)
	require.Equal(t, "", ExtractText(e))
}

func TestExtractTextNestedMultipart(t *testing.T) {
	raw := "MIME-Version: 1.0\r\n" +
		"From: alice@example.com\r\n" +
		"Content-Type: multipart/mixed; boundary=outer\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-Type: multipart/alternative; boundary=inner\r\n" +
		"\r\n" +
		"--inner\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"inner text\r\n" +
		"--inner--\r\n" +
		"\r\n" +
		"--outer--\r\n"

	e := parseMessage(t, raw)
	require.Equal(t, "inner text", ExtractText(e))
}

func TestFromEntity(t *testing.T) {
	e := parseMessage(t, multipartRaw)

	msg := FromEntity(e, "INBOX")

	require.Equal(t, "abc@example.com", msg.MessageID)
	require.Equal(t, "Alice <alice@example.com>", msg.From)
	require.Equal(t, []string{"bob@example.com"}, msg.To)
	require.Equal(t, "Weekly report", msg.Subject)
	require.Equal(t, "INBOX", msg.Folder)
	require.NotNil(t, msg.SentDate)
	require.True(t, msg.HasBody())
	require.Equal(t, "A<p>B</p>", *msg.Body)
}

func TestFromHeaderLeavesBodyUnfetched(t *testing.T) {
	e := parseMessage(t, multipartRaw)

	msg := FromHeader(e.Header, "INBOX")

	require.Equal(t, "abc@example.com", msg.MessageID)
	require.Equal(t, "Weekly report", msg.Subject)
	require.False(t, msg.HasBody())
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<abc@example.com>", "abc@example.com"},
		{"abc@example.com", "abc@example.com"},
		{"  <abc@example.com>  ", "abc@example.com"},
		{"", ""},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, canonicalID(tc.in))
	}
}
