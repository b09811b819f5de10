package mailstore

import (
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailterm/internal/model"
)

// FromEnvelope converts an IMAP envelope fetch result into a domain message.
// Only envelope fields are populated; Body stays nil until fetched lazily.
func FromEnvelope(buf *imapclient.FetchMessageBuffer, folder string) model.EmailMessage {
	msg := model.EmailMessage{Folder: folder}

	if buf.Envelope != nil {
		env := buf.Envelope
		msg.MessageID = canonicalID(env.MessageID)
		msg.Subject = env.Subject

		if len(env.From) > 0 {
			msg.From = formatIMAPAddress(env.From[0])
		}
		for _, to := range env.To {
			msg.To = append(msg.To, to.Addr())
		}

		if !env.Date.IsZero() {
			d := env.Date.Local()
			msg.SentDate = &d
		}
	}

	for _, flag := range buf.Flags {
		if flag == imap.FlagSeen {
			msg.Read = true
		}
	}

	return msg
}

// FromHeader converts a parsed message header into a domain message without
// touching the body. Used for POP3 TOP responses, which carry headers only.
func FromHeader(h message.Header, folder string) model.EmailMessage {
	msg := model.EmailMessage{Folder: folder}

	mh := mail.Header{Header: h}

	if subject, err := mh.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = h.Get("Subject")
	}

	if from, err := mh.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = formatMailAddress(from[0].Name, from[0].Address)
	} else {
		msg.From = h.Get("From")
	}

	if to, err := mh.AddressList("To"); err == nil {
		for _, a := range to {
			msg.To = append(msg.To, a.Address)
		}
	}

	if date, err := mh.Date(); err == nil && !date.IsZero() {
		d := date.Local()
		msg.SentDate = &d
	}

	if id, err := mh.MessageID(); err == nil {
		msg.MessageID = canonicalID(id)
	}

	return msg
}

// FromEntity converts a full wire message into a domain message, including
// the extracted text body.
func FromEntity(e *message.Entity, folder string) model.EmailMessage {
	msg := FromHeader(e.Header, folder)
	body := ExtractText(e)
	msg.Body = &body
	return msg
}

// ExtractText flattens a MIME message into a single readable string. Plain
// text is returned verbatim. Multiparts are walked depth-first in stored
// order: text/plain and text/html parts contribute their content as-is (no
// tag stripping), nested multiparts recurse, and every other part type
// (attachments, images) is skipped. Contributions are concatenated with no
// separator beyond what the parts themselves contain.
//
// This is a pure function over the entity: no I/O, same input same output.
func ExtractText(e *message.Entity) string {
	if mr := e.MultipartReader(); mr != nil {
		return extractFromParts(mr)
	}
	if entityIsType(e, "text/plain") {
		return readBody(e)
	}
	return ""
}

func extractFromParts(mr message.MultipartReader) string {
	var b strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		if inner := part.MultipartReader(); inner != nil {
			b.WriteString(extractFromParts(inner))
			continue
		}
		if entityIsType(part, "text/plain") || entityIsType(part, "text/html") {
			b.WriteString(readBody(part))
		}
	}
	return b.String()
}

func entityIsType(e *message.Entity, mimeType string) bool {
	t, _, err := e.Header.ContentType()
	if err != nil {
		// No parseable content type; treat as plain text per RFC 2045.
		return mimeType == "text/plain"
	}
	return strings.EqualFold(t, mimeType)
}

func readBody(e *message.Entity) string {
	body, err := io.ReadAll(e.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

// canonicalID strips the angle brackets some servers include around the
// Message-ID header so IDs compare equal across protocols.
func canonicalID(id string) string {
	return strings.Trim(strings.TrimSpace(id), "<>")
}

func formatIMAPAddress(a imap.Address) string {
	return formatMailAddress(a.Name, a.Addr())
}

func formatMailAddress(name, addr string) string {
	if name != "" {
		return name + " <" + addr + ">"
	}
	return addr
}
