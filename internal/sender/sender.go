package sender

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/nhle/mailterm/internal/mailstore"
	"github.com/nhle/mailterm/internal/model"
)

// SplitRecipients parses a user-typed recipient field into addresses.
// Entries are separated by commas or semicolons; surrounding whitespace is
// trimmed and empty entries are dropped.
func SplitRecipients(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})

	var out []string
	for _, f := range fields {
		if addr := strings.TrimSpace(f); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// build assembles the wire message. Split out from Send so the MIME output
// can be inspected without a server.
func build(msg model.EmailMessage, cfg model.HostConfiguration) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("message has no recipients")
	}

	m := mail.NewMsg()
	if err := m.From(cfg.Username); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", cfg.Username, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	m.Subject(msg.Subject)

	var body string
	if msg.Body != nil {
		body = *msg.Body
	}
	m.SetBodyString(mail.TypeTextPlain, body)

	for _, path := range msg.Attachments {
		m.AttachFile(path)
	}

	return m, nil
}

// Send submits msg over SMTP with implicit TLS. A returned TransportError
// means the message must not be assumed sent.
func Send(ctx context.Context, msg model.EmailMessage, cfg model.HostConfiguration) error {
	m, err := build(msg, cfg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(cfg.SendHost,
		mail.WithPort(cfg.SendPort),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return &mailstore.TransportError{Host: cfg.SendHost, Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return &mailstore.TransportError{Host: cfg.SendHost, Err: err}
	}

	return nil
}
