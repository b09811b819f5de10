package model

import "time"

// EmailMessage is a single mail message as shown in the client.
//
// Messages fetched from a server start out as envelopes: Body is nil until the
// message is opened and the body is fetched lazily. A nil Body means "not yet
// fetched", not "empty". Once a body has been fetched it is set on the
// instance and kept for the lifetime of the process. Outbound messages built
// by the compose form carry Attachments; inbound ones never do.
type EmailMessage struct {
	// MessageID is the value of the Message-ID header, without the
	// surrounding angle brackets. Empty if the server reported none.
	MessageID string `json:"message_id,omitempty"`

	From    string   `json:"from"`
	To      []string `json:"to,omitempty"`
	Subject string   `json:"subject"`

	// Body is nil while only the envelope has been fetched.
	Body *string `json:"body,omitempty"`

	// SentDate is in the local time zone. Nil if the message had no date.
	SentDate *time.Time `json:"sent_date,omitempty"`

	// Read mirrors the server's "seen" flag.
	Read bool `json:"read"`

	// Folder is the name of the folder the message was fetched from.
	Folder string `json:"folder"`

	// Attachments holds local file paths, outbound messages only.
	Attachments []string `json:"-"`
}

// HasBody reports whether the body has been fetched.
func (m *EmailMessage) HasBody() bool {
	return m.Body != nil
}

// HasAttachments reports whether any attachment paths are set.
func (m *EmailMessage) HasAttachments() bool {
	return len(m.Attachments) > 0
}
