package mailstore

import (
	"errors"
	"fmt"
)

// ConnectionError indicates the server could not be reached or the TLS
// handshake failed. It is distinct from AuthError so the UI can suggest
// checking the network rather than the credentials.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err (or any error in its chain) is a
// ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// AuthError indicates the server rejected the credentials.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// NotFoundError indicates no message with the requested Message-ID exists in
// the folder, typically because it was deleted or moved since the envelope
// was fetched.
type NotFoundError struct {
	Folder    string
	MessageID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no message with id %q in folder %q", e.MessageID, e.Folder)
}

// IsNotFound reports whether err (or any error in its chain) is a
// NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// MissingInfoError indicates a local precondition failed before any network
// work was attempted, e.g. a message without a Message-ID header.
type MissingInfoError struct {
	Reason string
}

func (e *MissingInfoError) Error() string {
	return "missing message info: " + e.Reason
}

// IsMissingInfo reports whether err (or any error in its chain) is a
// MissingInfoError.
func IsMissingInfo(err error) bool {
	var miErr *MissingInfoError
	return errors.As(err, &miErr)
}

// TransportError indicates an outbound message could not be submitted. The
// message must not be assumed sent.
type TransportError struct {
	Host string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sending via %s: %v", e.Host, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err (or any error in its chain) is a
// TransportError.
func IsTransportError(err error) bool {
	var trErr *TransportError
	return errors.As(err, &trErr)
}
