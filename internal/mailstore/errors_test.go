package mailstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorPredicates(t *testing.T) {
	connErr := &ConnectionError{Host: "imap.example.com:993", Err: errors.New("refused")}
	authErr := &AuthError{Username: "alice", Err: errors.New("bad password")}
	nfErr := &NotFoundError{Folder: "INBOX", MessageID: "abc@example.com"}
	miErr := &MissingInfoError{Reason: "message has no Message-ID header"}
	trErr := &TransportError{Host: "smtp.example.com", Err: errors.New("rejected")}

	require.True(t, IsConnectionError(connErr))
	require.True(t, IsAuthError(authErr))
	require.True(t, IsNotFound(nfErr))
	require.True(t, IsMissingInfo(miErr))
	require.True(t, IsTransportError(trErr))

	// Predicates only match their own type.
	require.False(t, IsAuthError(connErr))
	require.False(t, IsConnectionError(authErr))
	require.False(t, IsNotFound(miErr))
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading folder: %w",
		&AuthError{Username: "alice", Err: errors.New("bad password")})

	require.True(t, IsAuthError(wrapped))
	require.False(t, IsAuthError(errors.New("unrelated")))
}

func TestConnectionErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ConnectionError{Host: "pop.example.com:995", Err: cause}

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "pop.example.com:995")
}
