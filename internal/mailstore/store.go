package mailstore

import (
	"context"
	"fmt"

	"github.com/nhle/mailterm/internal/model"
)

// DefaultFetchLimit is how many of the most recent messages a folder load
// retrieves when no explicit limit is configured.
const DefaultFetchLimit = 20

// Store is the protocol session against a mail store. Every call is a fresh
// connect-authenticate-use-disconnect cycle; no connection is held between
// calls. That keeps the failure model trivial at the cost of some latency.
type Store interface {
	// ListFolders returns the folder names in server enumeration order.
	// Duplicates, if the server reports any, are passed through unmodified.
	ListFolders(ctx context.Context) ([]string, error)

	// FetchMessages returns at most the `limit` most recent messages of the
	// folder by sequence position, oldest-first, envelopes only (Body is nil).
	// Messages flagged deleted on the server are excluded.
	FetchMessages(ctx context.Context, folder string, limit int) ([]model.EmailMessage, error)

	// FetchBody returns the extracted text body of the message whose
	// Message-ID header equals messageID.
	FetchBody(ctx context.Context, folder, messageID string) (string, error)

	// DeleteMessage permanently deletes the message whose Message-ID header
	// equals messageID. Returns a NotFoundError if no message matches; the
	// caller must not assume success.
	DeleteMessage(ctx context.Context, folder, messageID string) error
}

// New returns a Store for the configuration's receive protocol.
func New(cfg model.HostConfiguration) (Store, error) {
	switch cfg.ReceiveProtocol {
	case model.ProtocolIMAP:
		return &imapStore{cfg: cfg}, nil
	case model.ProtocolPOP3:
		return &pop3Store{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported receive protocol %q", cfg.ReceiveProtocol)
	}
}
