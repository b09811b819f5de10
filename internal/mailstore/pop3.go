package mailstore

import (
	"context"
	"fmt"

	"github.com/knadh/go-pop3"

	"github.com/nhle/mailterm/internal/model"
)

// pop3Inbox is the single folder a POP3 store exposes.
const pop3Inbox = "INBOX"

// pop3Store implements Store over POP3. POP3 has no folders, no flags, and
// no server-side search, so the store exposes a single INBOX and locates
// messages by scanning headers linearly.
type pop3Store struct {
	cfg model.HostConfiguration
}

func (s *pop3Store) connect() (*pop3.Conn, error) {
	client := pop3.New(pop3.Opt{
		Host:       s.cfg.ReceiveHost,
		Port:       s.cfg.ReceivePort,
		TLSEnabled: true,
	})

	conn, err := client.NewConn()
	if err != nil {
		addr := fmt.Sprintf("%s:%d", s.cfg.ReceiveHost, s.cfg.ReceivePort)
		return nil, &ConnectionError{Host: addr, Err: err}
	}

	if err := conn.Auth(s.cfg.Username, s.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, &AuthError{Username: s.cfg.Username, Err: err}
	}

	return conn, nil
}

func (s *pop3Store) ListFolders(_ context.Context) ([]string, error) {
	// Verify the credentials work even though the answer is static.
	conn, err := s.connect()
	if err != nil {
		return nil, err
	}
	_ = conn.Quit()

	return []string{pop3Inbox}, nil
}

func (s *pop3Store) FetchMessages(_ context.Context, folder string, limit int) ([]model.EmailMessage, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	conn, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Quit() }()

	count, _, err := conn.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading mailbox stats: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	start := 1
	if count > limit {
		start = count - limit + 1
	}

	var msgs []model.EmailMessage
	for i := start; i <= count; i++ {
		// TOP with zero lines fetches headers only; bodies load lazily.
		ent, err := conn.Top(i, 0)
		if err != nil {
			continue
		}
		msgs = append(msgs, FromHeader(ent.Header, folder))
	}

	return msgs, nil
}

func (s *pop3Store) FetchBody(_ context.Context, folder, messageID string) (string, error) {
	conn, err := s.connect()
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Quit() }()

	num, err := s.findMessage(conn, folder, messageID)
	if err != nil {
		return "", err
	}

	ent, err := conn.Retr(num)
	if err != nil {
		return "", fmt.Errorf("retrieving message %d: %w", num, err)
	}

	return ExtractText(ent), nil
}

func (s *pop3Store) DeleteMessage(_ context.Context, folder, messageID string) error {
	conn, err := s.connect()
	if err != nil {
		return err
	}

	num, err := s.findMessage(conn, folder, messageID)
	if err != nil {
		_ = conn.Quit()
		return err
	}

	if err := conn.Dele(num); err != nil {
		_ = conn.Quit()
		return fmt.Errorf("deleting message %d: %w", num, err)
	}

	// QUIT commits the deletion; it must succeed for the delete to stick.
	if err := conn.Quit(); err != nil {
		return fmt.Errorf("committing deletion: %w", err)
	}

	return nil
}

// findMessage scans the mailbox headers linearly for the matching
// Message-ID and returns its message number.
func (s *pop3Store) findMessage(conn *pop3.Conn, folder, messageID string) (int, error) {
	count, _, err := conn.Stat()
	if err != nil {
		return 0, fmt.Errorf("reading mailbox stats: %w", err)
	}

	target := canonicalID(messageID)
	for i := 1; i <= count; i++ {
		ent, err := conn.Top(i, 0)
		if err != nil {
			continue
		}
		if FromHeader(ent.Header, folder).MessageID == target {
			return i, nil
		}
	}

	return 0, &NotFoundError{Folder: folder, MessageID: messageID}
}
