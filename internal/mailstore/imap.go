package mailstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message"

	"github.com/nhle/mailterm/internal/model"
)

// imapStore implements Store over IMAP using go-imap v2. Timeouts are left to
// the dialer; the context is accepted for interface symmetry but the
// underlying client drives its own command lifecycle.
type imapStore struct {
	cfg model.HostConfiguration
}

// dial connects and authenticates. The caller is responsible for calling
// Logout on the returned client.
func (s *imapStore) dial() (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.ReceiveHost, s.cfg.ReceivePort)

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, &ConnectionError{Host: addr, Err: err}
	}

	if err := client.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{Username: s.cfg.Username, Err: err}
	}

	return client, nil
}

func (s *imapStore) ListFolders(_ context.Context) ([]string, error) {
	client, err := s.dial()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	mailboxes, err := client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}

	names := make([]string, 0, len(mailboxes))
	for _, mbox := range mailboxes {
		names = append(names, mbox.Mailbox)
	}
	return names, nil
}

func (s *imapStore) FetchMessages(_ context.Context, folder string, limit int) ([]model.EmailMessage, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	client, err := s.dial()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	sel, err := client.Select(folder, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("selecting folder %q: %w", folder, err)
	}

	total := sel.NumMessages
	if total == 0 {
		return nil, nil
	}

	// Most recent `limit` messages by sequence position, oldest-first.
	from := uint32(1)
	if total > uint32(limit) {
		from = total - uint32(limit) + 1
	}

	var seqSet imap.SeqSet
	seqSet.AddRange(from, total)

	fetchCmd := client.Fetch(seqSet, &imap.FetchOptions{
		Envelope: true,
		Flags:    true,
	})
	defer fetchCmd.Close()

	var msgs []model.EmailMessage
	for {
		raw := fetchCmd.Next()
		if raw == nil {
			break
		}

		buf, err := raw.Collect()
		if err != nil {
			continue
		}

		if hasFlag(buf.Flags, imap.FlagDeleted) {
			continue
		}

		msgs = append(msgs, FromEnvelope(buf, folder))
	}

	if err := fetchCmd.Close(); err != nil {
		return msgs, fmt.Errorf("fetching envelopes from %q: %w", folder, err)
	}

	return msgs, nil
}

func (s *imapStore) FetchBody(_ context.Context, folder, messageID string) (string, error) {
	client, err := s.dial()
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(folder, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return "", fmt.Errorf("selecting folder %q: %w", folder, err)
	}

	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "Message-Id", Value: canonicalID(messageID)},
		},
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return "", fmt.Errorf("searching for message %q: %w", messageID, err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return "", &NotFoundError{Folder: folder, MessageID: messageID}
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids[0]), &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	raw := fetchCmd.Next()
	if raw == nil {
		return "", &NotFoundError{Folder: folder, MessageID: messageID}
	}

	buf, err := raw.Collect()
	if err != nil {
		return "", fmt.Errorf("collecting message body: %w", err)
	}

	data := buf.FindBodySection(bodySection)
	if data == nil {
		return "", &NotFoundError{Folder: folder, MessageID: messageID}
	}

	if err := fetchCmd.Close(); err != nil {
		return "", fmt.Errorf("fetching body: %w", err)
	}

	ent, err := message.Read(bytes.NewReader(data))
	if err != nil {
		// Unparseable MIME; show the raw message rather than nothing.
		return string(data), nil
	}
	return ExtractText(ent), nil
}

func (s *imapStore) DeleteMessage(_ context.Context, folder, messageID string) error {
	client, err := s.dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	sel, err := client.Select(folder, nil).Wait()
	if err != nil {
		return fmt.Errorf("selecting folder %q: %w", folder, err)
	}

	if sel.NumMessages == 0 {
		return &NotFoundError{Folder: folder, MessageID: messageID}
	}

	// Linear scan over the folder's envelopes for the matching Message-ID.
	var seqSet imap.SeqSet
	seqSet.AddRange(1, sel.NumMessages)

	fetchCmd := client.Fetch(seqSet, &imap.FetchOptions{Envelope: true})

	target := canonicalID(messageID)
	var found bool
	var foundSeq uint32
	for {
		raw := fetchCmd.Next()
		if raw == nil {
			break
		}
		buf, err := raw.Collect()
		if err != nil {
			continue
		}
		if buf.Envelope != nil && canonicalID(buf.Envelope.MessageID) == target {
			found = true
			foundSeq = buf.SeqNum
		}
	}
	if err := fetchCmd.Close(); err != nil {
		return fmt.Errorf("scanning folder %q: %w", folder, err)
	}

	if !found {
		return &NotFoundError{Folder: folder, MessageID: messageID}
	}

	var one imap.SeqSet
	one.AddNum(foundSeq)

	storeCmd := client.Store(one, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("marking message deleted: %w", err)
	}

	// Expunge so the deletion is permanent before we disconnect.
	if err := client.Expunge().Close(); err != nil {
		return fmt.Errorf("expunging folder %q: %w", folder, err)
	}

	return nil
}

func hasFlag(flags []imap.Flag, want imap.Flag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
