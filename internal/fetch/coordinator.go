package fetch

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/mailterm/internal/cache"
	"github.com/nhle/mailterm/internal/mailstore"
	"github.com/nhle/mailterm/internal/model"
)

const fetchTimeout = 30 * time.Second

// Token identifies one folder load request. Results carry the token they
// were issued under; the update loop compares it against Current before
// applying them, so a slow fetch can never overwrite a newer folder's list.
type Token int64

// CacheServedMsg carries a cached snapshot shown while the live fetch runs.
type CacheServedMsg struct {
	Token    Token
	Folder   string
	Messages []model.EmailMessage
}

// FolderLoadedMsg carries a live fetch result.
type FolderLoadedMsg struct {
	Token    Token
	Folder   string
	Messages []model.EmailMessage
}

// LoadFailedMsg carries a failed live fetch.
type LoadFailedMsg struct {
	Token  Token
	Folder string
	Err    error
}

// BodyLoadedMsg carries a lazily fetched message body, or the error that
// prevented fetching it.
type BodyLoadedMsg struct {
	Folder    string
	MessageID string
	Body      string
	Err       error
}

// FoldersListedMsg carries the server's folder list.
type FoldersListedMsg struct {
	Folders []string
	Err     error
}

// MessageDeletedMsg reports the outcome of a server-side delete.
type MessageDeletedMsg struct {
	Folder    string
	MessageID string
	Err       error
}

// Coordinator issues folder load requests and stamps every result with a
// token so the update loop can discard superseded completions. It owns no
// message state itself; it only decides which results are still current.
type Coordinator struct {
	cache *cache.Cache
	log   zerolog.Logger

	token atomic.Int64
	busy  atomic.Bool

	open func(model.HostConfiguration) (mailstore.Store, error)
}

// NewCoordinator returns a coordinator backed by the given snapshot cache.
func NewCoordinator(c *cache.Cache, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		cache: c,
		log:   log,
		open:  mailstore.New,
	}
}

// Current reports whether t is the most recently issued load token.
func (c *Coordinator) Current(t Token) bool {
	return c.token.Load() == int64(t)
}

// Busy reports whether a live folder load is still outstanding. Used to
// debounce refresh: a second refresh while one is in flight is a no-op.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// Settle marks the load identified by t as finished. Completions of
// superseded requests do not clear the busy flag of the request that
// replaced them.
func (c *Coordinator) Settle(t Token) {
	if c.Current(t) {
		c.busy.Store(false)
	}
}

// LoadFolder starts loading a folder and returns the request's token along
// with the command to run. When useCache is set the cached snapshot, if any,
// is served first and the live result follows; otherwise only the live fetch
// runs. Issuing a new load supersedes all earlier ones.
func (c *Coordinator) LoadFolder(folder string, cfg model.HostConfiguration, limit int, useCache bool) (Token, tea.Cmd) {
	t := Token(c.token.Add(1))
	c.busy.Store(true)

	cmds := []tea.Cmd{c.fetchLive(t, folder, cfg, limit, useCache)}
	if useCache {
		cmds = append(cmds, c.readCache(t, folder))
	}
	return t, tea.Batch(cmds...)
}

func (c *Coordinator) readCache(t Token, folder string) tea.Cmd {
	return func() tea.Msg {
		msgs, ok := c.cache.Load(folder)
		if !ok {
			return nil
		}
		return CacheServedMsg{Token: t, Folder: folder, Messages: msgs}
	}
}

func (c *Coordinator) fetchLive(t Token, folder string, cfg model.HostConfiguration, limit int, saveCache bool) tea.Cmd {
	return func() tea.Msg {
		store, err := c.open(cfg)
		if err != nil {
			return LoadFailedMsg{Token: t, Folder: folder, Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		msgs, err := store.FetchMessages(ctx, folder, limit)
		if err != nil {
			c.log.Error().Err(err).Str("folder", folder).Msg("folder load failed")
			return LoadFailedMsg{Token: t, Folder: folder, Err: err}
		}

		// The snapshot is written even when the request has been superseded:
		// it is the freshest server state for this folder either way.
		if saveCache {
			c.cache.Save(folder, msgs)
		}

		return FolderLoadedMsg{Token: t, Folder: folder, Messages: msgs}
	}
}

// ListFolders returns a command that fetches the folder list.
func (c *Coordinator) ListFolders(cfg model.HostConfiguration) tea.Cmd {
	return func() tea.Msg {
		store, err := c.open(cfg)
		if err != nil {
			return FoldersListedMsg{Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		folders, err := store.ListFolders(ctx)
		return FoldersListedMsg{Folders: folders, Err: err}
	}
}

// LoadBody returns a command that fetches the body of msg. It fails fast,
// before any network work, when the message carries no Message-ID or no
// folder to look it up in.
func (c *Coordinator) LoadBody(msg model.EmailMessage, cfg model.HostConfiguration) (tea.Cmd, error) {
	if msg.MessageID == "" {
		return nil, &mailstore.MissingInfoError{Reason: "message has no Message-ID header"}
	}
	if msg.Folder == "" {
		return nil, &mailstore.MissingInfoError{Reason: "message has no folder"}
	}

	return func() tea.Msg {
		store, err := c.open(cfg)
		if err != nil {
			return BodyLoadedMsg{Folder: msg.Folder, MessageID: msg.MessageID, Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		body, err := store.FetchBody(ctx, msg.Folder, msg.MessageID)
		return BodyLoadedMsg{Folder: msg.Folder, MessageID: msg.MessageID, Body: body, Err: err}
	}, nil
}

// DeleteMessage returns a command that deletes msg on the server. Like
// LoadBody it refuses messages without a Message-ID or folder up front, so
// the caller never removes a message from view that cannot be deleted
// remotely.
func (c *Coordinator) DeleteMessage(msg model.EmailMessage, cfg model.HostConfiguration) (tea.Cmd, error) {
	if msg.MessageID == "" {
		return nil, &mailstore.MissingInfoError{Reason: "message has no Message-ID header"}
	}
	if msg.Folder == "" {
		return nil, &mailstore.MissingInfoError{Reason: "message has no folder"}
	}

	return func() tea.Msg {
		store, err := c.open(cfg)
		if err != nil {
			return MessageDeletedMsg{Folder: msg.Folder, MessageID: msg.MessageID, Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		err = store.DeleteMessage(ctx, msg.Folder, msg.MessageID)
		return MessageDeletedMsg{Folder: msg.Folder, MessageID: msg.MessageID, Err: err}
	}, nil
}
