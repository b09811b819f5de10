package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/nhle/mailterm/internal/model"
)

// snapshotVersion is bumped whenever the on-disk layout changes. A mismatch
// on load is treated as a cache miss, never as an error.
const snapshotVersion = 1

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// snapshot is the on-disk form of a folder's message list.
type snapshot struct {
	Version  int                  `json:"version"`
	Messages []model.EmailMessage `json:"messages"`
}

// Cache persists per-folder message lists as flat files so a folder can be
// shown instantly on the next start. It is strictly best-effort: every
// failure mode degrades to an empty result and a log line.
type Cache struct {
	dir string
	log zerolog.Logger
}

// New returns a cache rooted at dir. The directory is created lazily on the
// first save.
func New(dir string, log zerolog.Logger) *Cache {
	return &Cache{dir: dir, log: log}
}

// Save overwrites the cached snapshot for folder with msgs. An empty list is
// a valid snapshot and is written, not skipped. Errors are logged and
// swallowed; a failed save never disturbs the caller.
func (c *Cache) Save(folder string, msgs []model.EmailMessage) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.log.Warn().Err(err).Str("folder", folder).Msg("creating cache directory")
		return
	}

	data, err := json.Marshal(snapshot{Version: snapshotVersion, Messages: msgs})
	if err != nil {
		c.log.Warn().Err(err).Str("folder", folder).Msg("encoding cache snapshot")
		return
	}

	path := c.path(folder)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("writing cache snapshot")
	}
}

// Load returns the cached messages for folder. The second return value is
// false when no usable snapshot exists; an empty snapshot is a hit. Corrupt
// or version-mismatched files count as misses.
func (c *Cache) Load(folder string) ([]model.EmailMessage, bool) {
	path := c.path(folder)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Warn().Err(err).Str("path", path).Msg("reading cache snapshot")
		}
		return nil, false
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("decoding cache snapshot")
		return nil, false
	}
	if snap.Version != snapshotVersion {
		c.log.Debug().Int("version", snap.Version).Str("path", path).Msg("stale cache snapshot version")
		return nil, false
	}

	return snap.Messages, true
}

func (c *Cache) path(folder string) string {
	return filepath.Join(c.dir, Sanitize(folder)+".dat")
}

// Sanitize maps a folder name to a filesystem-safe file stem. Distinct
// folders can collide after sanitization; the last one written wins.
func Sanitize(folder string) string {
	return unsafeChars.ReplaceAllString(folder, "_")
}
