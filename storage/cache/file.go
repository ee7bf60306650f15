package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core/timeline"
)

// File keeps every entry in memory and rewrites one JSON file on each Put.
type File struct {
	path    string
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ timeline.Cache = (*File)(nil)

type fileContent struct {
	Entries map[string]Entry `json:"entries"`
}

// OpenFile loads the cache file at path, creating its directory if needed.
// A missing file is an empty cache. Expired entries are dropped on load.
func OpenFile(path string, ttl time.Duration) (*File, error) {
	if path == "" {
		return nil, errors.New("cache.OpenFile: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating cache directory")
	}

	c := &File{path: path, ttl: ttl, now: time.Now, entries: make(map[string]Entry)}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return c, nil
	case err != nil:
		return nil, errors.Wrap(err, "reading cache file")
	}

	var content fileContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, errors.Wrapf(err, "decoding cache file %s", path)
	}
	now := c.now()
	for fp, e := range content.Entries {
		if !e.Expired(now) {
			c.entries[fp] = e
		}
	}
	return c, nil
}

func (c *File) Get(_ context.Context, fingerprint string) ([]timeline.CombinedItem, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if !ok || e.Expired(c.now()) {
		return nil, false, nil
	}
	return copyItems(e.Items), true, nil
}

func (c *File) Put(_ context.Context, fingerprint string, items []timeline.CombinedItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = newEntry(items, c.now(), c.ttl)
	return c.flush()
}

// flush writes to a temp file and renames it over the cache file. Callers hold mu.
func (c *File) flush() error {
	raw, err := json.Marshal(fileContent{Entries: c.entries})
	if err != nil {
		return errors.Wrap(err, "encoding cache")
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".cache-*.json")
	if err != nil {
		return errors.Wrap(err, "creating cache temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing cache")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "writing cache")
	}
	return errors.Wrap(os.Rename(tmp.Name(), c.path), "replacing cache file")
}
