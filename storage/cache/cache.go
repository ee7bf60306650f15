// Package cache stores detection results keyed by text fingerprint.
package cache

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/timeline"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Entry is one cached detection result with its expiry metadata.
type Entry struct {
	Items     []timeline.CombinedItem `json:"items"`
	StoredAt  time.Time               `json:"storedAt"`
	ExpiresAt *time.Time              `json:"expiresAt,omitempty"`
}

func newEntry(items []timeline.CombinedItem, now time.Time, ttl time.Duration) Entry {
	e := Entry{Items: copyItems(items), StoredAt: now.UTC()}
	if ttl > 0 {
		exp := e.StoredAt.Add(ttl)
		e.ExpiresAt = &exp
	}
	return e
}

func (e Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

func copyItems(items []timeline.CombinedItem) []timeline.CombinedItem {
	if items == nil {
		return nil
	}
	return append([]timeline.CombinedItem(nil), items...)
}

// New opens the non-database cache named by conf.Cache.Driver.
// The postgres driver lives in storage/database/pgrepos.
func New(conf *core.Config) (timeline.Cache, error) {
	switch conf.Cache.Driver {
	case DriverMemory, "":
		return NewMemory(conf.Cache.TTL), nil
	case DriverFile:
		return OpenFile(conf.Cache.Path, conf.Cache.TTL)
	default:
		return nil, errors.Errorf("cache.New: unsupported driver %q", conf.Cache.Driver)
	}
}
