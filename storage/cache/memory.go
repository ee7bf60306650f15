package cache

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/studentsync/core/timeline"
)

type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

var _ timeline.Cache = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string]Entry), ttl: ttl, now: time.Now}
}

func (c *Memory) Get(_ context.Context, fingerprint string) ([]timeline.CombinedItem, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if !ok || e.Expired(c.now()) {
		return nil, false, nil
	}
	return copyItems(e.Items), true, nil
}

func (c *Memory) Put(_ context.Context, fingerprint string, items []timeline.CombinedItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = newEntry(items, c.now(), c.ttl)
	return nil
}
