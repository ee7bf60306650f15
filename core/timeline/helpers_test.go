package timeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type fakeExtractor struct {
	mu      sync.Mutex
	calls   int
	byText  map[string][]CandidateEvent
	err     error
	version string
}

func (f *fakeExtractor) Extract(_ context.Context, text string, _ time.Time) ([]CandidateEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byText[text], nil
}

func (f *fakeExtractor) SchemaVersion() string {
	if f.version == "" {
		return SchemaV2
	}
	return f.version
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type mapCache struct {
	mu    sync.Mutex
	items map[string][]CombinedItem
}

func newMapCache() *mapCache { return &mapCache{items: make(map[string][]CombinedItem)} }

func (c *mapCache) Get(_ context.Context, fp string) ([]CombinedItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.items[fp]
	return items, ok, nil
}

func (c *mapCache) Put(_ context.Context, fp string, items []CombinedItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[fp] = items
	return nil
}

type fakeSource struct {
	courses       []Course
	coursesErr    error
	work          map[string][]RawAssignment
	announcements map[string][]RawAnnouncement
	materials     map[string][]RawMaterial
	failing       map[string]bool // course IDs whose fetches fail
}

var errFetch = errors.New("boom")

func (s *fakeSource) Courses(context.Context) ([]Course, error) {
	return s.courses, s.coursesErr
}

func (s *fakeSource) CourseWork(_ context.Context, id string) ([]RawAssignment, error) {
	if s.failing[id] {
		return nil, errFetch
	}
	return s.work[id], nil
}

func (s *fakeSource) Announcements(_ context.Context, id string) ([]RawAnnouncement, error) {
	if s.failing[id] {
		return nil, errFetch
	}
	return s.announcements[id], nil
}

func (s *fakeSource) Materials(_ context.Context, id string) ([]RawMaterial, error) {
	if s.failing[id] {
		return nil, errFetch
	}
	return s.materials[id], nil
}

type fakeConnector struct {
	src   Source
	token string
}

func (c *fakeConnector) Connect(_ context.Context, token string) (Source, error) {
	c.token = token
	return c.src, nil
}

func tp(t time.Time) *time.Time { return &t }
