package ai

import (
	"context"
	"sync"
	"time"
)

type fakeModel struct {
	mu      sync.Mutex
	answers [][]byte
	errs    []error
	systems []string
	users   []string
}

func (m *fakeModel) Provider() string { return "fake" }

func (m *fakeModel) GenerateJSON(_ context.Context, system, user string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.users)
	m.systems = append(m.systems, system)
	m.users = append(m.users, user)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.answers) {
		return m.answers[i], nil
	}
	if len(m.answers) > 0 {
		return m.answers[len(m.answers)-1], nil
	}
	return []byte("[]"), nil
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveExtraction(_, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}
