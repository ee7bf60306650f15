package ai

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/trezcool/studentsync/core"
)

// Limiter bounds concurrent model calls and backs off exponentially on 429s.
// The slot is released while backing off.
type Limiter struct {
	sem      *semaphore.Weighted
	attempts int
	initial  time.Duration
	max      time.Duration
}

func NewLimiter(concurrency int64, attempts int, initial, max time.Duration) *Limiter {
	if concurrency < 1 {
		concurrency = 1
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Limiter{
		sem:      semaphore.NewWeighted(concurrency),
		attempts: attempts,
		initial:  initial,
		max:      max,
	}
}

func NewLimiterFromConfig(conf *core.Config) *Limiter {
	return NewLimiter(conf.AI.Concurrency, conf.AI.MaxAttempts, conf.AI.InitialBackoff, conf.AI.MaxBackoff)
}

// Do runs fn under the concurrency limit, retrying only rate-limited failures.
func (l *Limiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	d := l.initial
	for i := 0; ; i++ {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		err := fn(ctx)
		l.sem.Release(1)

		if err == nil || !IsRateLimited(err) || i == l.attempts-1 {
			return err
		}

		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
		if d < l.max {
			d *= 2
			if d > l.max {
				d = l.max
			}
		}
	}
}
