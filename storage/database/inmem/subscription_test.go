package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
)

func TestSubscriptionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriptionRepository(Open())
	t0 := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	save := func(id, user, endpoint string, at time.Time) push.Subscription {
		t.Helper()
		s, err := repo.SaveSubscription(ctx, push.Subscription{
			ID: id, UserID: user, Endpoint: endpoint, Keys: push.Keys{P256dh: "p", Auth: "a"}, CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("SaveSubscription() error = %v", err)
		}
		return s
	}

	save("s1", "u1", "https://push.test/1", t0)
	save("s2", "u1", "https://push.test/2", t0.Add(time.Minute))
	save("s3", "u2", "https://push.test/1", t0)

	// re-subscribing an endpoint keeps its id
	again := save("s4", "u1", "https://push.test/1", t0.Add(time.Hour))
	assert.Equal(t, "s1", again.ID)
	assert.Equal(t, t0, again.CreatedAt)

	subs, err := repo.QuerySubscriptionsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("QuerySubscriptionsByUser() error = %v", err)
	}
	if assert.Len(t, subs, 2) {
		assert.Equal(t, "s1", subs[0].ID)
		assert.Equal(t, "s2", subs[1].ID)
	}

	if err := repo.DeleteSubscription(ctx, "s2"); err != nil {
		t.Errorf("DeleteSubscription() error = %v", err)
	}
	if err := repo.DeleteSubscription(ctx, "s2"); err != core.ErrNotFound {
		t.Errorf("DeleteSubscription() error = %v, wantErr %v", err, core.ErrNotFound)
	}
	subs, _ = repo.QuerySubscriptionsByUser(ctx, "u1")
	assert.Len(t, subs, 1)
}
