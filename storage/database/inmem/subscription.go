package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
)

type subscriptionRepository struct {
	db *subscriptionTable
}

func NewSubscriptionRepository(db *DB) push.Repository {
	return &subscriptionRepository{db: db.subscription}
}

func (repo *subscriptionRepository) SaveSubscription(_ context.Context, sub push.Subscription) (push.Subscription, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, s := range repo.db.table {
		if s.UserID == sub.UserID && s.Endpoint == sub.Endpoint {
			// keep the original identity
			sub.ID = s.ID
			sub.CreatedAt = s.CreatedAt
			delete(repo.db.table, id)
		}
	}
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *subscriptionRepository) QuerySubscriptionsByUser(_ context.Context, userID string) ([]push.Subscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]push.Subscription, 0)
	for _, s := range repo.db.table {
		if s.UserID == userID {
			subs = append(subs, *s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (repo *subscriptionRepository) DeleteSubscription(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
