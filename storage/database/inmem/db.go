// Package inmemdb keeps push subscriptions in process memory.
package inmemdb

import (
	"sync"

	"github.com/trezcool/studentsync/core/push"
)

type (
	DB struct {
		subscription *subscriptionTable
	}

	subscriptionTable struct {
		mutex sync.RWMutex
		table map[string]*push.Subscription
	}
)

func Open() *DB {
	return &DB{
		subscription: &subscriptionTable{table: make(map[string]*push.Subscription)},
	}
}
