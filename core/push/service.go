// Package push stores users' Web Push subscriptions and fans notifications out to them.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
)

var (
	ErrNoSubscriptions = errors.New("no push subscriptions")
	// ErrGone is returned by a Sender when the push service forgot the subscription.
	ErrGone = errors.New("push subscription expired or unsubscribed")
)

// Outcomes reported to an Observer.
const (
	OutcomeSent   = "sent"
	OutcomeGone   = "gone"
	OutcomeFailed = "failed"
)

type (
	Repository interface {
		// SaveSubscription inserts sub, or replaces the user's subscription with the same endpoint.
		SaveSubscription(ctx context.Context, sub Subscription) (Subscription, error)
		QuerySubscriptionsByUser(ctx context.Context, userID string) ([]Subscription, error)
		DeleteSubscription(ctx context.Context, id string) error
	}

	// Sender delivers an encrypted payload to one subscription.
	Sender interface {
		Send(ctx context.Context, sub Subscription, payload []byte) error
	}

	Observer interface {
		ObservePush(outcome string)
	}

	Service struct {
		repo   Repository
		sender Sender
		logger core.Logger
		obs    Observer
	}
)

func NewService(repo Repository, sender Sender, logger core.Logger) *Service {
	return &Service{repo: repo, sender: sender, logger: logger}
}

func (svc *Service) WithObserver(obs Observer) *Service {
	svc.obs = obs
	return svc
}

// Subscribe stores sub for userID.
func (svc *Service) Subscribe(ctx context.Context, userID string, sub Subscription) (Subscription, error) {
	if userID == "" {
		return Subscription{}, core.ErrUnauthenticated
	}
	sub = sub.clean()
	sub.UserID = userID
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	saved, err := svc.repo.SaveSubscription(ctx, sub)
	if err != nil {
		return Subscription{}, errors.Wrap(err, "saving push subscription")
	}
	return saved, nil
}

// Send pushes message to target, or to every subscription of userID when target is nil.
// Subscriptions the push service reports as gone are deleted.
// It fails only when nothing could be delivered.
func (svc *Service) Send(ctx context.Context, userID, message string, target *Subscription) (int, error) {
	payload, err := json.Marshal(NewNotification(message))
	if err != nil {
		return 0, errors.Wrap(err, "encoding notification")
	}

	var subs []Subscription
	if target != nil {
		subs = []Subscription{target.clean()}
	} else {
		if subs, err = svc.repo.QuerySubscriptionsByUser(ctx, userID); err != nil {
			return 0, errors.Wrap(err, "querying push subscriptions")
		}
	}
	if len(subs) == 0 {
		return 0, ErrNoSubscriptions
	}

	var (
		sent    int
		lastErr error
	)
	for _, sub := range subs {
		err := svc.sender.Send(ctx, sub, payload)
		switch {
		case err == nil:
			sent++
			svc.observe(OutcomeSent)
		case errors.Cause(err) == ErrGone:
			svc.observe(OutcomeGone)
			lastErr = err
			if sub.ID != "" {
				if err := svc.repo.DeleteSubscription(ctx, sub.ID); err != nil {
					svc.logger.Warn(fmt.Sprintf("push.Send: deleting subscription %s: %v", sub.ID, err), err)
				}
			}
		default:
			svc.observe(OutcomeFailed)
			lastErr = err
			svc.logger.Warn(fmt.Sprintf("push.Send: %v", err), err)
		}
	}
	if sent == 0 {
		return 0, errors.Wrap(lastErr, "sending notification")
	}
	return sent, nil
}

func (svc *Service) observe(outcome string) {
	if svc.obs != nil {
		svc.obs.ObservePush(outcome)
	}
}
