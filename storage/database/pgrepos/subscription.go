package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
)

const subscriptionTable = "push_subscription"

var subscriptionColumns = []string{"id", "user_id", "endpoint", "p256dh", "auth", "expiration_time", "created_at"}

type subscriptionRow struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	Endpoint       string     `db:"endpoint"`
	P256dh         string     `db:"p256dh"`
	Auth           string     `db:"auth"`
	ExpirationTime null.Int64 `db:"expiration_time"`
	CreatedAt      time.Time  `db:"created_at"`
}

func toSubscriptionRow(s push.Subscription) subscriptionRow {
	return subscriptionRow{
		ID:             s.ID,
		UserID:         s.UserID,
		Endpoint:       s.Endpoint,
		P256dh:         s.Keys.P256dh,
		Auth:           s.Keys.Auth,
		ExpirationTime: null.Int64FromPtr(s.ExpirationTime),
		CreatedAt:      s.CreatedAt,
	}
}

func (r subscriptionRow) subscription() push.Subscription {
	return push.Subscription{
		ID:             r.ID,
		UserID:         r.UserID,
		Endpoint:       r.Endpoint,
		ExpirationTime: r.ExpirationTime.Ptr(),
		Keys:           push.Keys{P256dh: r.P256dh, Auth: r.Auth},
		CreatedAt:      r.CreatedAt,
	}
}

type subscriptionRepository struct {
	db *sqlx.DB
}

var _ push.Repository = (*subscriptionRepository)(nil)

func NewSubscriptionRepository(db *sqlx.DB) push.Repository {
	return &subscriptionRepository{db: db}
}

func saveSubscriptionQuery(row subscriptionRow) (string, []interface{}, error) {
	return psql.Insert(subscriptionTable).
		Columns(subscriptionColumns...).
		Values(row.ID, row.UserID, row.Endpoint, row.P256dh, row.Auth, row.ExpirationTime, row.CreatedAt).
		Suffix("ON CONFLICT (user_id, endpoint) DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, expiration_time = EXCLUDED.expiration_time").
		Suffix("RETURNING id, user_id, endpoint, p256dh, auth, expiration_time, created_at").
		ToSql()
}

func (repo *subscriptionRepository) SaveSubscription(ctx context.Context, sub push.Subscription) (push.Subscription, error) {
	q, args, err := saveSubscriptionQuery(toSubscriptionRow(sub))
	if err != nil {
		return push.Subscription{}, errors.Wrap(err, "building subscription query")
	}
	var row subscriptionRow
	if err := repo.db.QueryRowxContext(ctx, q, args...).StructScan(&row); err != nil {
		return push.Subscription{}, errors.Wrap(err, "saving subscription")
	}
	return row.subscription(), nil
}

func (repo *subscriptionRepository) QuerySubscriptionsByUser(ctx context.Context, userID string) ([]push.Subscription, error) {
	q, args, err := psql.Select(subscriptionColumns...).
		From(subscriptionTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building subscription query")
	}

	var rows []subscriptionRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying subscriptions")
	}
	subs := make([]push.Subscription, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.subscription())
	}
	return subs, nil
}

func (repo *subscriptionRepository) DeleteSubscription(ctx context.Context, id string) error {
	q, args, err := psql.Delete(subscriptionTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building subscription query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting subscription")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}
