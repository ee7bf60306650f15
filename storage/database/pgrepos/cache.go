package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studentsync/core/timeline"
)

const cacheTable = "detection_cache"

type cacheRow struct {
	Fingerprint string    `db:"fingerprint"`
	Items       []byte    `db:"items"`
	StoredAt    time.Time `db:"stored_at"`
	ExpiresAt   null.Time `db:"expires_at"`
}

// Cache stores detection results in the detection_cache table.
type Cache struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

var _ timeline.Cache = (*Cache)(nil)

func NewCache(db *sqlx.DB, ttl time.Duration) *Cache {
	return &Cache{db: db, ttl: ttl, now: time.Now}
}

func getCacheQuery(fingerprint string, now time.Time) (string, []interface{}, error) {
	return psql.Select("fingerprint", "items", "stored_at", "expires_at").
		From(cacheTable).
		Where(sq.Eq{"fingerprint": fingerprint}).
		Where(sq.Or{sq.Eq{"expires_at": nil}, sq.Gt{"expires_at": now}}).
		ToSql()
}

func putCacheQuery(row cacheRow) (string, []interface{}, error) {
	return psql.Insert(cacheTable).
		Columns("fingerprint", "items", "stored_at", "expires_at").
		Values(row.Fingerprint, row.Items, row.StoredAt, row.ExpiresAt).
		Suffix("ON CONFLICT (fingerprint) DO UPDATE SET items = EXCLUDED.items, stored_at = EXCLUDED.stored_at, expires_at = EXCLUDED.expires_at").
		ToSql()
}

func (c *Cache) Get(ctx context.Context, fingerprint string) ([]timeline.CombinedItem, bool, error) {
	q, args, err := getCacheQuery(fingerprint, c.now().UTC())
	if err != nil {
		return nil, false, errors.Wrap(err, "building cache query")
	}

	var row cacheRow
	if err := c.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "reading cache entry")
	}

	var items []timeline.CombinedItem
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return nil, false, errors.Wrap(err, "decoding cache entry")
	}
	return items, true, nil
}

func (c *Cache) Put(ctx context.Context, fingerprint string, items []timeline.CombinedItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "encoding cache entry")
	}

	row := cacheRow{Fingerprint: fingerprint, Items: raw, StoredAt: c.now().UTC()}
	if c.ttl > 0 {
		row.ExpiresAt = null.TimeFrom(row.StoredAt.Add(c.ttl))
	}
	q, args, err := putCacheQuery(row)
	if err != nil {
		return errors.Wrap(err, "building cache query")
	}
	if _, err := c.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "writing cache entry")
	}
	return nil
}

func purgeCacheQuery(now time.Time) (string, []interface{}, error) {
	return psql.Delete(cacheTable).Where(sq.LtOrEq{"expires_at": now}).ToSql()
}

// Purge deletes expired entries.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	q, args, err := purgeCacheQuery(c.now().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "building purge query")
	}
	res, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "purging cache")
	}
	return res.RowsAffected()
}
