// Package pgrepos implements the cache and repositories on Postgres with sqlx and squirrel.
package pgrepos

import (
	sq "github.com/Masterminds/squirrel"
)

// psql builds statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
