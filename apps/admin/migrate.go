package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/studentsync/storage/database"
	"github.com/trezcool/studentsync/storage/database/pgrepos"
)

var (
	gooseRunFunc   = database.RunMigrations    // mockable
	createDBFunc   = database.CreateIfNotExist // mockable
	purgeCacheFunc = purgeDetectionCache       // mockable
)

func purgeDetectionCache(ctx context.Context, db *sql.DB) (int64, error) {
	return pgrepos.NewCache(sqlx.NewDb(db, "postgres"), 0).Purge(ctx)
}

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	db, err := cli.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return gooseRunFunc(ctx, db, args[0], args[1:]...)
}

func (cli *commandLine) purgeCache(ctx context.Context) error {
	db, err := cli.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	n, err := purgeCacheFunc(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "purged %d expired detection cache entries\n", n)
	return nil
}
