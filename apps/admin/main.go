package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// start CLI
	cli := commandLine{
		conf: conf,
		out:  os.Stdout,
		openDB: func(ctx context.Context) (*sql.DB, error) {
			db, err := database.Open(ctx, conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
