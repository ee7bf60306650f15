package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/studentsync/core"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	out    io.Writer
	openDB func(ctx context.Context) (*sql.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  token -subject ID -email EMAIL [-name NAME] - sign a session token; the Google access token is prompted next")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]                   - run a goose command (up, down, status, version, redo, reset...)")
	fmt.Fprintln(cli.out, "  createdb                                    - create the app database user and database")
	fmt.Fprintln(cli.out, "  vapidkeys                                   - generate a Web Push VAPID key pair")
	fmt.Fprintln(cli.out, "  purgecache                                  - delete expired rows of the postgres detection cache")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenCmd.SetOutput(cli.out)
	tokenSubject := tokenCmd.String("subject", "", "The user's stable ID.")
	tokenEmail := tokenCmd.String("email", "", "The user's email, used for digests.")
	tokenName := tokenCmd.String("name", "", "The user's display name.")

	ctx := context.Background()

	switch args[1] {
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenSubject == "" || *tokenEmail == "" {
			tokenCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter Google access token:")
		accessToken, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(strings.TrimSpace(string(accessToken))) == 0 {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenSubject, *tokenName, *tokenEmail, strings.TrimSpace(string(accessToken)))
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "createdb":
		return createDBFunc(ctx, cli.conf)
	case "vapidkeys":
		return cli.vapidKeys()
	case "purgecache":
		return cli.purgeCache(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}
