package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core/session"
	pushsvc "github.com/trezcool/studentsync/services/push"
)

func (cli *commandLine) token(subject, name, email, accessToken string) error {
	claims := session.NewClaims(cli.conf, subject, name, email, accessToken)
	token, err := session.GenerateToken(claims, cli.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func (cli *commandLine) vapidKeys() error {
	private, public, err := pushsvc.GenerateVAPIDKeys()
	if err != nil {
		return errors.Wrap(err, "generating VAPID keys")
	}
	fmt.Fprintf(cli.out, "PUSH_VAPIDPUBLICKEY=%s\nPUSH_VAPIDPRIVATEKEY=%s\n", public, private)
	return nil
}
