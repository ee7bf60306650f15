// Package pushsvc delivers Web Push notifications signed with the server's VAPID keys.
package pushsvc

import (
	"context"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
)

var ErrDisabled = errors.New("web push is disabled")

type Sender struct {
	enabled    bool
	subscriber string
	publicKey  string
	privateKey string
	ttl        int
	httpClient webpush.HTTPClient
}

var _ push.Sender = (*Sender)(nil)

func NewSender(conf *core.Config) *Sender {
	return &Sender{
		enabled:    conf.Push.Enabled,
		subscriber: conf.Push.Subscriber,
		publicKey:  conf.Push.VAPIDPublicKey,
		privateKey: conf.Push.VAPIDPrivateKey,
		ttl:        conf.Push.TTL,
	}
}

// WithHTTPClient replaces the client used to reach push services. Used in tests.
func (s *Sender) WithHTTPClient(client webpush.HTTPClient) *Sender {
	s.httpClient = client
	return s
}

func (s *Sender) Send(ctx context.Context, sub push.Subscription, payload []byte) error {
	if !s.enabled || s.privateKey == "" {
		return ErrDisabled
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return errors.Wrap(err, "sending web push")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return errors.Wrapf(push.ErrGone, "push service answered %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("push service answered %d: %s", resp.StatusCode, body)
	}
	return nil
}

// GenerateVAPIDKeys returns a new base64url encoded key pair.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}
