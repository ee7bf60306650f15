package pushsvc

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
)

func newClientKeys(t *testing.T) push.Keys {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	auth := make([]byte, 16)
	_, _ = rand.Read(auth)
	return push.Keys{
		P256dh: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func newTestSender(t *testing.T) *Sender {
	t.Helper()
	priv, pub, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("GenerateVAPIDKeys() error = %v", err)
	}
	conf := core.NewTestConfig()
	conf.Push.Enabled = true
	conf.Push.Subscriber = "admin@school.test"
	conf.Push.VAPIDPrivateKey = priv
	conf.Push.VAPIDPublicKey = pub
	return NewSender(conf)
}

func TestSender_Send(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErr  bool
		wantGone bool
	}{
		{name: "created", status: http.StatusCreated},
		{name: "gone", status: http.StatusGone, wantErr: true, wantGone: true},
		{name: "not found", status: http.StatusNotFound, wantErr: true, wantGone: true},
		{name: "rejected", status: http.StatusBadRequest, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *http.Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			s := newTestSender(t).WithHTTPClient(srv.Client())
			sub := push.Subscription{Endpoint: srv.URL + "/push/abc", Keys: newClientKeys(t)}
			err := s.Send(context.Background(), sub, []byte(`{"title":"Student Sync Alert"}`))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if gone := errors.Cause(err) == push.ErrGone; gone != tt.wantGone {
				t.Errorf("Send() gone = %v, want %v", gone, tt.wantGone)
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, "/push/abc", got.URL.Path)
				assert.Equal(t, "aes128gcm", got.Header.Get("Content-Encoding"))
				assert.Equal(t, "60", got.Header.Get("TTL"))
				assert.True(t, strings.HasPrefix(got.Header.Get("Authorization"), "vapid t="))
			}
		})
	}
}

func TestSender_Disabled(t *testing.T) {
	s := NewSender(core.NewTestConfig())
	err := s.Send(context.Background(), push.Subscription{Endpoint: "https://push.test"}, []byte("{}"))
	if err != ErrDisabled {
		t.Errorf("Send() error = %v, wantErr %v", err, ErrDisabled)
	}
}
