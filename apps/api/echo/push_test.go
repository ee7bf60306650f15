package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/studentsync/apps/api/echo"
	"github.com/trezcool/studentsync/core/push"
)

const subscriptionJSON = `{"endpoint":"https://push.example.test/send/abc","expirationTime":null,"keys":{"p256dh":"BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM","auth":"tBHItJI5svbpez7KI4CCXg"}}`

func TestPushAPI_subscribe(t *testing.T) {
	tests := []httpTest{
		{
			name:     "missing endpoint",
			body:     []byte(`{"keys":{"p256dh":"a","auth":"b"}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"success":false,"message":"invalid data","errors":{"endpoint":"this field is required"}}`),
		},
		{
			name:     "missing keys",
			body:     []byte(`{"endpoint":"https://push.example.test/send/abc","keys":{}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"success":false,"message":"invalid data","errors":{"p256dh":"this field is required","auth":"this field is required"}}`),
		},
		{
			name:     "saved",
			body:     []byte(subscriptionJSON),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)

			rec := f.do(http.MethodPost, "/v1/push/subscribe", f.token(t), tt.body)

			checkCodeAndData(t, tt, rec)
			subs, err := f.pushRepo.QuerySubscriptionsByUser(context.Background(), "user-1")
			if err != nil {
				t.Fatalf("QuerySubscriptionsByUser() error = %v", err)
			}
			if tt.wantCode != http.StatusCreated {
				assert.Empty(t, subs)
				return
			}

			var resp SubscribeResponse
			decode(t, rec, &resp)
			assert.True(t, resp.Success)
			assert.NotEmpty(t, resp.Subscription.ID)
			if assert.Len(t, subs, 1) {
				assert.Equal(t, resp.Subscription.ID, subs[0].ID)
				assert.Equal(t, "https://push.example.test/send/abc", subs[0].Endpoint)
			}
		})
	}
}

func TestPushAPI_send(t *testing.T) {
	t.Run("no subscriptions", func(t *testing.T) {
		f := setup(t)

		rec := f.do(http.MethodPost, "/v1/push/send", f.token(t), []byte(`{"message":"Exam tomorrow"}`))

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"success":false,"message":"no push subscriptions"}`),
		}, rec)
	})

	t.Run("missing message", func(t *testing.T) {
		f := setup(t)

		rec := f.do(http.MethodPost, "/v1/push/send", f.token(t), []byte(`{"message":""}`))

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"success":false,"message":"invalid data","errors":{"message":"this field is required"}}`),
		}, rec)
	})

	t.Run("stored subscriptions", func(t *testing.T) {
		f := setup(t)
		token := f.token(t)
		if rec := f.do(http.MethodPost, "/v1/push/subscribe", token, []byte(subscriptionJSON)); rec.Code != http.StatusCreated {
			t.Fatalf("subscribe code = %v", rec.Code)
		}

		rec := f.do(http.MethodPost, "/v1/push/send", token, []byte(`{"message":"Exam tomorrow"}`))

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marshalObj(t, SendResponse{Success: true, Message: "Notification sent successfully", Sent: 1}),
		}, rec)
		if assert.Len(t, f.sender.sent, 1) {
			assert.Equal(t, "https://push.example.test/send/abc", f.sender.sent[0].Endpoint)
		}
	})

	t.Run("explicit subscription", func(t *testing.T) {
		f := setup(t)

		rec := f.do(http.MethodPost, "/v1/push/send", f.token(t), []byte(`{"message":"hi","subscription":`+subscriptionJSON+`}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, f.sender.sent, 1)
	})

	t.Run("push service failure", func(t *testing.T) {
		f := setup(t)
		f.sender.err = errors.New("connection refused")

		rec := f.do(http.MethodPost, "/v1/push/send", f.token(t), []byte(`{"message":"hi","subscription":`+subscriptionJSON+`}`))

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusInternalServerError,
			wantData: []byte(`{"success":false,"message":"Failed to send notification"}`),
		}, rec)
	})

	t.Run("gone subscription is dropped", func(t *testing.T) {
		f := setup(t)
		token := f.token(t)
		f.do(http.MethodPost, "/v1/push/subscribe", token, []byte(subscriptionJSON))
		f.sender.err = push.ErrGone

		rec := f.do(http.MethodPost, "/v1/push/send", token, []byte(`{"message":"hi"}`))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		subs, _ := f.pushRepo.QuerySubscriptionsByUser(context.Background(), "user-1")
		assert.Empty(t, subs)
	})
}
