package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/studentsync/apps/api/echo"
	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
	"github.com/trezcool/studentsync/core/session"
	"github.com/trezcool/studentsync/core/timeline"
	"github.com/trezcool/studentsync/services/ai"
	"github.com/trezcool/studentsync/services/calendar"
	emailsvc "github.com/trezcool/studentsync/services/email"
	inmemdb "github.com/trezcool/studentsync/storage/database/inmem"
)

const accessToken = "ya29.test-token"

func TestMain(m *testing.M) {
	core.ParseEmailTemplates(core.NopLogger{})
	m.Run()
}

// fakes

type fakeAggregator struct {
	items []timeline.CombinedItem
	err   error
	calls int
	token string
}

func (f *fakeAggregator) Aggregate(_ context.Context, token string) ([]timeline.CombinedItem, error) {
	f.calls++
	f.token = token
	if f.err != nil {
		return nil, f.err
	}
	return timeline.Finalize(f.items, time.Now()), nil
}

type fakeDetector struct {
	items []timeline.CombinedItem
	text  string
	ref   time.Time
}

func (f *fakeDetector) Detect(_ context.Context, text string, ref time.Time) []timeline.CombinedItem {
	f.text = text
	f.ref = ref
	return f.items
}

type fakeClassifier struct {
	intent ai.Intent
	err    error
}

func (f *fakeClassifier) Classify(context.Context, string) (ai.Intent, error) {
	return f.intent, f.err
}

type fakeCalendar struct {
	mu       sync.Mutex
	calls    int
	token    string
	timezone string
	event    timeline.ReviewedEvent
	err      error
}

var _ calendar.Writer = (*fakeCalendar)(nil)

func (f *fakeCalendar) CreateEvent(_ context.Context, token string, ev timeline.ReviewedEvent, tz string) (calendar.CreatedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.token = token
	f.timezone = tz
	f.event = ev
	if f.err != nil {
		return calendar.CreatedEvent{}, f.err
	}
	return calendar.CreatedEvent{ID: "abc123xyz", Link: "https://calendar.google.com/event?eid=abc123xyz"}, nil
}

type fakeSender struct {
	sent []push.Subscription
	err  error
}

func (f *fakeSender) Send(_ context.Context, sub push.Subscription, _ []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sub)
	return nil
}

type mailRecorder interface {
	core.EmailService
	SentMessages() []core.EmailMessage
}

// fixture

type fixture struct {
	conf         *core.Config
	server       *Server
	aggregator   *fakeAggregator
	exams        *fakeDetector
	announcement *fakeDetector
	classifier   *fakeClassifier
	calendar     *fakeCalendar
	sender       *fakeSender
	pushRepo     push.Repository
	mail         mailRecorder
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := core.NewTestConfig()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	f := &fixture{
		conf:         conf,
		aggregator:   &fakeAggregator{},
		exams:        &fakeDetector{},
		announcement: &fakeDetector{},
		classifier:   &fakeClassifier{},
		calendar:     &fakeCalendar{},
		sender:       &fakeSender{},
		pushRepo:     inmemdb.NewSubscriptionRepository(inmemdb.Open()),
		mail:         emailsvc.NewConsoleServiceMock(conf),
	}
	f.server = NewServer(conf, core.NopLogger{}, validate, translator, &Deps{
		Timeline:             f.aggregator,
		ExamDetector:         f.exams,
		AnnouncementDetector: f.announcement,
		Intent:               f.classifier,
		Calendar:             f.calendar,
		Push:                 push.NewService(f.pushRepo, f.sender, core.NopLogger{}),
		Mail:                 f.mail,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
	})
	return f
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	claims := session.NewClaims(f.conf, "user-1", "Ada Lovelace", "ada@school.test", accessToken)
	token, err := session.GenerateToken(claims, f.conf.SecretKey)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (f *fixture) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	f.server.ServeHTTP(rec, req)
	return rec
}

// http helpers

type httpTest struct {
	name     string
	body     []byte
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("code = %v, wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData != nil {
		equal, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
		if err != nil {
			t.Fatalf("jsonBytesEqual() failed: %v", err)
		}
		if !equal {
			t.Errorf("data = %s, wantData %s", rec.Body.String(), tt.wantData)
		}
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode() failed: %v; body = %s", err, rec.Body.String())
	}
}

func dateAt(y int, m time.Month, d, h, min int) *time.Time {
	t := time.Date(y, m, d, h, min, 0, 0, time.UTC)
	return &t
}

func TestServer_home(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Student Sync API!", rec.Body.String())

	rec = f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestServer_authentication(t *testing.T) {
	f := setup(t)

	expired := session.NewClaims(f.conf, "user-1", "Ada", "ada@school.test", accessToken)
	expired.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	expiredToken, _ := session.GenerateToken(expired, f.conf.SecretKey)

	noAccess := session.NewClaims(f.conf, "user-1", "Ada", "ada@school.test", "")
	noAccessToken, _ := session.GenerateToken(noAccess, f.conf.SecretKey)

	otherKey, _ := session.GenerateToken(session.NewClaims(f.conf, "user-1", "", "", accessToken), "other")

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not.a.jwt"},
		{name: "expired token", token: expiredToken},
		{name: "no platform credential", token: noAccessToken},
		{name: "wrong signing key", token: otherKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/v1/timeline", tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body struct {
				Success bool `json:"success"`
			}
			decode(t, rec, &body)
			assert.False(t, body.Success)
		})
	}
	assert.Zero(t, f.aggregator.calls)
}
