package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newGroqServer(t *testing.T, status int, body string) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var requests []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests = append(requests, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestGroq_GenerateJSON(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv, reqs := newGroqServer(t, http.StatusOK, `{
			"id": "chatcmpl-1", "object": "chat.completion", "model": "llama",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": " {\"events\": []} "}, "finish_reason": "stop"}]
		}`)
		g, err := NewGroq("key", "llama", srv.URL+"/v1/")
		if err != nil {
			t.Fatalf("NewGroq() error = %v", err)
		}
		got, err := g.GenerateJSON(context.Background(), "sys", "usr")
		if err != nil {
			t.Fatalf("GenerateJSON() error = %v", err)
		}
		assert.Equal(t, `{"events": []}`, string(got))
		if assert.Len(t, *reqs, 1) {
			req := (*reqs)[0]
			assert.Equal(t, "llama", req["model"])
			assert.Equal(t, map[string]interface{}{"type": "json_object"}, req["response_format"])
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		srv, _ := newGroqServer(t, http.StatusTooManyRequests, `{"error": {"message": "slow down", "type": "rate_limit"}}`)
		g, _ := NewGroq("key", "llama", srv.URL+"/v1")
		_, err := g.GenerateJSON(context.Background(), "sys", "usr")
		if !IsRateLimited(err) {
			t.Errorf("GenerateJSON() error = %v, want rate limited", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		srv, _ := newGroqServer(t, http.StatusInternalServerError, `{"error": {"message": "oops"}}`)
		g, _ := NewGroq("key", "llama", srv.URL+"/v1")
		_, err := g.GenerateJSON(context.Background(), "sys", "usr")
		if err == nil || IsRateLimited(err) {
			t.Errorf("GenerateJSON() error = %v, want non rate limit error", err)
		}
	})
}

func TestNewModel_NotConfigured(t *testing.T) {
	if _, err := NewGroq("", "llama", ""); err != ErrNotConfigured {
		t.Errorf("NewGroq() error = %v, wantErr %v", err, ErrNotConfigured)
	}
	if _, err := NewGemini(context.Background(), "", "gemini"); err != ErrNotConfigured {
		t.Errorf("NewGemini() error = %v, wantErr %v", err, ErrNotConfigured)
	}
}
