// Package ai talks to generative-text services that answer in JSON.
package ai

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

var (
	// ErrRateLimited is returned (wrapped) by models when the service answered 429.
	ErrRateLimited = errors.New("rate limited by the text model")
	// ErrNotConfigured means the provider has no API key.
	ErrNotConfigured = errors.New("text model not configured")
)

// JSONModel sends one system+user prompt pair and returns the raw JSON answer.
type JSONModel interface {
	GenerateJSON(ctx context.Context, system, user string) ([]byte, error)
	Provider() string
}

// NewModel builds the configured provider. A missing key yields ErrNotConfigured.
func NewModel(ctx context.Context, conf *core.Config) (JSONModel, error) {
	switch conf.AI.Provider {
	case ProviderGemini, "":
		return NewGemini(ctx, conf.AI.GeminiAPIKey, conf.AI.GeminiModel)
	case ProviderGroq:
		return NewGroq(conf.AI.GroqAPIKey, conf.AI.GroqModel, conf.AI.GroqBaseURL)
	default:
		return nil, errors.Errorf("unknown ai provider %q", conf.AI.Provider)
	}
}

// IsRateLimited reports whether err was caused by a 429.
func IsRateLimited(err error) bool {
	return errors.Cause(err) == ErrRateLimited
}
