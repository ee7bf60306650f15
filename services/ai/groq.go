package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// Groq uses the OpenAI-compatible chat completion API with JSON mode.
type Groq struct {
	client *openai.Client
	model  string
}

var _ JSONModel = (*Groq)(nil)

func NewGroq(apiKey, model, baseURL string) (*Groq, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &Groq{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (g *Groq) Provider() string { return ProviderGroq }

func (g *Groq) GenerateJSON(ctx context.Context, system, user string) ([]byte, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, errors.Wrap(ErrRateLimited, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, errors.Wrap(ErrRateLimited, reqErr.Error())
		}
		return nil, errors.Wrap(err, "groq chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("groq returned no choices")
	}
	return []byte(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}
