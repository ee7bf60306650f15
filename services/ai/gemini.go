package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

type Gemini struct {
	client *genai.Client
	model  string
}

var _ JSONModel = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey, model string, baseURL ...string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if len(baseURL) > 0 && baseURL[0] != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL[0]}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Provider() string { return ProviderGemini }

func (g *Gemini) GenerateJSON(ctx context.Context, system, user string) ([]byte, error) {
	contents := []*genai.Content{
		{
			Parts: []*genai.Part{{Text: user}},
			Role:  "user",
		},
	}
	var temperature float32

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return nil, errors.Wrap(ErrRateLimited, apiErr.Message)
		}
		return nil, errors.Wrap(err, "gemini generate content")
	}
	return []byte(strings.TrimSpace(resp.Text())), nil
}
