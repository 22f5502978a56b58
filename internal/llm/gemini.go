package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/genai"
)

// statusResourceExhausted is the Gemini status for quota exhaustion.
const statusResourceExhausted = "RESOURCE_EXHAUSTED"

// Gemini implements Provider on the Gemini generateContent API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini provider. baseURL may be empty for the public API.
func NewGemini(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Name implements Provider.
func (p *Gemini) Name() string { return "gemini" }

// Complete sends instruction as a single user turn.
func (p *Gemini) Complete(ctx context.Context, model, instruction string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(instruction), nil)
	if err != nil {
		return "", geminiError(err)
	}

	// A blocked or empty candidate yields "", like an empty OpenAI message.
	return resp.Text(), nil
}

func geminiError(err error) *Error {
	out := &Error{Provider: "gemini", Kind: KindOther, Err: err}

	var apiErr genai.APIError
	var netErr net.Error

	switch {
	case errors.As(err, &apiErr):
		out.StatusCode = apiErr.Code
		out.Kind = kindForStatus(apiErr.Code)
		if apiErr.Status == statusResourceExhausted {
			out.Kind = KindRateLimited
		}
	default:
		if kind, ok := kindForContext(err); ok {
			out.Kind = kind
		} else if errors.As(err, &netErr) {
			out.Kind = KindTransient
		}
	}
	return out
}
