package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Options selects and configures a backend.
type Options struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiBaseURL string
	HTTPClient    *http.Client
}

// New builds the Provider named in opts.
func New(ctx context.Context, opts Options) (Provider, error) {
	switch opts.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(opts.OpenAIAPIKey, opts.OpenAIBaseURL)
	case ProviderGemini:
		return NewGemini(ctx, opts.GeminiAPIKey, opts.GeminiBaseURL, opts.HTTPClient)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
}
