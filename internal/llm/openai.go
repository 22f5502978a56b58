package llm

import (
	"context"
	"errors"
	"net"

	gopenai "github.com/sashabaranov/go-openai"
)

// quotaCode is the OpenAI error code for exhausted billing quota.
const quotaCode = "insufficient_quota"

// OpenAI implements Provider on the chat completions API.
type OpenAI struct {
	client *gopenai.Client
}

// NewOpenAI creates an OpenAI provider. baseURL may be empty for the public API.
func NewOpenAI(apiKey, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := gopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAI{client: gopenai.NewClientWithConfig(cfg)}, nil
}

// Name implements Provider.
func (p *OpenAI) Name() string { return "openai" }

// Complete sends instruction as a single system message.
func (p *OpenAI) Complete(ctx context.Context, model, instruction string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: instruction},
		},
	})
	if err != nil {
		return "", openAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIError(err error) *Error {
	out := &Error{Provider: "openai", Kind: KindOther, Err: err}

	var apiErr *gopenai.APIError
	var reqErr *gopenai.RequestError
	var netErr net.Error

	switch {
	case errors.As(err, &apiErr):
		out.StatusCode = apiErr.HTTPStatusCode
		out.Kind = kindForStatus(apiErr.HTTPStatusCode)
		if code, ok := apiErr.Code.(string); ok && code == quotaCode {
			out.Kind = KindRateLimited
		}
		if apiErr.Type == quotaCode {
			out.Kind = KindRateLimited
		}
	case errors.As(err, &reqErr):
		out.StatusCode = reqErr.HTTPStatusCode
		out.Kind = kindForStatus(reqErr.HTTPStatusCode)
	default:
		if kind, ok := kindForContext(err); ok {
			out.Kind = kind
		} else if errors.As(err, &netErr) {
			out.Kind = KindTransient
		}
	}
	return out
}
