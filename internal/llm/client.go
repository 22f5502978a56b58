package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Policy bounds a single remote call.
type Policy struct {
	// Timeout applies to each attempt. Zero means no timeout.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for transient failures.
	MaxRetries int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
}

// Client applies a Policy to a Provider.
type Client struct {
	provider Provider
	policy   Policy
	log      *slog.Logger
}

// NewClient wraps provider. A nil logger falls back to slog.Default.
func NewClient(provider Provider, policy Policy, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Client{
		provider: provider,
		policy:   policy,
		log:      log.With("component", "llm_client", "provider", provider.Name()),
	}
}

// Provider returns the wrapped provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// Complete calls the provider, retrying only transient failures. Rate-limit
// and auth failures are returned on the first attempt.
func (c *Client) Complete(ctx context.Context, model, instruction string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		start := time.Now()
		text, err := c.attempt(ctx, model, instruction)
		if err == nil {
			c.log.DebugContext(ctx, "LLM call succeeded",
				"model", model,
				"attempt", attempt+1,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return text, nil
		}
		lastErr = err

		kind := KindOf(err)
		c.log.WarnContext(ctx, "LLM call failed",
			"model", model,
			"attempt", attempt+1,
			"max_retries", c.policy.MaxRetries,
			"kind", kind.String(),
			"error", err,
		)
		if kind != KindTransient || attempt == c.policy.MaxRetries || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			return "", &Error{Provider: c.provider.Name(), Kind: KindTransient, Err: ctx.Err()}
		case <-time.After(c.policy.RetryDelay):
		}
	}
	return "", lastErr
}

func (c *Client) attempt(ctx context.Context, model, instruction string) (string, error) {
	if c.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		defer cancel()
	}

	text, err := c.provider.Complete(ctx, model, instruction)
	if err == nil {
		return text, nil
	}
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return "", err
	}
	// Providers outside this package may return plain errors.
	kind, ok := kindForContext(err)
	if !ok {
		kind = KindOther
	}
	return "", &Error{Provider: c.provider.Name(), Kind: kind, Err: err}
}
