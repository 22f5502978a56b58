// Package llm wraps the text-generation providers behind one small interface
// and normalizes their failures into a fixed set of kinds.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider sends a single instruction to a named model and returns the raw
// reply text.
type Provider interface {
	// Name identifies the backend in logs ("openai", "gemini").
	Name() string

	// Complete runs a single-turn completion. Errors are *Error values.
	Complete(ctx context.Context, model, instruction string) (string, error)
}

// Kind classifies provider failures.
type Kind int

const (
	// KindOther is any failure not covered below.
	KindOther Kind = iota
	// KindRateLimited is quota, billing or request-rate exhaustion on the provider side.
	KindRateLimited
	// KindTransient is a network fault, timeout or 5xx that may succeed on retry.
	KindTransient
	// KindAuth is a rejected or missing credential.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	default:
		return "other"
	}
}

var (
	// ErrMissingAPIKey is returned by constructors without credentials.
	ErrMissingAPIKey = errors.New("missing api key")
	// ErrUnknownProvider is returned by New for unsupported backends.
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// Error is a provider failure with its kind. Error() returns the provider's
// own message so it can be shown to the operator unchanged.
type Error struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s request failed", e.Provider)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindOther when err is not an *Error.
func KindOf(err error) Kind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return KindOther
}

// kindForStatus maps an HTTP status code to a failure kind.
func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusRequestTimeout || code >= 500:
		return KindTransient
	default:
		return KindOther
	}
}

// kindForContext reports timeouts and cancellations as transient.
func kindForContext(err error) (Kind, bool) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient, true
	}
	return KindOther, false
}
