package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAIServer(t *testing.T, status int, body string, seen *chatRequest) *OpenAI {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p, err := NewOpenAI("test-key", srv.URL+"/v1")
	require.NoError(t, err)
	return p
}

func TestOpenAICompleteSendsSingleSystemMessage(t *testing.T) {
	t.Parallel()

	var seen chatRequest
	p := newOpenAIServer(t, http.StatusOK,
		`{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Quote \n"}}]}`,
		&seen)

	text, err := p.Complete(context.Background(), "gpt-3.5-turbo", "classify this")
	require.NoError(t, err)
	assert.Equal(t, "  Quote \n", text)

	assert.Equal(t, "gpt-3.5-turbo", seen.Model)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "classify this", seen.Messages[0].Content)
}

func TestOpenAIQuotaErrorIsRateLimited(t *testing.T) {
	t.Parallel()

	p := newOpenAIServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"You exceeded your current quota, please check your plan and billing details.","type":"insufficient_quota","code":"insufficient_quota"}}`,
		nil)

	_, err := p.Complete(context.Background(), "gpt-4", "x")
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusTooManyRequests, llmErr.StatusCode)
	assert.Equal(t, "openai", llmErr.Provider)
}

func TestOpenAIQuotaCodeWinsOverStatus(t *testing.T) {
	t.Parallel()

	p := newOpenAIServer(t, http.StatusBadRequest,
		`{"error":{"message":"quota","type":"invalid_request_error","code":"insufficient_quota"}}`,
		nil)

	_, err := p.Complete(context.Background(), "gpt-4", "x")
	assert.Equal(t, KindRateLimited, KindOf(err))
}

func TestOpenAIStatusKinds(t *testing.T) {
	t.Parallel()

	cases := map[int]Kind{
		http.StatusUnauthorized:        KindAuth,
		http.StatusInternalServerError: KindTransient,
		http.StatusServiceUnavailable:  KindTransient,
		http.StatusBadRequest:          KindOther,
	}
	for status, want := range cases {
		p := newOpenAIServer(t, status, `{"error":{"message":"boom","type":"server_error"}}`, nil)
		_, err := p.Complete(context.Background(), "gpt-4", "x")
		require.Error(t, err)
		assert.Equal(t, want, KindOf(err), "status %d", status)
		assert.Contains(t, err.Error(), "boom")
	}
}

func TestOpenAINonJSONErrorBody(t *testing.T) {
	t.Parallel()

	p := newOpenAIServer(t, http.StatusBadGateway, `upstream down`, nil)
	_, err := p.Complete(context.Background(), "gpt-4", "x")
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestOpenAIEmptyReplyIsNotAnError(t *testing.T) {
	t.Parallel()

	for _, body := range []string{
		`{"id":"chatcmpl-1","choices":[]}`,
		`{"id":"chatcmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`,
	} {
		p := newOpenAIServer(t, http.StatusOK, body, nil)
		text, err := p.Complete(context.Background(), "gpt-3.5-turbo", "x")
		require.NoError(t, err, body)
		assert.Empty(t, text)
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAI("", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
