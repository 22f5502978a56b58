// Package api provides the HTTP handlers for the bluecaller web app.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/bluecaller/internal/domain"
	"github.com/ashureev/bluecaller/internal/session"
	"github.com/ashureev/bluecaller/web"
)

// FormField is the form field carrying the operator's text.
const FormField = "user_input"

// Runner executes one prompt request end to end.
type Runner interface {
	Run(ctx context.Context, req domain.PromptRequest) domain.Result
}

// Handler serves the form and result pages.
type Handler struct {
	runner        Runner
	pages         *web.Pages
	sessions      *session.Store
	maxInputBytes int64
	log           *slog.Logger
}

// NewHandler creates a Handler. A nil logger falls back to slog.Default.
func NewHandler(runner Runner, pages *web.Pages, sessions *session.Store, maxInputBytes int64, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		runner:        runner,
		pages:         pages,
		sessions:      sessions,
		maxInputBytes: maxInputBytes,
		log:           log,
	}
}

// RegisterRoutes registers the page routes. Authentication is applied by
// the caller.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/generate", h.Generate)
}

// Index renders the input form.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	h.pages.Index(w)
}

// Generate runs the pipeline for the submitted text and renders the result.
// Every pipeline outcome renders as a normal 200 page; only malformed
// submissions get an error status.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.maxInputBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxInputBytes)
	}
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	input := r.PostForm.Get(FormField)
	if input == "" {
		http.Error(w, "missing "+FormField, http.StatusBadRequest)
		return
	}

	req := domain.NewPromptRequest(input, ClientIP(r))
	res := h.runner.Run(r.Context(), req)

	if res.Outcome != domain.OutcomeRateLimitExceeded && h.sessions != nil {
		count := h.sessions.Increment(w, r)
		h.log.Debug("prompt count this session", "count", count, "request_id", req.ID)
	}

	h.log.Info("Prompt handled",
		"request_id", req.ID,
		"ip", req.ClientAddress,
		"outcome", res.Outcome,
		"category", res.Category.String(),
	)

	data := web.ResultData{Output: res.Text}
	if !res.Outcome.Failed() {
		data.Category = res.Category.Label()
	}
	h.pages.Result(w, data)
}

// ClientIP returns the host part of the request's remote address. Forwarded
// headers only count when the router trusts them.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
