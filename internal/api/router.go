package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/bluecaller/internal/middleware"
	"github.com/ashureev/bluecaller/internal/session"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Username string
	Password string
	Sessions *session.Store
	Logger   *slog.Logger

	// TrustProxyHeaders lets X-Forwarded-For / X-Real-IP replace the peer
	// address. Only enable behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// NewRouter builds the HTTP surface: a public /health heartbeat and the
// Basic-auth protected pages.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	// Protected routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.BasicAuth(opts.Username, opts.Password))
		if opts.Sessions != nil {
			r.Use(opts.Sessions.Middleware)
		}
		h.RegisterRoutes(r)
	})

	return r
}
