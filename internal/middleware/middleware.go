// Package middleware provides HTTP middleware for the bluecaller server.
package middleware

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Realm is the Basic auth realm announced in WWW-Authenticate.
const Realm = "Login Required"

// BasicAuth requires the single configured username and password.
// Failures get 401 with a Basic challenge for Realm.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return chimw.BasicAuth(Realm, map[string]string{username: password})
}

// RequestLogger logs one line per request through logger at info level.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(&chimw.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	})
}
