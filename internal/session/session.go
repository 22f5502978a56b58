// Package session keeps a per-browser prompt counter in a signed cookie.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
)

// CookieName is the name of the session cookie.
const CookieName = "bluecaller_session"

type contextKey int

const countKey contextKey = iota

// Store signs and verifies session cookies with a shared secret.
type Store struct {
	secret []byte
}

// NewStore returns a Store signing with secret.
func NewStore(secret string) *Store {
	return &Store{secret: []byte(secret)}
}

// Middleware reads the prompt counter from the request cookie and places it
// in the request context. Missing or tampered cookies count as zero.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := 0
		if c, err := r.Cookie(CookieName); err == nil {
			if n, ok := s.decode(c.Value); ok {
				count = n
			}
		}
		ctx := context.WithValue(r.Context(), countKey, count)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CountFromContext returns the prompt counter loaded by Middleware.
func CountFromContext(ctx context.Context) int {
	if v, ok := ctx.Value(countKey).(int); ok {
		return v
	}
	return 0
}

// Increment bumps the counter for this browser session, writes the new
// cookie, and returns the new value.
func (s *Store) Increment(w http.ResponseWriter, r *http.Request) int {
	n := CountFromContext(r.Context()) + 1
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.encode(n),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return n
}

func (s *Store) encode(n int) string {
	v := strconv.Itoa(n)
	return v + "." + s.sign(v)
}

func (s *Store) decode(raw string) (int, bool) {
	v, sig, ok := strings.Cut(raw, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(s.sign(v))) {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (s *Store) sign(v string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte("prompt_count=" + v))
	return hex.EncodeToString(mac.Sum(nil))
}
