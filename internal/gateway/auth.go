package gateway

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/polybotservice/polybot/internal/security"
)

// authBucket is the limiter key shared by every authentication attempt.
const authBucket = "auth"

// authMiddleware guards operator routes with a bearer token or basic
// credentials. A nil limiter or logger is allowed.
func authMiddleware(cfg AuthConfig, logger *slog.Logger, limiter *security.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow(authBucket) != nil {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			if reason := cfg.reject(r); reason != "" {
				if logger != nil {
					logger.Warn("rejected operator request",
						"reason", reason, "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// reject returns why r carries no acceptable credentials, or "" when it does.
func (a AuthConfig) reject(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "missing authorization header"
	}
	if token, found := strings.CutPrefix(header, "Bearer "); found && a.BearerToken != "" && same(token, a.BearerToken) {
		return ""
	}
	if a.BasicUser != "" && a.BasicPass != "" {
		if user, pass, found := r.BasicAuth(); found && same(user, a.BasicUser) && same(pass, a.BasicPass) {
			return ""
		}
	}
	return "invalid credentials"
}

func same(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
