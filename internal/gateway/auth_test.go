package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/polybotservice/polybot/internal/security"
)

// reached answers 204 so tests can tell a pass-through from an auth reply.
var reached = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	bearer := AuthConfig{BearerToken: "secret-token"}
	basic := AuthConfig{BasicUser: "admin", BasicPass: "pass123"}
	both := AuthConfig{BearerToken: "my-token", BasicUser: "admin", BasicPass: "pass"}

	tests := []struct {
		name   string
		cfg    AuthConfig
		header func(r *http.Request)
		want   int
	}{
		{"bearer ok", bearer, withBearer("secret-token"), http.StatusNoContent},
		{"bearer wrong", bearer, withBearer("wrong-token"), http.StatusUnauthorized},
		{"bearer without scheme", bearer, withHeader("secret-token"), http.StatusUnauthorized},
		{"basic ok", basic, withBasic("admin", "pass123"), http.StatusNoContent},
		{"basic wrong pass", basic, withBasic("admin", "nope"), http.StatusUnauthorized},
		{"basic against bearer config", bearer, withBasic("admin", "pass123"), http.StatusUnauthorized},
		{"missing header", bearer, func(*http.Request) {}, http.StatusUnauthorized},
		{"both via bearer", both, withBearer("my-token"), http.StatusNoContent},
		{"both via basic", both, withBasic("admin", "pass"), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			tt.header(req)
			rr := httptest.NewRecorder()
			authMiddleware(tt.cfg, nil, nil)(reached).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func withBearer(token string) func(*http.Request) {
	return withHeader("Bearer " + token)
}

func withHeader(value string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", value) }
}

func withBasic(user, pass string) func(*http.Request) {
	return func(r *http.Request) { r.SetBasicAuth(user, pass) }
}

func TestAuthConfig_IsConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  AuthConfig
		want bool
	}{
		{"empty", AuthConfig{}, false},
		{"bearer only", AuthConfig{BearerToken: "tok"}, true},
		{"basic complete", AuthConfig{BasicUser: "u", BasicPass: "p"}, true},
		{"basic partial user", AuthConfig{BasicUser: "u"}, false},
		{"basic partial pass", AuthConfig{BasicPass: "p"}, false},
		{"both", AuthConfig{BearerToken: "t", BasicUser: "u", BasicPass: "p"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_RateLimited(t *testing.T) {
	t.Parallel()

	limiter := security.NewRateLimiter(map[string]security.Limit{
		authBucket: {Events: 2, Window: time.Minute},
	})
	handler := authMiddleware(AuthConfig{BearerToken: "tok"}, testLogger(), limiter)(reached)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	want := []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("attempt %d: status = %d, want %d", i, codes[i], want[i])
		}
	}
}
