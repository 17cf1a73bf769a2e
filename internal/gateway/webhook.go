package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// ErrUnauthorized is returned (wrapped) by a WebhookHandler that rejects
// the request's credentials. The dispatcher answers it with 401.
var ErrUnauthorized = errors.New("gateway: unauthorized webhook")

// WebhookHandler consumes the raw body of one webhook request. Returning an
// error wrapping ErrUnauthorized yields 401; any other error yields 500.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, source string, body []byte, headers http.Header) error
}

type webhookEntry struct {
	handler WebhookHandler
	secret  string
}

// WebhookDispatcher routes /webhooks/{source} to the handler registered
// for source.
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers map[string]webhookEntry
	secrets  map[string]string // configured, applied to handlers registered later
	logger   *slog.Logger
	counters *Counters
	maxBody  int64
}

// NewWebhookDispatcher returns a dispatcher with a 1 MiB body limit.
// counters may be nil.
func NewWebhookDispatcher(logger *slog.Logger, counters *Counters) *WebhookDispatcher {
	return &WebhookDispatcher{
		handlers: make(map[string]webhookEntry),
		secrets:  make(map[string]string),
		logger:   logger,
		counters: counters,
		maxBody:  1 << 20,
	}
}

// Register adds a handler for the given source. An empty secret falls back
// to the one configured for the source in the gateway config, if any.
func (d *WebhookDispatcher) Register(source string, h WebhookHandler, secret string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if secret == "" {
		secret = d.secrets[source]
	}
	d.handlers[source] = webhookEntry{handler: h, secret: secret}
}

// Has reports whether source has a handler.
func (d *WebhookDispatcher) Has(source string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[source]
	return ok
}

func (d *WebhookDispatcher) setSecret(source, secret string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.secrets[source] = secret
	if entry, ok := d.handlers[source]; ok && entry.secret == "" {
		entry.secret = secret
		d.handlers[source] = entry
	}
}

// ServeHTTP answers POST /webhooks/{source}. Unknown sources are
// acknowledged with a warning so the sender does not retry forever.
func (d *WebhookDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code, reply := d.dispatch(w, r)
	if code != http.StatusOK {
		http.Error(w, reply, code)
		return
	}
	ack := map[string]any{"ok": true}
	if reply != "" {
		ack["warning"] = reply
	}
	writeJSON(w, http.StatusOK, ack)
}

// dispatch runs one webhook and returns the status to answer with, plus
// an error text or, for 200, an optional warning.
func (d *WebhookDispatcher) dispatch(w http.ResponseWriter, r *http.Request) (int, string) {
	source := chi.URLParam(r, "source")
	if source == "" {
		return http.StatusBadRequest, "missing source"
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxBody))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload too large"
	case err != nil:
		return http.StatusBadRequest, "failed to read body"
	}

	d.mu.RLock()
	entry, ok := d.handlers[source]
	d.mu.RUnlock()
	if !ok {
		d.counters.recordUnknown()
		d.logger.Warn("webhook for unregistered source", "source", source)
		return http.StatusOK, "no handler registered"
	}
	d.counters.recordReceived()

	if entry.secret != "" && !validSignature(body, r.Header.Get("X-Signature-256"), entry.secret) {
		d.counters.recordRejected()
		d.logger.Warn("webhook signature mismatch", "source", source, "remote_addr", r.RemoteAddr)
		return http.StatusUnauthorized, "invalid signature"
	}

	err = entry.handler.HandleWebhook(r.Context(), source, body, r.Header)
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrUnauthorized):
		d.counters.recordRejected()
		d.logger.Warn("webhook rejected", "source", source, "remote_addr", r.RemoteAddr)
		return http.StatusUnauthorized, "unauthorized"
	default:
		d.counters.recordFailed()
		d.logger.Error("webhook handler failed", "source", source, "error", err)
		return http.StatusInternalServerError, "internal error"
	}
}

// validSignature compares an "sha256=<hex>" HMAC of body in constant time.
func validSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(want), []byte(signature)) == 1
}
