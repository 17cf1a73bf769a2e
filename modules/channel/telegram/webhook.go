package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/gateway"
)

// ErrInvalidSecret is returned for webhook requests whose secret token
// header does not match the configured one. It wraps
// gateway.ErrUnauthorized so the gateway answers 401.
var ErrInvalidSecret = fmt.Errorf("telegram: invalid webhook secret token: %w", gateway.ErrUnauthorized)

// WebhookReceiver processes incoming Telegram webhook payloads.
// It implements gateway.WebhookHandler.
type WebhookReceiver struct {
	handler bot.Handler
	logger  *slog.Logger
	secret  string
	timeout time.Duration
}

// NewWebhookReceiver creates a new WebhookReceiver.
func NewWebhookReceiver(handler bot.Handler, logger *slog.Logger, secret string, timeout time.Duration) *WebhookReceiver {
	if timeout <= 0 {
		timeout = defaultHandleTimeout
	}
	return &WebhookReceiver{
		handler: handler,
		logger:  logger,
		secret:  secret,
		timeout: timeout,
	}
}

// HandleWebhook processes a payload from the gateway dispatcher. The
// update is handled to completion before the request is answered.
// Handler failures are logged and acknowledged so that Telegram does not
// redeliver the update.
func (w *WebhookReceiver) HandleWebhook(ctx context.Context, _ string, body []byte, headers http.Header) error {
	if w.secret != "" {
		token := headers.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(w.secret), []byte(token)) != 1 {
			return ErrInvalidSecret
		}
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("telegram: invalid update JSON: %w", err)
	}

	msg, err := convertInbound(&update)
	if err != nil {
		w.logger.Debug("skipping webhook update", "update_id", update.UpdateID, "reason", err)
		return nil
	}

	// The client may hang up before a slow transform finishes.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	if err := w.handler.Handle(hctx, msg); err != nil {
		w.logger.Error("failed to handle webhook update",
			"update_id", update.UpdateID,
			"chat_id", msg.ChatID,
			"error", err,
		)
	}
	return nil
}
