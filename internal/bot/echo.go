package bot

import (
	"context"
	"log/slog"
)

// NoQuotePhrase is the one text QuoteHandler leaves alone.
const NoQuotePhrase = "Please don't quote me"

// EchoHandler answers every text message with a copy of it.
type EchoHandler struct {
	messenger Messenger
	logger    *slog.Logger
}

// NewEchoHandler creates an EchoHandler.
func NewEchoHandler(m Messenger, logger *slog.Logger) *EchoHandler {
	return &EchoHandler{messenger: m, logger: logger}
}

// Handle implements Handler.
func (h *EchoHandler) Handle(ctx context.Context, msg Message) error {
	h.logger.Info("incoming message", "chat_id", msg.ChatID, "message_id", msg.MessageID, "caption", msg.Caption, "kind", msg.Kind())
	if msg.Text == "" {
		return nil
	}
	return h.messenger.SendText(ctx, msg.ChatID, "Your original message: "+msg.Text)
}

// QuoteHandler replies to every text message by quoting it.
type QuoteHandler struct {
	messenger Messenger
	logger    *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(m Messenger, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{messenger: m, logger: logger}
}

// Handle implements Handler.
func (h *QuoteHandler) Handle(ctx context.Context, msg Message) error {
	h.logger.Info("incoming message", "chat_id", msg.ChatID, "message_id", msg.MessageID, "caption", msg.Caption, "kind", msg.Kind())
	if msg.Text == "" || msg.Text == NoQuotePhrase {
		return nil
	}
	return h.messenger.SendTextWithQuote(ctx, msg.ChatID, msg.Text, msg.MessageID)
}
