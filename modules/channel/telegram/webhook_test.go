package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/gateway"
)

func textUpdateBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(Update{
		UpdateID: 1,
		Message: &Message{
			MessageID: 42,
			From:      &User{ID: 123, FirstName: "Alice"},
			Chat:      Chat{ID: 456, Type: "private"},
			Date:      1700000000,
			Text:      "hello",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestWebhookValidSecret(t *testing.T) {
	h := &recordingHandler{}
	wh := NewWebhookReceiver(h, discardLogger(), "my-secret", time.Second)

	headers := http.Header{}
	headers.Set("X-Telegram-Bot-Api-Secret-Token", "my-secret")

	if err := wh.HandleWebhook(context.TODO(), "telegram", textUpdateBody(t), headers); err != nil {
		t.Fatalf("HandleWebhook() error: %v", err)
	}
	got := h.received()
	if len(got) != 1 {
		t.Fatalf("received %d messages, want 1", len(got))
	}
	if got[0].ChatID != 456 || got[0].Text != "hello" {
		t.Errorf("message = %+v", got[0])
	}
}

func TestWebhookInvalidSecret(t *testing.T) {
	h := &recordingHandler{}
	wh := NewWebhookReceiver(h, discardLogger(), "my-secret", time.Second)

	headers := http.Header{}
	headers.Set("X-Telegram-Bot-Api-Secret-Token", "wrong-secret")

	err := wh.HandleWebhook(context.TODO(), "telegram", textUpdateBody(t), headers)
	if !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("HandleWebhook() error = %v, want ErrInvalidSecret", err)
	}
	if !errors.Is(err, gateway.ErrUnauthorized) {
		t.Errorf("HandleWebhook() error = %v, should map to gateway.ErrUnauthorized", err)
	}
	if len(h.received()) != 0 {
		t.Error("handler should not be called for invalid secret")
	}
}

func TestWebhookNoSecret(t *testing.T) {
	h := &recordingHandler{}
	wh := NewWebhookReceiver(h, discardLogger(), "", time.Second)

	if err := wh.HandleWebhook(context.TODO(), "telegram", textUpdateBody(t), http.Header{}); err != nil {
		t.Fatalf("HandleWebhook() error: %v", err)
	}
	if len(h.received()) != 1 {
		t.Fatalf("received %d messages, want 1", len(h.received()))
	}
}

func TestWebhookInvalidJSON(t *testing.T) {
	wh := NewWebhookReceiver(&recordingHandler{}, discardLogger(), "", time.Second)
	if err := wh.HandleWebhook(context.TODO(), "telegram", []byte("{not json"), http.Header{}); err == nil {
		t.Fatal("HandleWebhook() should error with invalid JSON")
	}
}

func TestWebhookSkipsEmptyUpdate(t *testing.T) {
	h := &recordingHandler{}
	wh := NewWebhookReceiver(h, discardLogger(), "", time.Second)
	if err := wh.HandleWebhook(context.TODO(), "telegram", []byte(`{"update_id":5}`), http.Header{}); err != nil {
		t.Fatalf("HandleWebhook() error: %v", err)
	}
	if len(h.received()) != 0 {
		t.Error("handler should not be called for an update without message")
	}
}

func TestWebhookHandlerErrorIsAcknowledged(t *testing.T) {
	h := &recordingHandler{err: errors.New("boom")}
	wh := NewWebhookReceiver(h, discardLogger(), "", time.Second)

	if err := wh.HandleWebhook(context.TODO(), "telegram", textUpdateBody(t), http.Header{}); err != nil {
		t.Errorf("HandleWebhook() error = %v, want nil", err)
	}
}

func TestWebhookHandlerOutlivesRequestContext(t *testing.T) {
	var handlerErr error
	h := bot.HandlerFunc(func(ctx context.Context, _ bot.Message) error {
		handlerErr = ctx.Err()
		if _, ok := ctx.Deadline(); !ok {
			t.Error("handler context has no deadline")
		}
		return nil
	})
	wh := NewWebhookReceiver(h, discardLogger(), "", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := wh.HandleWebhook(ctx, "telegram", textUpdateBody(t), http.Header{}); err != nil {
		t.Fatalf("HandleWebhook() error: %v", err)
	}
	if handlerErr != nil {
		t.Errorf("handler context error = %v, want nil", handlerErr)
	}
}
