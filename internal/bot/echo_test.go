package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEchoHandler(t *testing.T) {
	t.Parallel()
	m := newFakeMessenger()
	h := NewEchoHandler(m, discardLogger())

	if err := h.Handle(context.Background(), Message{ChatID: 1, MessageID: 2, Text: "hello"}); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	want := []sentText{{ChatID: 1, Text: "Your original message: hello"}}
	if diff := cmp.Diff(want, m.texts); diff != "" {
		t.Errorf("replies mismatch (-want +got):\n%s", diff)
	}
}

func TestEchoHandler_IgnoresNonText(t *testing.T) {
	t.Parallel()
	m := newFakeMessenger()
	h := NewEchoHandler(m, discardLogger())

	if err := h.Handle(context.Background(), photoMessage("Blur", "p1")); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(m.texts) != 0 {
		t.Errorf("replies = %v, want none", m.texts)
	}
}

func TestQuoteHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []sentText
	}{
		{"quotes text", "nice day", []sentText{{ChatID: 3, Text: "nice day", Quote: 9}}},
		{"respects request", NoQuotePhrase, nil},
		{"near miss still quoted", "please don't quote me", []sentText{{ChatID: 3, Text: "please don't quote me", Quote: 9}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := newFakeMessenger()
			h := NewQuoteHandler(m, discardLogger())
			if err := h.Handle(context.Background(), Message{ChatID: 3, MessageID: 9, Text: tc.text}); err != nil {
				t.Fatalf("Handle() error: %v", err)
			}
			if diff := cmp.Diff(tc.want, m.texts); diff != "" {
				t.Errorf("replies mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQuoteHandler_SendError(t *testing.T) {
	t.Parallel()
	m := newFakeMessenger()
	m.textErr = errTransport
	h := NewQuoteHandler(m, discardLogger())

	err := h.Handle(context.Background(), Message{ChatID: 3, MessageID: 9, Text: "hi"})
	if !errors.Is(err, errTransport) {
		t.Errorf("Handle() error = %v, want %v", err, errTransport)
	}
}
