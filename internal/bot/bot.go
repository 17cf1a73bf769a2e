// Package bot turns chat messages into image transforms and replies.
//
// It knows nothing about Telegram. A channel module converts platform
// updates into Message values, implements Messenger for the way back, and
// hands each message to a Handler. Three handlers exist:
//
//   - EchoHandler repeats text messages back.
//   - QuoteHandler replies to a message by quoting it.
//   - ImageHandler maps a photo caption to one imgproc transform and sends
//     the transformed photo back.
package bot

import "context"

// Photo identifies one stored photo on the messaging platform.
type Photo struct {
	FileID       string
	FileUniqueID string
	Width        int
	Height       int
}

// Message is a platform-neutral inbound chat message.
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
	Caption   string

	// Photo is the largest available size, or nil for non-photo messages.
	Photo *Photo

	// ReplyTo is the message this one answers, if any.
	ReplyTo *Message
}

// Kind classifies the message for logging and metrics.
func (m Message) Kind() string {
	switch {
	case m.Photo != nil:
		return "photo"
	case m.Text != "":
		return "text"
	default:
		return "other"
	}
}

// Messenger is what a handler needs from the messaging platform.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendTextWithQuote(ctx context.Context, chatID int64, text string, quotedMsgID int) error

	// DownloadPhoto stores photo inside dir and returns the file path.
	DownloadPhoto(ctx context.Context, photo Photo, dir string) (string, error)

	// SendPhoto uploads the image file at path to the chat.
	SendPhoto(ctx context.Context, chatID int64, path string) error
}

// Handler processes one inbound message to completion.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }
