package bot

import (
	"errors"
	"io/fs"
)

// ErrNoPhoto indicates a transform caption on a message without a photo.
var ErrNoPhoto = errors.New("bot: message has no photo")

// User-facing replies sent when processing fails.
const (
	ReplyMissingData  = "An error occurred: Missing required data in the message."
	ReplyFileNotFound = "An error occurred: Unable to find the file."
	ReplyUnexpected   = "An unexpected error occurred. Please try again."
)

// replyFor picks the chat reply for a processing error.
func replyFor(err error) string {
	switch {
	case errors.Is(err, ErrNoPhoto):
		return ReplyMissingData
	case errors.Is(err, fs.ErrNotExist):
		return ReplyFileNotFound
	default:
		return ReplyUnexpected
	}
}
