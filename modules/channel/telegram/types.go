package telegram

import (
	"encoding/json"
	"fmt"
)

// Bot API objects, limited to the fields polybot reads.

type Update struct {
	UpdateID      int      `json:"update_id"`
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"edited_message,omitempty"`
	ChannelPost   *Message `json:"channel_post,omitempty"`
}

type Message struct {
	MessageID      int         `json:"message_id"`
	From           *User       `json:"from,omitempty"`
	Chat           Chat        `json:"chat"`
	Date           int64       `json:"date"`
	Text           string      `json:"text,omitempty"`
	Caption        string      `json:"caption,omitempty"`
	Photo          []PhotoSize `json:"photo,omitempty"`
	ReplyToMessage *Message    `json:"reply_to_message,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// PhotoSize is one rendition of a photo. Telegram sends them smallest first.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// File is the getFile result; FilePath feeds DownloadFile.
type File struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

// Envelope wraps every Bot API reply.
type Envelope[T any] struct {
	OK          bool                `json:"ok"`
	Result      T                   `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters carries extra detail on a failed call.
type ResponseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// rawEnvelope defers decoding of Result until the call is known to be OK.
type rawEnvelope = Envelope[json.RawMessage]

// apiErrorOf builds the error for a failed envelope. status is the HTTP
// code, used when the body carries no error_code.
func apiErrorOf(e *rawEnvelope, status int) *APIError {
	err := &APIError{Code: e.ErrorCode, Description: e.Description}
	if err.Code == 0 {
		err.Code = status
	}
	if e.Parameters != nil {
		err.RetryAfter = e.Parameters.RetryAfter
	}
	return err
}

// APIError is a Bot API failure reply.
type APIError struct {
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %ds)", e.RetryAfter)
	}
	return msg
}
