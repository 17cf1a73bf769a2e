package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	maxAttempts      = 3
	firstRetryWait   = time.Second
	maxResponseBytes = 10 << 20
	maxDownloadBytes = 20 << 20 // getFile refuses anything larger
)

// ErrFileTooLarge reports a file above the Bot API download limit.
var ErrFileTooLarge = errors.New("telegram: file exceeds download limit")

// Client calls Bot API methods over HTTPS. The token is part of every URL,
// so transport errors must only reach logs through the redacting handler.
type Client struct {
	token     string
	baseURL   string
	http      *http.Client
	retryWait time.Duration // first wait after a 429 without retry_after
}

// NewClient returns a client for the bot identified by token. baseURL is
// the Bot API root, normally https://api.telegram.org.
func NewClient(token, baseURL string) *Client {
	return &Client{
		token:     token,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 60 * time.Second},
		retryWait: firstRetryWait,
	}
}

// bodyFunc produces a request body and its content type. It runs once per
// attempt so retries never send a drained reader.
type bodyFunc func() (io.Reader, string, error)

func jsonBody(payload any) bodyFunc {
	return func() (io.Reader, string, error) {
		if payload == nil {
			return nil, "", nil
		}
		data, err := json.Marshal(payload)
		return bytes.NewReader(data), "application/json", err
	}
}

// uploadBody streams the file at path as form part field next to fields.
func uploadBody(fields map[string]string, field, path string) bodyFunc {
	return func() (io.Reader, string, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", err
		}
		defer func() { _ = f.Close() }()

		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			if err := form.WriteField(k, fields[k]); err != nil {
				return nil, "", err
			}
		}
		part, err := form.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", err
		}
		if err := form.Close(); err != nil {
			return nil, "", err
		}
		return &buf, form.FormDataContentType(), nil
	}
}

// call invokes method and decodes its result into T. A 429 reply is
// retried after the server's retry_after, or a doubling wait when absent,
// up to maxAttempts in total.
func call[T any](ctx context.Context, c *Client, method string, body bodyFunc) (*T, error) {
	wait := c.retryWait
	for attempt := 1; ; attempt++ {
		env, status, err := c.post(ctx, method, body)
		if err != nil {
			return nil, err
		}
		if env.OK {
			var out T
			if len(env.Result) > 0 {
				if err := json.Unmarshal(env.Result, &out); err != nil {
					return nil, fmt.Errorf("telegram: decode %s result: %w", method, err)
				}
			}
			return &out, nil
		}

		apiErr := apiErrorOf(env, status)
		if apiErr.Code != http.StatusTooManyRequests || attempt == maxAttempts {
			return nil, apiErr
		}
		if apiErr.RetryAfter > 0 {
			wait = time.Duration(apiErr.RetryAfter) * time.Second
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

// post performs one HTTP round trip and decodes the envelope.
func (c *Client) post(ctx context.Context, method string, body bodyFunc) (*rawEnvelope, int, error) {
	r, contentType, err := body()
	if err != nil {
		return nil, 0, fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/"+method, r)
	if err != nil {
		return nil, 0, fmt.Errorf("telegram: %s: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env rawEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("telegram: %s: decode response (HTTP %d): %w", method, resp.StatusCode, err)
	}
	return &env, resp.StatusCode, nil
}

// GetUpdatesRequest is the getUpdates body. Timeout is the long-poll wait
// in seconds.
type GetUpdatesRequest struct {
	Offset         int      `json:"offset,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// SetWebhookRequest registers URL as the update target. Telegram echoes
// SecretToken in the X-Telegram-Bot-Api-Secret-Token header.
type SetWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// DeleteWebhookRequest is the deleteWebhook body.
type DeleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates,omitempty"`
}

// SendMessageRequest sends plain text, quoting ReplyToMessageID when set.
type SendMessageRequest struct {
	ChatID           int64  `json:"chat_id"`
	Text             string `json:"text"`
	ReplyToMessageID int    `json:"reply_to_message_id,omitempty"`
}

// SendPhotoFileRequest uploads the image at Path through sendPhoto.
type SendPhotoFileRequest struct {
	ChatID           int64
	Path             string
	Caption          string
	ReplyToMessageID int
}

type getFileRequest struct {
	FileID string `json:"file_id"`
}

// GetMe returns the bot's own account; Start uses it as a token check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return call[User](ctx, c, "getMe", jsonBody(nil))
}

// GetUpdates long-polls for updates at or after req.Offset.
func (c *Client) GetUpdates(ctx context.Context, req GetUpdatesRequest) ([]Update, error) {
	result, err := call[[]Update](ctx, c, "getUpdates", jsonBody(req))
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// SetWebhook points Telegram's update delivery at req.URL.
func (c *Client) SetWebhook(ctx context.Context, req SetWebhookRequest) error {
	_, err := call[bool](ctx, c, "setWebhook", jsonBody(req))
	return err
}

// DeleteWebhook removes any registered webhook so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context, req DeleteWebhookRequest) error {
	_, err := call[bool](ctx, c, "deleteWebhook", jsonBody(req))
	return err
}

// SendMessage posts a text message and returns it as sent.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	return call[Message](ctx, c, "sendMessage", jsonBody(req))
}

// SendPhotoFile uploads a local image file with sendPhoto.
func (c *Client) SendPhotoFile(ctx context.Context, req SendPhotoFileRequest) (*Message, error) {
	fields := map[string]string{"chat_id": strconv.FormatInt(req.ChatID, 10)}
	if req.Caption != "" {
		fields["caption"] = req.Caption
	}
	if req.ReplyToMessageID != 0 {
		fields["reply_to_message_id"] = strconv.Itoa(req.ReplyToMessageID)
	}
	return call[Message](ctx, c, "sendPhoto", uploadBody(fields, "photo", req.Path))
}

// GetFile resolves fileID to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	return call[File](ctx, c, "getFile", jsonBody(getFileRequest{FileID: fileID}))
}

// FileURL returns the download URL of a path obtained from GetFile. The
// URL embeds the bot token.
func (c *Client) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
}

// DownloadFile copies the file at filePath into dst. A missing file wraps
// fs.ErrNotExist; more than maxDownloadBytes yields ErrFileTooLarge.
func (c *Client) DownloadFile(ctx context.Context, filePath string, dst io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FileURL(filePath), nil)
	if err != nil {
		return 0, fmt.Errorf("telegram: download: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("telegram: download %s: %w", filePath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, fmt.Errorf("telegram: file %s: %w", filePath, fs.ErrNotExist)
	default:
		return 0, &APIError{Code: resp.StatusCode, Description: "file download: " + http.StatusText(resp.StatusCode)}
	}

	n, err := io.Copy(dst, io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return n, fmt.Errorf("telegram: read download: %w", err)
	}
	if n > maxDownloadBytes {
		return n, ErrFileTooLarge
	}
	return n, nil
}
