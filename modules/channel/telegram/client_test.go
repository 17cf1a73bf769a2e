package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// botAPI serves Bot API methods for token "TOKEN" from a method-keyed
// table. Unknown methods answer 404 with an error envelope.
func botAPI(t *testing.T, methods map[string]http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, ok := strings.CutPrefix(r.URL.Path, "/botTOKEN/")
		h := methods[method]
		if !ok || h == nil {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(t, w, Envelope[json.RawMessage]{ErrorCode: 404, Description: "Not Found"})
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("%s: HTTP method %s, want POST", method, r.Method)
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient("TOKEN", srv.URL)
}

func decodeBody[T any](t *testing.T, r *http.Request) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Errorf("decode request: %v", err)
	}
	return v
}

func tooManyRequests(t *testing.T, w http.ResponseWriter, retryAfter int) {
	w.WriteHeader(http.StatusTooManyRequests)
	env := Envelope[json.RawMessage]{ErrorCode: 429, Description: "Too Many Requests"}
	if retryAfter > 0 {
		env.Parameters = &ResponseParameters{RetryAfter: retryAfter}
	}
	writeJSON(t, w, env)
}

func TestClient_GetMe(t *testing.T) {
	c := botAPI(t, map[string]http.HandlerFunc{
		"getMe": func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 0 {
				t.Errorf("getMe sent a %d byte body", r.ContentLength)
			}
			writeJSON(t, w, Envelope[User]{OK: true, Result: User{ID: 123, IsBot: true, FirstName: "Poly", Username: "poly_bot"}})
		},
	})

	got, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	want := &User{ID: 123, IsBot: true, FirstName: "Poly", Username: "poly_bot"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetMe mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_JSONRequests(t *testing.T) {
	var gotSend SendMessageRequest
	var gotPoll GetUpdatesRequest
	var gotDelete DeleteWebhookRequest
	c := botAPI(t, map[string]http.HandlerFunc{
		"sendMessage": func(w http.ResponseWriter, r *http.Request) {
			gotSend = decodeBody[SendMessageRequest](t, r)
			writeJSON(t, w, Envelope[Message]{OK: true, Result: Message{MessageID: 99, Chat: Chat{ID: 42}}})
		},
		"getUpdates": func(w http.ResponseWriter, r *http.Request) {
			gotPoll = decodeBody[GetUpdatesRequest](t, r)
			writeJSON(t, w, Envelope[[]Update]{OK: true, Result: []Update{
				{UpdateID: 100, Message: &Message{MessageID: 1, Text: "blur"}},
				{UpdateID: 101},
			}})
		},
		"deleteWebhook": func(w http.ResponseWriter, r *http.Request) {
			gotDelete = decodeBody[DeleteWebhookRequest](t, r)
			writeJSON(t, w, Envelope[bool]{OK: true, Result: true})
		},
	})
	ctx := context.Background()

	msg, err := c.SendMessage(ctx, SendMessageRequest{ChatID: 42, Text: "hello", ReplyToMessageID: 7})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.MessageID != 99 {
		t.Errorf("MessageID = %d, want 99", msg.MessageID)
	}
	if diff := cmp.Diff(SendMessageRequest{ChatID: 42, Text: "hello", ReplyToMessageID: 7}, gotSend); diff != "" {
		t.Errorf("sendMessage body (-want +got):\n%s", diff)
	}

	updates, err := c.GetUpdates(ctx, GetUpdatesRequest{Offset: 100, Timeout: 30, AllowedUpdates: []string{"message"}})
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 || updates[0].Message.Text != "blur" {
		t.Errorf("updates = %+v", updates)
	}
	if diff := cmp.Diff(GetUpdatesRequest{Offset: 100, Timeout: 30, AllowedUpdates: []string{"message"}}, gotPoll); diff != "" {
		t.Errorf("getUpdates body (-want +got):\n%s", diff)
	}

	if err := c.DeleteWebhook(ctx, DeleteWebhookRequest{DropPendingUpdates: true}); err != nil {
		t.Fatalf("DeleteWebhook: %v", err)
	}
	if !gotDelete.DropPendingUpdates {
		t.Error("drop_pending_updates not sent")
	}
}

func TestClient_APIError(t *testing.T) {
	c := botAPI(t, map[string]http.HandlerFunc{
		"sendMessage": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(t, w, Envelope[json.RawMessage]{ErrorCode: 400, Description: "Bad Request: chat not found"})
		},
	})

	_, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 999, Text: "hello"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T %v, want *APIError", err, err)
	}
	if diff := cmp.Diff(&APIError{Code: 400, Description: "Bad Request: chat not found"}, apiErr); diff != "" {
		t.Errorf("APIError (-want +got):\n%s", diff)
	}

	// Methods the server does not know still produce an APIError.
	_, err = c.GetFile(context.Background(), "x")
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		t.Errorf("unknown method error = %v", err)
	}
}

func TestAPIErrorOf(t *testing.T) {
	tests := []struct {
		name   string
		env    rawEnvelope
		status int
		want   *APIError
	}{
		{"body code wins", rawEnvelope{ErrorCode: 403, Description: "Forbidden"}, http.StatusOK, &APIError{Code: 403, Description: "Forbidden"}},
		{"falls back to status", rawEnvelope{Description: "Bad Gateway"}, http.StatusBadGateway, &APIError{Code: 502, Description: "Bad Gateway"}},
		{"retry after", rawEnvelope{ErrorCode: 429, Parameters: &ResponseParameters{RetryAfter: 3}}, http.StatusTooManyRequests, &APIError{Code: 429, RetryAfter: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, apiErrorOf(&tt.env, tt.status)); diff != "" {
				t.Errorf("apiErrorOf (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	tests := []struct {
		err  *APIError
		want string
	}{
		{&APIError{Code: 400, Description: "Bad Request"}, "telegram: 400 Bad Request"},
		{&APIError{Code: 429, Description: "Too Many Requests", RetryAfter: 5}, "telegram: 429 Too Many Requests (retry after 5s)"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestClient_RetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	c := botAPI(t, map[string]http.HandlerFunc{
		"getMe": func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				tooManyRequests(t, w, 1)
				return
			}
			writeJSON(t, w, Envelope[User]{OK: true, Result: User{ID: 456}})
		},
	})

	start := time.Now()
	user, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe after retry: %v", err)
	}
	if user.ID != 456 || calls.Load() != 2 {
		t.Errorf("user %d after %d calls, want 456 after 2", user.ID, calls.Load())
	}
	if waited := time.Since(start); waited < time.Second {
		t.Errorf("retried after %v, want at least retry_after", waited)
	}
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	c := botAPI(t, map[string]http.HandlerFunc{
		"getMe": func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			tooManyRequests(t, w, 0)
		},
	})
	c.retryWait = time.Millisecond

	_, err := c.GetMe(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusTooManyRequests {
		t.Fatalf("error = %v, want 429 APIError", err)
	}
	if got := calls.Load(); got != maxAttempts {
		t.Errorf("calls = %d, want %d", got, maxAttempts)
	}
}

func TestClient_RetryWaitHonoursContext(t *testing.T) {
	c := botAPI(t, map[string]http.HandlerFunc{
		"getMe": func(w http.ResponseWriter, _ *http.Request) { tooManyRequests(t, w, 30) },
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.GetMe(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestClient_SendPhotoFile(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "cat_filtered.png")
	if err := os.WriteFile(photo, []byte("\x89PNG fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	c := botAPI(t, map[string]http.HandlerFunc{
		"sendPhoto": func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm: %v", err)
				return
			}
			form := map[string]string{
				"chat_id":             r.FormValue("chat_id"),
				"caption":             r.FormValue("caption"),
				"reply_to_message_id": r.FormValue("reply_to_message_id"),
			}
			want := map[string]string{"chat_id": "42", "caption": "done", "reply_to_message_id": "7"}
			if diff := cmp.Diff(want, form); diff != "" {
				t.Errorf("form fields (-want +got):\n%s", diff)
			}
			f, hdr, err := r.FormFile("photo")
			if err != nil {
				t.Errorf("FormFile: %v", err)
				return
			}
			data, _ := io.ReadAll(f)
			_ = f.Close()
			if hdr.Filename != "cat_filtered.png" || string(data) != "\x89PNG fake" {
				t.Errorf("upload %q = %q", hdr.Filename, data)
			}

			// The first attempt is throttled; the retry must carry the file again.
			if calls.Add(1) == 1 {
				tooManyRequests(t, w, 0)
				return
			}
			writeJSON(t, w, Envelope[Message]{OK: true, Result: Message{MessageID: 8}})
		},
	})
	c.retryWait = time.Millisecond

	msg, err := c.SendPhotoFile(context.Background(), SendPhotoFileRequest{ChatID: 42, Path: photo, Caption: "done", ReplyToMessageID: 7})
	if err != nil {
		t.Fatalf("SendPhotoFile: %v", err)
	}
	if msg.MessageID != 8 || calls.Load() != 2 {
		t.Errorf("message %d after %d calls", msg.MessageID, calls.Load())
	}
}

func TestClient_SendPhotoFileMissing(t *testing.T) {
	c := NewClient("TOKEN", "http://127.0.0.1:0")
	_, err := c.SendPhotoFile(context.Background(), SendPhotoFileRequest{ChatID: 1, Path: filepath.Join(t.TempDir(), "nope.png")})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestClient_DownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/file/botTOKEN/photos/file_1.jpg":
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/file/botTOKEN/photos/broken.jpg":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := NewClient("TOKEN", srv.URL+"/")

	var buf bytes.Buffer
	n, err := c.DownloadFile(context.Background(), "photos/file_1.jpg", &buf)
	if err != nil || n != 10 || buf.String() != "jpeg-bytes" {
		t.Errorf("DownloadFile = %d, %q, %v", n, buf.String(), err)
	}

	if _, err := c.DownloadFile(context.Background(), "photos/missing.jpg", io.Discard); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file error = %v, want fs.ErrNotExist", err)
	}

	var apiErr *APIError
	if _, err := c.DownloadFile(context.Background(), "photos/broken.jpg", io.Discard); !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadGateway {
		t.Errorf("server error = %v, want 502 APIError", err)
	}
}

func TestClient_FileURL(t *testing.T) {
	c := NewClient("TOKEN", "https://api.telegram.org/")
	if got, want := c.FileURL("photos/file_123.jpg"), "https://api.telegram.org/file/botTOKEN/photos/file_123.jpg"; got != want {
		t.Errorf("FileURL = %q, want %q", got, want)
	}
}
