package channel

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/core"
)

// SentText is a text reply recorded by MockChannel.
type SentText struct {
	ChatID int64
	Text   string
	Quote  int
}

// MockChannel is a test double that implements Channel. It records replies
// and allows simulating inbound messages via SimulateMessage.
type MockChannel struct {
	name    string
	mu      sync.Mutex
	handler bot.Handler
	texts   []SentText
	photos  []string

	// DownloadFunc serves DownloadPhoto. Without it downloads fail with
	// fs.ErrNotExist.
	DownloadFunc func(ctx context.Context, photo bot.Photo, dir string) (string, error)
}

// Compile-time interface guards.
var _ Channel = (*MockChannel)(nil)

// NewMockChannel creates a MockChannel with the given name.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

// ModuleInfo implements core.Module.
func (m *MockChannel) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID: core.ModuleID("channel." + m.name),
		New: func() core.Module {
			return NewMockChannel(m.name)
		},
	}
}

// SetHandler implements Channel.
func (m *MockChannel) SetHandler(h bot.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// SendText implements bot.Messenger.
func (m *MockChannel) SendText(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, SentText{ChatID: chatID, Text: text})
	return nil
}

// SendTextWithQuote implements bot.Messenger.
func (m *MockChannel) SendTextWithQuote(_ context.Context, chatID int64, text string, quotedMsgID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, SentText{ChatID: chatID, Text: text, Quote: quotedMsgID})
	return nil
}

// DownloadPhoto implements bot.Messenger.
func (m *MockChannel) DownloadPhoto(ctx context.Context, photo bot.Photo, dir string) (string, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, photo, dir)
	}
	return "", fmt.Errorf("mock: photo %s: %w", photo.FileID, fs.ErrNotExist)
}

// SendPhoto implements bot.Messenger. It records the path.
func (m *MockChannel) SendPhoto(_ context.Context, _ int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos = append(m.photos, path)
	return nil
}

// SimulateMessage hands msg to the installed handler.
func (m *MockChannel) SimulateMessage(ctx context.Context, msg bot.Message) error {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()

	if h == nil {
		return ErrNoHandler
	}
	return h.Handle(ctx, msg)
}

// SentTexts returns a copy of all text replies.
func (m *MockChannel) SentTexts() []SentText {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentText(nil), m.texts...)
}

// SentPhotos returns a copy of all uploaded photo paths.
func (m *MockChannel) SentPhotos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.photos...)
}
