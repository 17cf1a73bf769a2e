package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/polybotservice/polybot/internal/bot"
)

var _ bot.Messenger = (*Telegram)(nil)

// SendText implements bot.Messenger.
func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := t.client.SendMessage(ctx, SendMessageRequest{ChatID: chatID, Text: text})
	return err
}

// SendTextWithQuote implements bot.Messenger.
func (t *Telegram) SendTextWithQuote(ctx context.Context, chatID int64, text string, quotedMsgID int) error {
	_, err := t.client.SendMessage(ctx, SendMessageRequest{
		ChatID:           chatID,
		Text:             text,
		ReplyToMessageID: quotedMsgID,
	})
	return err
}

// SendPhoto implements bot.Messenger.
func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, p string) error {
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("telegram: send photo: %w", err)
	}
	_, err := t.client.SendPhotoFile(ctx, SendPhotoFileRequest{ChatID: chatID, Path: p})
	return err
}

// DownloadPhoto implements bot.Messenger. The file keeps the base name of
// its server-side path. A path without extension is stored as the file's
// unique ID plus an extension derived from the content.
func (t *Telegram) DownloadPhoto(ctx context.Context, photo bot.Photo, dir string) (string, error) {
	file, err := t.client.GetFile(ctx, photo.FileID)
	if err != nil {
		return "", fmt.Errorf("telegram: getFile %s: %w", photo.FileID, err)
	}
	if file.FilePath == "" {
		return "", errors.New("telegram: getFile returned no file_path")
	}
	if file.FileSize > maxDownloadBytes {
		return "", fmt.Errorf("telegram: %s is %d bytes: %w", photo.FileID, file.FileSize, ErrFileTooLarge)
	}

	name := path.Base(file.FilePath)
	if path.Ext(name) == "" || strings.HasPrefix(name, ".") {
		name = photo.FileUniqueID
		if name == "" {
			name = photo.FileID
		}
	}
	dst := filepath.Join(dir, name)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("telegram: create %s: %w", dst, err)
	}
	_, err = t.client.DownloadFile(ctx, file.FilePath, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}

	if filepath.Ext(dst) != "" {
		return dst, nil
	}
	return withDetectedExt(dst)
}

// withDetectedExt renames p to carry the extension of its sniffed content type.
func withDetectedExt(p string) (string, error) {
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		return "", fmt.Errorf("telegram: detect type of %s: %w", p, err)
	}
	if mt.Extension() == "" {
		return p, nil
	}
	renamed := p + mt.Extension()
	if err := os.Rename(p, renamed); err != nil {
		return "", fmt.Errorf("telegram: rename download: %w", err)
	}
	return renamed, nil
}
