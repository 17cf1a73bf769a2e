package bot

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/polybotservice/polybot/internal/imgproc"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentText struct {
	ChatID int64
	Text   string
	Quote  int
}

// fakeMessenger serves photos from an in-memory table and records replies.
type fakeMessenger struct {
	mu sync.Mutex

	photos map[string][][]float64 // by FileID

	downloadErr error
	sendErr     error
	textErr     error

	texts     []sentText
	sentRows  [][][]uint8
	sentPaths []string
	downloads []string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{photos: make(map[string][][]float64)}
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.textErr != nil {
		return f.textErr
	}
	f.texts = append(f.texts, sentText{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeMessenger) SendTextWithQuote(_ context.Context, chatID int64, text string, quoted int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.textErr != nil {
		return f.textErr
	}
	f.texts = append(f.texts, sentText{ChatID: chatID, Text: text, Quote: quoted})
	return nil
}

func (f *fakeMessenger) DownloadPhoto(_ context.Context, photo Photo, dir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, photo.FileID)
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	rows, ok := f.photos[photo.FileID]
	if !ok {
		return "", fmt.Errorf("file %s: %w", photo.FileID, os.ErrNotExist)
	}
	g, err := imgproc.FromRows(rows)
	if err != nil {
		return "", err
	}
	return g.SaveAs(filepath.Join(dir, photo.FileUniqueID+".png"), imgproc.SaveOptions{})
}

func (f *fakeMessenger) SendPhoto(_ context.Context, _ int64, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	rows, err := readGray(path)
	if err != nil {
		return err
	}
	f.sentPaths = append(f.sentPaths, path)
	f.sentRows = append(f.sentRows, rows)
	return nil
}

// readGray decodes a PNG written by imgproc into its 8-bit pixel rows.
func readGray(path string) ([][]uint8, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, err := png.Decode(file)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	rows := make([][]uint8, b.Dy())
	for y := range rows {
		rows[y] = make([]uint8, b.Dx())
		for x := range rows[y] {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			rows[y][x] = uint8(r >> 8)
		}
	}
	return rows, nil
}

var errTransport = errors.New("transport down")

func photoMessage(caption, fileID string) Message {
	return Message{
		ChatID:    42,
		MessageID: 7,
		Caption:   caption,
		Photo:     &Photo{FileID: fileID, FileUniqueID: "u-" + fileID},
	}
}

func newTestImageHandler(t *testing.T, m Messenger, opts ImageOptions) *ImageHandler {
	t.Helper()
	if opts.WorkDir == "" {
		opts.WorkDir = t.TempDir()
	}
	return NewImageHandler(m, discardLogger(), nil, opts)
}
