package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/polybotservice/polybot/internal/imgproc"
	"github.com/polybotservice/polybot/internal/telemetry"
)

const tracerName = "github.com/polybotservice/polybot/internal/bot"

// ImageOptions configures an ImageHandler.
type ImageOptions struct {
	// WorkDir receives one subdirectory per message. Required.
	WorkDir string

	// BlurKernel is the Blur window size. Zero means imgproc.DefaultBlurKernel.
	BlurKernel int

	// Normalize stretches the output value range to 0..255 when saving.
	Normalize bool

	// KeepFiles leaves per-message directories in place for debugging.
	KeepFiles bool

	// Rand drives SaltAndPepper. It must be safe for concurrent use when
	// the handler serves concurrent messages. Nil uses the global source.
	Rand imgproc.Float64Source
}

// ImageHandler applies caption-selected transforms to photos.
type ImageHandler struct {
	messenger Messenger
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	opts      ImageOptions
	tracer    trace.Tracer
}

// NewImageHandler creates an ImageHandler. metrics may be nil.
func NewImageHandler(m Messenger, logger *slog.Logger, metrics *telemetry.Metrics, opts ImageOptions) *ImageHandler {
	if opts.BlurKernel == 0 {
		opts.BlurKernel = imgproc.DefaultBlurKernel
	}
	return &ImageHandler{
		messenger: m,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
		tracer:    otel.Tracer(tracerName),
	}
}

// Handle implements Handler. Messages without a recognised caption are
// ignored. Processing failures are reported to the chat and logged; the
// returned error is non-nil only when that reply could not be sent.
func (h *ImageHandler) Handle(ctx context.Context, msg Message) error {
	h.logger.Info("incoming message",
		"chat_id", msg.ChatID,
		"message_id", msg.MessageID,
		"caption", msg.Caption,
		"kind", msg.Kind(),
	)
	h.metrics.RecordUpdate(msg.Kind())

	cmd, ok := ParseCommand(msg.Caption)
	if !ok {
		return nil
	}

	ctx, span := h.tracer.Start(ctx, "bot.handle", trace.WithAttributes(
		attribute.String("polybot.command", string(cmd)),
		attribute.Int64("polybot.chat_id", msg.ChatID),
	))
	defer span.End()

	err := h.process(ctx, msg, cmd)
	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	h.logger.Error("message processing failed",
		"chat_id", msg.ChatID,
		"command", string(cmd),
		"error", err,
	)
	if sendErr := h.messenger.SendText(ctx, msg.ChatID, replyFor(err)); sendErr != nil {
		h.metrics.RecordError("reply")
		return fmt.Errorf("bot: reply to chat %d: %w", msg.ChatID, sendErr)
	}
	return nil
}

func (h *ImageHandler) process(ctx context.Context, msg Message, cmd Command) error {
	if msg.Photo == nil {
		return ErrNoPhoto
	}

	dir, err := h.newWorkDir()
	if err != nil {
		h.metrics.RecordError("workdir")
		return err
	}
	if !h.opts.KeepFiles {
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				h.logger.Warn("failed to remove work dir", "dir", dir, "error", err)
			}
		}()
	}

	src, err := h.download(ctx, *msg.Photo, dir)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := h.transform(ctx, cmd, src, msg, dir)
	h.metrics.RecordTransform(string(cmd), err, time.Since(start))
	if err != nil {
		return err
	}

	ctx, span := h.tracer.Start(ctx, "bot.upload")
	defer span.End()
	if err := h.messenger.SendPhoto(ctx, msg.ChatID, out); err != nil {
		h.metrics.RecordError("upload")
		span.RecordError(err)
		return fmt.Errorf("bot: send photo: %w", err)
	}
	h.logger.Debug("transformed photo sent", "chat_id", msg.ChatID, "command", string(cmd), "path", out)
	return nil
}

func (h *ImageHandler) newWorkDir() (string, error) {
	dir := filepath.Join(h.opts.WorkDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("bot: create work dir: %w", err)
	}
	return dir, nil
}

func (h *ImageHandler) download(ctx context.Context, photo Photo, dir string) (string, error) {
	ctx, span := h.tracer.Start(ctx, "bot.download", trace.WithAttributes(
		attribute.String("telegram.file_unique_id", photo.FileUniqueID),
	))
	defer span.End()

	path, err := h.messenger.DownloadPhoto(ctx, photo, dir)
	if err != nil {
		h.metrics.RecordError("download")
		span.RecordError(err)
		return "", fmt.Errorf("bot: download photo: %w", err)
	}
	return path, nil
}

// transform loads src, applies cmd and writes the result next to src.
func (h *ImageHandler) transform(ctx context.Context, cmd Command, src string, msg Message, dir string) (string, error) {
	ctx, span := h.tracer.Start(ctx, "bot.transform", trace.WithAttributes(
		attribute.String("polybot.command", string(cmd)),
	))
	defer span.End()

	g, err := imgproc.Load(src)
	if err != nil {
		return "", err
	}

	switch cmd {
	case CommandSaltAndPepper:
		g.SaltAndPepper(h.opts.Rand)
	case CommandSegment:
		g.Segment()
	case CommandContour:
		g.Contour()
	case CommandBlur:
		err = g.Blur(h.opts.BlurKernel)
	case CommandRotate:
		g.Rotate()
	case CommandConcat:
		var other *imgproc.Grid
		other, err = h.concatOperand(ctx, msg, g, dir)
		if err == nil {
			err = g.Concat(other, imgproc.Horizontal)
		}
	}
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	out, err := g.SaveWith(imgproc.SaveOptions{Normalize: h.opts.Normalize})
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return out, nil
}

// concatOperand returns the grid placed right of g: the photo of the
// replied-to message when there is one, otherwise g itself.
func (h *ImageHandler) concatOperand(ctx context.Context, msg Message, g *imgproc.Grid, dir string) (*imgproc.Grid, error) {
	if msg.ReplyTo == nil || msg.ReplyTo.Photo == nil {
		return g, nil
	}
	if msg.Photo != nil && msg.ReplyTo.Photo.FileUniqueID == msg.Photo.FileUniqueID {
		return g, nil
	}
	sub := filepath.Join(dir, "with")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return nil, fmt.Errorf("bot: create work dir: %w", err)
	}
	path, err := h.download(ctx, *msg.ReplyTo.Photo, sub)
	if err != nil {
		return nil, err
	}
	return imgproc.Load(path)
}
