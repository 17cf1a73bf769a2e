package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polybotservice/polybot/internal/bot"
)

// After failureBudget consecutive getUpdates errors the poller backs off
// for failurePause before trying again.
const (
	failureBudget = 5
	failurePause  = 30 * time.Second
)

// Poller receives updates through getUpdates long polling and hands them
// to the handler one at a time, in update_id order.
type Poller struct {
	client  *Client
	handler bot.Handler
	logger  *slog.Logger
	cfg     Config

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
}

// NewPoller returns a poller that feeds updates to handler once started.
func NewPoller(client *Client, handler bot.Handler, logger *slog.Logger, cfg Config) *Poller {
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = defaultHandleTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		client:  client,
		handler: handler,
		logger:  logger,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start runs the loop in the background until Stop.
func (p *Poller) Start() {
	go p.run()
}

// Stop cancels polling and any update being handled, then waits for the
// loop to exit. Repeated calls are fine.
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
	<-p.stopped
}

func (p *Poller) run() {
	defer close(p.stopped)

	next := 0
	failures := 0
	for p.ctx.Err() == nil {
		batch, err := p.client.GetUpdates(p.ctx, GetUpdatesRequest{
			Offset:         next,
			Timeout:        p.cfg.PollingTimeout,
			AllowedUpdates: p.cfg.AllowedUpdates,
		})
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			failures++
			p.logger.Error("telegram getUpdates failed", "error", err, "failures", failures)
			if failures >= failureBudget {
				if !p.pause() {
					return
				}
				failures = 0
			}
			continue
		}

		failures = 0
		for i := range batch {
			// Advance first so a failing update is not redelivered.
			next = batch[i].UpdateID + 1
			p.dispatch(&batch[i])
		}
	}
}

// pause waits out failurePause. It reports false if the poller was stopped.
func (p *Poller) pause() bool {
	p.logger.Warn("telegram polling paused", "pause", failurePause)
	t := time.NewTimer(failurePause)
	defer t.Stop()
	select {
	case <-p.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (p *Poller) dispatch(u *Update) {
	msg, err := convertInbound(u)
	if err != nil {
		p.logger.Debug("telegram update skipped", "update_id", u.UpdateID, "reason", err)
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.HandleTimeout)
	defer cancel()
	if err := p.handler.Handle(ctx, msg); err != nil {
		p.logger.Error("telegram update failed", "update_id", u.UpdateID, "chat_id", msg.ChatID, "error", err)
	}
}
