package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/channel"
	"github.com/polybotservice/polybot/internal/core"
	"github.com/polybotservice/polybot/internal/gateway"
)

func init() {
	core.RegisterModule(&Telegram{})
}

// WebhookSource is the gateway dispatcher source the receiver registers as.
const WebhookSource = "telegram"

var (
	_ channel.Channel   = (*Telegram)(nil)
	_ core.Configurable = (*Telegram)(nil)
	_ core.Provisioner  = (*Telegram)(nil)
	_ core.Validator    = (*Telegram)(nil)
	_ core.Starter      = (*Telegram)(nil)
	_ core.Stopper      = (*Telegram)(nil)
)

// Telegram is the channel.telegram module: it receives updates by long
// polling or through the gateway webhook and implements bot.Messenger.
type Telegram struct {
	config  Config
	client  *Client
	logger  *slog.Logger
	handler bot.Handler
	appCtx  *core.AppContext

	poller   *Poller          // polling mode, after Start
	receiver *WebhookReceiver // webhook mode, after Start
}

func (t *Telegram) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "channel.telegram",
		New: func() core.Module { return &Telegram{} },
	}
}

func (t *Telegram) Configure(node *yaml.Node) error {
	if err := node.Decode(&t.config); err != nil {
		return fmt.Errorf("telegram: decode config: %w", err)
	}
	return nil
}

func (t *Telegram) Provision(ctx *core.AppContext) error {
	t.config.defaults()
	t.appCtx = ctx
	t.logger = ctx.Logger.With("channel", "telegram")
	t.client = NewClient(t.config.Token, t.config.APIURL)
	return nil
}

func (t *Telegram) Validate() error { return t.config.validate() }

// SetHandler implements channel.Channel.
func (t *Telegram) SetHandler(h bot.Handler) { t.handler = h }

// Start checks the token with getMe and clears any webhook left by an
// earlier deployment, since getUpdates is refused while one is set. Then
// it starts the configured delivery mode.
func (t *Telegram) Start() error {
	if t.handler == nil {
		return errors.New("telegram: no handler set before Start")
	}
	ctx := context.Background()

	me, err := t.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram: getMe (check token): %w", err)
	}
	t.logger.Info("telegram bot authenticated", "id", me.ID, "username", me.Username)

	if err := t.client.DeleteWebhook(ctx, DeleteWebhookRequest{DropPendingUpdates: t.config.DropPending}); err != nil {
		return fmt.Errorf("telegram: deleteWebhook: %w", err)
	}

	if t.config.Mode == ModeWebhook {
		return t.startWebhook(ctx)
	}
	t.poller = NewPoller(t.client, t.handler, t.logger, t.config)
	t.poller.Start()
	t.logger.Info("telegram polling started", "timeout", t.config.PollingTimeout)
	return nil
}

// startWebhook registers the receiver with the gateway dispatcher before
// pointing Telegram at the public URL, so no update arrives unrouted.
func (t *Telegram) startWebhook(ctx context.Context) error {
	svc, ok := t.appCtx.GetService(gateway.DispatcherService)
	if !ok {
		return fmt.Errorf("telegram: webhook mode needs the gateway.http module (service %s missing)", gateway.DispatcherService)
	}
	dispatcher, ok := svc.(*gateway.WebhookDispatcher)
	if !ok {
		return fmt.Errorf("telegram: service %s has type %T", gateway.DispatcherService, svc)
	}

	if t.config.WebhookSecret == "" {
		t.logger.Warn("telegram webhook has no webhook_secret; anyone who learns the URL can post updates")
	}
	t.receiver = NewWebhookReceiver(t.handler, t.logger, t.config.WebhookSecret, t.config.HandleTimeout)
	// The receiver checks Telegram's secret header itself, so no HMAC secret.
	dispatcher.Register(WebhookSource, t.receiver, "")

	err := t.client.SetWebhook(ctx, SetWebhookRequest{
		URL:            t.config.WebhookURL,
		SecretToken:    t.config.WebhookSecret,
		AllowedUpdates: t.config.AllowedUpdates,
	})
	if err != nil {
		return fmt.Errorf("telegram: setWebhook: %w", err)
	}
	t.logger.Info("telegram webhook set", "url", t.config.WebhookURL)
	return nil
}

// Stop ends polling, or removes the webhook so Telegram stops delivering
// to an address that is going away.
func (t *Telegram) Stop(ctx context.Context) error {
	if t.poller != nil {
		t.poller.Stop()
	}
	if t.receiver != nil {
		if err := t.client.DeleteWebhook(ctx, DeleteWebhookRequest{}); err != nil {
			t.logger.Warn("telegram deleteWebhook on shutdown failed", "error", err)
		}
	}
	t.logger.Info("telegram channel stopped")
	return nil
}
