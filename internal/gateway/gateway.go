// Package gateway is the optional HTTP front of polybot. It receives
// Telegram webhooks and serves health, Prometheus metrics and an
// authenticated status view. It listens on loopback unless told otherwise.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/polybotservice/polybot/internal/core"
	"github.com/polybotservice/polybot/internal/security"
	"github.com/polybotservice/polybot/internal/telemetry"
)

// Service registry names.
const (
	DispatcherService = "gateway.webhook_dispatcher" // *WebhookDispatcher
	CountersService   = "gateway.counters"           // *Counters
)

func init() {
	core.RegisterModule(&Gateway{})
}

var (
	_ core.Configurable = (*Gateway)(nil)
	_ core.Provisioner  = (*Gateway)(nil)
	_ core.Validator    = (*Gateway)(nil)
	_ core.Starter      = (*Gateway)(nil)
	_ core.Stopper      = (*Gateway)(nil)
)

// Gateway is the gateway.http module. Channels reach it only through the
// dispatcher it publishes at Provision.
type Gateway struct {
	config     Config
	appCtx     *core.AppContext
	logger     *slog.Logger
	counters   *Counters
	dispatcher *WebhookDispatcher
	limiter    *security.RateLimiter

	server    *http.Server
	listener  net.Listener
	startedAt time.Time
	metrics   http.Handler // nil when telemetry.metrics is absent
}

func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return fmt.Errorf("gateway: decode config: %w", err)
	}
	g.config.defaults()
	return nil
}

// Provision publishes the dispatcher so channels can register during
// their own Start, whatever the load order.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger

	g.counters = &Counters{}
	g.dispatcher = NewWebhookDispatcher(g.logger, g.counters)
	g.dispatcher.maxBody = g.config.MaxBodyBytes
	for source, wh := range g.config.Webhooks {
		if wh.Secret == "" {
			continue
		}
		g.dispatcher.setSecret(source, wh.Secret)
		g.logger.Info("signed webhook source", "source", source)
	}
	g.limiter = security.NewRateLimiter(map[string]security.Limit{
		authBucket: {Events: g.config.Auth.RateLimit, Window: time.Minute},
	})

	ctx.RegisterService(DispatcherService, g.dispatcher)
	ctx.RegisterService(CountersService, g.counters)
	return nil
}

func (g *Gateway) Validate() error { return g.config.validate() }

// Start binds the listener synchronously, so a busy port fails startup,
// then serves in the background.
func (g *Gateway) Start() error {
	if svc, ok := g.appCtx.GetService(telemetry.ServiceName); ok {
		if m, ok := svc.(*telemetry.Metrics); ok && m != nil {
			g.metrics = m.Handler()
		}
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen on %s: %w", g.config.Bind, err)
	}
	g.listener = ln
	g.startedAt = time.Now()
	g.server = &http.Server{
		Handler:           g.routes(),
		ReadTimeout:       g.config.ReadTimeout,
		ReadHeaderTimeout: g.config.ReadTimeout,
		WriteTimeout:      g.config.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(g.logger.Handler(), slog.LevelWarn),
	}

	go func() {
		if err := g.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway stopped serving", "error", err)
		}
	}()
	g.logger.Info("gateway listening", "addr", ln.Addr().String(), "metrics", g.metrics != nil)
	return nil
}

// Addr is the bound address, or "" before Start.
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// Stop drains in-flight requests for at most ShutdownTimeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	if err := g.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	return nil
}
