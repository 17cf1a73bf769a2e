package bot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/polybotservice/polybot/internal/core"
	"github.com/polybotservice/polybot/internal/cron"
	"github.com/polybotservice/polybot/internal/telemetry"
)

// ModuleID is the configuration key of the bot module.
const ModuleID = "bot.imageproc"

// MetricsService is the service registry name of the *telemetry.Metrics.
const MetricsService = telemetry.ServiceName

func init() {
	core.RegisterModule(&Module{})
}

var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Module builds the configured Handler for each channel and sweeps
// leftover work files in the background.
type Module struct {
	config    Config
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	scheduler *cron.Scheduler
	sweep     *cron.TempSweepJob
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  ModuleID,
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("bot: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner. A relative work_dir is resolved
// against the application data directory.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	if !filepath.IsAbs(m.config.WorkDir) && ctx.DataDir != "" {
		m.config.WorkDir = filepath.Join(ctx.DataDir, m.config.WorkDir)
	}
	if svc, ok := ctx.GetService(MetricsService); ok {
		if metrics, ok := svc.(*telemetry.Metrics); ok {
			m.metrics = metrics
		}
	}
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// Start implements core.Starter. It runs the work dir sweeper once and then
// on its schedule. Echo and quote bots write no files and start nothing.
func (m *Module) Start() error {
	if m.config.Kind != KindImage {
		return nil
	}
	m.scheduler = cron.NewScheduler(m.logger)
	m.sweep = &cron.TempSweepJob{
		Dir:          m.config.WorkDir,
		TTL:          m.config.TempTTL,
		Logger:       m.logger,
		ScheduleExpr: m.config.SweepSchedule,
	}
	if err := m.scheduler.RegisterJob(m.sweep); err != nil {
		return fmt.Errorf("bot: register sweeper: %w", err)
	}
	if err := m.scheduler.Start(); err != nil {
		return fmt.Errorf("bot: start sweeper: %w", err)
	}
	m.scheduler.Trigger(m.sweep.Name())
	m.logger.Info("bot started", "kind", m.config.Kind, "work_dir", m.config.WorkDir)
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.scheduler == nil {
		return nil
	}
	return m.scheduler.Stop(ctx)
}

// Kind returns the configured handler kind.
func (m *Module) Kind() string { return m.config.Kind }

// NewHandler returns the configured handler replying through messenger.
func (m *Module) NewHandler(messenger Messenger) Handler {
	switch m.config.Kind {
	case KindEcho:
		return NewEchoHandler(messenger, m.logger)
	case KindQuote:
		return NewQuoteHandler(messenger, m.logger)
	default:
		return NewImageHandler(messenger, m.logger, m.metrics, ImageOptions{
			WorkDir:    m.config.WorkDir,
			BlurKernel: m.config.BlurKernel,
			Normalize:  *m.config.Normalize,
			KeepFiles:  m.config.KeepFiles,
		})
	}
}
