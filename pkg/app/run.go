// Package app provides the shared entry point for the polybot binary: it
// loads configuration, builds the logger and telemetry, and drives the
// module lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/config"
	"github.com/polybotservice/polybot/internal/core"
	"github.com/polybotservice/polybot/internal/security"
	"github.com/polybotservice/polybot/internal/telemetry"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.FindPath searches the standard locations.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the default persistent data directory.
	DataDir string

	// LogLevel overrides log.level from the config file when non-empty.
	LogLevel string
}

// Run loads configuration, starts all modules, and blocks until ctx is
// cancelled or a shutdown signal is received.
func Run(ctx context.Context, params RunParams) error {
	cfgPath, err := config.FindPath(params.ConfigPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if params.LogLevel != "" {
		cfg.Log.Level = params.LogLevel
	}
	if err := config.Validate(cfg, bot.ModuleID); err != nil {
		return err
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	redactor := security.NewRedactor()
	RegisterSecrets(redactor, cfg.Modules)
	logger, logCloser := NewLogger(cfg.Log, level, os.Stderr, redactor)
	defer func() { _ = logCloser.Close() }()

	logger.Info("polybot starting", "version", params.Version, "commit", params.Commit, "config", cfgPath)

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     params.Version,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	appCtx := core.NewAppContext(logger, dataDir).WithModuleConfigs(cfg.Modules)
	if cfg.Telemetry.MetricsEnabled() {
		appCtx.RegisterService(telemetry.ServiceName, telemetry.NewMetrics())
	}

	application, err := Build(appCtx, cfg, logger)
	if err != nil {
		return err
	}

	if err := application.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutdown requested")
	}
	application.Stop()
	logger.Info("shutdown complete")
	return nil
}

// Build loads every configured module and attaches the bot handlers to the
// channels. The returned App is provisioned and validated but not started.
func Build(appCtx *core.AppContext, cfg *config.Config, logger *slog.Logger) (*core.App, error) {
	application := core.NewApp(appCtx)
	ids := config.Resolve(cfg)
	if err := application.LoadModules(ids); err != nil {
		return nil, err
	}
	if err := wireHandlers(application, ids, logger); err != nil {
		application.Stop()
		return nil, fmt.Errorf("app: %w", err)
	}
	return application, nil
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/polybot if set, otherwise ~/.local/share/polybot.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "polybot")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "polybot")
}
