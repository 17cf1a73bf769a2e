package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/polybotservice/polybot/internal/core"
)

// SupportedVersion is the only accepted value of the version field.
const SupportedVersion = "1"

// Validate reports every structural problem in cfg at once. Module IDs
// must be registered, and each ID in required must have an entry. Module
// sections themselves are checked later by the modules.
func Validate(cfg *Config, required ...string) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	switch cfg.Version {
	case SupportedVersion:
	case "":
		fail("version field is required")
	default:
		fail("unsupported version %q (supported: %q)", cfg.Version, SupportedVersion)
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if min(cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays) < 0 {
		fail("log rotation settings must not be negative")
	}

	if ep := cfg.Telemetry.OTLPEndpoint; ep != "" {
		if u, err := url.Parse(ep); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail("telemetry.otlp_endpoint must be an http(s) URL, got %q", ep)
		}
	}

	if len(cfg.Modules) == 0 {
		fail("at least one module must be configured")
	}
	for _, id := range Resolve(cfg) {
		if _, ok := core.GetModule(id); !ok {
			fail("unknown module %q", id)
		}
	}
	for _, id := range required {
		if _, ok := cfg.Modules[id]; !ok {
			fail("module %q requires configuration but has no entry", id)
		}
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name (debug, info, warn, error, any case) to a
// slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid log level %q (want debug, info, warn or error)", name)
	}
	return level, nil
}
