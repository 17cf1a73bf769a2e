package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/polybotservice/polybot/internal/cron"
)

// Handler kinds selectable with the "kind" config key.
const (
	KindEcho  = "echo"
	KindQuote = "quote"
	KindImage = "image"
)

// Config is the YAML configuration of the bot.imageproc module.
type Config struct {
	Kind          string        `yaml:"kind"`
	WorkDir       string        `yaml:"work_dir"`
	BlurKernel    int           `yaml:"blur_kernel"`
	Normalize     *bool         `yaml:"normalize"`
	KeepFiles     bool          `yaml:"keep_files"`
	TempTTL       time.Duration `yaml:"temp_ttl"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

func (c *Config) defaults() {
	if c.Kind == "" {
		c.Kind = KindImage
	}
	if c.WorkDir == "" {
		c.WorkDir = "photos"
	}
	if c.Normalize == nil {
		v := true
		c.Normalize = &v
	}
	if c.TempTTL == 0 {
		c.TempTTL = time.Hour
	}
	if c.SweepSchedule == "" {
		c.SweepSchedule = "*/10 * * * *"
	}
}

func (c *Config) validate() error {
	var errs []error
	switch c.Kind {
	case KindEcho, KindQuote, KindImage:
	default:
		errs = append(errs, fmt.Errorf("bot: invalid kind %q (must be %q, %q or %q)", c.Kind, KindEcho, KindQuote, KindImage))
	}
	if c.BlurKernel < 0 {
		errs = append(errs, fmt.Errorf("bot: blur_kernel must be positive, got %d", c.BlurKernel))
	}
	if c.TempTTL < 0 {
		errs = append(errs, errors.New("bot: temp_ttl must not be negative"))
	}
	if err := cron.ValidateSchedule(c.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("bot: sweep_schedule: %w", err))
	}
	return errors.Join(errs...)
}
