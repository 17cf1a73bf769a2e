package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Delivery modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

const defaultHandleTimeout = 60 * time.Second

// Config holds the Telegram channel configuration.
type Config struct {
	Token          string        `yaml:"token"`
	Mode           string        `yaml:"mode"`
	PollingTimeout int           `yaml:"polling_timeout"`
	WebhookURL     string        `yaml:"webhook_url"`
	WebhookSecret  string        `yaml:"webhook_secret"`
	AllowedUpdates []string      `yaml:"allowed_updates"`
	APIURL         string        `yaml:"api_url"`
	HandleTimeout  time.Duration `yaml:"handle_timeout"`
	DropPending    bool          `yaml:"drop_pending_updates"`
}

// defaults applies default values to unset fields.
func (c *Config) defaults() {
	if c.Mode == "" {
		c.Mode = ModePolling
	}
	if c.PollingTimeout == 0 {
		c.PollingTimeout = 30
	}
	if c.AllowedUpdates == nil {
		c.AllowedUpdates = []string{"message"}
	}
	if c.APIURL == "" {
		c.APIURL = "https://api.telegram.org"
	}
	if c.HandleTimeout <= 0 {
		c.HandleTimeout = defaultHandleTimeout
	}
}

// validate checks configuration field constraints.
func (c *Config) validate() error {
	if c.Token == "" {
		return errors.New("telegram: token is required")
	}
	if !tokenPattern.MatchString(c.Token) {
		return errors.New("telegram: token format invalid (expected <bot_id>:<hash>)")
	}

	switch c.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.WebhookURL == "" {
			return errors.New("telegram: webhook_url is required when mode is \"webhook\"")
		}
		u, err := url.Parse(c.WebhookURL)
		if err != nil || u.Scheme != "https" {
			return fmt.Errorf("telegram: webhook_url must be an https URL, got %q", c.WebhookURL)
		}
	default:
		return fmt.Errorf("telegram: invalid mode %q (must be \"polling\" or \"webhook\")", c.Mode)
	}

	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("telegram: api_url must be a valid http/https URL, got %q", c.APIURL)
		}
	}

	if c.PollingTimeout < 0 || c.PollingTimeout > 50 {
		return fmt.Errorf("telegram: polling_timeout must be 0-50, got %d", c.PollingTimeout)
	}

	return nil
}
