package gateway

import (
	"cmp"
	"errors"
	"net"
	"time"
)

// Config is the gateway.http module configuration.
type Config struct {
	Bind     string                   `yaml:"bind"`
	Auth     AuthConfig               `yaml:"auth"`
	Webhooks map[string]WebhookSource `yaml:"webhooks"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"` // covers a full synchronous photo round trip
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

func (c *Config) defaults() {
	c.Bind = cmp.Or(c.Bind, "127.0.0.1:8080")
	c.ReadTimeout = cmp.Or(c.ReadTimeout, 10*time.Second)
	c.WriteTimeout = cmp.Or(c.WriteTimeout, 90*time.Second)
	c.ShutdownTimeout = cmp.Or(c.ShutdownTimeout, 5*time.Second)
	c.MaxBodyBytes = cmp.Or(c.MaxBodyBytes, 1<<20)
	c.Auth.RateLimit = cmp.Or(c.Auth.RateLimit, 30)
}

func (c *Config) validate() error {
	if _, err := net.ResolveTCPAddr("tcp", c.Bind); err != nil {
		return errors.New("gateway: invalid bind address " + c.Bind)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		return errors.New("gateway: timeouts must not be negative")
	}
	if c.MaxBodyBytes < 0 || c.Auth.RateLimit < 0 {
		return errors.New("gateway: max_body_bytes and auth.rate_limit must not be negative")
	}
	return nil
}

// AuthConfig protects /status and /api/modules. Those routes are not
// mounted at all unless one method is configured.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
	RateLimit   int    `yaml:"rate_limit"` // attempts per minute
}

func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}

// WebhookSource configures one /webhooks/{source} endpoint. A non-empty
// Secret turns on X-Signature-256 HMAC checks.
type WebhookSource struct {
	Secret string `yaml:"secret"`
}
