package app

import (
	"io"
	"log/slog"
	"regexp"

	"github.com/polybotservice/polybot/internal/config"
	"github.com/polybotservice/polybot/internal/security"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

// NewLogger builds the process logger: a text handler on stderr, tee'd
// into a rotated file when cfg.File is set, wrapped in a redacting handler.
// The returned closer releases the log file.
func NewLogger(cfg config.LogConfig, level slog.Level, stderr io.Writer, redactor *security.Redactor) (*slog.Logger, io.Closer) {
	out := stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out = io.MultiWriter(stderr, rotated)
		closer = rotated
	}

	inner := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(security.NewRedactingHandler(inner, redactor)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// secretKey matches module config keys whose values must never be logged.
var secretKey = regexp.MustCompile(`(?i)(secret|token|password|pass|key)`)

// RegisterSecrets adds every scalar value stored under a secret-looking key
// in the module configs to redactor.
func RegisterSecrets(redactor *security.Redactor, modules map[string]yaml.Node) {
	for _, node := range modules {
		collectSecrets(redactor, &node)
	}
}

func collectSecrets(redactor *security.Redactor, node *yaml.Node) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			collectSecrets(redactor, child)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind == yaml.ScalarNode && secretKey.MatchString(key.Value) {
				redactor.AddLiteral(value.Value)
				continue
			}
			collectSecrets(redactor, value)
		}
	}
}
