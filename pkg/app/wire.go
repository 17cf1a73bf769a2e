package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/channel"
	"github.com/polybotservice/polybot/internal/core"
)

// wireHandlers gives every loaded channel a handler built by the bot
// module. Must be called after LoadModules and before Start.
func wireHandlers(app *core.App, ids []string, logger *slog.Logger) error {
	registry := channel.NewRegistry()
	var botMod *bot.Module

	for _, id := range ids {
		mod, ok := app.Module(id)
		if !ok {
			continue
		}
		switch m := mod.(type) {
		case *bot.Module:
			botMod = m
		case channel.Channel:
			if err := registry.Register(id, m); err != nil {
				return fmt.Errorf("registering channel %s: %w", id, err)
			}
			logger.Info("wire: registered channel", "channel", id)
		}
	}

	if botMod == nil {
		return fmt.Errorf("wire: module %s is not loaded", bot.ModuleID)
	}
	if len(registry.Names()) == 0 {
		return errors.New("wire: at least one channel module is required")
	}

	n := registry.Attach(botMod.NewHandler)
	logger.Info("wire: handlers attached", "channels", n, "kind", botMod.Kind())
	return nil
}
