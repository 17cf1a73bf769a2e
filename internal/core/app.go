package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// stopBudget bounds the whole reverse-order shutdown.
const stopBudget = 30 * time.Second

// App drives loaded modules through Start and Stop.
type App struct {
	ctx    *AppContext
	logger *slog.Logger
	loaded []*loadedModule
}

type loadedModule struct {
	id      string
	mod     Module
	running bool
}

func NewApp(ctx *AppContext) *App {
	return &App{ctx: ctx, logger: ctx.Logger.With("component", "core")}
}

// LoadModules configures, provisions and validates ids in order. If one
// fails, every module loaded by this call is stopped and dropped, since
// Provision may already have acquired resources.
func (a *App) LoadModules(ids []string) error {
	for _, id := range ids {
		mod, err := a.ctx.LoadModule(id)
		if err != nil {
			a.unwind(len(a.loaded)-1, false)
			a.loaded = nil
			return fmt.Errorf("loading module %s: %w", id, err)
		}
		a.loaded = append(a.loaded, &loadedModule{id: id, mod: mod})
		a.logger.Debug("module loaded", "module", id)
	}
	return nil
}

// Module returns the loaded module with the given ID.
func (a *App) Module(id string) (Module, bool) {
	for _, lm := range a.loaded {
		if lm.id == id {
			return lm.mod, true
		}
	}
	return nil, false
}

// Start runs each Starter in load order. On failure the modules started so
// far are stopped, newest first, and the error is returned.
func (a *App) Start() error {
	for i, lm := range a.loaded {
		s, ok := lm.mod.(Starter)
		if !ok {
			continue
		}
		if err := s.Start(); err != nil {
			a.logger.Error("module failed to start", "module", lm.id, "error", err)
			a.unwind(i-1, true)
			return fmt.Errorf("starting module %s: %w", lm.id, err)
		}
		lm.running = true
		a.logger.Info("module started", "module", lm.id)
	}
	return nil
}

// Stop stops running modules in reverse load order.
func (a *App) Stop() {
	a.unwind(len(a.loaded)-1, true)
}

// unwind calls Stop on loaded[from] down to loaded[0]. With runningOnly
// set, modules whose Start never succeeded are skipped.
func (a *App) unwind(from int, runningOnly bool) {
	ctx, cancel := context.WithTimeout(context.Background(), stopBudget)
	defer cancel()

	for i := from; i >= 0; i-- {
		lm := a.loaded[i]
		if runningOnly && !lm.running {
			continue
		}
		lm.running = false
		s, ok := lm.mod.(Stopper)
		if !ok {
			continue
		}
		if err := s.Stop(ctx); err != nil {
			a.logger.Error("module stop failed", "module", lm.id, "error", err)
			continue
		}
		a.logger.Info("module stopped", "module", lm.id)
	}
}
