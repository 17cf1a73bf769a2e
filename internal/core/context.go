package core

import (
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"
)

// AppContext is what a module sees of the application: a logger scoped to
// the module, the data directory and the shared service registry.
type AppContext struct {
	Logger  *slog.Logger
	DataDir string // root for files polybot writes, such as photo work files

	base    *slog.Logger
	configs map[string]yaml.Node
	shared  *services
}

// services is shared by every AppContext derived from the same root.
type services struct {
	mu     sync.RWMutex
	byName map[string]any
}

// NewAppContext returns a root context. A nil logger means slog.Default().
func NewAppContext(logger *slog.Logger, dataDir string) *AppContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppContext{
		Logger:  logger,
		DataDir: dataDir,
		base:    logger,
		shared:  &services{byName: make(map[string]any)},
	}
}

// WithModuleConfigs returns a copy that hands configs to LoadModule.
func (ctx *AppContext) WithModuleConfigs(configs map[string]yaml.Node) *AppContext {
	cp := *ctx
	cp.configs = configs
	return &cp
}

// ForModule returns a copy whose Logger carries module=id.
func (ctx *AppContext) ForModule(id ModuleID) *AppContext {
	cp := *ctx
	cp.Logger = ctx.base.With("module", string(id))
	return &cp
}

// RegisterService publishes svc under name, replacing any earlier value.
func (ctx *AppContext) RegisterService(name string, svc any) {
	ctx.shared.mu.Lock()
	ctx.shared.byName[name] = svc
	ctx.shared.mu.Unlock()
}

func (ctx *AppContext) GetService(name string) (any, bool) {
	ctx.shared.mu.RLock()
	defer ctx.shared.mu.RUnlock()
	svc, ok := ctx.shared.byName[name]
	return svc, ok
}

// LoadModule builds the module registered as id and takes it through
// Configure (only when it has a config entry), Provision and Validate,
// skipping the steps it does not implement.
func (ctx *AppContext) LoadModule(id string) (Module, error) {
	info, ok := GetModule(id)
	if !ok {
		return nil, fmt.Errorf("unknown module: %s", id)
	}
	mod := info.New()

	if c, ok := mod.(Configurable); ok {
		if node, found := ctx.configs[id]; found {
			if err := c.Configure(&node); err != nil {
				return nil, fmt.Errorf("configuring module %s: %w", id, err)
			}
		}
	}
	if p, ok := mod.(Provisioner); ok {
		if err := p.Provision(ctx.ForModule(info.ID)); err != nil {
			return nil, fmt.Errorf("provisioning module %s: %w", id, err)
		}
	}
	if v, ok := mod.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("validating module %s: %w", id, err)
		}
	}
	return mod, nil
}
