package core

import (
	"context"

	"gopkg.in/yaml.v3"
)

// Optional lifecycle hooks. LoadModule runs Configure, Provision and
// Validate; App runs Start in load order and Stop in reverse.

type Configurable interface {
	// Configure decodes the module's section of polybot.yaml.
	Configure(node *yaml.Node) error
}

type Provisioner interface {
	// Provision applies defaults and publishes or resolves services.
	Provision(ctx *AppContext) error
}

type Validator interface {
	// Validate checks configuration without side effects.
	Validate() error
}

type Starter interface {
	Start() error
}

type Stopper interface {
	// Stop releases what Start acquired. It may also run for a module
	// that was loaded but never started.
	Stop(ctx context.Context) error
}
