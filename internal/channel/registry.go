package channel

import (
	"errors"
	"fmt"

	"github.com/polybotservice/polybot/internal/bot"
)

var (
	ErrDuplicateChannel = errors.New("channel: duplicate channel name")
	// ErrNoHandler is returned for a message that arrives before SetHandler.
	ErrNoHandler = errors.New("channel: handler not set")
)

// HandlerFactory builds the handler for one channel. Replies go out
// through the Messenger it is given.
type HandlerFactory func(m bot.Messenger) bot.Handler

// Registry collects the loaded channels during wiring. It is not meant
// for concurrent use.
type Registry struct {
	entries []named
}

type named struct {
	name string
	ch   Channel
}

func NewRegistry() *Registry { return &Registry{} }

// Register adds ch under name, which must be unused.
func (r *Registry) Register(name string, ch Channel) error {
	for _, e := range r.entries {
		if e.name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChannel, name)
		}
	}
	r.entries = append(r.entries, named{name: name, ch: ch})
	return nil
}

// Names lists channel names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Attach installs a fresh handler from newHandler on every channel and
// returns the number of channels.
func (r *Registry) Attach(newHandler HandlerFactory) int {
	for _, e := range r.entries {
		e.ch.SetHandler(newHandler(e.ch))
	}
	return len(r.entries)
}
