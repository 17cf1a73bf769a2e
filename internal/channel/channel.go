// Package channel defines the bridge between messaging platforms and the
// bot handlers.
package channel

import (
	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/core"
)

// Channel is a messaging platform module. It delivers inbound messages to
// its handler and implements bot.Messenger for the replies.
type Channel interface {
	core.Module
	bot.Messenger

	// SetHandler installs the handler for inbound messages. It is called
	// during wiring, before Start().
	SetHandler(h bot.Handler)
}
