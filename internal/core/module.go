// Package core provides the module system polybot is assembled from.
//
// Every component that takes configuration or owns a background resource
// (the HTTP gateway, the Telegram channel, the bot handler) is a Module.
// Modules register themselves from init() and are instantiated by ID from
// the configuration file.
package core

import "strings"

// ModuleID is a dotted identifier such as "channel.telegram".
type ModuleID string

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	ID  ModuleID
	New func() Module
}

// Module is implemented by every polybot module.
type Module interface {
	ModuleInfo() ModuleInfo
}

// Namespace returns the part of the ID before the first dot, such as
// "channel" for "channel.telegram". IDs without a dot are their own
// namespace.
func (id ModuleID) Namespace() string {
	ns, _, _ := strings.Cut(string(id), ".")
	return ns
}
