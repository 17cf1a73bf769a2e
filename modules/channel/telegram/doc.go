// Package telegram implements the Telegram Bot API channel for polybot.
//
// It receives updates either by long polling (default) or through a
// webhook registered with the HTTP gateway, converts them into bot.Message
// values and hands them to the configured bot.Handler. Replies go back
// through the bot.Messenger methods: text messages, quoted replies, photo
// downloads via getFile and multipart photo uploads.
//
// The module registers itself as "channel.telegram" via init() and
// implements the full module lifecycle: Configure → Provision → Validate →
// Start → Stop.
//
// No external Telegram library is used; the module talks to the Bot API
// with net/http and encoding/json.
package telegram
