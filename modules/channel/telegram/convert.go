package telegram

import (
	"fmt"

	"github.com/polybotservice/polybot/internal/bot"
)

// convertInbound turns a Telegram Update into a bot.Message.
func convertInbound(update *Update) (bot.Message, error) {
	msg := extractMessage(update)
	if msg == nil {
		return bot.Message{}, fmt.Errorf("telegram: update %d contains no message", update.UpdateID)
	}
	out := convertMessage(msg)
	if msg.ReplyToMessage != nil {
		reply := convertMessage(msg.ReplyToMessage)
		out.ReplyTo = &reply
	}
	return out, nil
}

// extractMessage returns the actual message from an Update, checking
// Message, EditedMessage, and ChannelPost in order.
func extractMessage(update *Update) *Message {
	if update.Message != nil {
		return update.Message
	}
	if update.EditedMessage != nil {
		return update.EditedMessage
	}
	return update.ChannelPost
}

func convertMessage(msg *Message) bot.Message {
	return bot.Message{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
		Caption:   msg.Caption,
		Photo:     largestPhoto(msg.Photo),
	}
}

// largestPhoto picks the last (highest resolution) size.
func largestPhoto(sizes []PhotoSize) *bot.Photo {
	if len(sizes) == 0 {
		return nil
	}
	p := sizes[len(sizes)-1]
	return &bot.Photo{
		FileID:       p.FileID,
		FileUniqueID: p.FileUniqueID,
		Width:        p.Width,
		Height:       p.Height,
	}
}
