package telegram

import "context"

// Client delivers reminder text to a linked Telegram chat.
// The delivery service depends on this rather than on the bot library.
type Client interface {
	SendReminder(ctx context.Context, chatID int64, title, body, actionURL string) error
}
