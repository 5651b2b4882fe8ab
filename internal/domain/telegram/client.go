package telegram

import "context"

// Notifier delivers a plain text message to a chat.
// This decouples the application logic from the specific bot library.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
