// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	pollTimeout = 10 * time.Second
	// requestTimeout bounds every Bot API call, including a long poll.
	requestTimeout = pollTimeout + 20*time.Second
)

// NewBot creates a long-polling bot whose errors go to the given logger.
func NewBot(token string, logger *logrus.Entry) (*telebot.Bot, error) {
	b, err := telebot.NewBot(settings(token, logger))
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return b, nil
}

func settings(token string, logger *logrus.Entry) telebot.Settings {
	return telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: pollTimeout},
		Client: &http.Client{Timeout: requestTimeout},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler error")
		},
	}
}

// TelebotAdapter implements the domain Notifier using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendText sends a plain text message to a chat (group or private).
// telebot does not take a context, so ctx is only checked before the request;
// a stalled request is cut off by requestTimeout instead.
func (tba *TelebotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := tba.bot.Send(&telebot.Chat{ID: chatID}, text)
	return err
}

// IsChatAdmin reports whether the user is an administrator or the creator of the chat.
func (tba *TelebotAdapter) IsChatAdmin(chatID, userID int64) (bool, error) {
	member, err := tba.bot.ChatMemberOf(&telebot.Chat{ID: chatID}, &telebot.User{ID: userID})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}
	return member.Role == telebot.Administrator || member.Role == telebot.Creator, nil
}
