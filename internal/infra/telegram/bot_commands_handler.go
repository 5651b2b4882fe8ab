// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterBotCommands registers /start and /help and publishes the command menu.
func RegisterBotCommands(b *telebot.Bot, upcomingDays int, baseLogger *logrus.Entry) error {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", startHandler(startHelpLogger))
	b.Handle("/help", helpHandler(startHelpLogger, upcomingDays))

	if err := b.SetCommands(Commands()); err != nil {
		return fmt.Errorf("failed to publish bot commands: %w", err)
	}
	return nil
}

// Commands is the command menu shown by Telegram clients.
func Commands() []telebot.Command {
	return []telebot.Command{
		{Text: "setbirthday", Description: "Зарегистрировать свой день рождения"},
		{Text: "mybirthday", Description: "Показать свой день рождения"},
		{Text: "updatebirthday", Description: "Обновить день рождения"},
		{Text: "deletebirthday", Description: "Удалить день рождения"},
		{Text: "nextbirthdays", Description: "Ближайшие дни рождения"},
		{Text: "listbirthdays", Description: "Все дни рождения (администраторы)"},
		{Text: "cancel", Description: "Отменить ввод даты"},
		{Text: "help", Description: "Справка"},
	}
}

func startHandler(logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		contextLogger(logger, c, "/start").Info("Processing /start command")
		return c.Send(msgStart)
	}
}

func helpHandler(logger *logrus.Entry, upcomingDays int) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		contextLogger(logger, c, "/help").Info("Processing /help command")
		return c.Send(helpText(upcomingDays))
	}
}

func contextLogger(base *logrus.Entry, c telebot.Context, handler string) *logrus.Entry {
	fields := logrus.Fields{"handler": handler}
	if c.Sender() != nil {
		fields["sender_id"] = c.Sender().ID
	}
	if c.Chat() != nil {
		fields["chat_id"] = c.Chat().ID
	}
	return base.WithFields(fields)
}
