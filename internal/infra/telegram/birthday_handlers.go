package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"birthday_reminder_bot/internal/app"
	"birthday_reminder_bot/internal/domain/birthday"
	"birthday_reminder_bot/internal/infra/session"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const handlerTimeout = 10 * time.Second

// BirthdayManager is the part of app.BirthdayService the chat commands use.
type BirthdayManager interface {
	Register(ctx context.Context, userID, chatID int64, day, month int, username string) (*birthday.Record, bool, error)
	Get(ctx context.Context, userID, chatID int64) (*birthday.Record, error)
	Delete(ctx context.Context, userID, chatID int64) error
	UpcomingBirthdays(ctx context.Context, chatID int64, daysAhead int) ([]app.Upcoming, error)
	AllBirthdays(ctx context.Context, chatID int64) ([]app.Entry, error)
	Count(ctx context.Context, chatID int64) (int, error)
}

// AdminChecker tells whether a user administers a chat.
type AdminChecker interface {
	IsChatAdmin(chatID, userID int64) (bool, error)
}

// BirthdayHandlers serves the birthday commands, the month keyboards and the
// day entry that follows them.
type BirthdayHandlers struct {
	ctx          context.Context
	birthdays    BirthdayManager
	sessions     session.Store
	admins       AdminChecker
	upcomingDays int
	logger       *logrus.Entry
}

func NewBirthdayHandlers(
	ctx context.Context,
	birthdays BirthdayManager,
	sessions session.Store,
	admins AdminChecker,
	upcomingDays int,
	logger *logrus.Entry,
) *BirthdayHandlers {
	return &BirthdayHandlers{
		ctx:          ctx,
		birthdays:    birthdays,
		sessions:     sessions,
		admins:       admins,
		upcomingDays: upcomingDays,
		logger:       logger,
	}
}

// Register binds every command and callback to the bot.
func (h *BirthdayHandlers) Register(b *telebot.Bot) {
	b.Handle("/setbirthday", h.onSetBirthday)
	b.Handle("/updatebirthday", h.onUpdateBirthday)
	b.Handle("/mybirthday", h.onMyBirthday)
	b.Handle("/deletebirthday", h.onDeleteBirthday)
	b.Handle("/nextbirthdays", h.onNextBirthdays)
	b.Handle("/listbirthdays", h.onListBirthdays)
	b.Handle("/cancel", h.onCancel)

	b.Handle(&telebot.Btn{Unique: uniqueSetMonth}, h.onMonthPicked(session.FlowSetBirthday))
	b.Handle(&telebot.Btn{Unique: uniqueUpdateMonth}, h.onMonthPicked(session.FlowUpdateBirthday))
	b.Handle(&telebot.Btn{Unique: uniqueSkip}, h.onSkip)

	b.Handle(telebot.OnText, h.onText)
	b.Handle(telebot.OnUserJoined, h.onUserJoined)
}

func (h *BirthdayHandlers) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.ctx, handlerTimeout)
}

func (h *BirthdayHandlers) handlerLogger(c telebot.Context, handler string) *logrus.Entry {
	return contextLogger(h.logger, c, handler)
}

func (h *BirthdayHandlers) onSetBirthday(c telebot.Context) error {
	return h.beginRegistration(c, "/setbirthday", session.FlowSetBirthday)
}

func (h *BirthdayHandlers) onUpdateBirthday(c telebot.Context) error {
	return h.beginRegistration(c, "/updatebirthday", session.FlowUpdateBirthday)
}

// beginRegistration saves the date given inline ("/setbirthday 25.12") or
// opens the month keyboard and remembers the flow.
func (h *BirthdayHandlers) beginRegistration(c telebot.Context, handler string, flow session.Flow) error {
	logger := h.handlerLogger(c, handler)
	logger.Info("Command received")

	if args := c.Args(); len(args) > 0 {
		day, month, err := birthday.ParseDate(args[0])
		if err != nil {
			var verr *birthday.ValidationError
			if errors.As(err, &verr) {
				return c.Send(validationText(err))
			}
			return c.Send(msgBadDateFormat)
		}
		return h.save(c, logger, day, month)
	}

	ctx, cancel := h.requestContext()
	defer cancel()
	if err := h.sessions.Set(ctx, c.Chat().ID, c.Sender().ID, session.State{Flow: flow}); err != nil {
		logger.WithError(err).Error("Failed to start conversation")
		return c.Send(msgInternalError)
	}

	if flow == session.FlowUpdateBirthday {
		return c.Send(msgChooseNewMonth, monthKeyboard(uniqueUpdateMonth, false))
	}
	return c.Send(msgChooseMonth, monthKeyboard(uniqueSetMonth, false))
}

func (h *BirthdayHandlers) onMonthPicked(flow session.Flow) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		logger := h.handlerLogger(c, "month_picked").WithField("data", c.Data())

		month, err := strconv.Atoi(c.Data())
		if err != nil || birthday.DaysInMonth(month) == 0 {
			logger.Warn("Invalid month in callback")
			return c.Respond(&telebot.CallbackResponse{Text: msgUnknownAction})
		}

		ctx, cancel := h.requestContext()
		defer cancel()
		if err := h.sessions.Set(ctx, c.Chat().ID, c.Sender().ID, session.State{Flow: flow, Month: month}); err != nil {
			logger.WithError(err).Error("Failed to store picked month")
			return c.Respond(&telebot.CallbackResponse{Text: msgInternalError})
		}

		if err := c.Respond(); err != nil {
			logger.WithError(err).Warn("Failed to answer callback")
		}
		return c.Edit(chooseDayText(month))
	}
}

func (h *BirthdayHandlers) onSkip(c telebot.Context) error {
	logger := h.handlerLogger(c, "skip_birthday")
	logger.Info("Registration skipped")

	ctx, cancel := h.requestContext()
	defer cancel()
	if err := h.sessions.Delete(ctx, c.Chat().ID, c.Sender().ID); err != nil {
		logger.WithError(err).Warn("Failed to clear conversation")
	}
	if err := c.Respond(); err != nil {
		logger.WithError(err).Warn("Failed to answer callback")
	}
	return c.Edit(msgSkipped)
}

// onText completes a registration by reading the day the user typed. Text
// from users without a picked month is ordinary chat and is ignored.
func (h *BirthdayHandlers) onText(c telebot.Context) error {
	if c.Sender() == nil || c.Chat() == nil {
		return nil
	}
	ctx, cancel := h.requestContext()
	defer cancel()

	state, err := h.sessions.Get(ctx, c.Chat().ID, c.Sender().ID)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			h.handlerLogger(c, "day_input").WithError(err).Error("Failed to read conversation")
		}
		return nil
	}
	if state.Month == 0 {
		return nil
	}

	logger := h.handlerLogger(c, "day_input").WithField("flow", state.Flow)
	day, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil {
		return c.Send(msgEnterNumber)
	}
	return h.save(c, logger, day, state.Month)
}

// save registers the sender's birthday in the current chat and ends any conversation.
// A validation error keeps the conversation open so the user can retry.
func (h *BirthdayHandlers) save(c telebot.Context, logger *logrus.Entry, day, month int) error {
	ctx, cancel := h.requestContext()
	defer cancel()

	rec, created, err := h.birthdays.Register(ctx, c.Sender().ID, c.Chat().ID, day, month, displayName(c.Sender()))
	if err != nil {
		var verr *birthday.ValidationError
		if errors.As(err, &verr) {
			logger.WithField("reason", verr.Error()).Info("Rejected birthday date")
			return c.Send(validationText(err))
		}
		logger.WithError(err).Error("Failed to save birthday")
		return c.Send(msgInternalError)
	}

	if err := h.sessions.Delete(ctx, c.Chat().ID, c.Sender().ID); err != nil {
		logger.WithError(err).Warn("Failed to clear conversation")
	}
	return c.Send(savedText(rec, created))
}

func (h *BirthdayHandlers) onMyBirthday(c telebot.Context) error {
	logger := h.handlerLogger(c, "/mybirthday")
	logger.Info("Command received")

	ctx, cancel := h.requestContext()
	defer cancel()
	rec, err := h.birthdays.Get(ctx, c.Sender().ID, c.Chat().ID)
	if err != nil {
		if errors.Is(err, birthday.ErrRecordNotFound) {
			return c.Send(msgNotRegistered)
		}
		logger.WithError(err).Error("Failed to get birthday")
		return c.Send(msgInternalError)
	}
	return c.Send("🎂 Ваш день рождения: " + rec.Date())
}

func (h *BirthdayHandlers) onDeleteBirthday(c telebot.Context) error {
	logger := h.handlerLogger(c, "/deletebirthday")
	logger.Info("Command received")

	ctx, cancel := h.requestContext()
	defer cancel()
	if err := h.birthdays.Delete(ctx, c.Sender().ID, c.Chat().ID); err != nil {
		if errors.Is(err, birthday.ErrRecordNotFound) {
			return c.Send(msgNotFound)
		}
		logger.WithError(err).Error("Failed to delete birthday")
		return c.Send(msgInternalError)
	}
	return c.Send(msgDeleted)
}

func (h *BirthdayHandlers) onNextBirthdays(c telebot.Context) error {
	logger := h.handlerLogger(c, "/nextbirthdays")
	logger.Info("Command received")

	ctx, cancel := h.requestContext()
	defer cancel()
	upcoming, err := h.birthdays.UpcomingBirthdays(ctx, c.Chat().ID, h.upcomingDays)
	if err != nil {
		logger.WithError(err).Error("Failed to load upcoming birthdays")
		return c.Send(msgInternalError)
	}
	return c.Send(formatUpcoming(upcoming, h.upcomingDays))
}

func (h *BirthdayHandlers) onListBirthdays(c telebot.Context) error {
	logger := h.handlerLogger(c, "/listbirthdays")
	logger.Info("Command received")

	isAdmin, err := h.admins.IsChatAdmin(c.Chat().ID, c.Sender().ID)
	if err != nil {
		logger.WithError(err).Error("Error checking admin status")
		return c.Send(msgAdminCheckError)
	}
	if !isAdmin {
		logger.Warn("Unauthorized access attempt")
		return c.Send(msgAdminsOnly)
	}

	ctx, cancel := h.requestContext()
	defer cancel()
	entries, err := h.birthdays.AllBirthdays(ctx, c.Chat().ID)
	if err != nil {
		logger.WithError(err).Error("Failed to list birthdays")
		return c.Send(msgInternalError)
	}
	return c.Send(formatList(entries))
}

func (h *BirthdayHandlers) onCancel(c telebot.Context) error {
	logger := h.handlerLogger(c, "/cancel")
	logger.Info("Command received")

	ctx, cancel := h.requestContext()
	defer cancel()
	if err := h.sessions.Delete(ctx, c.Chat().ID, c.Sender().ID); err != nil {
		logger.WithError(err).Warn("Failed to clear conversation")
	}
	return c.Send(msgCancelled)
}

// onUserJoined greets a new member and offers the month keyboard.
func (h *BirthdayHandlers) onUserJoined(c telebot.Context) error {
	joined := c.Message().UserJoined
	if joined == nil || joined.IsBot {
		return nil
	}
	logger := h.handlerLogger(c, "user_joined").WithField("user_id", joined.ID)
	logger.Info("New member joined")

	ctx, cancel := h.requestContext()
	defer cancel()
	if err := h.sessions.Set(ctx, c.Chat().ID, joined.ID, session.State{Flow: session.FlowSetBirthday}); err != nil {
		logger.WithError(err).Warn("Failed to start conversation for new member")
	}

	registered, err := h.birthdays.Count(ctx, c.Chat().ID)
	if err != nil {
		logger.WithError(err).Warn("Failed to count chat birthdays")
	}

	name := joined.FirstName
	if name == "" {
		name = displayName(joined)
	}
	return c.Send(welcomeText(name, registered), monthKeyboard(uniqueSetMonth, true))
}
