// internal/app/greeting_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"birthday_reminder_bot/internal/domain/greeting"
	domainTelegram "birthday_reminder_bot/internal/domain/telegram"
	"birthday_reminder_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DispatchError is a failed delivery to one chat. It never aborts the rest of the cycle.
type DispatchError struct {
	ChatID int64
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to send greeting to chat %d: %v", e.ChatID, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// BuildGreeting renders the greeting for the people celebrating in one chat.
func BuildGreeting(names []string) string {
	if len(names) == 1 {
		return fmt.Sprintf("🎉 Сегодня день рождения у %s! 🎂\n\nПоздравляем! 🎊", names[0])
	}
	return fmt.Sprintf("🎉 Сегодня дни рождения у %s! 🎂\n\nПоздравляем! 🎊", strings.Join(names, ", "))
}

type todaySource interface {
	BirthdaysToday(ctx context.Context) ([]greeting.Batch, error)
}

// GreetingService runs one greeting cycle: find today's birthdays and greet every chat once.
type GreetingService struct {
	birthdays todaySource
	notifier  domainTelegram.Notifier
	ledger    greeting.Repository // optional
	now       func() time.Time
	logger    *logrus.Entry
}

func NewGreetingService(
	birthdays todaySource,
	notifier domainTelegram.Notifier,
	ledger greeting.Repository, // nil disables de-duplication across restarts
	logger *logrus.Entry,
) *GreetingService {
	return &GreetingService{
		birthdays: birthdays,
		notifier:  notifier,
		ledger:    ledger,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the wall clock used for the ledger date.
func (s *GreetingService) WithClock(now func() time.Time) *GreetingService {
	s.now = now
	return s
}

// RunCycle greets every chat that has a birthday today. Store failures abort the cycle
// with ErrStoreUnavailable; delivery failures are collected per chat and joined.
func (s *GreetingService) RunCycle(ctx context.Context) error {
	cycleLogger := s.logger.WithField("cycle_id", uuid.NewString())
	today := s.now()

	batches, err := s.birthdays.BirthdaysToday(ctx)
	if err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		cycleLogger.WithError(err).Error("Failed to load today's birthdays")
		return err
	}
	if len(batches) == 0 {
		cycleLogger.Info("No birthdays today")
		return nil
	}
	cycleLogger.WithField("chats", len(batches)).Info("Sending birthday greetings")

	var dispatchErrs []error
	for _, batch := range batches {
		chatLogger := cycleLogger.WithFields(logrus.Fields{
			"chat_id": batch.ChatID,
			"people":  len(batch.Names),
		})

		if s.ledger != nil {
			greeted, err := s.ledger.WasGreeted(ctx, batch.ChatID, today)
			if err != nil {
				chatLogger.WithError(err).Warn("Could not check greeting ledger, sending anyway")
			} else if greeted {
				chatLogger.Info("Chat already greeted today, skipping")
				metrics.GreetingsSent.WithLabelValues("skipped").Inc()
				continue
			}
		}

		if err := s.send(ctx, batch); err != nil {
			chatLogger.WithError(err).Error("Failed to send birthday greeting")
			metrics.GreetingsSent.WithLabelValues("failed").Inc()
			dispatchErrs = append(dispatchErrs, &DispatchError{ChatID: batch.ChatID, Err: err})
			continue
		}
		chatLogger.Info("Birthday greeting sent")
		metrics.GreetingsSent.WithLabelValues("sent").Inc()

		if s.ledger != nil {
			entry := &greeting.LogEntry{
				ChatID:     batch.ChatID,
				GreetDate:  today.Format(greeting.DateLayout),
				Recipients: len(batch.Names),
				SentAt:     s.now(),
			}
			if err := s.ledger.RecordGreeting(ctx, entry); err != nil {
				chatLogger.WithError(err).Warn("Failed to record greeting in ledger")
			}
		}
	}

	return errors.Join(dispatchErrs...)
}

// send delivers one chat's greeting; a panicking notifier fails only that chat.
func (s *GreetingService) send(ctx context.Context, batch greeting.Batch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return s.notifier.SendText(ctx, batch.ChatID, BuildGreeting(batch.Names))
}
