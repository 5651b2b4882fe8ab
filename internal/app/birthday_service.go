package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"birthday_reminder_bot/internal/domain/birthday"
	"birthday_reminder_bot/internal/domain/greeting"
	"birthday_reminder_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the birthday service
var ErrStoreUnavailable = errors.New("birthday store unavailable")

// Upcoming is a birthday within the look-ahead window of UpcomingBirthdays.
type Upcoming struct {
	Name      string
	Day       int
	Month     int
	DaysUntil int
}

// Entry is a birthday as listed for a chat.
type Entry struct {
	Name  string
	Day   int
	Month int
}

type BirthdayService struct {
	repo   birthday.Repository
	now    func() time.Time
	logger *logrus.Entry
}

func NewBirthdayService(repo birthday.Repository, logger *logrus.Entry) *BirthdayService {
	return &BirthdayService{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the wall clock used for "today".
func (s *BirthdayService) WithClock(now func() time.Time) *BirthdayService {
	s.now = now
	return s
}

// Register handles the business logic for creating or updating a user's birthday in a chat.
// A *birthday.ValidationError is returned unchanged for out-of-range input.
func (s *BirthdayService) Register(ctx context.Context, userID, chatID int64, day, month int, username string) (*birthday.Record, bool, error) {
	if err := birthday.ValidateDate(day, month); err != nil {
		return nil, false, err
	}

	var name sql.NullString
	if username = strings.TrimSpace(username); username != "" {
		name.String = username
		name.Valid = true
	}

	rec := &birthday.Record{
		UserID:   userID,
		ChatID:   chatID,
		Username: name,
		Day:      day,
		Month:    month,
	}
	created, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save birthday in repository: %w", err)
	}

	action := "updated"
	if created {
		action = "created"
	}
	metrics.Registrations.WithLabelValues(action).Inc()
	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"chat_id": chatID,
		"date":    rec.Date(),
		"action":  action,
	}).Info("Birthday saved")
	return rec, created, nil
}

// Get returns the user's birthday in a chat or birthday.ErrRecordNotFound.
func (s *BirthdayService) Get(ctx context.Context, userID, chatID int64) (*birthday.Record, error) {
	rec, err := s.repo.GetByUserAndChat(ctx, userID, chatID)
	if err != nil {
		if errors.Is(err, birthday.ErrRecordNotFound) {
			return nil, birthday.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get birthday: %w", err)
	}
	return rec, nil
}

// Delete removes the user's birthday from a chat or returns birthday.ErrRecordNotFound.
func (s *BirthdayService) Delete(ctx context.Context, userID, chatID int64) error {
	if err := s.repo.Delete(ctx, userID, chatID); err != nil {
		if errors.Is(err, birthday.ErrRecordNotFound) {
			return birthday.ErrRecordNotFound
		}
		return fmt.Errorf("failed to delete birthday: %w", err)
	}
	metrics.Registrations.WithLabelValues("deleted").Inc()
	s.logger.WithFields(logrus.Fields{"user_id": userID, "chat_id": chatID}).Info("Birthday deleted")
	return nil
}

// Count returns the number of birthdays registered in a chat.
func (s *BirthdayService) Count(ctx context.Context, chatID int64) (int, error) {
	n, err := s.repo.CountByChat(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to count birthdays: %w", err)
	}
	return n, nil
}

// BirthdaysToday groups today's birthdays by chat, in the order chats first appear in the store.
func (s *BirthdayService) BirthdaysToday(ctx context.Context) ([]greeting.Batch, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return BirthdaysOn(records, s.now()), nil
}

// UpcomingBirthdays returns the chat's birthdays that occur within daysAhead days, nearest first.
func (s *BirthdayService) UpcomingBirthdays(ctx context.Context, chatID int64, daysAhead int) ([]Upcoming, error) {
	records, err := s.repo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	upcoming, skipped := UpcomingFrom(records, s.now(), daysAhead)
	for _, r := range skipped {
		s.logger.WithFields(logrus.Fields{
			"user_id": r.UserID,
			"chat_id": r.ChatID,
			"day":     r.Day,
			"month":   r.Month,
		}).Warn("Skipping birthday record with invalid date")
	}
	return upcoming, nil
}

// AllBirthdays lists every birthday in the chat in store order.
func (s *BirthdayService) AllBirthdays(ctx context.Context, chatID int64) ([]Entry, error) {
	records, err := s.repo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{Name: r.DisplayName(), Day: r.Day, Month: r.Month})
	}
	return entries, nil
}

// BirthdaysOn selects the records whose birthday is on today and groups their
// display names by chat in first-seen order.
func BirthdaysOn(records []birthday.Record, today time.Time) []greeting.Batch {
	var batches []greeting.Batch
	index := make(map[int64]int)
	for _, r := range records {
		if !birthday.IsToday(r.Day, r.Month, today) {
			continue
		}
		i, ok := index[r.ChatID]
		if !ok {
			i = len(batches)
			index[r.ChatID] = i
			batches = append(batches, greeting.Batch{ChatID: r.ChatID})
		}
		batches[i].Names = append(batches[i].Names, r.DisplayName())
	}
	return batches
}

// UpcomingFrom computes the birthdays within [0, daysAhead] days of today, sorted by
// distance with ties kept in input order. Records with an impossible date are
// returned in skipped instead of failing the whole batch.
func UpcomingFrom(records []birthday.Record, today time.Time, daysAhead int) (upcoming []Upcoming, skipped []birthday.Record) {
	upcoming = make([]Upcoming, 0)
	for _, r := range records {
		days, err := birthday.DaysUntilNextOccurrence(r.Day, r.Month, today)
		if err != nil {
			skipped = append(skipped, r)
			continue
		}
		if days >= 0 && days <= daysAhead {
			upcoming = append(upcoming, Upcoming{
				Name:      r.DisplayName(),
				Day:       r.Day,
				Month:     r.Month,
				DaysUntil: days,
			})
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DaysUntil < upcoming[j].DaysUntil
	})
	return upcoming, skipped
}

// SortByCalendar orders entries by (month, day) for display.
func SortByCalendar(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Month != entries[j].Month {
			return entries[i].Month < entries[j].Month
		}
		return entries[i].Day < entries[j].Day
	})
}
