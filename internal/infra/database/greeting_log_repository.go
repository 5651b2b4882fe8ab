package database

import (
	"context"
	"fmt"
	"time"

	"birthday_reminder_bot/internal/domain/greeting"
)

// GreetingLogRepository is the greeting ledger backed by the greeting_log table.
type GreetingLogRepository struct {
	db *DB
}

func NewGreetingLogRepository(db *DB) *GreetingLogRepository {
	return &GreetingLogRepository{db: db}
}

func (r *GreetingLogRepository) WasGreeted(ctx context.Context, chatID int64, day time.Time) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM greeting_log WHERE chat_id = ? AND greet_date = ?`)
	var n int
	if err := r.db.GetContext(ctx, &n, query, chatID, day.Format(greeting.DateLayout)); err != nil {
		return false, fmt.Errorf("error checking greeting log: %w", err)
	}
	return n > 0, nil
}

// RecordGreeting stores the entry; a second entry for the same chat and day is ignored.
func (r *GreetingLogRepository) RecordGreeting(ctx context.Context, entry *greeting.LogEntry) error {
	query := r.db.Rebind(`INSERT INTO greeting_log (chat_id, greet_date, recipients, sent_at)
               VALUES (?, ?, ?, ?)
               ON CONFLICT (chat_id, greet_date) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, query, entry.ChatID, entry.GreetDate, entry.Recipients, entry.SentAt.UTC()); err != nil {
		return fmt.Errorf("error recording greeting: %w", err)
	}
	return nil
}

// ListByDate returns the ledger entries written for one calendar day.
func (r *GreetingLogRepository) ListByDate(ctx context.Context, day time.Time) ([]greeting.LogEntry, error) {
	query := r.db.Rebind(`SELECT id, chat_id, greet_date, recipients, sent_at FROM greeting_log WHERE greet_date = ? ORDER BY id`)
	entries := make([]greeting.LogEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, day.Format(greeting.DateLayout)); err != nil {
		return nil, fmt.Errorf("error listing greeting log: %w", err)
	}
	return entries, nil
}
