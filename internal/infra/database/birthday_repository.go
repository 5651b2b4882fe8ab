package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"birthday_reminder_bot/internal/domain/birthday"
)

const birthdayColumns = `id, user_id, chat_id, username, day, month, created_at, updated_at`

// BirthdayRepository stores birthday records in the user_birthdays table.
type BirthdayRepository struct {
	db  *DB
	now func() time.Time
}

func NewBirthdayRepository(db *DB) *BirthdayRepository {
	return &BirthdayRepository{db: db, now: time.Now}
}

func (r *BirthdayRepository) ListAll(ctx context.Context) ([]birthday.Record, error) {
	query := `SELECT ` + birthdayColumns + ` FROM user_birthdays ORDER BY id`
	records := make([]birthday.Record, 0)
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("error listing all birthdays: %w", err)
	}
	return records, nil
}

func (r *BirthdayRepository) ListByChat(ctx context.Context, chatID int64) ([]birthday.Record, error) {
	query := r.db.Rebind(`SELECT ` + birthdayColumns + ` FROM user_birthdays WHERE chat_id = ? ORDER BY id`)
	records := make([]birthday.Record, 0)
	if err := r.db.SelectContext(ctx, &records, query, chatID); err != nil {
		return nil, fmt.Errorf("error listing birthdays for chat %d: %w", chatID, err)
	}
	return records, nil
}

func (r *BirthdayRepository) GetByUserAndChat(ctx context.Context, userID, chatID int64) (*birthday.Record, error) {
	query := r.db.Rebind(`SELECT ` + birthdayColumns + ` FROM user_birthdays WHERE user_id = ? AND chat_id = ?`)
	rec := &birthday.Record{}
	if err := r.db.GetContext(ctx, rec, query, userID, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, birthday.ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting birthday by user and chat: %w", err)
	}
	return rec, nil
}

// Upsert inserts the record or updates the existing (user, chat) row. A null
// username keeps the stored one.
func (r *BirthdayRepository) Upsert(ctx context.Context, rec *birthday.Record) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for upsert: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	now := r.now().UTC()
	existing := birthday.Record{}
	err = tx.GetContext(ctx, &existing,
		r.db.Rebind(`SELECT `+birthdayColumns+` FROM user_birthdays WHERE user_id = ? AND chat_id = ?`),
		rec.UserID, rec.ChatID)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		query := r.db.Rebind(`INSERT INTO user_birthdays (user_id, chat_id, username, day, month, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)
               RETURNING id`)
		if err := tx.QueryRowxContext(ctx, query, rec.UserID, rec.ChatID, rec.Username, rec.Day, rec.Month, now, now).Scan(&rec.ID); err != nil {
			return false, fmt.Errorf("error creating birthday: %w", err)
		}
		rec.CreatedAt = now
		created = true
	case err != nil:
		return false, fmt.Errorf("error looking up birthday for upsert: %w", err)
	default:
		query := r.db.Rebind(`UPDATE user_birthdays
               SET username = COALESCE(?, username), day = ?, month = ?, updated_at = ?
               WHERE id = ?`)
		if _, err := tx.ExecContext(ctx, query, rec.Username, rec.Day, rec.Month, now, existing.ID); err != nil {
			return false, fmt.Errorf("error updating birthday: %w", err)
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		if !rec.Username.Valid {
			rec.Username = existing.Username
		}
	}
	rec.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return created, nil
}

func (r *BirthdayRepository) Delete(ctx context.Context, userID, chatID int64) error {
	query := r.db.Rebind(`DELETE FROM user_birthdays WHERE user_id = ? AND chat_id = ?`)
	res, err := r.db.ExecContext(ctx, query, userID, chatID)
	if err != nil {
		return fmt.Errorf("error deleting birthday: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading deleted rows: %w", err)
	}
	if n == 0 {
		return birthday.ErrRecordNotFound
	}
	return nil
}

func (r *BirthdayRepository) CountByChat(ctx context.Context, chatID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM user_birthdays WHERE chat_id = ?`), chatID); err != nil {
		return 0, fmt.Errorf("error counting birthdays: %w", err)
	}
	return n, nil
}
