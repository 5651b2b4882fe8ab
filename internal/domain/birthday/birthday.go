package birthday

import (
	"database/sql"
	"fmt"
	"time"
)

// Record is a user's birthday registered in one chat.
// There is at most one record per (UserID, ChatID) pair.
type Record struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	ChatID    int64          `db:"chat_id"`
	Username  sql.NullString `db:"username"` // Display name used in greetings, optional
	Day       int            `db:"day"`
	Month     int            `db:"month"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// DisplayName returns the stored name or a "User <id>" label when none was stored.
func (r Record) DisplayName() string {
	if r.Username.Valid && r.Username.String != "" {
		return r.Username.String
	}
	return fmt.Sprintf("User %d", r.UserID)
}

// Date returns the birthday formatted as DD.MM.
func (r Record) Date() string {
	return FormatDate(r.Day, r.Month)
}
