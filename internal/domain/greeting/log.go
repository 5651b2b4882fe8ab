// internal/domain/greeting/log.go
package greeting

import "time"

// DateLayout is the calendar-date format used for ledger keys.
const DateLayout = "2006-01-02"

// LogEntry records that a chat received its greeting on a given day.
// Corresponds to the 'greeting_log' table.
type LogEntry struct {
	ID         int64     `db:"id"`
	ChatID     int64     `db:"chat_id"`
	GreetDate  string    `db:"greet_date"` // DateLayout
	Recipients int       `db:"recipients"`
	SentAt     time.Time `db:"sent_at"`
}
