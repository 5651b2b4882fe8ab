// internal/domain/greeting/repository.go
package greeting

import (
	"context"
	"time"
)

// Repository is the ledger of greetings already delivered.
type Repository interface {
	WasGreeted(ctx context.Context, chatID int64, day time.Time) (bool, error)
	// RecordGreeting is idempotent per (chat, day).
	RecordGreeting(ctx context.Context, entry *LogEntry) error
}
