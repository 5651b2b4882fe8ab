// Package session keeps the short-lived state of multi-step bot conversations,
// such as a user who picked a month on the keyboard and still has to type the day.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoSession = errors.New("no active conversation")

// Flow names the conversation a user is in.
type Flow string

const (
	FlowSetBirthday    Flow = "set_birthday"
	FlowUpdateBirthday Flow = "update_birthday"
)

// DefaultTTL is how long an abandoned conversation is remembered.
const DefaultTTL = 10 * time.Minute

// State is the conversation progress of one user in one chat.
type State struct {
	Flow  Flow `json:"flow"`
	Month int  `json:"month,omitempty"` // 0 until a month was picked
}

// Store persists conversation state per (chat, user).
type Store interface {
	Get(ctx context.Context, chatID, userID int64) (*State, error)
	Set(ctx context.Context, chatID, userID int64, state State) error
	Delete(ctx context.Context, chatID, userID int64) error
}

func key(chatID, userID int64) string {
	return fmt.Sprintf("birthday_bot:session:%d:%d", chatID, userID)
}
