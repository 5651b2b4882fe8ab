package birthday

import (
	"context"
	"errors"
)

var ErrRecordNotFound = errors.New("birthday record not found")

// Store is the read side used by the query layer.
type Store interface {
	ListAll(ctx context.Context) ([]Record, error)
	ListByChat(ctx context.Context, chatID int64) ([]Record, error)
}

// Repository defines the operations for persisting and retrieving birthday records.
type Repository interface {
	Store

	// Upsert creates the record or updates day, month and username of the existing
	// (user, chat) record. created reports which of the two happened.
	Upsert(ctx context.Context, r *Record) (created bool, err error)
	GetByUserAndChat(ctx context.Context, userID, chatID int64) (*Record, error)
	Delete(ctx context.Context, userID, chatID int64) error
	CountByChat(ctx context.Context, chatID int64) (int, error)
}
