package database

import (
	"context"
	"fmt"
)

// schemaVersion is bumped whenever a statement is appended below.
const schemaVersion = 1

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_birthdays (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL,
		chat_id    INTEGER NOT NULL,
		username   TEXT,
		day        INTEGER NOT NULL CHECK (day BETWEEN 1 AND 31),
		month      INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, chat_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_birthdays_chat ON user_birthdays (chat_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_birthdays_date ON user_birthdays (month, day)`,
	`CREATE TABLE IF NOT EXISTS greeting_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id    INTEGER NOT NULL,
		greet_date TEXT NOT NULL,
		recipients INTEGER NOT NULL,
		sent_at    TIMESTAMP NOT NULL,
		UNIQUE (chat_id, greet_date)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_birthdays (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL,
		chat_id    BIGINT NOT NULL,
		username   VARCHAR(255),
		day        SMALLINT NOT NULL CHECK (day BETWEEN 1 AND 31),
		month      SMALLINT NOT NULL CHECK (month BETWEEN 1 AND 12),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT user_birthdays_user_chat_key UNIQUE (user_id, chat_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_birthdays_chat ON user_birthdays (chat_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_birthdays_date ON user_birthdays (month, day)`,
	`CREATE TABLE IF NOT EXISTS greeting_log (
		id         BIGSERIAL PRIMARY KEY,
		chat_id    BIGINT NOT NULL,
		greet_date VARCHAR(10) NOT NULL,
		recipients INTEGER NOT NULL,
		sent_at    TIMESTAMPTZ NOT NULL,
		CONSTRAINT greeting_log_chat_date_key UNIQUE (chat_id, greet_date)
	)`,
}

// migrate brings the schema to schemaVersion. Every statement is idempotent.
func migrate(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current int
	if err := db.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	statements := sqliteSchema
	if db.Dialect == Postgres {
		statements = postgresSchema
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w\nstatement: %s", err, stmt)
		}
	}
	if _, err := tx.ExecContext(ctx, db.Rebind("INSERT INTO schema_version (version) VALUES (?)"), schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}
