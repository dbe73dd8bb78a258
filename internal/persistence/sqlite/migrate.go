package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations is the ordered list of schema versions. Entries are append-only;
// the version recorded in schema_migrations tracks the last applied index.
var migrations = []string{
	`CREATE TABLE spaces (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL CHECK (type IN ('room', 'auditorium', 'lab', 'coworking')),
		capacity    INTEGER NOT NULL CHECK (capacity > 0),
		location    TEXT NOT NULL,
		description TEXT,
		available   INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE bookings (
		id           TEXT PRIMARY KEY,
		space_id     TEXT NOT NULL,
		requester_id TEXT NOT NULL,
		starts_at    TEXT NOT NULL,
		ends_at      TEXT NOT NULL CHECK (ends_at > starts_at),
		status       TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled')),
		notes        TEXT,
		created_at   TEXT NOT NULL,
		updated_at   TEXT
	)`,
	`CREATE INDEX idx_bookings_space_interval ON bookings (space_id, starts_at, ends_at)`,
	`CREATE TABLE users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL CHECK (role IN ('admin', 'client')),
		company       TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE INDEX idx_sessions_expires_at ON sessions (expires_at)`,
}

// Migrate brings the schema up to the current version. Safe to call on every
// startup; already-applied versions are skipped.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current sql.NullInt64
	if err := cp.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	applied := int(current.Int64)
	if !current.Valid {
		applied = 0
	}

	for version := applied + 1; version <= len(migrations); version++ {
		statement := migrations[version-1]
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(statement); err != nil {
				return fmt.Errorf("migration %d failed: %w", version, err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
