// Package datastore persists media assets and transcription jobs in
// Postgres. Uniqueness of dedup keys is enforced here, by the database,
// not by in-process locking: concurrent submissions racing on the same key
// collapse onto the existing row through unique-violation errors.
package datastore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Store wraps the database handle. It is constructed once at startup and
// passed to every component that needs persistence.
type Store struct {
	db *sql.DB
}

// InitDB opens and pings a Postgres connection.
func InitDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// New returns a Store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
//
// The partial unique index on transcription_jobs is what makes the dedup
// contract hold under concurrency: at most one live (pending or processing)
// job may exist per (asset_id, provider, language) triple, while any number
// of terminal jobs may accumulate for the same triple.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS media_assets (
			id UUID PRIMARY KEY,
			namespace TEXT NOT NULL,
			content_key TEXT NOT NULL,
			display_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			object_name TEXT,
			owner_name TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (namespace, content_key)
		)`,
		`CREATE TABLE IF NOT EXISTS transcription_jobs (
			id UUID PRIMARY KEY,
			asset_id UUID NOT NULL REFERENCES media_assets(id),
			provider TEXT NOT NULL,
			language TEXT NOT NULL,
			status TEXT NOT NULL,
			segments JSONB,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS transcription_jobs_live_key
			ON transcription_jobs (asset_id, provider, language)
			WHERE status IN ('pending', 'processing')`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
