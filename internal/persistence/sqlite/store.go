// Package sqlite persists meeting-thread aggregates and fallback conversation
// state in SQLite. Each thread (or conversation) is one row holding the
// serialized aggregate; Put overwrites the record wholesale, which is the
// concurrency contract the coordination engine assumes (the store serializes
// conflicting writes per thread id).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/meeting-coordinator/internal/coordination"
	_ "modernc.org/sqlite"
)

// Store implements coordination.ThreadStore on a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the SQLite database identified by dsn. A nil now falls
// back to time.Now.
func Open(dsn string, now func() time.Time) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	return &Store{db: db, now: now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the threads and conversations tables when absent.
func (s *Store) Migrate(ctx context.Context) error {
	const threads = `
		CREATE TABLE IF NOT EXISTS threads (
			thread_id  TEXT PRIMARY KEY,
			record     TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, threads); err != nil {
		return fmt.Errorf("sqlite: create threads table: %w", err)
	}

	const conversations = `
		CREATE TABLE IF NOT EXISTS conversations (
			sender     TEXT PRIMARY KEY,
			record     TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, conversations); err != nil {
		return fmt.Errorf("sqlite: create conversations table: %w", err)
	}
	return nil
}

// Get loads a thread aggregate, returning (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, threadID string) (*coordination.MeetingThread, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM threads WHERE thread_id = ?`, threadID).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load thread %s: %w", threadID, err)
	}

	var rec threadRecord
	if err := json.Unmarshal([]byte(record), &rec); err != nil {
		return nil, fmt.Errorf("sqlite: decode thread %s: %w", threadID, err)
	}
	return rec.toDomain()
}

// Put overwrites the stored aggregate for the thread.
func (s *Store) Put(ctx context.Context, thread *coordination.MeetingThread) error {
	record, err := json.Marshal(newThreadRecord(thread))
	if err != nil {
		return fmt.Errorf("sqlite: encode thread %s: %w", thread.ThreadID, err)
	}

	const query = `
		INSERT INTO threads (thread_id, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, thread.ThreadID, string(record), s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("sqlite: save thread %s: %w", thread.ThreadID, err)
	}
	return nil
}
