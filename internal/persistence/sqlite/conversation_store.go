package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/meeting-coordinator/internal/conversation"
)

// ConversationStore implements conversation.ContextStore on the same database
// that holds meeting threads. One row per sender, serialized wholesale like
// the thread aggregates.
type ConversationStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewConversationStore shares the thread store's database handle.
func NewConversationStore(store *Store) *ConversationStore {
	return &ConversationStore{db: store.db, now: store.now}
}

// Get loads the sender's conversation state, returning (nil, nil) when absent.
func (s *ConversationStore) Get(ctx context.Context, senderEmail string) (*conversation.Context, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM conversations WHERE sender = ?`, senderEmail).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load conversation %s: %w", senderEmail, err)
	}

	var rec conversationRecord
	if err := json.Unmarshal([]byte(record), &rec); err != nil {
		return nil, fmt.Errorf("sqlite: decode conversation %s: %w", senderEmail, err)
	}
	return rec.toDomain()
}

// Put overwrites the stored conversation state for the sender.
func (s *ConversationStore) Put(ctx context.Context, senderEmail string, conv *conversation.Context) error {
	record, err := json.Marshal(newConversationRecord(conv))
	if err != nil {
		return fmt.Errorf("sqlite: encode conversation %s: %w", senderEmail, err)
	}

	const query = `
		INSERT INTO conversations (sender, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(sender) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, senderEmail, string(record), s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("sqlite: save conversation %s: %w", senderEmail, err)
	}
	return nil
}
