package conversation

import (
	"context"
	"strings"
	"sync"
)

// ContextStore persists conversation state keyed by the counterpart's email
// address. Get returns (nil, nil) for a sender with no stored conversation;
// Put overwrites any existing state wholesale.
type ContextStore interface {
	Get(ctx context.Context, senderEmail string) (*Context, error)
	Put(ctx context.Context, senderEmail string, conv *Context) error
}

// MemoryStore is an in-memory ContextStore safe for concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Context
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{conversations: make(map[string]*Context)}
}

// Get returns a deep copy of the sender's conversation, or (nil, nil) when
// none is stored.
func (s *MemoryStore) Get(_ context.Context, senderEmail string) (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations[NormalizeSender(senderEmail)].Clone(), nil
}

// Put stores a deep copy of the conversation under the sender's address.
func (s *MemoryStore) Put(_ context.Context, senderEmail string, conv *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[NormalizeSender(senderEmail)] = conv.Clone()
	return nil
}

// NormalizeSender canonicalizes an email address for use as a store key.
func NormalizeSender(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
