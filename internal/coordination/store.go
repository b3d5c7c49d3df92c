package coordination

import (
	"context"
	"sync"
)

// ThreadStore persists meeting-thread aggregates. Get returns (nil, nil) for
// an unknown id. Put overwrites the whole aggregate; serializing conflicting
// writes per thread id is the store implementation's responsibility.
type ThreadStore interface {
	Get(ctx context.Context, threadID string) (*MeetingThread, error)
	Put(ctx context.Context, thread *MeetingThread) error
}

// MemoryStore is a mutex-guarded in-memory ThreadStore, used by tests and as
// a fallback when no durable store is configured. Threads are cloned on the
// way in and out so callers cannot mutate stored state through retained
// references.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*MeetingThread
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*MeetingThread)}
}

// Get returns a copy of the stored thread, or nil when absent.
func (s *MemoryStore) Get(_ context.Context, threadID string) (*MeetingThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threads[threadID].Clone(), nil
}

// Put stores a copy of the thread, overwriting any previous state wholesale.
func (s *MemoryStore) Put(_ context.Context, thread *MeetingThread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[thread.ThreadID] = thread.Clone()
	return nil
}
