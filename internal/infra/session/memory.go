package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Used when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, chatID, userID int64) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(chatID, userID)
	e, ok := s.entries[k]
	if !ok {
		return nil, ErrNoSession
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, k)
		return nil, ErrNoSession
	}
	state := e.state
	return &state, nil
}

func (s *MemoryStore) Set(_ context.Context, chatID, userID int64, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key(chatID, userID)] = memoryEntry{state: state, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key(chatID, userID))
	return nil
}
