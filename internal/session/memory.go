package session

import (
	"context"
	"sync"
	"time"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore provides thread-safe in-memory session storage with TTL expiry.
// Suitable for tests and single-instance dev mode; distributed deployments
// use the Redis store. Entries are stored serialized so every load goes
// through the same codec as the Redis path.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory session store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load restores the process stored under sessionID.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*domain.PurchaseProcess, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return Restore(entry.data)
}

// Update serializes the process and stores it, refreshing the TTL.
func (s *MemoryStore) Update(_ context.Context, p *domain.PurchaseProcess) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[p.SessionID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Sweep removes entries that expired before now and returns how many.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of live entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all entries (used for testing/reset).
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
}
