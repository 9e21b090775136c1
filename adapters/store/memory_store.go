package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/casque/core"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the SessionStore interface.
// It only serves a single instance; use RedisStore when running several.
type MemoryStore struct {
	slots map[string]memoryEntry
	ttl   time.Duration
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory store. Slots expire ttl after their last write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]memoryEntry),
		ttl:   ttl,
	}
}

func slotKey(contextID, key string) string {
	return contextID + ":" + key
}

// Get returns the value of a slot
func (s *MemoryStore) Get(ctx context.Context, contextID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.slots[slotKey(contextID, key)]
	if !exists || s.expired(entry) {
		return nil, core.ErrSlotNotFound
	}

	return append([]byte(nil), entry.value...), nil
}

// Set stores a slot, or removes it when value is empty
func (s *MemoryStore) Set(ctx context.Context, contextID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := slotKey(contextID, key)
	if len(value) == 0 {
		delete(s.slots, k)
		return nil
	}

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if s.ttl > 0 {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.slots[k] = entry

	return nil
}

// Take returns the value of a slot and removes it in one step
func (s *MemoryStore) Take(ctx context.Context, contextID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := slotKey(contextID, key)
	entry, exists := s.slots[k]
	delete(s.slots, k)
	if !exists || s.expired(entry) {
		return nil, core.ErrSlotNotFound
	}

	return append([]byte(nil), entry.value...), nil
}

// Sweep drops expired slots
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, entry := range s.slots {
		if s.expired(entry) {
			delete(s.slots, k)
		}
	}
}

// Clear removes all data from the store
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = make(map[string]memoryEntry)
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)
}
