package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store persists carts keyed by session id. The cart itself never talks to
// the store; handlers load, mutate, and save explicitly.
type Store interface {
	// Load returns the session's cart, or a fresh empty cart when none is
	// stored yet.
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps carts in-process. Used by tests and Redis-less dev runs.
// Carts are stored JSON-encoded for parity with the Redis store, so both
// stores round-trip values identically.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	s.mu.RLock()
	raw, ok := s.carts[sessionID]
	s.mu.RUnlock()
	if !ok {
		return New(), nil
	}
	c := New()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("cart: unmarshal: %w", err)
	}
	if c.Entries == nil {
		c.Entries = make(map[string]*Entry)
	}
	return c, nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: marshal: %w", err)
	}
	s.mu.Lock()
	s.carts[sessionID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}
