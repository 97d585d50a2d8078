// ABOUTME: In-memory Store implementation backing the default deployment
// ABOUTME: Mutex-guarded map with creation-order listing and copy-on-read snapshots

package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is the default Store implementation. Sessions live for the
// lifetime of the process; every read hands out a deep copy so a caller can
// never observe a write in progress.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string // session ids in creation order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session.
func (m *MemoryStore) Create(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	m.sessions[session.ID] = session.Clone()
	m.order = append(m.order, session.ID)
	return nil
}

// Get returns a snapshot of the session.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Update applies mutate under the write lock so concurrent updates to the
// same id serialize. The mutation runs against a copy; the stored value is
// swapped only if mutate succeeds.
func (m *MemoryStore) Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	m.sessions[id] = next
	return next.Clone(), nil
}

// List returns summaries in creation order.
func (m *MemoryStore) List(ctx context.Context) ([]*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Summary, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sessions[id].Summarize())
	}
	return out, nil
}
