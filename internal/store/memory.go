package store

import (
	"context"
	"sync"

	"github.com/mkravets/dictmatch/internal/rules"
)

// MemoryStore is an in-memory Store backed by a map plus an insertion
// order list, guarded by an RWMutex. Suitable for development, tests,
// and single-instance deployments that load rules from a file.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]rules.Rule
	order []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]rules.Rule)}
}

// ListRules returns every rule in insertion order.
func (m *MemoryStore) ListRules(ctx context.Context) ([]rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]rules.Rule, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out, nil
}

// GetRule returns one rule by ID.
func (m *MemoryStore) GetRule(ctx context.Context, id string) (*rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	return &r, nil
}

// UpsertRule inserts or replaces a rule; replacements keep their
// original position.
func (m *MemoryStore) UpsertRule(ctx context.Context, r rules.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[r.ID]; !exists {
		m.order = append(m.order, r.ID)
	}
	m.byID[r.ID] = r
	return nil
}

// DeleteRule removes a rule; unknown IDs are a no-op.
func (m *MemoryStore) DeleteRule(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[id]; !exists {
		return nil
	}
	delete(m.byID, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error { return nil }
