package memory

import (
	"sort"
	"sync"
)

// InMemoryStore is the process-local scratch memory shared by the agents of
// one run (or by a single isolated sub-agent). It is a flat key/value map
// holding cross-step artifacts such as the current plan or accumulated rows.
//
// Concurrency: protected by RWMutex. Values are stored as given; callers that
// hand out mutable values (slices, maps) should treat them as owned by the store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]any)}
}

// Get returns the value stored under key.
func (m *InMemoryStore) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]

	return v, ok
}

// Set stores (or overwrites) value under key.
func (m *InMemoryStore) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
}

// Update atomically replaces the value under key with fn(old, exists).
func (m *InMemoryStore) Update(key string, fn func(old any, exists bool) any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.data[key]
	m.data[key] = fn(old, ok)
}

// Delete removes key. Missing keys are ignored.
func (m *InMemoryStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
}

// Keys returns the stored keys in sorted order.
func (m *InMemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Snapshot returns a shallow copy of the whole map.
func (m *InMemoryStore) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]any, len(m.data))
	for k, v := range m.data {
		result[k] = v
	}

	return result
}
