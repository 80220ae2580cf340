package artifact

import (
	"slices"
	"sync"

	"github.com/hupe1980/webscout/core"
)

var _ core.ArtifactStore = (*InMemoryStore)(nil)

// InMemoryStore keeps artifacts in a nested map guarded by an RWMutex.
// Data is copied on save and on retrieval.
//
// Layout: runID -> artifactID -> raw bytes
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]byte
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string]map[string][]byte)}
}

// Save stores or overwrites the artifact.
func (a *InMemoryStore) Save(runID, artifactID string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.artifacts[runID]; !exists {
		a.artifacts[runID] = make(map[string][]byte)
	}

	a.artifacts[runID][artifactID] = slices.Clone(data)

	return nil
}

// Get returns a copy of the artifact or ErrNotFound.
func (a *InMemoryStore) Get(runID, artifactID string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.artifacts[runID][artifactID]
	if !ok {
		return nil, ErrNotFound
	}

	return slices.Clone(data), nil
}

// List returns the sorted artifact ids of a run.
func (a *InMemoryStore) List(runID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m := a.artifacts[runID]
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids, nil
}

// Delete removes the artifact or returns ErrNotFound.
func (a *InMemoryStore) Delete(runID, artifactID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.artifacts[runID]
	if !ok {
		return ErrNotFound
	}

	if _, ok := m[artifactID]; !ok {
		return ErrNotFound
	}

	delete(m, artifactID)

	if len(m) == 0 {
		delete(a.artifacts, runID)
	}

	return nil
}
