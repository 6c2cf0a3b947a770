package index

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory index for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	refs   map[string]Reference
	closed bool
}

// NewMemoryStore creates a new in-memory index store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		refs: make(map[string]Reference),
	}
}

// Put implements Store.
func (m *MemoryStore) Put(ref Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.refs[ref.Key] = ref
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(key string) (Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Reference{}, ErrStoreClosed
	}

	ref, ok := m.refs[key]
	if !ok {
		return Reference{}, ErrNotFound
	}
	return ref, nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	refs := make([]Reference, 0, len(m.refs))
	for _, ref := range m.refs {
		refs = append(refs, ref)
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Key < refs[j].Key
	})

	return refs, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.refs, key)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.refs = nil
	return nil
}

// Len returns the number of references in the index.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.refs)
}
