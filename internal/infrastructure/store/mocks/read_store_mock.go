package mocks

import (
	"sync"
)

// MockReadStore is an in-memory ReadStoreInterface double that records Set
// and Delete calls so projector tests can assert on what was written.
type MockReadStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]any

	SetCalls    []SetCall
	DeleteCalls []DeleteCall
}

// SetCall is one recorded Set invocation.
type SetCall struct {
	Collection string
	ID         string
	Data       any
}

// DeleteCall is one recorded Delete invocation.
type DeleteCall struct {
	Collection string
	ID         string
}

func NewMockReadStore() *MockReadStore {
	return &MockReadStore{
		collections: make(map[string]map[string]any),
		SetCalls:    make([]SetCall, 0),
		DeleteCalls: make([]DeleteCall, 0),
	}
}

// ensure returns the collection map, creating it on first use. Callers hold
// the write lock.
func (m *MockReadStore) ensure(collection string) map[string]any {
	c, ok := m.collections[collection]
	if !ok {
		c = make(map[string]any)
		m.collections[collection] = c
	}
	return c
}

func (m *MockReadStore) Set(collection, id string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, SetCall{Collection: collection, ID: id, Data: data})
	m.ensure(collection)[id] = data
}

func (m *MockReadStore) Get(collection, id string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.collections[collection][id]
	return data, ok
}

func (m *MockReadStore) GetAll(collection string) []any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]any, 0, len(m.collections[collection]))
	for _, item := range m.collections[collection] {
		items = append(items, item)
	}
	return items
}

func (m *MockReadStore) Delete(collection, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, DeleteCall{Collection: collection, ID: id})
	delete(m.collections[collection], id)
}

func (m *MockReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.collections[collection][id]
	if !ok {
		return false
	}
	m.collections[collection][id] = updateFn(current)
	return true
}

// Reset clears stored data and the recorded calls.
func (m *MockReadStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]map[string]any)
	m.SetCalls = m.SetCalls[:0]
	m.DeleteCalls = m.DeleteCalls[:0]
}
