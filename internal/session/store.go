package session

import "sync"

// Store is the persisted client state contract: a key-value store that
// survives reload. How bytes are persisted is the storage collaborator's
// concern.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Keys under which the manager persists its state.
const (
	KeyAccessToken  = "session.access_token"
	KeyRefreshToken = "session.refresh_token"
	KeyExpiresAt    = "session.expires_at"
	KeyUser         = "session.user"
)

// MemoryStore is an in-memory Store, used in tests and the demo client.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}
