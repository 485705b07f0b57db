package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore keeps tokens in memory, it is safe for concurrent use.
type MemoryStore struct {
	lock   *sync.RWMutex
	tokens map[string]string
}

// NewMemoryStore creates a MemoryStore with initial tokens, the map is copied.
func NewMemoryStore(tokens map[string]string) *MemoryStore {
	s := &MemoryStore{lock: &sync.RWMutex{}, tokens: make(map[string]string, len(tokens))}
	for k, v := range tokens {
		s.tokens[k] = v
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	token, found := s.tokens[key]
	return token, found, nil
}

func (s *MemoryStore) Set(key, token string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tokens[key] = token
}

func (s *MemoryStore) Delete(key string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.tokens, key)
}
