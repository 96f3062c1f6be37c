// Package repofake holds an in-memory session store for tests.
package repofake

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[string]string{}}
}

func (s *MemoryStore) Load(_ context.Context, namespace string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data[namespace]))
	for k, v := range s.data[namespace] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, namespace string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[namespace] == nil {
		s.data[namespace] = map[string]string{}
	}
	for k, v := range values {
		s.data[namespace][k] = v
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, namespace)
	return nil
}

// Namespaces reports how many sessions hold any state.
func (s *MemoryStore) Namespaces() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
