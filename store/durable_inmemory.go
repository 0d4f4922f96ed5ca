package store

import (
	"context"
	"sync"
)

var _ DurableStore = (*InMemoryDurable)(nil)

// InMemoryDurable is a map-backed DurableStore. Contents do not survive a
// restart, so it is only suitable for tests and throwaway environments.
type InMemoryDurable struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewInMemoryDurable() *InMemoryDurable {
	return &InMemoryDurable{values: make(map[string]string)}
}

func (s *InMemoryDurable) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *InMemoryDurable) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	return nil
}

func (s *InMemoryDurable) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values, key)
	return nil
}
