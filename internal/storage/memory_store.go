package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a process-local medium. Several reactive store handles
// sharing one MemoryStore behave like independent contexts sharing a
// durable medium: every Set is reported to all watchers.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string][]byte
	watchers map[int]func(string)
	nextID   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string][]byte),
		watchers: make(map[int]func(string)),
	}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetConfigPath() string {
	return ":memory:"
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(doc), nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	s.docs[key] = bytes.Clone(value)
	watchers := make([]func(string), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	// Delivery is asynchronous so a watcher may safely call back into the
	// writer that triggered it.
	for _, fn := range watchers {
		go fn(key)
	}
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, onChange func(key string)) error {
	if onChange == nil {
		return fmt.Errorf("onChange callback required")
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = onChange
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}()
	return nil
}
