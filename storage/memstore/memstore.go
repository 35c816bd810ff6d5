package memstore

import (
	"sync"

	"github.com/jrsteele09/cactus-garden/storage"
)

var _ storage.Storage = (*InMemoryStore)(nil)

// InMemoryStore is a thread-safe map with an optional byte quota, mirroring the
// limits of browser local storage.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
	used   int
}

type Option func(*InMemoryStore)

// WithQuota limits the total size of keys plus values. Zero means unlimited.
func WithQuota(bytes int) Option {
	return func(s *InMemoryStore) {
		s.quota = bytes
	}
}

func New(options ...Option) *InMemoryStore {
	s := &InMemoryStore{values: make(map[string]string)}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *InMemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used
	if old, ok := s.values[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)

	if s.quota > 0 && used > s.quota {
		return storage.ErrQuotaExceeded
	}

	s.values[key] = value
	s.used = used
	return nil
}

func (s *InMemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.values[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.values, key)
	}
	return nil
}
