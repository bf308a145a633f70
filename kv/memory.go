package kv

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/draftkit/errors"
)

// MemoryStore is an in-process Store. With a positive quota it rejects writes
// that would push the total of key and value bytes past the quota, the way a
// browser's local storage does.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
	used  int
	quota int
}

// NewMemoryStore creates an unbounded MemoryStore.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithQuota(0)
}

// NewMemoryStoreWithQuota creates a MemoryStore holding at most quota bytes.
// A quota of 0 means unbounded.
func NewMemoryStoreWithQuota(quota int) *MemoryStore {
	return &MemoryStore{items: make(map[string]string), quota: quota}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.used + len(key) + len(value)
	if old, ok := s.items[key]; ok {
		next -= len(key) + len(old)
	}
	if s.quota > 0 && next > s.quota {
		return errors.QuotaExceeded(key, next, s.quota)
	}
	s.items[key] = value
	s.used = next
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.items, key)
	}
	return nil
}

func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Used returns the bytes currently counted against the quota.
func (s *MemoryStore) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

var _ Store = (*MemoryStore)(nil)
