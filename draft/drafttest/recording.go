package drafttest

import (
	"context"
	"sync"

	"github.com/kbukum/draftkit/kv"
)

// Write is one Set observed by a RecordingStore.
type Write struct {
	Key   string
	Value string
}

// RecordingStore wraps a kv.Store, records every Set and can be told to fail
// writes.
type RecordingStore struct {
	kv.Store

	mu      sync.Mutex
	writes  []Write
	failSet error
}

// NewRecordingStore wraps inner, or a fresh kv.MemoryStore when inner is nil.
func NewRecordingStore(inner kv.Store) *RecordingStore {
	if inner == nil {
		inner = kv.NewMemoryStore()
	}
	return &RecordingStore{Store: inner}
}

func (r *RecordingStore) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	fail := r.failSet
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	if err := r.Store.Set(ctx, key, value); err != nil {
		return err
	}
	r.mu.Lock()
	r.writes = append(r.writes, Write{Key: key, Value: value})
	r.mu.Unlock()
	return nil
}

// FailWrites makes every Set return err until called again with nil.
func (r *RecordingStore) FailWrites(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSet = err
}

// Writes returns the successful writes so far.
func (r *RecordingStore) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Write(nil), r.writes...)
}
