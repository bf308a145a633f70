package kv_test

import (
	"context"
	"testing"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/kv/kvtest"
)

func TestMemoryStore_Conformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store { return kv.NewMemoryStore() })
}

func TestMemoryStore_Quota(t *testing.T) {
	ctx := context.Background()
	s := kv.NewMemoryStoreWithQuota(20)

	if err := s.Set(ctx, "k1", "0123456789"); err != nil {
		t.Fatalf("first write should fit: %v", err)
	}
	if s.Used() != 12 {
		t.Errorf("expected 12 bytes used, got %d", s.Used())
	}

	err := s.Set(ctx, "k2", "0123456789")
	if !errors.HasCode(err, errors.ErrCodeQuotaExceeded) {
		t.Fatalf("expected QUOTA_EXCEEDED, got %v", err)
	}
	if errors.IsRetryable(err) {
		t.Error("quota errors must not be retryable")
	}
	if _, ok, _ := s.Get(ctx, "k2"); ok {
		t.Error("rejected write must not be stored")
	}

	// Overwriting replaces the old size instead of adding to it.
	if err := s.Set(ctx, "k1", "01234567890123456"); err != nil {
		t.Fatalf("overwrite within quota: %v", err)
	}
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
	if s.Used() != 0 || s.Len() != 0 {
		t.Errorf("expected empty store, used=%d len=%d", s.Used(), s.Len())
	}
}
