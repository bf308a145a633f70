package kv_test

import (
	"context"
	"testing"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/kv/kvtest"
)

func TestDeferred_Conformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		inner := kv.NewMemoryStore()
		return kv.NewDeferred("memory", func() kv.Store { return inner })
	})
}

func TestDeferred_Unresolved(t *testing.T) {
	ctx := context.Background()
	var inner kv.Store
	d := kv.NewDeferred("redis", func() kv.Store { return inner })

	if _, _, err := d.Get(ctx, "k"); !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
		t.Errorf("Get: expected SERVICE_UNAVAILABLE, got %v", err)
	}
	if err := d.Set(ctx, "k", "v"); !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
		t.Errorf("Set: expected SERVICE_UNAVAILABLE, got %v", err)
	}

	inner = kv.NewMemoryStore()
	if err := d.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set after resolve: %v", err)
	}
	if v, ok, _ := d.Get(ctx, "k"); !ok || v != "v" {
		t.Errorf("expected v, got %q %v", v, ok)
	}
}
