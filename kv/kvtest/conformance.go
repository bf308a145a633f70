// Package kvtest provides a behavioral test suite every kv.Store
// implementation runs against.
package kvtest

import (
	"context"
	"slices"
	"testing"

	"github.com/kbukum/draftkit/kv"
)

// Run exercises the kv.Store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		v, ok, err := s.Get(ctx, "absent_draft")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok || v != "" {
			t.Errorf("expected absent, got %q ok=%v", v, ok)
		}
	})

	t.Run("set get overwrite", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "wizard_draft", `{"step":1}`); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Set(ctx, "wizard_draft", `{"step":2}`); err != nil {
			t.Fatalf("Set overwrite: %v", err)
		}
		v, ok, err := s.Get(ctx, "wizard_draft")
		if err != nil || !ok {
			t.Fatalf("Get: ok=%v err=%v", ok, err)
		}
		if v != `{"step":2}` {
			t.Errorf("expected overwritten value, got %q", v)
		}
	})

	t.Run("unicode value", func(t *testing.T) {
		s := newStore(t)
		want := `{"title":"Café ☕ 募集"}`
		if err := s.Set(ctx, "unicode_draft", want); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, _, err := s.Get(ctx, "unicode_draft")
		if err != nil || got != want {
			t.Errorf("expected %q, got %q (err=%v)", want, got, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "gone_draft", "x")
		if err := s.Delete(ctx, "gone_draft"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "gone_draft"); ok {
			t.Error("expected key to be deleted")
		}
		if err := s.Delete(ctx, "never_there"); err != nil {
			t.Errorf("deleting a missing key should succeed, got %v", err)
		}
	})

	t.Run("keys", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"a_draft", "b_draft", "other"} {
			if err := s.Set(ctx, k, "v"); err != nil {
				t.Fatalf("Set %s: %v", k, err)
			}
		}
		keys, err := s.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys: %v", err)
		}
		slices.Sort(keys)
		if !slices.Equal(keys, []string{"a_draft", "b_draft", "other"}) {
			t.Errorf("unexpected keys %v", keys)
		}
	})
}
