package draft_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/draftkit/component"
	"github.com/kbukum/draftkit/draft"
	"github.com/kbukum/draftkit/draft/drafttest"
	"github.com/kbukum/draftkit/kv"
)

type unlistableStore struct {
	kv.Store
}

func (unlistableStore) Keys(context.Context) ([]string, error) {
	return nil, fmt.Errorf("listing disabled")
}

func TestJanitor_RunOnceAndHealth(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	seed(t, backend, map[string]string{"old_draft": encoded(t, epoch.Add(-30*24*time.Hour), "{}")})

	j := draft.NewJanitor(draft.NewMaintenance(backend, draft.Config{}, drafttest.NewFakeClock(epoch), nil), draft.JanitorConfig{})
	res, err := j.RunOnce(ctx)
	if err != nil || len(res.Removed) != 1 {
		t.Fatalf("RunOnce: %+v, %v", res, err)
	}
	if h := j.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}

	broken := draft.NewJanitor(draft.NewMaintenance(unlistableStore{backend}, draft.Config{}, nil, nil), draft.JanitorConfig{})
	if _, err := broken.RunOnce(ctx); err == nil {
		t.Fatal("expected cleanup error")
	}
	if h := broken.Health(ctx); h.Status != component.StatusDegraded || h.Message == "" {
		t.Errorf("expected degraded health, got %+v", h)
	}
}

func TestJanitor_StartStop(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	seed(t, backend, map[string]string{"old_draft": encoded(t, time.Now().Add(-30*24*time.Hour), "{}")})

	j := draft.NewJanitor(draft.NewMaintenance(backend, draft.Config{}, nil, nil), draft.JanitorConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	})
	if err := j.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := j.Start(ctx); err != nil {
		t.Fatalf("second Start should be a no-op: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for backend.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if backend.Len() != 0 {
		t.Error("expected janitor to remove the stale draft")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := j.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := j.Stop(stopCtx); err != nil {
		t.Errorf("second Stop should be a no-op: %v", err)
	}
}

func TestJanitorConfig(t *testing.T) {
	var cfg draft.JanitorConfig
	cfg.ApplyDefaults()
	if cfg.Interval != time.Hour || cfg.MaxAge != 7*24*time.Hour {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	bad := draft.JanitorConfig{Enabled: true, Interval: -time.Second, MaxAge: time.Hour}
	if bad.Validate() == nil {
		t.Error("expected negative interval to be rejected")
	}
}
