package draft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/draftkit/component"
	"github.com/kbukum/draftkit/logger"
)

// JanitorConfig schedules periodic cleanup of stale drafts.
type JanitorConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
	MaxAge   time.Duration `yaml:"max_age" mapstructure:"max_age" validate:"gte=0"`
}

// ApplyDefaults runs cleanup hourly for drafts older than a week.
func (c *JanitorConfig) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = time.Hour
	}
	if c.MaxAge == 0 {
		c.MaxAge = 7 * 24 * time.Hour
	}
}

// Validate validates the janitor configuration.
func (c *JanitorConfig) Validate() error {
	if c.Enabled && (c.Interval <= 0 || c.MaxAge <= 0) {
		return fmt.Errorf("janitor.interval and janitor.max_age must be positive")
	}
	return nil
}

// Janitor is a component that runs Maintenance.Cleanup on an interval.
type Janitor struct {
	maint *Maintenance
	cfg   JanitorConfig
	log   *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
}

// NewJanitor creates a janitor for maint.
func NewJanitor(maint *Maintenance, cfg JanitorConfig) *Janitor {
	cfg.ApplyDefaults()
	return &Janitor{maint: maint, cfg: cfg, log: logger.WithComponent("draft-janitor")}
}

func (j *Janitor) Name() string { return "draft-janitor" }

// Start launches the cleanup loop. The first pass runs after one interval.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j.cancel = cancel
	j.done = make(chan struct{})
	go j.loop(loopCtx, j.done)
	j.log.Info("Draft janitor started", logger.Fields("interval", j.cfg.Interval.String(), "max_age", j.cfg.MaxAge.String()))
	return nil
}

// Stop ends the loop and waits for a running pass to finish.
func (j *Janitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports the outcome of the latest pass.
func (j *Janitor) Health(ctx context.Context) component.Health {
	j.mu.Lock()
	defer j.mu.Unlock()
	h := component.Health{Name: j.Name(), Status: component.StatusHealthy}
	if j.lastErr != nil {
		h.Status = component.StatusDegraded
		h.Message = j.lastErr.Error()
	}
	return h
}

func (j *Janitor) Describe() component.Description {
	return component.Description{
		Type:    "worker",
		Details: fmt.Sprintf("every %s, max age %s", j.cfg.Interval, j.cfg.MaxAge),
	}
}

// RunOnce performs one cleanup pass and records its outcome.
func (j *Janitor) RunOnce(ctx context.Context) (CleanupResult, error) {
	res, err := j.maint.Cleanup(ctx, j.cfg.MaxAge)
	j.mu.Lock()
	j.lastErr = err
	j.mu.Unlock()
	if err != nil {
		j.log.Error("Draft cleanup failed", logger.ErrorFields("cleanup", err))
	}
	return res, err
}

func (j *Janitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = j.RunOnce(ctx)
		}
	}
}
