package draft

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/logger"
)

// Stats describes one stored draft.
type Stats struct {
	Key       string    `json:"key"`
	Exists    bool      `json:"exists"`
	Bytes     int       `json:"bytes"`
	LastSaved time.Time `json:"lastSaved,omitzero"`
	Corrupt   bool      `json:"corrupt,omitempty"`
}

// CleanupResult summarizes a Cleanup pass.
type CleanupResult struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
	Corrupt int      `json:"corrupt"`
}

// Maintenance inspects and prunes the drafts held in a backend.
type Maintenance struct {
	records *Records
	cfg     Config
	clock   Clock
	metrics Metrics
	log     *logger.Logger
}

// NewMaintenance creates a Maintenance over backend. A nil clock or metrics
// takes the default.
func NewMaintenance(backend kv.Store, cfg Config, clock Clock, metrics Metrics) *Maintenance {
	cfg.ApplyDefaults()
	if clock == nil {
		clock = SystemClock{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Maintenance{
		records: NewRecords(backend, cfg.LastSavedKey),
		cfg:     cfg,
		clock:   clock,
		metrics: metrics,
		log:     logger.WithComponent("draft-maintenance"),
	}
}

// Records returns the record service the maintenance runs on.
func (m *Maintenance) Records() *Records { return m.records }

// Config returns the effective configuration.
func (m *Maintenance) Config() Config { return m.cfg }

// Stats reports the stored size of key's draft in UTF-8 bytes.
func (m *Maintenance) Stats(ctx context.Context, key string) (Stats, error) {
	key, err := NormalizeKey(key, m.cfg.Suffix())
	if err != nil {
		return Stats{}, err
	}
	raw, ok, err := m.records.Raw(ctx, key)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Key: key, Exists: ok, Bytes: len(raw)}
	if !ok {
		return st, nil
	}
	rec, err := DecodeRecord(key, raw, m.cfg.LastSavedKey)
	if err != nil {
		st.Corrupt = true
		return st, nil
	}
	st.LastSaved = rec.LastSaved
	return st, nil
}

// Cleanup deletes drafts saved more than maxAge ago. Entries that cannot be
// decoded are removed as well since no store can ever hydrate from them.
// Keys without the draft suffix are never touched.
func (m *Maintenance) Cleanup(ctx context.Context, maxAge time.Duration) (CleanupResult, error) {
	return m.CleanupPrefix(ctx, "", maxAge)
}

// CleanupPrefix is Cleanup restricted to keys starting with prefix.
func (m *Maintenance) CleanupPrefix(ctx context.Context, prefix string, maxAge time.Duration) (CleanupResult, error) {
	if maxAge <= 0 {
		return CleanupResult{}, errors.InvalidInput("max_age", "must be positive")
	}
	all, err := m.records.List(ctx, m.cfg.Suffix())
	if err != nil {
		return CleanupResult{}, err
	}
	keys := all[:0]
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	res := CleanupResult{Scanned: len(keys), Removed: []string{}}
	now := m.clock.Now()
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, ok, err := m.records.Get(ctx, key)
		switch {
		case errors.HasCode(err, errors.ErrCodeCorruptDraft):
			res.Corrupt++
		case err != nil:
			return res, err
		case !ok:
			continue
		case rec.Age(now) <= maxAge:
			continue
		}
		if err := m.records.Delete(ctx, key); err != nil {
			return res, err
		}
		res.Removed = append(res.Removed, key)
	}

	m.metrics.RecordCleanup(ctx, len(res.Removed))
	if len(res.Removed) > 0 {
		m.log.Info("Removed stale drafts", logger.Fields("removed", len(res.Removed), "corrupt", res.Corrupt, "scanned", res.Scanned))
	}
	return res, nil
}

// GetStats reports the size of key's draft using cfg's suffix and field name.
func GetStats(ctx context.Context, backend kv.Store, key string, cfg Config) (Stats, error) {
	return NewMaintenance(backend, cfg, nil, nil).Stats(ctx, key)
}

// Cleanup removes drafts in backend older than maxAge.
func Cleanup(ctx context.Context, backend kv.Store, maxAge time.Duration, cfg Config) (CleanupResult, error) {
	return NewMaintenance(backend, cfg, nil, nil).Cleanup(ctx, maxAge)
}
