package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/draftkit/draft"
)

// DraftMetrics records draft persistence measurements.
type DraftMetrics struct {
	flushTotal     metric.Int64Counter
	writeBytes     metric.Int64Histogram
	errorTotal     metric.Int64Counter
	cleanupRemoved metric.Int64Counter
}

var _ draft.Metrics = (*DraftMetrics)(nil)

// NewDraftMetrics creates the draft instruments on meter.
func NewDraftMetrics(meter metric.Meter) (*DraftMetrics, error) {
	flushTotal, err := meter.Int64Counter("drafts.flush.total",
		metric.WithDescription("Draft writes by strategy and trigger"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating drafts.flush.total counter: %w", err)
	}

	writeBytes, err := meter.Int64Histogram("drafts.write.bytes",
		metric.WithDescription("Size of written draft records"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating drafts.write.bytes histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("drafts.errors.total",
		metric.WithDescription("Draft persistence failures by operation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating drafts.errors.total counter: %w", err)
	}

	cleanupRemoved, err := meter.Int64Counter("drafts.cleanup.removed",
		metric.WithDescription("Drafts removed by cleanup"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating drafts.cleanup.removed counter: %w", err)
	}

	return &DraftMetrics{
		flushTotal:     flushTotal,
		writeBytes:     writeBytes,
		errorTotal:     errorTotal,
		cleanupRemoved: cleanupRemoved,
	}, nil
}

// RecordFlush counts a successful write of n bytes.
func (m *DraftMetrics) RecordFlush(ctx context.Context, strategy draft.Strategy, trigger draft.Trigger, n int) {
	m.flushTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", string(strategy)),
		attribute.String("trigger", string(trigger)),
	))
	m.writeBytes.Record(ctx, int64(n))
}

// RecordError counts a failed operation.
func (m *DraftMetrics) RecordError(ctx context.Context, operation string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordCleanup counts drafts removed by one cleanup pass.
func (m *DraftMetrics) RecordCleanup(ctx context.Context, removed int) {
	m.cleanupRemoved.Add(ctx, int64(removed))
}
