package draft

import "context"

// Metrics receives draft persistence measurements. observability.DraftMetrics
// is the OpenTelemetry implementation.
type Metrics interface {
	RecordFlush(ctx context.Context, strategy Strategy, trigger Trigger, bytes int)
	RecordError(ctx context.Context, operation string)
	RecordCleanup(ctx context.Context, removed int)
}

type nopMetrics struct{}

func (nopMetrics) RecordFlush(context.Context, Strategy, Trigger, int) {}
func (nopMetrics) RecordError(context.Context, string)                 {}
func (nopMetrics) RecordCleanup(context.Context, int)                  {}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }
