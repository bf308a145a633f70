// Package observability wires OpenTelemetry tracing and metrics.
//
// Tracing and metric export go to an OTLP HTTP collector:
//
//	tp, err := observability.InitTracer(ctx, cfg.TracerConfig("draftd", env))
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, cfg.MeterConfig("draftd", env))
//	defer mp.Shutdown(ctx)
//
// DraftMetrics implements draft.Metrics on top of a metric.Meter:
//
//	dm, err := observability.NewDraftMetrics(observability.Meter("draftd"))
//	store, err := draft.New(backend, "wizard", draft.Options[T]{Metrics: dm})
package observability
