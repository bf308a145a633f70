package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/draftkit/logger"
	"github.com/kbukum/draftkit/observability"
)

// Observe opens a server span per request and records request metrics under
// the matched route template. m may be nil to trace only.
func Observe(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := observability.StartSpan(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if sc := span.SpanContext(); sc.IsValid() {
			ctx = logger.ContextWith(ctx, logger.FieldTraceID, sc.TraceID().String())
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		if m != nil {
			m.RecordRequestStart(ctx)
		}
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.Int(observability.AttrStatus, status),
			attribute.String(observability.AttrRequestID, c.Request.Header.Get(HeaderRequestID)),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
		if m != nil {
			m.RecordRequestEnd(ctx, route, c.Request.Method, status, time.Since(start))
		}
	}
}
