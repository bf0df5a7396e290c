// Package tracing holds the process-wide tracer and span helpers. The
// tracer is nil until InitProvider runs; helpers degrade to no-ops so unit
// tests need no tracing setup.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer installs the tracer used by StartSpan.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a span named "Type.Method". With no tracer installed it
// returns the context unchanged and the (possibly no-op) span already on it.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name)
}

// GetTraceID returns the current trace ID, or "" outside a recorded trace.
func GetTraceID(ctx context.Context) string {
	spanContext := trace.SpanContextFromContext(ctx)
	if !spanContext.IsValid() {
		return ""
	}
	return spanContext.TraceID().String()
}
