// Package telemetry is the ambient logging/metrics/tracing facade the rest
// of the pipeline depends on, grounded directly on
// runtime/agents/telemetry/telemetry.go: a deliberately small Logger
// interface plus OTEL-shaped Metrics and Tracer interfaces so only this
// package talks to the OTEL providers and goa.design/clue/log; elsewhere
// the pipeline imports only go.opentelemetry.io/otel/codes, for span
// status codes.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the pipeline.
// Implementations typically delegate to Clue, but the interface stays
// small so tests and library consumers can provide lightweight stubs.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter, timer, and gauge helpers for pipeline
// instrumentation (registry selection hits/misses, chunk throughput).
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so pipeline code stays agnostic of the
// underlying OpenTelemetry provider, while still using OTEL's own option
// types for type safety.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}
