package opregistry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"

	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/telemetry"
)

// TelemetrySelector wraps a Registry[T] with the tracing/metrics/logging
// spec §4.11 calls for around selection: every Select call is recorded as
// a span, a hit/miss counter, and a duration timer, grounded on the
// Manager.DiscoverToolset span+metrics pattern in
// runtime/registry/manager.go.
type TelemetrySelector[T any] struct {
	reg     *Registry[T]
	kind    string // e.g. "reader", "writer" — the metric/span name suffix
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
	cache   SelectionCache // optional; nil disables the selection-hint cache
}

// NewTelemetrySelector wraps reg, tagging every recorded span/metric with
// kind (e.g. "reader", "writer", "stream-reader"). cache may be nil to
// disable the selection-hint optimization.
func NewTelemetrySelector[T any](reg *Registry[T], kind string, logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer, cache SelectionCache) *TelemetrySelector[T] {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &TelemetrySelector[T]{reg: reg, kind: kind, logger: logger, metrics: metrics, tracer: tracer, cache: cache}
}

// selectionHintTTL bounds how long a cached presence hint is trusted
// before Get must re-confirm it.
const selectionHintTTL = 5 * time.Minute

// Select delegates to the wrapped registry's Select, recording a span
// named "opregistry.select.<kind>", a "opregistry_select_duration"
// timer, and an "opregistry_select_total" counter tagged by kind and
// hit/miss outcome. Select always performs the real first-match scan
// (spec §8 invariant 4) — the selection cache is never consulted here,
// since a predicate-based lookup has no single "this qualifier" key a
// presence cache could safely short-circuit without risking a
// lower-priority match winning over a higher-priority one registered
// since the hint was recorded.
func (s *TelemetrySelector[T]) Select(ctx context.Context, target operator.TypeDescriptor, accept func(T) bool) (T, operator.Qualifier, bool) {
	ctx, span := s.tracer.Start(ctx, "opregistry.select."+s.kind)
	defer span.End()

	start := time.Now()
	value, qualifier, ok := s.reg.Select(accept)
	s.metrics.RecordTimer("opregistry_select_duration", time.Since(start), "kind", s.kind)

	outcome := "miss"
	if ok {
		outcome = "hit"
	}
	s.metrics.IncCounter("opregistry_select_total", 1, "kind", s.kind, "outcome", outcome, "target", target.String())

	if ok {
		s.logger.Debug(ctx, "operator selected", "kind", s.kind, "target", target.String(), "qualifier", qualifier.String())
	} else {
		s.logger.Warn(ctx, "no operator matched", "kind", s.kind, "target", target.String())
		span.SetStatus(codes.Error, "no match")
	}
	return value, qualifier, ok
}

// Get implements the qualifier-keyed shortcut (spec §4.5, §4.12): an exact
// lookup, which names its target unambiguously and carries no first-match
// ordering to violate, so it is the one path that touches the selection
// cache. The cache is queried, but its answer never replaces the real
// registry lookup, which always runs; a successful lookup records a
// presence hint, a failed one records nothing.
func (s *TelemetrySelector[T]) Get(ctx context.Context, qualifier operator.Qualifier) (T, bool) {
	ctx, span := s.tracer.Start(ctx, "opregistry.get."+s.kind)
	defer span.End()

	start := time.Now()
	if s.cache != nil {
		s.cache.Get(ctx, s.kind, qualifier.String())
	}

	value, ok := s.reg.Get(qualifier)
	s.metrics.RecordTimer("opregistry_get_duration", time.Since(start), "kind", s.kind)

	outcome := "miss"
	if ok {
		outcome = "hit"
	}
	s.metrics.IncCounter("opregistry_get_total", 1, "kind", s.kind, "outcome", outcome, "qualifier", qualifier.String())

	if ok {
		s.logger.Debug(ctx, "operator found by qualifier", "kind", s.kind, "qualifier", qualifier.String())
		if s.cache != nil {
			s.cache.Set(ctx, s.kind, qualifier.String(), selectionHintTTL)
		}
	} else {
		s.logger.Warn(ctx, "no operator registered under qualifier", "kind", s.kind, "qualifier", qualifier.String())
		span.SetStatus(codes.Error, "no match")
	}
	return value, ok
}
