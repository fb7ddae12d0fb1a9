package mediactx

import (
	"context"
	"strconv"

	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/event"
	"goa.design/mediaflow/filterchain"
	"goa.design/mediaflow/headers"
	"goa.design/mediaflow/mediatype"
	"goa.design/mediaflow/mferr"
	"goa.design/mediaflow/opregistry"
	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/reactive"
	"goa.design/mediaflow/telemetry"
)

// WriterContext is the headers-and-registries envelope outbound writers
// see (spec §4.6): mutable headers, the ordered Accept list, a writer
// registry, a stream-writer registry, a filter registry, an optional
// parent, and an optional event listener.
type WriterContext struct {
	hdrs          headers.Mutable
	acceptedTypes []mediatype.MediaType

	filters       *opregistry.Registry[operator.Filter]
	writers       *opregistry.Registry[operator.Writer]
	streamWriters *opregistry.Registry[operator.StreamWriter]

	parent   *WriterContext
	listener event.Listener
	traceCtx context.Context

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
	cache   opregistry.SelectionCache

	writerSelector       *opregistry.TelemetrySelector[operator.Writer]
	streamWriterSelector *opregistry.TelemetrySelector[operator.StreamWriter]
}

// WriterOption configures a WriterContext at construction.
type WriterOption func(*WriterContext)

// WithWriterParent links parent as the new context's parent (spec §3).
func WithWriterParent(parent *WriterContext) WriterOption {
	return func(c *WriterContext) { c.parent = parent }
}

// WithAcceptedTypes sets the ordered list of media types parsed from the
// inbound Accept header (spec §4.6).
func WithAcceptedTypes(accepted ...mediatype.MediaType) WriterOption {
	return func(c *WriterContext) { c.acceptedTypes = accepted }
}

// WithWriterListener attaches an event.Listener fired around this
// context's filtered subscriptions.
func WithWriterListener(l event.Listener) WriterOption {
	return func(c *WriterContext) { c.listener = l }
}

// WithWriterTelemetry wires structured logging, metrics, and tracing into
// writer/stream-writer selection (spec §4.11).
func WithWriterTelemetry(logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) WriterOption {
	return func(c *WriterContext) {
		if logger != nil {
			c.logger = logger
		}
		if metrics != nil {
			c.metrics = metrics
		}
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithWriterSelectionCache wires a best-effort distributed selection-hint
// cache (spec §4.12).
func WithWriterSelectionCache(cache opregistry.SelectionCache) WriterOption {
	return func(c *WriterContext) { c.cache = cache }
}

// WithWriterTraceContext sets the context.Context propagated into
// selection spans. Defaults to context.Background().
func WithWriterTraceContext(ctx context.Context) WriterOption {
	return func(c *WriterContext) { c.traceCtx = ctx }
}

// NewWriterContext builds a WriterContext over hdrs (mutable, append-only
// until the body begins streaming — spec §6).
func NewWriterContext(hdrs headers.Mutable, opts ...WriterOption) *WriterContext {
	c := &WriterContext{
		hdrs:     hdrs,
		traceCtx: context.Background(),
		logger:   telemetry.NewNoopLogger(),
		metrics:  telemetry.NewNoopMetrics(),
		tracer:   telemetry.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.parent != nil {
		c.filters = opregistry.NewChild(c.parent.filters)
		c.writers = opregistry.NewChild(c.parent.writers)
		c.streamWriters = opregistry.NewChild(c.parent.streamWriters)
	} else {
		c.filters = opregistry.New[operator.Filter]()
		c.writers = opregistry.New[operator.Writer]()
		c.streamWriters = opregistry.New[operator.StreamWriter]()
	}

	c.writerSelector = opregistry.NewTelemetrySelector(c.writers, "writer", c.logger, c.metrics, c.tracer, c.cache)
	c.streamWriterSelector = opregistry.NewTelemetrySelector(c.streamWriters, "stream-writer", c.logger, c.metrics, c.tracer, c.cache)
	return c
}

// Headers implements operator.WriterEnv.
func (c *WriterContext) Headers() headers.Mutable { return c.hdrs }

// contentTypeHeader returns the currently-set Content-Type header as a
// parsed MediaType, if present and parseable.
func (c *WriterContext) contentTypeHeader() (mediatype.MediaType, bool) {
	raw, ok := c.hdrs.Get("Content-Type")
	if !ok {
		return mediatype.MediaType{}, false
	}
	mt, err := mediatype.Parse(raw)
	if err != nil {
		return mediatype.MediaType{}, false
	}
	return mt, true
}

// Charset implements operator.WriterEnv, deriving from whatever
// Content-Type is currently set (spec §8.7). Because the header can
// change via ContentType/put-if-absent, this is not memoized the way
// ReaderContext's is — callers needing a stable value should read it
// once they've finished negotiating.
func (c *WriterContext) Charset() (string, error) {
	ct, ok := c.contentTypeHeader()
	return resolveCharset(ct, ok)
}

// ContentType sets the Content-Type header to mt, but only if no
// Content-Type is already present (spec §4.6 put-if-absent).
func (c *WriterContext) ContentType(mt mediatype.MediaType) {
	c.hdrs.SetIfAbsent("Content-Type", mt.String())
}

// ContentLength sets the Content-Length header to n, but only if no
// Content-Length is already present.
func (c *WriterContext) ContentLength(n int64) {
	c.hdrs.SetIfAbsent("Content-Length", strconv.FormatInt(n, 10))
}

// FindAccepted implements Accept negotiation (spec §4.6):
//   - if Content-Type is already set and matches pred, return it;
//   - else the first entry of acceptedTypes matching pred wins; if that
//     match is a wildcard, return fallback instead (a wildcard content
//     type is never published);
//   - if Content-Type is unset and acceptedTypes is empty, return
//     fallback;
//   - otherwise fail with NoAcceptedContentType.
func (c *WriterContext) FindAccepted(pred func(mediatype.MediaType) bool, fallback mediatype.MediaType) (mediatype.MediaType, error) {
	ct, hasCT := c.contentTypeHeader()
	if hasCT && pred(ct) {
		return ct, nil
	}
	if !hasCT && len(c.acceptedTypes) == 0 {
		return fallback, nil
	}
	for _, at := range c.acceptedTypes {
		if pred(at) {
			if at.IsWildcard() {
				return fallback, nil
			}
			return at, nil
		}
	}
	return mediatype.MediaType{}, mferr.NoAcceptedContentType{}
}

// FindAcceptedExact is the exact-match specialization of FindAccepted.
func (c *WriterContext) FindAcceptedExact(target mediatype.MediaType, fallback mediatype.MediaType) (mediatype.MediaType, error) {
	return c.FindAccepted(func(mt mediatype.MediaType) bool { return mt.Test(target) }, fallback)
}

// RegisterFilter registers f at the tail of this context's filter
// registry (spec §4.3: filters use register-last).
func (c *WriterContext) RegisterFilter(qualifier operator.Qualifier, f operator.Filter) {
	c.filters.RegisterLast(qualifier, f)
}

// RegisterWriter registers w ahead of this context's existing writers
// (spec §4.3: writers use register-first).
func (c *WriterContext) RegisterWriter(qualifier operator.Qualifier, w operator.Writer) {
	c.writers.RegisterFirst(qualifier, w)
}

// RegisterStreamWriter registers w ahead of this context's existing
// stream writers.
func (c *WriterContext) RegisterStreamWriter(qualifier operator.Qualifier, w operator.StreamWriter) {
	c.streamWriters.RegisterFirst(qualifier, w)
}

func (c *WriterContext) filterChain() []operator.Filter {
	local := c.filters.All()
	if c.parent == nil {
		return local
	}
	return filterchain.Chain(local, c.parent.filterChain())
}

func (c *WriterContext) applyFilters(p reactive.Multi[*chunk.DataChunk], entity string) reactive.Multi[*chunk.DataChunk] {
	filtered := filterchain.Apply(p, c.filterChain())
	return filterchain.WithEvents(filtered, c.listener, entity, c.logger)
}

// SelectWriter implements writer selection for target T (spec §4.6):
// registry.select(op -> op.accept(T, self) != null, fallback).
func (c *WriterContext) SelectWriter(target operator.TypeDescriptor, fallback *opregistry.Registry[operator.Writer]) (operator.Writer, operator.WriteAck, bool) {
	var ack operator.WriteAck
	accept := func(w operator.Writer) bool {
		a, ok := w.Accept(target, c)
		if ok {
			ack = a
		}
		return ok
	}
	if value, _, ok := c.writerSelector.Select(c.traceCtx, target, accept); ok {
		return value, ack, true
	}
	if fallback != nil {
		if value, _, ok := fallback.Select(accept); ok {
			return value, ack, true
		}
	}
	var zero operator.Writer
	return zero, operator.WriteAck{}, false
}

// SelectStreamWriter is the StreamWriter analogue of SelectWriter.
func (c *WriterContext) SelectStreamWriter(target operator.TypeDescriptor, fallback *opregistry.Registry[operator.StreamWriter]) (operator.StreamWriter, operator.WriteAck, bool) {
	var ack operator.WriteAck
	accept := func(w operator.StreamWriter) bool {
		a, ok := w.Accept(target, c)
		if ok {
			ack = a
		}
		return ok
	}
	if value, _, ok := c.streamWriterSelector.Select(c.traceCtx, target, accept); ok {
		return value, ack, true
	}
	if fallback != nil {
		if value, _, ok := fallback.Select(accept); ok {
			return value, ack, true
		}
	}
	var zero operator.StreamWriter
	return zero, operator.WriteAck{}, false
}

// Marshall is the core writer-context operation (spec §4.6):
//  1. if content is empty, return apply-filters(Multi::empty);
//  2. select the writer; if none, return Multi::error(NoWriter);
//  3. let p = writer.write(content, T, self);
//  4. return apply-filters(p).
//
// The winning writer's acknowledgment sets Content-Type/Content-Length via
// put-if-absent before write is invoked.
func (c *WriterContext) Marshall(content reactive.Single[any], target operator.TypeDescriptor) reactive.Multi[*chunk.DataChunk] {
	return c.marshall(content, target, nil)
}

// MarshallWithFallback is Marshall but escalates writer selection to
// fallback's writer registry.
func (c *WriterContext) MarshallWithFallback(content reactive.Single[any], target operator.TypeDescriptor, fallback *WriterContext) reactive.Multi[*chunk.DataChunk] {
	var fb *opregistry.Registry[operator.Writer]
	if fallback != nil {
		fb = fallback.writers
	}
	return c.marshall(content, target, fb)
}

func (c *WriterContext) marshall(content reactive.Single[any], target operator.TypeDescriptor, fallback *opregistry.Registry[operator.Writer]) (result reactive.Multi[*chunk.DataChunk]) {
	defer func() {
		if r := recover(); r != nil {
			result = reactive.ErrorMulti[*chunk.DataChunk](mferr.Wrap(asError(r)))
		}
	}()

	var (
		value  any
		hasVal bool
		ferr   error
		failed bool
	)
	content.Subscribe(reactive.Funcs[any]{
		Subscribe: func(up reactive.Subscription) { up.Request(1) },
		Next:      func(v any) { hasVal = true; value = v },
		Err:       func(err error) { failed = true; ferr = err },
	})
	if failed {
		return reactive.ErrorMulti[*chunk.DataChunk](ferr)
	}
	if !hasVal {
		// spec §4.6 step 1: empty content short-circuits to
		// apply-filters(Multi::empty) without selecting a writer.
		return c.applyFilters(reactive.EmptyMulti[*chunk.DataChunk](), target.String())
	}

	writer, ack, ok := c.SelectWriter(target, fallback)
	if !ok {
		return reactive.ErrorMulti[*chunk.DataChunk](mferr.NoOperator{Kind: mferr.KindWriter, Target: target.String()})
	}
	if ack.HasContentLength {
		c.ContentLength(ack.ContentLength)
	}
	c.ContentType(ack.ContentType)
	p := writer.Write(reactive.JustSingle(value), target, c, ack)
	return c.applyFilters(p, target.String())
}

// MarshallStream is the stream-writer analogue of Marshall (spec §4.6).
func (c *WriterContext) MarshallStream(content reactive.Multi[any], target operator.TypeDescriptor) reactive.Multi[*chunk.DataChunk] {
	return c.marshallStream(content, target, nil)
}

// MarshallStreamWithFallback is MarshallStream with an explicit fallback
// context's stream-writer registry.
func (c *WriterContext) MarshallStreamWithFallback(content reactive.Multi[any], target operator.TypeDescriptor, fallback *WriterContext) reactive.Multi[*chunk.DataChunk] {
	var fb *opregistry.Registry[operator.StreamWriter]
	if fallback != nil {
		fb = fallback.streamWriters
	}
	return c.marshallStream(content, target, fb)
}

func (c *WriterContext) marshallStream(content reactive.Multi[any], target operator.TypeDescriptor, fallback *opregistry.Registry[operator.StreamWriter]) (result reactive.Multi[*chunk.DataChunk]) {
	defer func() {
		if r := recover(); r != nil {
			result = reactive.ErrorMulti[*chunk.DataChunk](mferr.Wrap(asError(r)))
		}
	}()

	writer, ack, ok := c.SelectStreamWriter(target, fallback)
	if !ok {
		return reactive.ErrorMulti[*chunk.DataChunk](mferr.NoOperator{Kind: mferr.KindStreamWriter, Target: target.String()})
	}
	if ack.HasContentLength {
		c.ContentLength(ack.ContentLength)
	}
	c.ContentType(ack.ContentType)
	p := writer.WriteStream(content, target, c, ack)
	return c.applyFilters(p, target.String())
}

// ApplyFilters exposes this context's filter chain to WriteableContent
// for the raw-chunk-publisher construction shape (spec §4.8), which
// bypasses marshalling entirely.
func (c *WriterContext) ApplyFilters(p reactive.Multi[*chunk.DataChunk]) reactive.Multi[*chunk.DataChunk] {
	return c.applyFilters(p, "")
}
