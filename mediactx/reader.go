package mediactx

import (
	"context"
	"sync"

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

// ReaderContext is the headers-and-registries envelope inbound readers see
// (spec §4.5): read-only headers, a resolved Content-Type, a lazily
// resolved charset, a reader registry, a stream-reader registry, a filter
// registry, an optional parent, and an optional event listener.
type ReaderContext struct {
	hdrs           headers.Reader
	contentType    mediatype.MediaType
	hasContentType bool

	charsetOnce sync.Once
	charsetVal  string
	charsetErr  error

	filters       *opregistry.Registry[operator.Filter]
	readers       *opregistry.Registry[operator.Reader]
	streamReaders *opregistry.Registry[operator.StreamReader]

	parent   *ReaderContext
	listener event.Listener
	traceCtx context.Context

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
	cache   opregistry.SelectionCache

	readerSelector       *opregistry.TelemetrySelector[operator.Reader]
	streamReaderSelector *opregistry.TelemetrySelector[operator.StreamReader]
}

// ReaderOption configures a ReaderContext at construction.
type ReaderOption func(*ReaderContext)

// WithReaderParent links ctx as the new context's parent: the child's
// filter, reader, and stream-reader registries inherit the parent's
// entries by reference (spec §3 Context invariants).
func WithReaderParent(parent *ReaderContext) ReaderOption {
	return func(c *ReaderContext) { c.parent = parent }
}

// WithReaderListener attaches an event.Listener fired around this
// context's filtered subscriptions (spec §4.10).
func WithReaderListener(l event.Listener) ReaderOption {
	return func(c *ReaderContext) { c.listener = l }
}

// WithReaderTelemetry wires structured logging, metrics, and tracing into
// reader/stream-reader selection (spec §4.11). Any nil argument keeps the
// no-op default for that facet.
func WithReaderTelemetry(logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) ReaderOption {
	return func(c *ReaderContext) {
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

// WithReaderSelectionCache wires a best-effort distributed selection-hint
// cache (spec §4.12).
func WithReaderSelectionCache(cache opregistry.SelectionCache) ReaderOption {
	return func(c *ReaderContext) { c.cache = cache }
}

// WithReaderTraceContext sets the context.Context propagated into
// selection spans (spec §4.11). Defaults to context.Background().
func WithReaderTraceContext(ctx context.Context) ReaderOption {
	return func(c *ReaderContext) { c.traceCtx = ctx }
}

// NewReaderContext builds a ReaderContext over hdrs. If hdrs carries a
// parseable Content-Type, it is resolved once at construction (spec §4.5:
// "resolved Content-Type (parsed once)").
func NewReaderContext(hdrs headers.Reader, opts ...ReaderOption) *ReaderContext {
	c := &ReaderContext{
		hdrs:     hdrs,
		traceCtx: context.Background(),
		logger:   telemetry.NewNoopLogger(),
		metrics:  telemetry.NewNoopMetrics(),
		tracer:   telemetry.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if raw, ok := hdrs.Get("Content-Type"); ok {
		if mt, err := mediatype.Parse(raw); err == nil {
			c.contentType = mt
			c.hasContentType = true
		}
	}

	if c.parent != nil {
		c.filters = opregistry.NewChild(c.parent.filters)
		c.readers = opregistry.NewChild(c.parent.readers)
		c.streamReaders = opregistry.NewChild(c.parent.streamReaders)
	} else {
		c.filters = opregistry.New[operator.Filter]()
		c.readers = opregistry.New[operator.Reader]()
		c.streamReaders = opregistry.New[operator.StreamReader]()
	}

	c.readerSelector = opregistry.NewTelemetrySelector(c.readers, "reader", c.logger, c.metrics, c.tracer, c.cache)
	c.streamReaderSelector = opregistry.NewTelemetrySelector(c.streamReaders, "stream-reader", c.logger, c.metrics, c.tracer, c.cache)
	return c
}

// Headers implements operator.ReaderEnv.
func (c *ReaderContext) Headers() headers.Reader { return c.hdrs }

// ContentType returns the resolved Content-Type and whether one was
// present and parseable.
func (c *ReaderContext) ContentType() (mediatype.MediaType, bool) {
	return c.contentType, c.hasContentType
}

// Charset implements operator.ReaderEnv and the charset derivation
// invariant (spec §8.7): the charset named by Content-Type, or
// DefaultCharset if none is present, resolved and cached on first call.
func (c *ReaderContext) Charset() (string, error) {
	c.charsetOnce.Do(func() {
		c.charsetVal, c.charsetErr = resolveCharset(c.contentType, c.hasContentType)
	})
	return c.charsetVal, c.charsetErr
}

// RegisterFilter registers f under qualifier at the tail of this
// context's filter registry (spec §4.3: filters use register-last).
func (c *ReaderContext) RegisterFilter(qualifier operator.Qualifier, f operator.Filter) {
	c.filters.RegisterLast(qualifier, f)
}

// RegisterReader registers r under qualifier ahead of this context's
// existing readers (spec §4.3: readers use register-first, so
// application-level types shadow framework defaults).
func (c *ReaderContext) RegisterReader(qualifier operator.Qualifier, r operator.Reader) {
	c.readers.RegisterFirst(qualifier, r)
}

// RegisterStreamReader registers r ahead of this context's existing
// stream readers.
func (c *ReaderContext) RegisterStreamReader(qualifier operator.Qualifier, r operator.StreamReader) {
	c.streamReaders.RegisterFirst(qualifier, r)
}

// filterChain returns the flattened, child-before-parent filter list this
// context's apply-filters uses (spec invariant 3).
func (c *ReaderContext) filterChain() []operator.Filter {
	local := c.filters.All()
	if c.parent == nil {
		return local
	}
	return filterchain.Chain(local, c.parent.filterChain())
}

// applyFilters folds this context's filter chain over p and wraps the
// result with the event listener, if any, tagging events with entity
// (spec §4.4).
func (c *ReaderContext) applyFilters(p reactive.Multi[*chunk.DataChunk], entity string) reactive.Multi[*chunk.DataChunk] {
	filtered := filterchain.Apply(p, c.filterChain())
	return filterchain.WithEvents(filtered, c.listener, entity, c.logger)
}

// ApplyFilters exposes this context's filter chain to ReadableContent's
// raw Subscribe path (spec §4.7), tagging events with an empty entity
// name since no target type is involved.
func (c *ReaderContext) ApplyFilters(p reactive.Multi[*chunk.DataChunk]) reactive.Multi[*chunk.DataChunk] {
	return c.applyFilters(p, "")
}

// SelectReader implements reader selection for target T (spec §4.5):
// registry.select(op -> op.accept(T, self), fallback). fallback may be
// nil to use only this context's own parent chain.
func (c *ReaderContext) SelectReader(target operator.TypeDescriptor, fallback *opregistry.Registry[operator.Reader]) (operator.Reader, bool) {
	accept := func(r operator.Reader) bool { return r.Accept(target, c) }
	if value, _, ok := c.readerSelector.Select(c.traceCtx, target, accept); ok {
		return value, true
	}
	if fallback != nil {
		if value, _, ok := fallback.Select(accept); ok {
			return value, true
		}
	}
	var zero operator.Reader
	return zero, false
}

// SelectStreamReader is the StreamReader analogue of SelectReader.
func (c *ReaderContext) SelectStreamReader(target operator.TypeDescriptor, fallback *opregistry.Registry[operator.StreamReader]) (operator.StreamReader, bool) {
	accept := func(r operator.StreamReader) bool { return r.Accept(target, c) }
	if value, _, ok := c.streamReaderSelector.Select(c.traceCtx, target, accept); ok {
		return value, true
	}
	if fallback != nil {
		if value, _, ok := fallback.Select(accept); ok {
			return value, true
		}
	}
	var zero operator.StreamReader
	return zero, false
}

// ReaderByQualifier implements the reader-by-class shortcut (spec §4.5:
// unmarshall-with-reader-class): select a specific reader regardless of
// Accept, looking it up by qualifier with the usual fallback escape.
func (c *ReaderContext) ReaderByQualifier(qualifier operator.Qualifier, fallback *opregistry.Registry[operator.Reader]) (operator.Reader, bool) {
	if value, ok := c.readerSelector.Get(c.traceCtx, qualifier); ok {
		return value, true
	}
	if fallback != nil {
		return fallback.Get(qualifier)
	}
	var zero operator.Reader
	return zero, false
}

// Unmarshall is the core reader-context operation (spec §4.5): if p is
// empty, return Single::empty; otherwise select a reader for target, apply
// this context's filter chain (tagging events with target's name), and
// delegate to the reader. Any error raised while selecting or reading is
// surfaced as a failed Single rather than thrown.
func (c *ReaderContext) Unmarshall(p reactive.Multi[*chunk.DataChunk], target operator.TypeDescriptor) reactive.Single[any] {
	return c.unmarshall(p, target, nil)
}

// UnmarshallWithFallback is Unmarshall but escalates to fallback's reader
// registry when this context's own chain finds no match.
func (c *ReaderContext) UnmarshallWithFallback(p reactive.Multi[*chunk.DataChunk], target operator.TypeDescriptor, fallback *ReaderContext) reactive.Single[any] {
	var fb *opregistry.Registry[operator.Reader]
	if fallback != nil {
		fb = fallback.readers
	}
	return c.unmarshall(p, target, fb)
}

func (c *ReaderContext) unmarshall(p reactive.Multi[*chunk.DataChunk], target operator.TypeDescriptor, fallback *opregistry.Registry[operator.Reader]) (result reactive.Single[any]) {
	defer func() {
		if r := recover(); r != nil {
			result = reactive.ErrorSingle[any](mferr.Wrap(asError(r)))
		}
	}()

	var (
		chunks []*chunk.DataChunk
		ferr   error
		failed bool
	)
	p.Subscribe(reactive.Funcs[*chunk.DataChunk]{
		Subscribe: func(up reactive.Subscription) { up.Request(reactive.MaxDemand) },
		Next:      func(v *chunk.DataChunk) { chunks = append(chunks, v) },
		Err:       func(err error) { failed = true; ferr = err },
	})
	if failed {
		return reactive.ErrorSingle[any](ferr)
	}
	if len(chunks) == 0 {
		// spec §4.5 step 1: an empty publisher short-circuits to Single::empty
		// without selecting a reader.
		return reactive.EmptySingle[any]()
	}

	reader, ok := c.SelectReader(target, fallback)
	if !ok {
		return reactive.ErrorSingle[any](mferr.NoOperator{Kind: mferr.KindReader, Target: target.String()})
	}
	filtered := c.applyFilters(reactive.JustMulti(chunks...), target.String())
	return reader.Read(filtered, target, c)
}

// UnmarshallStream is the Multi analogue of Unmarshall, routing through
// the stream-reader registry (spec §4.5).
func (c *ReaderContext) UnmarshallStream(p reactive.Multi[*chunk.DataChunk], target operator.TypeDescriptor) reactive.Multi[any] {
	return c.unmarshallStream(p, target, nil)
}

// UnmarshallStreamWithFallback is UnmarshallStream with an explicit
// fallback context's stream-reader registry.
func (c *ReaderContext) UnmarshallStreamWithFallback(p reactive.Multi[*chunk.DataChunk], target operator.TypeDescriptor, fallback *ReaderContext) reactive.Multi[any] {
	var fb *opregistry.Registry[operator.StreamReader]
	if fallback != nil {
		fb = fallback.streamReaders
	}
	return c.unmarshallStream(p, target, fb)
}

func (c *ReaderContext) unmarshallStream(p reactive.Multi[*chunk.DataChunk], target operator.TypeDescriptor, fallback *opregistry.Registry[operator.StreamReader]) (result reactive.Multi[any]) {
	defer func() {
		if r := recover(); r != nil {
			result = reactive.ErrorMulti[any](mferr.Wrap(asError(r)))
		}
	}()

	reader, ok := c.SelectStreamReader(target, fallback)
	if !ok {
		return reactive.ErrorMulti[any](mferr.NoOperator{Kind: mferr.KindStreamReader, Target: target.String()})
	}
	filtered := c.applyFilters(p, target.String())
	return reader.ReadStream(filtered, target, c)
}

func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return mferr.IllegalArgument{Message: "panic during read/write: " + toString(r)}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "non-string panic value"
}
