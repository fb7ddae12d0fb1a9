package content

import (
	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/mediactx"
	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/reactive"
)

// shape discriminates WriteableContent's three construction forms (spec
// §4.8).
type shape int

const (
	shapeEntity shape = iota
	shapeEntityStream
	shapeRawPublisher
)

// WriteableContent wraps one of an entity, a typed entity stream, or a raw
// chunk publisher, bound to a WriterContext (spec §4.8).
type WriteableContent struct {
	shape shape
	ctx   *mediactx.WriterContext

	entity       any
	entityType   operator.TypeDescriptor
	entityStream reactive.Multi[any]
	raw          reactive.Multi[*chunk.DataChunk]
}

// NewEntity builds a WriteableContent wrapping a single entity value of
// the type named by target.
func NewEntity(entity any, target operator.TypeDescriptor, ctx *mediactx.WriterContext) *WriteableContent {
	return &WriteableContent{shape: shapeEntity, ctx: ctx, entity: entity, entityType: target}
}

// NewEntityStream builds a WriteableContent wrapping a typed stream of
// entities.
func NewEntityStream(stream reactive.Multi[any], target operator.TypeDescriptor, ctx *mediactx.WriterContext) *WriteableContent {
	return &WriteableContent{shape: shapeEntityStream, ctx: ctx, entityStream: stream, entityType: target}
}

// NewRawPublisher builds a WriteableContent wrapping an already-encoded
// chunk publisher; ToPublisher applies only the filter chain, with no
// marshalling (spec §4.8).
func NewRawPublisher(publisher reactive.Multi[*chunk.DataChunk], ctx *mediactx.WriterContext) *WriteableContent {
	return &WriteableContent{shape: shapeRawPublisher, ctx: ctx, raw: publisher}
}

// ToPublisher dispatches by construction shape (spec §4.8):
//   - raw chunk publisher: context.ApplyFilters(publisher), no marshalling;
//   - entity: wrap in a single-item publisher, context.Marshall using
//     fallback's registries as the selection fallback;
//   - entity stream: context.MarshallStream, same fallback rule.
//
// fallback may be nil, in which case only this context's own parent
// chain is consulted during selection.
func (w *WriteableContent) ToPublisher(fallback *mediactx.WriterContext) reactive.Multi[*chunk.DataChunk] {
	switch w.shape {
	case shapeRawPublisher:
		return w.ctx.ApplyFilters(w.raw)
	case shapeEntityStream:
		return w.ctx.MarshallStreamWithFallback(w.entityStream, w.entityType, fallback)
	default:
		single := reactive.JustSingle(w.entity)
		return w.ctx.MarshallWithFallback(single, w.entityType, fallback)
	}
}

// Subscribe is ToPublisher(nil).Subscribe(sub) (spec §4.8).
func (w *WriteableContent) Subscribe(sub reactive.Subscriber[*chunk.DataChunk]) {
	w.ToPublisher(nil).Subscribe(sub)
}

// RegisterFilter forwards to the context's filter registry.
func (w *WriteableContent) RegisterFilter(qualifier operator.Qualifier, f operator.Filter) {
	w.ctx.RegisterFilter(qualifier, f)
}

// RegisterWriter forwards to the context's writer registry.
func (w *WriteableContent) RegisterWriter(qualifier operator.Qualifier, wr operator.Writer) {
	w.ctx.RegisterWriter(qualifier, wr)
}

// RegisterStreamWriter forwards to the context's stream-writer registry.
func (w *WriteableContent) RegisterStreamWriter(qualifier operator.Qualifier, wr operator.StreamWriter) {
	w.ctx.RegisterStreamWriter(qualifier, wr)
}
