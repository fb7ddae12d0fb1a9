// Package content implements the per-message facades spec §4.7–§4.8
// describe: ReadableContent pairs an inbound chunk publisher with a
// ReaderContext; WriteableContent pairs an outbound entity, entity
// stream, or raw chunk publisher with a WriterContext.
package content

import (
	"sync/atomic"

	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/mediactx"
	"goa.design/mediaflow/mferr"
	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/reactive"
)

// ByteSlice is the TypeDescriptor ReadableContent.As short-circuits on,
// mirroring spec §4.7's "if T is byte[], short-circuit to a built-in
// byte-buffer-backed reader" rule.
var ByteSlice = operator.Describe("[]byte", "")

// ReadableContent wraps an inbound chunk publisher plus a ReaderContext
// (spec §4.7). It is single-consumption: a second call to Subscribe, As,
// or AsStream fails with AlreadyConsumed.
type ReadableContent struct {
	publisher reactive.Multi[*chunk.DataChunk]
	ctx       *mediactx.ReaderContext
	consumed  atomic.Bool
}

// NewReadableContent pairs publisher with ctx.
func NewReadableContent(publisher reactive.Multi[*chunk.DataChunk], ctx *mediactx.ReaderContext) *ReadableContent {
	return &ReadableContent{publisher: publisher, ctx: ctx}
}

// markConsumed returns nil on the first call and mferr.AlreadyConsumed on
// every subsequent call (spec §8 invariant 10).
func (r *ReadableContent) markConsumed() error {
	if !r.consumed.CompareAndSwap(false, true) {
		return mferr.AlreadyConsumed{}
	}
	return nil
}

// Subscribe applies the context's filter chain to the raw publisher and
// forwards the subscription. Any error raised before subscription
// (including AlreadyConsumed) is reported via sub.OnError rather than
// panicking (spec §4.7).
func (r *ReadableContent) Subscribe(sub reactive.Subscriber[*chunk.DataChunk]) {
	if err := r.markConsumed(); err != nil {
		sub.OnSubscribe(reactive.NoopSubscription())
		sub.OnError(err)
		return
	}
	filtered := r.ctx.ApplyFilters(r.publisher)
	filtered.Subscribe(sub)
}

// As unmarshals the body to a single value of the type named by target,
// returning a Future bridging the resulting Single (spec §4.7). Calling
// As a second time, or after AsStream/Subscribe, fails with
// AlreadyConsumed via the returned Future.
func (r *ReadableContent) As(target operator.TypeDescriptor) *reactive.Future[any] {
	if err := r.markConsumed(); err != nil {
		return reactive.ToFuture(reactive.ErrorSingle[any](err))
	}
	if target == ByteSlice {
		return reactive.ToFuture(collectBytes(r.publisher))
	}
	return reactive.ToFuture(r.ctx.Unmarshall(r.publisher, target))
}

// AsStream unmarshals the body to a stream of values of the type named by
// target (spec §4.7).
func (r *ReadableContent) AsStream(target operator.TypeDescriptor) reactive.Multi[any] {
	if err := r.markConsumed(); err != nil {
		return reactive.ErrorMulti[any](err)
	}
	return r.ctx.UnmarshallStream(r.publisher, target)
}

// RegisterFilter forwards to the context's filter registry (spec §4.7).
func (r *ReadableContent) RegisterFilter(qualifier operator.Qualifier, f operator.Filter) {
	r.ctx.RegisterFilter(qualifier, f)
}

// RegisterReader forwards to the context's reader registry.
func (r *ReadableContent) RegisterReader(qualifier operator.Qualifier, rd operator.Reader) {
	r.ctx.RegisterReader(qualifier, rd)
}

// RegisterStreamReader forwards to the context's stream-reader registry.
func (r *ReadableContent) RegisterStreamReader(qualifier operator.Qualifier, rd operator.StreamReader) {
	r.ctx.RegisterStreamReader(qualifier, rd)
}

// collectBytes implements the byte[] short-circuit (spec §4.7): collect
// every chunk's bytes into one concatenated slice, releasing each chunk
// after reading it.
func collectBytes(p reactive.Multi[*chunk.DataChunk]) reactive.Single[any] {
	return reactive.MapSingle(reactive.Collect(p, func() []byte { return nil }, func(acc []byte, c *chunk.DataChunk) []byte {
		buf := c.Buffer()
		out := make([]byte, buf.Remaining())
		buf.GetBytes(out)
		c.Release(1)
		return append(acc, out...)
	}), func(b []byte) any { return b })
}
