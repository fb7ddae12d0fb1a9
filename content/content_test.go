package content_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/buffer"
	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/content"
	"goa.design/mediaflow/headers"
	"goa.design/mediaflow/mediactx"
	"goa.design/mediaflow/mferr"
	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/operators"
	"goa.design/mediaflow/reactive"
)

func chunksOf(parts ...string) reactive.Multi[*chunk.DataChunk] {
	chunks := make([]*chunk.DataChunk, len(parts))
	for i, p := range parts {
		chunks[i] = chunk.New(buffer.New([]byte(p)))
	}
	return reactive.FromSlice(chunks)
}

func collect(t *testing.T, p reactive.Multi[*chunk.DataChunk]) string {
	t.Helper()
	out, err := reactive.Block(reactive.Collect(p, func() []byte { return nil }, func(acc []byte, c *chunk.DataChunk) []byte {
		buf := c.Buffer()
		b := make([]byte, buf.Remaining())
		buf.GetBytes(b)
		c.Release(1)
		return append(acc, b...)
	}))
	require.NoError(t, err)
	return string(out)
}

// TestBytePassthrough is spec scenario S1: no filters, no readers, the raw
// chunk stream subscribed to directly concatenates to the original bytes.
func TestBytePassthrough(t *testing.T) {
	ctx := mediactx.NewReaderContext(headers.New())
	rc := content.NewReadableContent(chunksOf("hello", "world"), ctx)

	got := collect(t, publisherOf(t, rc))
	require.Equal(t, "helloworld", got)
}

func publisherOf(t *testing.T, rc *content.ReadableContent) reactive.Multi[*chunk.DataChunk] {
	t.Helper()
	return reactive.NewMulti(func(sub reactive.Subscriber[*chunk.DataChunk]) {
		rc.Subscribe(sub)
	})
}

// TestJSONUnmarshallingWithUppercaseFilter is spec scenario S2: a filter
// upper-cases ASCII letters ahead of a reader that parses {"n": <int>}.
func TestJSONUnmarshallingWithUppercaseFilter(t *testing.T) {
	ctx := mediactx.NewReaderContext(headers.New())
	ctx.RegisterFilter(operator.NewQualifier("uppercase"), operators.Uppercase{})
	ctx.RegisterReader(operator.NewQualifier("json-int"), operators.JSONIntReader{})

	rc := content.NewReadableContent(chunksOf(`{"n": 42}`), ctx)
	v, err := rc.As(operators.Int).Get(t.Context())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

// TestNoReaderFound is spec scenario S5: no readers registered, As fails
// with NoOperator naming the reader kind and target.
func TestNoReaderFound(t *testing.T) {
	ctx := mediactx.NewReaderContext(headers.New())
	rc := content.NewReadableContent(chunksOf("irrelevant"), ctx)

	_, err := rc.As(operators.String).Get(t.Context())
	require.Error(t, err)
	var noOp mferr.NoOperator
	require.ErrorAs(t, err, &noOp)
	require.Equal(t, mferr.KindReader, noOp.Kind)
	require.Equal(t, operators.String.String(), noOp.Target)
}

// TestParentFallbackReader is spec scenario S6: the parent registry holds
// a reader for String; the child registry is empty and still resolves it.
func TestParentFallbackReader(t *testing.T) {
	parentHdrs := headers.New()
	parentCtx := mediactx.NewReaderContext(parentHdrs)
	parentCtx.RegisterReader(operator.NewQualifier("plain-text"), operators.PlainTextReader{})

	childCtx := mediactx.NewReaderContext(headers.New(), mediactx.WithReaderParent(parentCtx))
	rc := content.NewReadableContent(chunksOf("hello"), childCtx)

	v, err := rc.As(operators.String).Get(t.Context())
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

// TestSecondSubscriptionFailsAlreadyConsumed covers invariant 10: a second
// call to As/Subscribe after the first fails with AlreadyConsumed.
func TestSecondSubscriptionFailsAlreadyConsumed(t *testing.T) {
	ctx := mediactx.NewReaderContext(headers.New())
	rc := content.NewReadableContent(chunksOf("x"), ctx)

	_, err := rc.As(content.ByteSlice).Get(t.Context())
	require.NoError(t, err)

	_, err = rc.As(content.ByteSlice).Get(t.Context())
	require.ErrorIs(t, err, mferr.AlreadyConsumed{})
}

// TestByteSliceShortCircuit covers the []byte fast path (spec §4.7): As
// short-circuits to a raw byte collector without consulting the reader
// registry at all.
func TestByteSliceShortCircuit(t *testing.T) {
	ctx := mediactx.NewReaderContext(headers.New())
	rc := content.NewReadableContent(chunksOf("a", "b", "c"), ctx)

	v, err := rc.As(content.ByteSlice).Get(t.Context())
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), v)
}

// TestEmptyPublisherShortCircuitsWithoutReader covers spec §4.5 step 1: an
// empty chunk publisher resolves to an empty result without ever
// consulting the reader registry, even when no reader is registered at
// all (which would otherwise fail with NoOperator).
func TestEmptyPublisherShortCircuitsWithoutReader(t *testing.T) {
	ctx := mediactx.NewReaderContext(headers.New())
	rc := content.NewReadableContent(reactive.EmptyMulti[*chunk.DataChunk](), ctx)

	v, err := rc.As(operators.String).Get(t.Context())
	require.NoError(t, err)
	require.Nil(t, v)
}
