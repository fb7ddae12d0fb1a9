package chunk_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/buffer"
	"goa.design/mediaflow/chunk"
)

func TestIsFlushMarkerRequiresFlushAndEmptyBuffer(t *testing.T) {
	empty := chunk.New(buffer.New(nil), chunk.WithFlush(true))
	require.True(t, empty.IsFlushMarker())

	nonEmpty := chunk.New(buffer.New([]byte("x")), chunk.WithFlush(true))
	require.False(t, nonEmpty.IsFlushMarker())

	noFlush := chunk.New(buffer.New(nil))
	require.False(t, noFlush.IsFlushMarker())
}

func TestDuplicateSharesBufferAndReleaseCallback(t *testing.T) {
	// spec §4.2/invariant 6: the release callback fires exactly once when
	// the refcount first reaches zero, regardless of which handle's
	// Release call causes that transition — including a duplicate's.
	var fired int
	c := chunk.New(buffer.New([]byte("x")), chunk.WithReleaseCallback(func() { fired++ }))
	dup := c.Duplicate()
	require.Equal(t, int64(2), c.Buffer().RefCount())

	c.Release(1)
	require.Equal(t, 0, fired, "refcount only dropped to 1, no zero transition yet")

	dup.Release(1)
	require.Equal(t, 1, fired, "the duplicate's Release call caused the zero transition and must invoke the shared callback")
}

func TestDuplicateReleaseCallbackFiresExactlyOnce(t *testing.T) {
	var fired int
	c := chunk.New(buffer.New([]byte("x")), chunk.WithReleaseCallback(func() { fired++ }))
	dup := c.Duplicate()

	dup.Release(1)
	require.Equal(t, 0, fired)
	c.Release(1)
	require.Equal(t, 1, fired)

	c.Release(1)
	dup.Release(1)
	require.Equal(t, 1, fired, "the callback must not fire again on further releases past zero")
}

func TestAsReadOnlyRejectsMutation(t *testing.T) {
	c := chunk.New(buffer.New([]byte("x")))
	ro := c.AsReadOnly()
	require.Panics(t, func() { ro.Buffer().Put('y') })
}

func TestIDIsStableAcrossDuplicate(t *testing.T) {
	c := chunk.New(buffer.New([]byte("x")))
	dup := c.Duplicate()
	require.Equal(t, c.ID(), dup.ID())
}

func TestWriteFutureSignalsOnce(t *testing.T) {
	f := chunk.NewWriteFuture()
	f.Signal(nil)
	f.Signal(errors.New("should be dropped")) // second signal must be dropped, not block
	require.NoError(t, f.Wait())
}
