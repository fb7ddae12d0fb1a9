package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/buffer"
)

func TestGetPutRoundTrip(t *testing.T) {
	b := buffer.New([]byte("hello"))
	got := make([]byte, 5)
	b.GetBytes(got)
	require.Equal(t, "hello", string(got))
	require.Equal(t, 0, b.Remaining())
}

func TestPutOnReadOnlyPanics(t *testing.T) {
	b := buffer.New([]byte("hello")).AsReadOnly()
	require.Panics(t, func() { b.Put('x') })
}

func TestMarkReset(t *testing.T) {
	b := buffer.New([]byte("hello"))
	b.Get()
	b.Mark()
	b.Get()
	b.Reset()
	require.Equal(t, byte('e'), b.Get())
}

func TestResetWithoutMarkPanics(t *testing.T) {
	b := buffer.New([]byte("hello"))
	require.Panics(t, func() { b.Reset() })
}

func TestDuplicateSharesBytesIndependentCursor(t *testing.T) {
	b := buffer.New([]byte("hello"))
	b.Get()
	dup := b.Duplicate()

	require.Equal(t, 1, dup.Position(), "duplicate copies cursor state at time of duplication")
	dup.Get()
	require.Equal(t, 1, b.Position(), "original cursor is unaffected by duplicate's reads")
}

func TestReleaseInvokesCallbackExactlyOnceOnZeroTransition(t *testing.T) {
	var fired int
	b := buffer.New([]byte("x"), buffer.WithReleaseCallback(func() { fired++ }))
	dup := b.Duplicate() // refcount now 2

	require.False(t, b.Release(1), "first release only brings refcount to 1")
	require.Equal(t, 0, fired)

	require.True(t, dup.Release(1), "second release crosses zero")
	require.Equal(t, 1, fired)

	require.False(t, dup.Release(1), "a further release past zero must not re-fire")
	require.Equal(t, 1, fired)
}

func TestSetPositionOutOfBoundsPanics(t *testing.T) {
	b := buffer.New([]byte("hello"))
	require.Panics(t, func() { b.SetPosition(100) })
}
