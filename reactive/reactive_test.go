package reactive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/mferr"
	"goa.design/mediaflow/reactive"
)

func TestJustMultiHonorsDemandOneAtATime(t *testing.T) {
	m := reactive.JustMulti(1, 2, 3)

	var got []int
	var sub reactive.Subscription
	m.Subscribe(reactive.Funcs[int]{
		Subscribe: func(s reactive.Subscription) { sub = s },
		Next:      func(v int) { got = append(got, v) },
	})

	require.Empty(t, got, "no item should arrive before Request is called")
	sub.Request(1)
	require.Equal(t, []int{1}, got)
	sub.Request(2)
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestJustMultiCancelStopsDelivery(t *testing.T) {
	m := reactive.JustMulti(1, 2, 3)

	var got []int
	var sub reactive.Subscription
	m.Subscribe(reactive.Funcs[int]{
		Subscribe: func(s reactive.Subscription) { sub = s },
		Next: func(v int) {
			got = append(got, v)
			sub.Cancel()
		},
	})
	sub.Request(reactive.MaxDemand)
	require.Equal(t, []int{1}, got, "cancel during OnNext must stop further delivery")
}

func TestMapMultiTransformsItems(t *testing.T) {
	m := reactive.MapMulti(reactive.JustMulti(1, 2, 3), func(v int) int { return v * 10 })
	got, err := reactive.Block(reactive.CollectList(m))
	require.NoError(t, err)
	require.Equal(t, []int{10, 20, 30}, got)
}

func TestCollectListOnEmptyMultiYieldsEmptySlice(t *testing.T) {
	got, err := reactive.Block(reactive.CollectList(reactive.EmptyMulti[int]()))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestErrorMultiPropagatesError(t *testing.T) {
	_, err := reactive.Block(reactive.CollectList(reactive.ErrorMulti[int](mferr.AlreadyConsumed{})))
	require.ErrorIs(t, err, mferr.AlreadyConsumed{})
}

func TestFlatMapSingleChainsSingles(t *testing.T) {
	s := reactive.FlatMapSingle(reactive.JustSingle(2), func(v int) reactive.Single[int] {
		return reactive.JustSingle(v * 21)
	})
	got, err := reactive.Block(s)
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestBlockTimeoutExpiresOnNeverSingle(t *testing.T) {
	_, err := reactive.BlockTimeout(reactive.NeverSingle[int](), 10*time.Millisecond)
	require.ErrorIs(t, err, mferr.ErrBlockTimeout)
}

func TestToFutureResolvesFromSingle(t *testing.T) {
	f := reactive.ToFuture(reactive.JustSingle("hi"))
	v, err := f.Get(t.Context())
	require.NoError(t, err)
	require.Equal(t, "hi", v)
}

func TestFutureCompleteYieldsZeroValueNoError(t *testing.T) {
	f := reactive.ToFuture(reactive.EmptySingle[string]())
	v, err := f.Get(t.Context())
	require.NoError(t, err)
	require.Equal(t, "", v)
}
