// Package reactive implements the two publisher primitives the media
// pipeline is built on: Single, which emits at most one item then
// completes, and Multi, which emits zero or more items. Both obey a
// reactive demand/cancel contract: a subscriber must call Request before
// any item is delivered, a publisher never delivers more items than have
// been requested, and Cancel is idempotent and stops further delivery.
//
// The pipeline runs single-threaded and cooperative per subscription: a
// producer pushes OnNext on its own
// goroutine, and every operator here runs inline on that goroutine rather
// than handing off to a pool. This mirrors the corpus's own hand-rolled
// streaming abstractions (runtime/agent/stream, runtime/agent/hooks) more
// than it mirrors a general-purpose reactive-streams library — no pack
// repo imports one, so none is introduced here.
package reactive

import (
	"context"

	"goa.design/mediaflow/mferr"
)

type (
	// Subscription is the handle a subscriber uses to pull items from a
	// publisher and to stop delivery. Request and Cancel may be called from
	// any goroutine; implementations serialize them internally.
	Subscription interface {
		// Request signals the publisher that the subscriber is ready to
		// receive up to n additional items. Requesting a non-positive n is a
		// no-op. Demand accumulates across calls.
		Request(n int64)
		// Cancel asks the publisher to stop delivering items. Cancel is
		// idempotent: a second call has no effect. After Cancel returns, no
		// further OnNext, OnComplete, or OnError is guaranteed to arrive,
		// though one already in flight may still land.
		Cancel()
	}

	// Subscriber receives the lifecycle callbacks of a Single or Multi
	// subscription. OnSubscribe is always called first and exactly once.
	// Exactly one of OnComplete or OnError follows, unless the subscription
	// is cancelled first.
	Subscriber[T any] interface {
		OnSubscribe(sub Subscription)
		OnNext(v T)
		OnError(err error)
		OnComplete()
	}

	// Funcs adapts four plain callbacks into a Subscriber, mirroring the
	// "consumer overloads" spec §4.9 asks Multi to provide. A nil Subscribe
	// callback requests unbounded demand (MaxDemand); any other nil
	// callback is treated as a no-op.
	Funcs[T any] struct {
		Subscribe func(sub Subscription)
		Next      func(v T)
		Err       func(err error)
		Complete  func()
	}
)

// OnSubscribe implements Subscriber.
func (f Funcs[T]) OnSubscribe(sub Subscription) {
	if f.Subscribe != nil {
		f.Subscribe(sub)
	} else {
		sub.Request(MaxDemand)
	}
}

// OnNext implements Subscriber.
func (f Funcs[T]) OnNext(v T) {
	if f.Next != nil {
		f.Next(v)
	}
}

// OnError implements Subscriber.
func (f Funcs[T]) OnError(err error) {
	if f.Err != nil {
		f.Err(err)
	}
}

// OnComplete implements Subscriber.
func (f Funcs[T]) OnComplete() {
	if f.Complete != nil {
		f.Complete()
	}
}

// MaxDemand is the sentinel demand value operators use to mean "unbounded",
// matching spec §4.9's allowance for a single upstream request of MAX from
// terminal collectors.
const MaxDemand = int64(1<<63 - 1)

// noopSubscription is handed to subscribers of already-terminated publishers
// (Empty, Error) where Request/Cancel have nothing left to do.
type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}

// NoopSubscription returns a Subscription whose Request and Cancel are
// both no-ops, for subscribers of a publisher that has nothing left to
// pull (e.g. one that fails before ever subscribing upstream).
func NoopSubscription() Subscription { return noopSubscription{} }

// blockResult is the internal payload exchanged between Block and the
// one-shot subscriber it installs.
type blockResult[T any] struct {
	v     T
	has   bool
	err   error
	empty bool
}

func blockOn[T any](ctx context.Context, subscribe func(Subscriber[T])) (T, error) {
	done := make(chan blockResult[T], 1)
	var sent bool
	subscribe(Funcs[T]{
		Next: func(v T) {
			if !sent {
				sent = true
				done <- blockResult[T]{v: v, has: true}
			}
		},
		Err: func(err error) {
			if !sent {
				sent = true
				done <- blockResult[T]{err: err}
			}
		},
		Complete: func() {
			if !sent {
				sent = true
				done <- blockResult[T]{empty: true}
			}
		},
	})
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, mferr.ErrBlockTimeout
	}
}
