package reactive

import (
	"context"
	"sync"
	"time"

	"goa.design/mediaflow/mferr"
)

// Single emits at most one item followed by completion, or a terminal
// error. A Single value is immutable and reusable: each Subscribe call
// starts an independent subscription.
type Single[T any] struct {
	subscribe func(Subscriber[T])
}

// NewSingle builds a Single from a subscribe function.
func NewSingle[T any](subscribe func(Subscriber[T])) Single[T] {
	return Single[T]{subscribe: subscribe}
}

// Subscribe starts the subscription, calling sub.OnSubscribe first,
// synchronously, on the calling goroutine.
func (s Single[T]) Subscribe(sub Subscriber[T]) {
	if s.subscribe == nil {
		sub.OnSubscribe(noopSubscription{})
		sub.OnComplete()
		return
	}
	s.subscribe(sub)
}

// JustSingle returns a Single that emits v once requested, then completes.
func JustSingle[T any](v T) Single[T] {
	return NewSingle(func(sub Subscriber[T]) {
		s := &sliceSubscription[T]{items: []T{v}, sub: sub}
		sub.OnSubscribe(s)
	})
}

// EmptySingle returns a Single that completes without ever emitting.
func EmptySingle[T any]() Single[T] {
	return NewSingle(func(sub Subscriber[T]) {
		sub.OnSubscribe(noopSubscription{})
		sub.OnComplete()
	})
}

// ErrorSingle returns a Single that fails immediately with err.
func ErrorSingle[T any](err error) Single[T] {
	return NewSingle(func(sub Subscriber[T]) {
		sub.OnSubscribe(noopSubscription{})
		sub.OnError(err)
	})
}

// NeverSingle returns a Single that never terminates.
func NeverSingle[T any]() Single[T] {
	return NewSingle(func(sub Subscriber[T]) {
		sub.OnSubscribe(noopSubscription{})
	})
}

// MapSingle transforms the item emitted by s with f.
func MapSingle[T, U any](s Single[T], f func(T) U) Single[U] {
	return NewSingle(func(sub Subscriber[U]) {
		s.Subscribe(mapSubscriber[T, U]{down: sub, f: f})
	})
}

// FlatMapSingle subscribes to the Single f(v) returned for the item emitted
// by s, forwarding its outcome. An error from s short-circuits without
// calling f.
func FlatMapSingle[T, U any](s Single[T], f func(T) Single[U]) Single[U] {
	return NewSingle(func(sub Subscriber[U]) {
		var emitted bool
		s.Subscribe(Funcs[T]{
			Subscribe: func(upstream Subscription) { upstream.Request(1) },
			Next: func(v T) {
				emitted = true
				f(v).Subscribe(sub)
			},
			Err: sub.OnError,
			Complete: func() {
				if emitted {
					return
				}
				sub.OnSubscribe(noopSubscription{})
				sub.OnComplete()
			},
		})
	})
}

// FlatMapMany subscribes to the Multi f(v) returned for the item emitted by
// s, forwarding its items. An error from s short-circuits without calling f.
func FlatMapMany[T, U any](s Single[T], f func(T) Multi[U]) Multi[U] {
	return NewMulti(func(sub Subscriber[U]) {
		var emitted bool
		s.Subscribe(Funcs[T]{
			Subscribe: func(upstream Subscription) { upstream.Request(1) },
			Next: func(v T) {
				emitted = true
				f(v).Subscribe(sub)
			},
			Err: sub.OnError,
			Complete: func() {
				if emitted {
					return
				}
				sub.OnSubscribe(noopSubscription{})
				sub.OnComplete()
			},
		})
	})
}

// Future is a write-once, read-many completion handle bridging a Single
// into blocking or callback-based code, the role spec §2 assigns to a
// "Single → future" bridge.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	v     T
	err   error
	empty bool
}

// NewFuture returns an unresolved Future. Resolve it with Succeed, Fail, or
// Complete (for an empty outcome).
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Succeed resolves the future with v. Only the first resolution takes
// effect.
func (f *Future[T]) Succeed(v T) {
	f.once.Do(func() {
		f.v = v
		close(f.done)
	})
}

// Fail resolves the future with err. Only the first resolution takes
// effect.
func (f *Future[T]) Fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Complete resolves the future with no value, as for an empty Single.
func (f *Future[T]) Complete() {
	f.once.Do(func() {
		f.empty = true
		close(f.done)
	})
}

// Get blocks until the future is resolved or ctx is done, returning
// mferr.ErrBlockTimeout in the latter case.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.v, f.err
	case <-ctx.Done():
		var zero T
		return zero, mferr.ErrBlockTimeout
	}
}

// ToFuture subscribes to s and resolves the returned Future with its
// outcome. Subscription happens immediately (not lazily on first Get).
func ToFuture[T any](s Single[T]) *Future[T] {
	f := NewFuture[T]()
	s.Subscribe(Funcs[T]{
		Next:     f.Succeed,
		Err:      f.Fail,
		Complete: f.Complete,
	})
	return f
}

// FromFuture returns a Single that, once subscribed, waits for f to resolve
// and forwards its outcome.
func FromFuture[T any](f *Future[T]) Single[T] {
	return NewSingle(func(sub Subscriber[T]) {
		sub.OnSubscribe(noopSubscription{})
		v, err := f.Get(context.Background())
		if err != nil {
			sub.OnError(err)
			return
		}
		if f.empty {
			sub.OnComplete()
			return
		}
		sub.OnNext(v)
		sub.OnComplete()
	})
}

// Block subscribes to s and waits indefinitely for its outcome. It is the
// narrow blocking escape hatch spec §1 allows: never call Block from inside
// an operator, only from tests or bridging code running on its own
// goroutine.
func Block[T any](s Single[T]) (T, error) {
	return blockOn(context.Background(), s.Subscribe)
}

// BlockTimeout subscribes to s and waits up to timeout for its outcome,
// returning mferr.ErrBlockTimeout on expiry.
func BlockTimeout[T any](s Single[T], timeout time.Duration) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return blockOn(ctx, s.Subscribe)
}
