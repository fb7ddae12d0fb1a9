package reactive

import "sync"

// Multi emits zero or more items of type T, then completes or errors,
// honoring the demand/cancel contract described in the package doc. A Multi value is
// immutable and reusable: each Subscribe call starts an independent
// subscription.
type Multi[T any] struct {
	subscribe func(Subscriber[T])
}

// NewMulti builds a Multi from a subscribe function, the low-level
// constructor every other Multi factory and operator is built on.
func NewMulti[T any](subscribe func(Subscriber[T])) Multi[T] {
	return Multi[T]{subscribe: subscribe}
}

// Subscribe starts delivering items to sub. sub.OnSubscribe is always called
// first, synchronously, on the calling goroutine.
func (m Multi[T]) Subscribe(sub Subscriber[T]) {
	if m.subscribe == nil {
		sub.OnSubscribe(noopSubscription{})
		sub.OnComplete()
		return
	}
	m.subscribe(sub)
}

// EmptyMulti returns a Multi that completes immediately without emitting.
func EmptyMulti[T any]() Multi[T] {
	return NewMulti(func(sub Subscriber[T]) {
		sub.OnSubscribe(noopSubscription{})
		sub.OnComplete()
	})
}

// ErrorMulti returns a Multi that fails immediately with err.
func ErrorMulti[T any](err error) Multi[T] {
	return NewMulti(func(sub Subscriber[T]) {
		sub.OnSubscribe(noopSubscription{})
		sub.OnError(err)
	})
}

// NeverMulti returns a Multi that never emits, completes, or errors. Useful
// in tests that need a publisher whose subscription is cancelled rather than
// left to terminate naturally.
func NeverMulti[T any]() Multi[T] {
	return NewMulti(func(sub Subscriber[T]) {
		sub.OnSubscribe(noopSubscription{})
	})
}

// JustMulti returns a Multi that emits each item in items, in order,
// honoring requested demand, then completes.
func JustMulti[T any](items ...T) Multi[T] {
	return NewMulti(func(sub Subscriber[T]) {
		s := &sliceSubscription[T]{items: items, sub: sub}
		sub.OnSubscribe(s)
	})
}

// FromSlice is an alias for JustMulti provided for readability at call
// sites that already hold a slice rather than variadic items.
func FromSlice[T any](items []T) Multi[T] {
	return JustMulti(items...)
}

// sliceSubscription drains a fixed slice under demand, trampolining re-entrant
// Request calls (e.g. a subscriber that calls Request again from inside
// OnNext) instead of recursing.
type sliceSubscription[T any] struct {
	mu         sync.Mutex
	items      []T
	index      int
	demand     int64
	cancelled  bool
	terminated bool
	draining   bool
	sub        Subscriber[T]
}

func (s *sliceSubscription[T]) Request(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	if s.cancelled || s.terminated {
		s.mu.Unlock()
		return
	}
	s.demand += n
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()
	s.drain()
}

func (s *sliceSubscription[T]) drain() {
	for {
		s.mu.Lock()
		if s.cancelled {
			s.draining = false
			s.mu.Unlock()
			return
		}
		if s.index >= len(s.items) {
			s.draining = false
			s.terminated = true
			s.mu.Unlock()
			s.sub.OnComplete()
			return
		}
		if s.demand <= 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		v := s.items[s.index]
		s.index++
		s.demand--
		s.mu.Unlock()
		s.sub.OnNext(v)
	}
}

func (s *sliceSubscription[T]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// MapMulti transforms every item of m with f, preserving demand/cancel
// pass-through: the returned Multi's subscription forwards Request and
// Cancel directly to the upstream subscription.
func MapMulti[T, U any](m Multi[T], f func(T) U) Multi[U] {
	return NewMulti(func(sub Subscriber[U]) {
		m.Subscribe(mapSubscriber[T, U]{down: sub, f: f})
	})
}

type mapSubscriber[T, U any] struct {
	down Subscriber[U]
	f    func(T) U
}

func (s mapSubscriber[T, U]) OnSubscribe(sub Subscription) { s.down.OnSubscribe(sub) }
func (s mapSubscriber[T, U]) OnNext(v T)                   { s.down.OnNext(s.f(v)) }
func (s mapSubscriber[T, U]) OnError(err error)             { s.down.OnError(err) }
func (s mapSubscriber[T, U]) OnComplete()                   { s.down.OnComplete() }

// CollectList requests every item from m (an unbounded request, per spec
// §4.9's allowance for terminal collectors) and resolves to a Single
// carrying the accumulated slice, or an empty slice if m completes with no
// items.
func CollectList[T any](m Multi[T]) Single[[]T] {
	return Collect(m, func() []T { return nil }, func(acc []T, v T) []T { return append(acc, v) })
}

// Collect is the generalization of CollectList: supplier builds the initial
// accumulator and accumulator folds each item into it.
func Collect[T, A any](m Multi[T], supplier func() A, accumulator func(A, T) A) Single[A] {
	return NewSingle(func(sub Subscriber[A]) {
		acc := supplier()
		m.Subscribe(collectSubscriber[T, A]{
			down:        sub,
			acc:         &acc,
			accumulator: accumulator,
		})
	})
}

type collectSubscriber[T, A any] struct {
	down        Subscriber[A]
	acc         *A
	accumulator func(A, T) A
}

func (s collectSubscriber[T, A]) OnSubscribe(sub Subscription) {
	s.down.OnSubscribe(sub)
	sub.Request(MaxDemand)
}

func (s collectSubscriber[T, A]) OnNext(v T) {
	*s.acc = s.accumulator(*s.acc, v)
}

func (s collectSubscriber[T, A]) OnError(err error) {
	s.down.OnError(err)
}

func (s collectSubscriber[T, A]) OnComplete() {
	s.down.OnNext(*s.acc)
	s.down.OnComplete()
}
