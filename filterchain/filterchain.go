// Package filterchain implements apply-filters (spec §4.4): folding an
// ordered list of operator.Filter over a chunk publisher, applying child
// filters before parent filters, and wrapping the result in an
// event-emitting publisher that fires an event.Listener around
// subscription lifecycle points without ever swallowing a terminal
// signal. Grounded on runtime/agent/hooks/bus.go's snapshot-then-iterate,
// panic-contained dispatch style.
package filterchain

import (
	"context"

	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/event"
	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/reactive"
	"goa.design/mediaflow/telemetry"
)

type chunkPublisher = reactive.Multi[*chunk.DataChunk]

// Apply folds filters over p in order: last = p; for each filter, p' =
// filter(last); if the filter opted in (ok), last = p'. A filter that
// opts out is silently skipped — the null-filter contract of spec §4.4.
func Apply(p chunkPublisher, filters []operator.Filter) chunkPublisher {
	last := p
	for _, f := range filters {
		if f == nil {
			continue
		}
		if out, ok := f.Apply(last); ok {
			last = out
		}
	}
	return last
}

// Chain concatenates child filters ahead of parent filters, giving the
// flattened order invariant 3 requires: child filters closest to the
// byte source, parent filters outermost (Ps ∘ Cs).
func Chain(child, parent []operator.Filter) []operator.Filter {
	out := make([]operator.Filter, 0, len(child)+len(parent))
	out = append(out, child...)
	out = append(out, parent...)
	return out
}

// WithEvents wraps p in an event-emitting publisher (spec §4.4, §4.10):
// on subscription it fires BeforeOnSubscribe then subscribes upstream;
// it fires BeforeOnNext/BeforeOnError/BeforeOnComplete immediately before
// forwarding each callback downstream, and AfterOnError/AfterOnComplete
// immediately after the terminal callback lands. listener may be nil, in
// which case p is returned unwrapped. entity names the in-flight type for
// the event payload (empty string for a raw chunk stream).
func WithEvents(p chunkPublisher, listener event.Listener, entity string, logger telemetry.Logger) chunkPublisher {
	if listener == nil {
		return p
	}
	return reactive.NewMulti(func(sub reactive.Subscriber[*chunk.DataChunk]) {
		emit(listener, logger, event.Event{Type: event.BeforeOnSubscribe, Entity: entity})
		p.Subscribe(eventSubscriber{
			down:     sub,
			listener: listener,
			logger:   logger,
			entity:   entity,
		})
	})
}

type eventSubscriber struct {
	down     reactive.Subscriber[*chunk.DataChunk]
	listener event.Listener
	logger   telemetry.Logger
	entity   string
}

func (s eventSubscriber) OnSubscribe(sub reactive.Subscription) {
	s.down.OnSubscribe(sub)
}

func (s eventSubscriber) OnNext(v *chunk.DataChunk) {
	emit(s.listener, s.logger, event.Event{Type: event.BeforeOnNext, Entity: s.entity})
	s.down.OnNext(v)
}

func (s eventSubscriber) OnError(err error) {
	emit(s.listener, s.logger, event.Event{Type: event.BeforeOnError, Entity: s.entity})
	s.down.OnError(err)
	emit(s.listener, s.logger, event.Event{Type: event.AfterOnError, Entity: s.entity})
}

func (s eventSubscriber) OnComplete() {
	emit(s.listener, s.logger, event.Event{Type: event.BeforeOnComplete, Entity: s.entity})
	s.down.OnComplete()
	emit(s.listener, s.logger, event.Event{Type: event.AfterOnComplete, Entity: s.entity})
}

// emit calls listener.OnEvent, recovering from and logging any panic so a
// misbehaving listener never corrupts the stream contract (spec §4.10:
// emission happens in a try/finally so the subscriber always sees the
// terminal signal).
func emit(listener event.Listener, logger telemetry.Logger, evt event.Event) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error(context.Background(), "event listener panicked", "event", evt.Type.String(), "entity", evt.Entity, "recover", r)
		}
	}()
	listener.OnEvent(evt)
}
