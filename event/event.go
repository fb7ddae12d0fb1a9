// Package event implements the subscription lifecycle listener spec §4.10
// describes: a hook fired at well-defined points around a filtered
// publisher's subscription, carrying the in-flight entity type, used by
// the outer system for tracing and deferred header-send.
package event

// Type names a lifecycle point in a subscription.
type Type int

const (
	// BeforeOnSubscribe fires just before the filtered publisher is
	// subscribed to upstream.
	BeforeOnSubscribe Type = iota
	// BeforeOnNext fires just before an item is delivered downstream.
	BeforeOnNext
	// BeforeOnError fires just before a terminal error is delivered
	// downstream.
	BeforeOnError
	// BeforeOnComplete fires just before normal completion is delivered
	// downstream.
	BeforeOnComplete
	// AfterOnError fires immediately after a terminal error has been
	// delivered downstream.
	AfterOnError
	// AfterOnComplete fires immediately after normal completion has been
	// delivered downstream.
	AfterOnComplete
)

// String renders the event type for logs.
func (t Type) String() string {
	switch t {
	case BeforeOnSubscribe:
		return "before-onsubscribe"
	case BeforeOnNext:
		return "before-onnext"
	case BeforeOnError:
		return "before-onerror"
	case BeforeOnComplete:
		return "before-oncomplete"
	case AfterOnError:
		return "after-onerror"
	case AfterOnComplete:
		return "after-oncomplete"
	default:
		return "unknown"
	}
}

// Event carries a lifecycle Type plus the in-flight entity type name, if
// any (empty for raw chunk streams with no associated entity).
type Event struct {
	Type   Type
	Entity string
}

// Listener observes subscription lifecycle events. Implementations must
// not block or panic; the filter chain wrapper recovers from a panicking
// Listener and logs it rather than letting it corrupt the stream (spec
// §4.10: listener exceptions are logged, never propagated).
type Listener interface {
	OnEvent(evt Event)
}

// Func adapts a plain function to Listener.
type Func func(evt Event)

// OnEvent implements Listener.
func (f Func) OnEvent(evt Event) { f(evt) }
