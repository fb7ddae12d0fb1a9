package filterchain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/buffer"
	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/event"
	"goa.design/mediaflow/filterchain"
	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/reactive"
	"goa.design/mediaflow/telemetry"
)

type tagFilter struct {
	tag   byte
	optIn bool
}

func (f tagFilter) Apply(p reactive.Multi[*chunk.DataChunk]) (reactive.Multi[*chunk.DataChunk], bool) {
	if !f.optIn {
		return p, false
	}
	return reactive.MapMulti(p, func(c *chunk.DataChunk) *chunk.DataChunk {
		buf := c.Buffer()
		out := make([]byte, buf.Remaining()+1)
		buf.GetBytes(out[:len(out)-1])
		out[len(out)-1] = f.tag
		c.Release(1)
		return chunk.New(buffer.New(out))
	}), true
}

func oneChunk(b string) reactive.Multi[*chunk.DataChunk] {
	return reactive.JustMulti(chunk.New(buffer.New([]byte(b))))
}

func collectOne(t *testing.T, p reactive.Multi[*chunk.DataChunk]) string {
	t.Helper()
	list, err := reactive.Block(reactive.CollectList(p))
	require.NoError(t, err)
	require.Len(t, list, 1)
	buf := list[0].Buffer()
	out := make([]byte, buf.Remaining())
	buf.GetBytes(out)
	return string(out)
}

// TestApplySkipsOptedOutFilters covers spec §4.4's null-filter contract: a
// filter returning ok=false is skipped entirely, leaving the publisher it
// was given unchanged.
func TestApplySkipsOptedOutFilters(t *testing.T) {
	filters := []operator.Filter{tagFilter{tag: 'A', optIn: true}, tagFilter{optIn: false}, tagFilter{tag: 'B', optIn: true}}
	out := filterchain.Apply(oneChunk("x"), filters)
	require.Equal(t, "xAB", collectOne(t, out))
}

// TestApplyNilFilterIsSkipped covers a nil entry in the filter slice
// (as opregistry.Registry[operator.Filter].All() could contain if a nil
// Filter interface value was registered).
func TestApplyNilFilterIsSkipped(t *testing.T) {
	filters := []operator.Filter{nil, tagFilter{tag: 'Z', optIn: true}}
	out := filterchain.Apply(oneChunk("x"), filters)
	require.Equal(t, "xZ", collectOne(t, out))
}

// TestChainPutsChildBeforeParent covers invariant 3: child filters closest
// to the byte source, parent filters outermost.
func TestChainPutsChildBeforeParent(t *testing.T) {
	child := []operator.Filter{tagFilter{tag: 'C', optIn: true}}
	parent := []operator.Filter{tagFilter{tag: 'P', optIn: true}}
	out := filterchain.Apply(oneChunk("x"), filterchain.Chain(child, parent))
	require.Equal(t, "xCP", collectOne(t, out))
}

type recordingListener struct {
	events []event.Type
}

func (l *recordingListener) OnEvent(evt event.Event) {
	l.events = append(l.events, evt.Type)
}

// TestWithEventsOrdersLifecycleAroundCompletion covers spec §4.10: before-
// subscribe fires ahead of the upstream subscription, before/after-complete
// bracket the terminal signal.
func TestWithEventsOrdersLifecycleAroundCompletion(t *testing.T) {
	listener := &recordingListener{}
	wrapped := filterchain.WithEvents(oneChunk("x"), listener, "my-entity", telemetry.NewNoopLogger())

	_, err := reactive.Block(reactive.CollectList(wrapped))
	require.NoError(t, err)
	require.Equal(t, []event.Type{
		event.BeforeOnSubscribe,
		event.BeforeOnNext,
		event.BeforeOnComplete,
		event.AfterOnComplete,
	}, listener.events)
}

// TestWithEventsNilListenerReturnsUnwrapped covers the nil fast path.
func TestWithEventsNilListenerReturnsUnwrapped(t *testing.T) {
	p := oneChunk("x")
	out := filterchain.WithEvents(p, nil, "entity", telemetry.NewNoopLogger())
	require.Equal(t, "x", collectOne(t, out))
}

type panicListener struct{}

func (panicListener) OnEvent(event.Event) { panic("boom") }

// TestWithEventsPanicIsContainedNotPropagated covers spec §4.10: a
// panicking listener is recovered and logged, never corrupting the stream.
func TestWithEventsPanicIsContainedNotPropagated(t *testing.T) {
	wrapped := filterchain.WithEvents(oneChunk("x"), panicListener{}, "entity", telemetry.NewNoopLogger())
	out, err := reactive.Block(reactive.CollectList(wrapped))
	require.NoError(t, err)
	require.Len(t, out, 1)
}
