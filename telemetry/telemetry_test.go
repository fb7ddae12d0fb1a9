package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"goa.design/clue/log"
)

func TestNoopImplementationsDiscardEverything(t *testing.T) {
	logger := NewNoopLogger()
	metrics := NewNoopMetrics()
	tracer := NewNoopTracer()

	require.NotPanics(t, func() {
		logger.Info(t.Context(), "hello", "k", "v")
		metrics.IncCounter("c", 1, "k", "v")
		ctx, span := tracer.Start(t.Context(), "span")
		require.Equal(t, t.Context(), ctx)
		span.AddEvent("evt")
		span.End()
	})
}

func TestKVSliceToClueBuildsOneFielderPerPair(t *testing.T) {
	fielders := kvSliceToClue([]any{"a", 1, "b", "two"})
	require.Equal(t, []log.Fielder{
		log.KV{K: "a", V: 1},
		log.KV{K: "b", V: "two"},
	}, fielders)
}

func TestKVSliceToClueSkipsNonStringKeys(t *testing.T) {
	fielders := kvSliceToClue([]any{42, "ignored", "ok", "kept"})
	require.Equal(t, []log.Fielder{log.KV{K: "ok", V: "kept"}}, fielders)
}

func TestKVSliceToClueToleratesOddLength(t *testing.T) {
	fielders := kvSliceToClue([]any{"trailing"})
	require.Equal(t, []log.Fielder{log.KV{K: "trailing", V: nil}}, fielders)
}

func TestTagsToAttrsPairsUpValues(t *testing.T) {
	attrs := tagsToAttrs([]string{"kind", "reader", "outcome", "hit"})
	require.Equal(t, []attribute.KeyValue{
		attribute.String("kind", "reader"),
		attribute.String("outcome", "hit"),
	}, attrs)
}

func TestKVSliceToAttrsTypeSwitchesCommonKinds(t *testing.T) {
	attrs := kvSliceToAttrs([]any{"s", "str", "i", 7, "i64", int64(8), "f", 1.5, "b", true, "other", struct{}{}})
	require.Equal(t, []attribute.KeyValue{
		attribute.String("s", "str"),
		attribute.Int("i", 7),
		attribute.Int64("i64", 8),
		attribute.Float64("f", 1.5),
		attribute.Bool("b", true),
		attribute.String("other", ""),
	}, attrs)
}
