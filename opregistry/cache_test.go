package opregistry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/opregistry"
)

func TestMemorySelectionCacheRoundTrips(t *testing.T) {
	c := opregistry.NewMemorySelectionCache()
	require.False(t, c.Get(t.Context(), "reader", "json-reader"))

	c.Set(t.Context(), "reader", "json-reader", time.Minute)
	require.True(t, c.Get(t.Context(), "reader", "json-reader"))
}

func TestMemorySelectionCacheDistinguishesRegistries(t *testing.T) {
	c := opregistry.NewMemorySelectionCache()
	c.Set(t.Context(), "reader", "json", time.Minute)
	require.False(t, c.Get(t.Context(), "writer", "json"), "a presence hint recorded for one registry must not leak into another")
}

func TestMemorySelectionCacheExpiresEntries(t *testing.T) {
	c := opregistry.NewMemorySelectionCache()
	c.Set(t.Context(), "reader", "json-reader", -time.Second)
	require.False(t, c.Get(t.Context(), "reader", "json-reader"), "an entry whose ttl has already elapsed must not be served")
}
