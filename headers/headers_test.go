package headers_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/headers"
)

func TestMapSetGetIsCaseInsensitive(t *testing.T) {
	m := headers.New()
	m.Set("Content-Type", "application/json")

	v, ok := m.Get("content-type")
	require.True(t, ok)
	require.Equal(t, "application/json", v)
}

func TestMapAddAccumulatesValues(t *testing.T) {
	m := headers.New()
	m.Add("Accept", "text/plain")
	m.Add("accept", "application/json")

	require.Equal(t, []string{"text/plain", "application/json"}, m.Values("Accept"))
}

func TestMapSetIfAbsent(t *testing.T) {
	m := headers.New()
	require.True(t, m.SetIfAbsent("Content-Type", "text/plain"))
	require.False(t, m.SetIfAbsent("Content-Type", "application/json"))

	v, _ := m.Get("Content-Type")
	require.Equal(t, "text/plain", v)
}

func TestMapNamesPreservesInsertionOrder(t *testing.T) {
	m := headers.New()
	m.Set("B", "2")
	m.Set("A", "1")
	m.Add("B", "3")

	require.Equal(t, []string{"B", "A"}, m.Names())
}

func TestAsReadOnlyHidesMutation(t *testing.T) {
	m := headers.New()
	m.Set("X", "1")

	var r headers.Reader = m.AsReadOnly()
	v, ok := r.Get("x")
	require.True(t, ok)
	require.Equal(t, "1", v)

	_, mutable := r.(headers.Mutable)
	require.False(t, mutable, "the read-only view must not expose the mutating methods")
}
