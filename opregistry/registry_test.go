package opregistry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/opregistry"
	"goa.design/mediaflow/operator"
)

func TestRegisterFirstPlacesAheadOfExisting(t *testing.T) {
	reg := opregistry.New[string]()
	reg.RegisterLast(operator.NewQualifier("a"), "a")
	reg.RegisterFirst(operator.NewQualifier("b"), "b")

	value, qualifier, ok := reg.Select(func(string) bool { return true })
	require.True(t, ok)
	require.Equal(t, "b", value)
	require.Equal(t, operator.NewQualifier("b"), qualifier)
}

func TestSelectReturnsFirstMatchInInsertionOrder(t *testing.T) {
	reg := opregistry.New[int]()
	reg.RegisterLast(operator.NewQualifier("1"), 1)
	reg.RegisterLast(operator.NewQualifier("2"), 2)
	reg.RegisterLast(operator.NewQualifier("3"), 3)

	value, _, ok := reg.Select(func(v int) bool { return v >= 2 })
	require.True(t, ok)
	require.Equal(t, 2, value)
}

func TestSelectEscalatesToParentButNotToFallback(t *testing.T) {
	parent := opregistry.New[string]()
	parent.RegisterLast(operator.NewQualifier("parent"), "parent-value")

	child := opregistry.NewChild(parent)

	fallback := opregistry.New[string]()
	fallback.RegisterLast(operator.NewQualifier("fallback"), "fallback-value")

	accept := func(v string) bool { return v == "parent-value" }
	value, _, ok := child.Select(accept)
	require.True(t, ok)
	require.Equal(t, "parent-value", value)

	acceptFallback := func(v string) bool { return v == "fallback-value" }
	_, _, ok = child.Select(acceptFallback)
	require.False(t, ok, "child/parent miss must not auto-consult an explicit fallback registry")

	value, _, ok = fallback.Select(acceptFallback)
	require.True(t, ok)
	require.Equal(t, "fallback-value", value)
}

func TestGetFallsBackToParent(t *testing.T) {
	parent := opregistry.New[int]()
	parent.RegisterLast(operator.NewQualifier("q"), 42)
	child := opregistry.NewChild(parent)

	value, ok := child.Get(operator.NewQualifier("q"))
	require.True(t, ok)
	require.Equal(t, 42, value)
}

func TestRemovingEarlierEntryNeverChangesLaterSelection(t *testing.T) {
	// Invariant 4: removing operators earlier in the list never changes a
	// later selection. Registries have no remove operation, so we model
	// "earlier entries absent" by simply never registering them and
	// checking the later entry is still selected identically either way.
	withEarlier := opregistry.New[int]()
	withEarlier.RegisterLast(operator.NewQualifier("skip"), 1)
	withEarlier.RegisterLast(operator.NewQualifier("match"), 2)

	withoutEarlier := opregistry.New[int]()
	withoutEarlier.RegisterLast(operator.NewQualifier("match"), 2)

	accept := func(v int) bool { return v == 2 }
	v1, _, ok1 := withEarlier.Select(accept)
	v2, _, ok2 := withoutEarlier.Select(accept)
	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, v2, v1)
}
