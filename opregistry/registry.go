// Package opregistry implements the hierarchical operator registry spec §4
// describes: an ordered collection of operator-registry entries with
// parent/fallback delegation and first-match selection, grounded on
// runtime/registry/manager.go's Manager (RWMutex-guarded map-of-clients
// with child lookups falling back to registered defaults).
package opregistry

import (
	"sync"

	"goa.design/mediaflow/operator"
)

// entry pairs a registered value with the Qualifier it was registered
// under, preserving registration order for first-match selection
// (invariant 4).
type entry[T any] struct {
	qualifier operator.Qualifier
	value     T
}

// Registry is an ordered, case-qualified collection of operator
// capabilities of type T (operator.Filter, operator.Reader,
// operator.StreamReader, operator.Writer, or operator.StreamWriter), with
// an optional parent registry consulted when nothing in this registry
// matches (spec §4, invariant 5 "fallback escape").
type Registry[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	parent  *Registry[T]
}

// New returns an empty registry with no parent.
func New[T any]() *Registry[T] {
	return &Registry[T]{}
}

// NewChild returns an empty registry that falls back to parent when a
// lookup finds nothing locally.
func NewChild[T any](parent *Registry[T]) *Registry[T] {
	return &Registry[T]{parent: parent}
}

// RegisterFirst registers value under qualifier ahead of any
// already-registered entries, so it is tried before them during
// selection.
func (r *Registry[T]) RegisterFirst(qualifier operator.Qualifier, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]entry[T]{{qualifier, value}}, r.entries...)
}

// RegisterLast registers value under qualifier after any
// already-registered entries.
func (r *Registry[T]) RegisterLast(qualifier operator.Qualifier, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry[T]{qualifier, value})
}

// Get returns the value registered under qualifier in this registry,
// falling back to the parent registry if not found locally.
func (r *Registry[T]) Get(qualifier operator.Qualifier) (T, bool) {
	r.mu.RLock()
	for _, e := range r.entries {
		if e.qualifier == qualifier {
			r.mu.RUnlock()
			return e.value, true
		}
	}
	r.mu.RUnlock()
	var zero T
	if r.parent != nil {
		return r.parent.Get(qualifier)
	}
	return zero, false
}

// Select returns the first locally registered value for which accept
// returns true, trying entries in registration order (invariant 4:
// first-match selection). If nothing local matches, Select escapes to
// the parent registry (invariant 5) before reporting failure.
func (r *Registry[T]) Select(accept func(T) bool) (T, operator.Qualifier, bool) {
	r.mu.RLock()
	local := make([]entry[T], len(r.entries))
	copy(local, r.entries)
	r.mu.RUnlock()

	for _, e := range local {
		if accept(e.value) {
			return e.value, e.qualifier, true
		}
	}
	var zero T
	if r.parent != nil {
		return r.parent.Select(accept)
	}
	return zero, operator.Qualifier{}, false
}

// All returns every value registered in this registry, in registration
// order, not including parent entries.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.value
	}
	return out
}
