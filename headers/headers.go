// Package headers implements the ContentInfo / Header abstraction spec §3
// calls for: an ordered, case-insensitive multimap from header name to
// values, with read-only and mutable variants, plus a derived Content-Type
// and charset.
package headers

import "strings"

// Reader is the read-only view a ReaderContext exposes to operators: spec
// §4.5 says reader contexts treat headers as read-only.
type Reader interface {
	// Get returns the first value for name, and whether it was present.
	Get(name string) (string, bool)
	// Values returns every value for name, preserving insertion order. The
	// returned slice is owned by the caller.
	Values(name string) []string
	// Names returns every header name present, in first-insertion order.
	Names() []string
}

// Mutable extends Reader with the mutation WriterContext needs: appending
// (Add, SetIfAbsent) and replacing (Set) values.
type Mutable interface {
	Reader
	// Set replaces all values for name with a single value.
	Set(name, value string)
	// Add appends value to name's value list without removing existing
	// values.
	Add(name, value string)
	// SetIfAbsent sets name to value only if name has no existing value,
	// implementing the put-if-absent semantics spec §4.6 requires of
	// Content-Type/Content-Length.
	SetIfAbsent(name, value string) bool
}

// Map is the concrete ordered, case-insensitive multimap backing both
// Reader and Mutable views.
type Map struct {
	order []string          // canonical-cased names, first-insertion order
	data  map[string][]string // keyed by lower-cased name
}

// New returns an empty Map.
func New() *Map {
	return &Map{data: make(map[string][]string)}
}

// AsReadOnly returns a Reader view of m. The view shares storage with m;
// it is the caller's responsibility not to mutate m concurrently with use
// of the returned view from another goroutine (spec §5: contexts are
// single-owner per subscription).
func (m *Map) AsReadOnly() Reader { return readOnlyMap{m} }

func key(name string) string { return strings.ToLower(name) }

// Get implements Reader.
func (m *Map) Get(name string) (string, bool) {
	vs, ok := m.data[key(name)]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Values implements Reader.
func (m *Map) Values(name string) []string {
	vs := m.data[key(name)]
	out := make([]string, len(vs))
	copy(out, vs)
	return out
}

// Names implements Reader.
func (m *Map) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Set implements Mutable.
func (m *Map) Set(name, value string) {
	k := key(name)
	if _, ok := m.data[k]; !ok {
		m.order = append(m.order, name)
	}
	m.data[k] = []string{value}
}

// Add implements Mutable.
func (m *Map) Add(name, value string) {
	k := key(name)
	if _, ok := m.data[k]; !ok {
		m.order = append(m.order, name)
	}
	m.data[k] = append(m.data[k], value)
}

// SetIfAbsent implements Mutable.
func (m *Map) SetIfAbsent(name, value string) bool {
	k := key(name)
	if vs, ok := m.data[k]; ok && len(vs) > 0 {
		return false
	}
	m.Set(name, value)
	return true
}

// readOnlyMap adapts *Map to Reader without exposing the mutating methods.
type readOnlyMap struct{ m *Map }

func (r readOnlyMap) Get(name string) (string, bool) { return r.m.Get(name) }
func (r readOnlyMap) Values(name string) []string    { return r.m.Values(name) }
func (r readOnlyMap) Names() []string                { return r.m.Names() }
