// Package mediatype implements the parsed (type, subtype, parameters)
// triple spec §3 calls MediaType. Full RFC 6838 media-type grammar is out
// of scope for the pipeline (spec §1 treats header parsing and media-type
// grammar as an external collaborator); Parse leans on the standard
// library's mime.ParseMediaType for the grammar itself and only adds the
// wildcard-aware structural matching the operator selection algorithm
// needs.
package mediatype

import (
	"fmt"
	"mime"
	"sort"
	"strings"
)

// MediaType is a parsed type/subtype pair with parameters.
type MediaType struct {
	Type       string
	Subtype    string
	Parameters map[string]string
}

// Wildcard is the "*" token that matches any type or subtype.
const Wildcard = "*"

// New constructs a MediaType from an already-split type and subtype plus
// optional parameters. The parameters map is copied.
func New(typ, subtype string, params map[string]string) MediaType {
	p := make(map[string]string, len(params))
	for k, v := range params {
		p[strings.ToLower(k)] = v
	}
	return MediaType{Type: strings.ToLower(typ), Subtype: strings.ToLower(subtype), Parameters: p}
}

// Parse parses a raw media type string such as
// "application/json; charset=utf-8". It returns an error wrapping the
// standard library's parse error if raw is malformed.
func Parse(raw string) (MediaType, error) {
	t, params, err := mime.ParseMediaType(raw)
	if err != nil {
		return MediaType{}, fmt.Errorf("mediatype: parse %q: %w", raw, err)
	}
	typ, subtype, ok := strings.Cut(t, "/")
	if !ok {
		return MediaType{}, fmt.Errorf("mediatype: %q is missing a subtype", raw)
	}
	return New(typ, subtype, params), nil
}

// MustParse is Parse but panics on error; intended for package-level
// constants and tests, never for input from a request.
func MustParse(raw string) MediaType {
	mt, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return mt
}

// String renders the media type back to wire form, sorting parameters by
// name for determinism.
func (m MediaType) String() string {
	var b strings.Builder
	b.WriteString(m.Type)
	b.WriteByte('/')
	b.WriteString(m.Subtype)
	keys := make([]string, 0, len(m.Parameters))
	for k := range m.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "; %s=%s", k, m.Parameters[k])
	}
	return b.String()
}

// IsWildcard reports whether the type or subtype is "*".
func (m MediaType) IsWildcard() bool {
	return m.Type == Wildcard || m.Subtype == Wildcard
}

// Charset returns the "charset" parameter, if present.
func (m MediaType) Charset() (string, bool) {
	c, ok := m.Parameters["charset"]
	return c, ok
}

// Test reports whether m structurally matches other, honoring a wildcard
// "*" in either side's type or subtype (spec §3). Parameters, charset
// included, are not considered for the match.
func (m MediaType) Test(other MediaType) bool {
	if m.Type != Wildcard && other.Type != Wildcard && !strings.EqualFold(m.Type, other.Type) {
		return false
	}
	if m.Subtype != Wildcard && other.Subtype != Wildcard && !strings.EqualFold(m.Subtype, other.Subtype) {
		return false
	}
	return true
}
