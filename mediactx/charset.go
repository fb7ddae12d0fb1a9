// Package mediactx implements ReaderContext and WriterContext (spec §4.5,
// §4.6): the headers-and-registries envelope passed to every operator,
// grounded on runtime/registry/manager.go's Manager (registries plus a
// telemetry-wrapped selection path) and runtime/agent/hooks/bus.go's
// listener-dispatch style.
package mediactx

import (
	"strings"

	"goa.design/mediaflow/mediatype"
	"goa.design/mediaflow/mferr"
)

// DefaultCharset is used when Content-Type carries no charset parameter
// (spec §4.5).
const DefaultCharset = "utf-8"

// knownCharsets is the small allowlist the pipeline recognizes. Full IANA
// charset-name validation belongs to a codec library, not this pipeline
// (spec §1 scopes charset handling to "a derived charset", not a charset
// registry); callers needing a wider set can still negotiate their own
// charset string, this only guards the common cases against typos.
var knownCharsets = map[string]bool{
	"utf-8":      true,
	"utf-16":     true,
	"us-ascii":   true,
	"ascii":      true,
	"iso-8859-1": true,
	"windows-1252": true,
}

// resolveCharset implements the charset derivation invariant (spec §8.7):
// context.charset() = parse(Content-Type).charset ?? default; invalid
// charsets surface as CharsetInvalid.
func resolveCharset(ct mediatype.MediaType, hasContentType bool) (string, error) {
	if !hasContentType {
		return DefaultCharset, nil
	}
	name, ok := ct.Charset()
	if !ok {
		return DefaultCharset, nil
	}
	if !knownCharsets[strings.ToLower(name)] {
		return "", mferr.CharsetInvalid{Name: name}
	}
	return strings.ToLower(name), nil
}
