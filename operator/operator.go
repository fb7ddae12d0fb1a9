// Package operator defines the polymorphic capabilities an operator
// registry entry can implement (spec §3 "Operator entry", §9 Design
// Notes): Filter, Reader, StreamReader, Writer, StreamWriter. Per spec §9,
// selection is keyed on a stable Qualifier chosen at registration time
// rather than runtime class identity, and "does this operator accept type
// T" is expressed with an opaque TypeDescriptor rather than a reified
// generic type.
package operator

import (
	"fmt"

	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/headers"
	"goa.design/mediaflow/mediatype"
	"goa.design/mediaflow/reactive"
)

// Qualifier is the stable identity an operator is registered and looked up
// under, replacing the source's runtime-class-token keying (spec §9).
type Qualifier struct {
	name string
}

// NewQualifier returns a Qualifier identified by name. Two qualifiers with
// the same name compare equal.
func NewQualifier(name string) Qualifier { return Qualifier{name: name} }

// String returns the qualifier's name.
func (q Qualifier) String() string { return q.name }

// TypeDescriptor is an opaque, comparable value identifying the target
// type an operator is asked to accept — a name plus a structural
// fingerprint, replacing reified GenericType<T> (spec §9). Two descriptors
// naming the same logical type (e.g. "[]int" produced two different ways)
// should use the same Name and Fingerprint so registry lookups agree.
type TypeDescriptor struct {
	Name        string
	Fingerprint string
}

// Describe builds a TypeDescriptor from a name and an optional structural
// fingerprint disambiguating it from other types that might share the
// name (e.g. a JSON schema hash, a generic type argument list rendered as
// a string). Fingerprint may be empty for simple, unambiguous types.
func Describe(name, fingerprint string) TypeDescriptor {
	return TypeDescriptor{Name: name, Fingerprint: fingerprint}
}

// String renders the descriptor for logs and error messages.
func (d TypeDescriptor) String() string {
	if d.Fingerprint == "" {
		return d.Name
	}
	return fmt.Sprintf("%s#%s", d.Name, d.Fingerprint)
}

// Filter transforms one chunk stream into another. Returning a zero Multi
// (the Ok==false form via Apply's second return) tells the filter chain to
// skip this filter for this particular publisher — spec §4.4's "a filter
// that cannot act returns null/none" contract.
type Filter interface {
	// Apply returns the transformed publisher and true, or ok=false if this
	// filter opts out for this invocation.
	Apply(p reactive.Multi[*chunk.DataChunk]) (out reactive.Multi[*chunk.DataChunk], ok bool)
}

// FilterFunc adapts a plain function to Filter, always opting in.
type FilterFunc func(p reactive.Multi[*chunk.DataChunk]) reactive.Multi[*chunk.DataChunk]

// Apply implements Filter.
func (f FilterFunc) Apply(p reactive.Multi[*chunk.DataChunk]) (reactive.Multi[*chunk.DataChunk], bool) {
	return f(p), true
}

// ReaderEnv is the minimal view of a reader context an operator needs:
// its headers (read-only, per spec §4.5) and the negotiated charset.
// mediactx.ReaderContext satisfies this without operator importing
// mediactx, breaking what would otherwise be an import cycle.
type ReaderEnv interface {
	Headers() headers.Reader
	// Charset returns the resolved charset (spec §4.5), or an error if the
	// Content-Type's charset parameter is malformed or unsupported.
	Charset() (string, error)
}

// ReaderAcceptor is the capability every reader-shaped operator
// (Reader/StreamReader) shares: does it accept the requested target type
// given the reader environment env.
type ReaderAcceptor interface {
	Accept(target TypeDescriptor, env ReaderEnv) bool
}

// Reader converts a chunk publisher into a single typed value.
type Reader interface {
	ReaderAcceptor
	Read(p reactive.Multi[*chunk.DataChunk], target TypeDescriptor, env ReaderEnv) reactive.Single[any]
}

// StreamReader converts a chunk publisher into a stream of typed values.
type StreamReader interface {
	ReaderAcceptor
	ReadStream(p reactive.Multi[*chunk.DataChunk], target TypeDescriptor, env ReaderEnv) reactive.Multi[any]
}

// WriteAck is the acknowledgment a Writer/StreamWriter returns to opt in to
// handling a value, carrying the content type it intends to write and an
// optional declared length (spec §4.6, and Open Question 1 in DESIGN.md:
// we settled on exactly these four fields, no more).
type WriteAck struct {
	ContentType      mediatype.MediaType
	ContentLength    int64
	HasContentLength bool
	Writer           Qualifier
}

// WriterEnv is the minimal view of a writer context an operator needs:
// its headers (append-only, per spec §6) and the negotiated charset.
// mediactx.WriterContext satisfies this without operator importing
// mediactx.
type WriterEnv interface {
	Headers() headers.Mutable
	// Charset returns the resolved charset (spec §4.6), or an error if the
	// Content-Type's charset parameter is malformed or unsupported.
	Charset() (string, error)
}

// WriterAcceptor is the capability every writer-shaped operator
// (Writer/StreamWriter) shares.
type WriterAcceptor interface {
	// Accept returns the acknowledgment and true if this operator will
	// write the target type, or ok=false to decline.
	Accept(target TypeDescriptor, env WriterEnv) (ack WriteAck, ok bool)
}

// Writer converts a single typed value into a chunk publisher.
type Writer interface {
	WriterAcceptor
	Write(content reactive.Single[any], target TypeDescriptor, env WriterEnv, ack WriteAck) reactive.Multi[*chunk.DataChunk]
}

// StreamWriter converts a stream of typed values into a chunk publisher.
type StreamWriter interface {
	WriterAcceptor
	WriteStream(content reactive.Multi[any], target TypeDescriptor, env WriterEnv, ack WriteAck) reactive.Multi[*chunk.DataChunk]
}
