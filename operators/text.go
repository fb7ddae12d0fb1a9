// Package operators provides sample readers, writers, and filters exercising
// the operator/opregistry/mediactx machinery: a plain-text reader/writer
// pair, a JSON reader/writer pair, and an uppercase byte filter. None of
// these are registered by default — callers wire them into a ReaderContext
// or WriterContext explicitly, the way handlers register codecs on top of
// the pipeline (spec §4.5/§4.6).
package operators

import (
	"goa.design/mediaflow/buffer"
	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/mediatype"
	"goa.design/mediaflow/mferr"
	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/reactive"
)

// String is the TypeDescriptor these operators read/write as Go's string
// type.
var String = operator.Describe("string", "")

var textPlain = mediatype.MustParse("text/plain")

// negotiator is the narrow slice of *mediactx.WriterContext these writers
// need beyond operator.WriterEnv: Accept-header negotiation (spec §4.6).
// operator.WriterEnv can't name it directly without mediactx importing
// operator, so writers recover it with a type assertion against the
// concrete env passed in at selection time.
type negotiator interface {
	FindAcceptedExact(target, fallback mediatype.MediaType) (mediatype.MediaType, error)
}

// PlainTextReader decodes a chunk publisher into a string by concatenating
// every chunk's bytes, honoring the negotiated charset only to validate it
// is one this reader understands (spec §4.5's charset derivation feeds
// into reader selection via env.Charset()).
type PlainTextReader struct{}

// Accept implements operator.ReaderAcceptor.
func (PlainTextReader) Accept(target operator.TypeDescriptor, env operator.ReaderEnv) bool {
	if target != String {
		return false
	}
	_, err := env.Charset()
	return err == nil
}

// Read implements operator.Reader.
func (PlainTextReader) Read(p reactive.Multi[*chunk.DataChunk], target operator.TypeDescriptor, env operator.ReaderEnv) reactive.Single[any] {
	return reactive.MapSingle(collectBytes(p), func(b []byte) any { return string(b) })
}

func collectBytes(p reactive.Multi[*chunk.DataChunk]) reactive.Single[[]byte] {
	return reactive.Collect(p, func() []byte { return nil },
		func(acc []byte, c *chunk.DataChunk) []byte {
			buf := c.Buffer()
			out := make([]byte, buf.Remaining())
			buf.GetBytes(out)
			c.Release(1)
			return append(acc, out...)
		},
	)
}

// PlainTextWriter encodes a string into a single chunk.
type PlainTextWriter struct{}

// Accept implements operator.WriterAcceptor.
func (PlainTextWriter) Accept(target operator.TypeDescriptor, env operator.WriterEnv) (operator.WriteAck, bool) {
	if target != String {
		return operator.WriteAck{}, false
	}
	n, ok := env.(negotiator)
	if !ok {
		return operator.WriteAck{}, false
	}
	mt, err := n.FindAcceptedExact(textPlain, textPlain)
	if err != nil {
		return operator.WriteAck{}, false
	}
	return operator.WriteAck{ContentType: mt, Writer: operator.NewQualifier("plain-text-writer")}, true
}

// Write implements operator.Writer.
func (PlainTextWriter) Write(content reactive.Single[any], target operator.TypeDescriptor, env operator.WriterEnv, ack operator.WriteAck) reactive.Multi[*chunk.DataChunk] {
	return reactive.FlatMapMany(content, func(v any) reactive.Multi[*chunk.DataChunk] {
		s, ok := v.(string)
		if !ok {
			return reactive.ErrorMulti[*chunk.DataChunk](mferr.IllegalArgument{Message: "plain-text writer received a non-string value"})
		}
		return reactive.JustMulti(chunk.New(buffer.New([]byte(s))))
	})
}
