package operators

import (
	"encoding/json"

	"goa.design/mediaflow/buffer"
	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/mediatype"
	"goa.design/mediaflow/mferr"
	"goa.design/mediaflow/operator"
	"goa.design/mediaflow/reactive"
)

// Int is the TypeDescriptor JSONIntReader/JSONIntWriter read/write: a JSON
// object {"n": <int>}, matching spec §8 scenario S2.
var Int = operator.Describe("int", "json:{n}")

var applicationJSON = mediatype.MustParse("application/json")

type jsonEnvelope struct {
	N int `json:"n"`
}

// JSONIntReader decodes a chunk publisher carrying {"n": <int>} into an int.
type JSONIntReader struct{}

// Accept implements operator.ReaderAcceptor.
func (JSONIntReader) Accept(target operator.TypeDescriptor, env operator.ReaderEnv) bool {
	if target != Int {
		return false
	}
	_, err := env.Charset()
	return err == nil
}

// Read implements operator.Reader.
func (JSONIntReader) Read(p reactive.Multi[*chunk.DataChunk], target operator.TypeDescriptor, env operator.ReaderEnv) reactive.Single[any] {
	return reactive.NewSingle(func(sub reactive.Subscriber[any]) {
		sub.OnSubscribe(reactive.NoopSubscription())
		var received bool
		collectBytes(p).Subscribe(reactive.Funcs[[]byte]{
			Subscribe: func(s reactive.Subscription) { s.Request(1) },
			Next: func(b []byte) {
				received = true
				var env jsonEnvelope
				if err := json.Unmarshal(b, &env); err != nil {
					sub.OnError(mferr.IllegalArgument{Message: "json int reader: " + err.Error()})
					return
				}
				sub.OnNext(env.N)
				sub.OnComplete()
			},
			Err: sub.OnError,
			Complete: func() {
				if received {
					return
				}
				sub.OnError(mferr.IllegalArgument{Message: "json int reader: empty body"})
			},
		})
	})
}

// JSONIntWriter encodes an int as {"n": <int>}.
type JSONIntWriter struct{}

// Accept implements operator.WriterAcceptor.
func (JSONIntWriter) Accept(target operator.TypeDescriptor, env operator.WriterEnv) (operator.WriteAck, bool) {
	if target != Int {
		return operator.WriteAck{}, false
	}
	n, ok := env.(negotiator)
	if !ok {
		return operator.WriteAck{}, false
	}
	mt, err := n.FindAcceptedExact(applicationJSON, applicationJSON)
	if err != nil {
		return operator.WriteAck{}, false
	}
	return operator.WriteAck{ContentType: mt, Writer: operator.NewQualifier("json-int-writer")}, true
}

// Write implements operator.Writer.
func (JSONIntWriter) Write(content reactive.Single[any], target operator.TypeDescriptor, env operator.WriterEnv, ack operator.WriteAck) reactive.Multi[*chunk.DataChunk] {
	return reactive.FlatMapMany(content, func(v any) reactive.Multi[*chunk.DataChunk] {
		n, ok := v.(int)
		if !ok {
			return reactive.ErrorMulti[*chunk.DataChunk](mferr.IllegalArgument{Message: "json int writer received a non-int value"})
		}
		b, err := json.Marshal(jsonEnvelope{N: n})
		if err != nil {
			return reactive.ErrorMulti[*chunk.DataChunk](mferr.Wrap(err))
		}
		return reactive.JustMulti(chunk.New(buffer.New(b)))
	})
}
