package operators

import (
	"goa.design/mediaflow/buffer"
	"goa.design/mediaflow/chunk"
	"goa.design/mediaflow/reactive"
)

// Uppercase is a Filter that rewrites ASCII lowercase letters to uppercase
// in every chunk's bytes, leaving digits and punctuation untouched (spec §8
// scenario S2). It never opts out.
type Uppercase struct{}

// Apply implements operator.Filter.
func (Uppercase) Apply(p reactive.Multi[*chunk.DataChunk]) (reactive.Multi[*chunk.DataChunk], bool) {
	return reactive.MapMulti(p, upperChunk), true
}

func upperChunk(c *chunk.DataChunk) *chunk.DataChunk {
	buf := c.Buffer()
	n := buf.Remaining()
	src := make([]byte, n)
	buf.GetBytes(src)
	for i, b := range src {
		if b >= 'a' && b <= 'z' {
			src[i] = b - ('a' - 'A')
		}
	}
	c.Release(1)
	return chunk.New(buffer.New(src))
}
