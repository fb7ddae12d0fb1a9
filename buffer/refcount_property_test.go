package buffer_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"goa.design/mediaflow/buffer"
)

// TestRefcountReleaseProperty verifies invariant 6 (spec §8): for any
// buffer created with a release callback, the callback fires exactly
// once, precisely when the total released count first reaches the total
// retained count (including the initial implicit retain of 1).
func TestRefcountReleaseProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("release callback fires exactly once at the zero transition", prop.ForAll(
		func(extraRetains uint8) bool {
			totalRefs := int64(extraRetains) + 1

			var fired int
			b := buffer.New([]byte("x"), buffer.WithReleaseCallback(func() { fired++ }))
			for i := uint8(0); i < extraRetains; i++ {
				b.Retain(1)
			}

			for i := int64(0); i < totalRefs-1; i++ {
				b.Release(1)
				if fired != 0 {
					return false // fired before the true zero transition
				}
			}
			b.Release(1)
			if fired != 1 {
				return false
			}
			// Any further release must not re-fire.
			b.Release(1)
			return fired == 1
		},
		gen.UInt8Range(0, 20),
	))

	properties.TestingRun(t)
}
