// Package chunk implements DataChunk (spec §3, §4.2): a reference-counted
// wrapper over a buffer.Buffer carrying transport hints a filter or
// transport stage needs — a flush flag, a release callback, an optional
// write-completion handle, and a stable tracing id. DataChunk ids are
// minted from github.com/google/uuid, the same way the corpus mints
// stable identifiers for runs and tool calls (runtime/agent/stream uses
// string run ids; a chunk is allocated far more often than a run, so we
// fold a uuid down to a uint64 rather than carrying a 36-byte string on
// every chunk).
package chunk

import (
	"encoding/binary"

	"github.com/google/uuid"

	"goa.design/mediaflow/buffer"
)

// WriteFuture is the completion handle signaled once a DataChunk has been
// written to the transport. It mirrors reactive.Future's shape without
// importing the reactive package, since chunk sits below reactive in the
// dependency graph (reactive.Multi[DataChunk] is the transport's chunk
// publisher type) and must not import back up.
type WriteFuture struct {
	done chan error
}

// NewWriteFuture returns an unresolved WriteFuture.
func NewWriteFuture() *WriteFuture { return &WriteFuture{done: make(chan error, 1)} }

// Signal resolves the future. Only the first call has an effect.
func (f *WriteFuture) Signal(err error) {
	select {
	case f.done <- err:
	default:
	}
}

// Wait blocks until Signal is called and returns its error.
func (f *WriteFuture) Wait() error { return <-f.done }

// DataChunk is a reference-counted buffer plus transport hints (spec §3).
// A chunk is owned exclusively by whichever stage currently holds it;
// ownership transfers on hand-off and a chunk is never shared between
// concurrent consumers (spec §3 Ownership).
type DataChunk struct {
	buf       *buffer.Buffer
	flush     bool
	releaseFn func()
	write     *WriteFuture
	id        uint64
}

// Option configures a DataChunk at construction.
type Option func(*DataChunk)

// WithFlush marks the chunk as a flush request.
func WithFlush(flush bool) Option {
	return func(c *DataChunk) { c.flush = flush }
}

// WithReleaseCallback registers a callback invoked exactly once when the
// chunk's buffer reference count transitions to zero.
func WithReleaseCallback(fn func()) Option {
	return func(c *DataChunk) { c.releaseFn = fn }
}

// WithWriteFuture attaches a completion handle signaled once the chunk has
// been written to the transport.
func WithWriteFuture(f *WriteFuture) Option {
	return func(c *DataChunk) { c.write = f }
}

// New builds a DataChunk wrapping buf. The release callback, if any, is
// wired onto the underlying buffer so it fires exactly once when the
// buffer's shared reference count reaches zero (buffer.Buffer already
// provides this zero-crossing guarantee; DataChunk just supplies the
// callback spec §3 says the chunk owns).
func New(buf *buffer.Buffer, opts ...Option) *DataChunk {
	c := &DataChunk{buf: buf, id: newID()}
	for _, opt := range opts {
		opt(c)
	}
	if c.releaseFn != nil {
		fn := c.releaseFn
		buf.SetOnRelease(fn)
	}
	return c
}

func newID() uint64 {
	u := uuid.New()
	return binary.BigEndian.Uint64(u[:8])
}

// Buffer returns the chunk's underlying buffer.
func (c *DataChunk) Buffer() *buffer.Buffer { return c.buf }

// Flush reports whether this chunk carries a flush request.
func (c *DataChunk) Flush() bool { return c.flush }

// WriteFuture returns the chunk's write-completion handle, or nil.
func (c *DataChunk) WriteFuture() *WriteFuture { return c.write }

// ID returns the chunk's stable tracing id.
func (c *DataChunk) ID() uint64 { return c.id }

// IsFlushMarker reports whether this chunk is a flush marker: flush is set
// and the buffer has no remaining bytes (spec §4.2).
func (c *DataChunk) IsFlushMarker() bool {
	return c.flush && c.buf.Remaining() == 0
}

// Duplicate returns a new chunk sharing the buffer's bytes, reference
// count, and release callback (spec §4.2): whichever copy's Release call
// crosses the refcount to zero invokes the callback. The write future, if
// any, is shared so either copy observes the same completion.
func (c *DataChunk) Duplicate() *DataChunk {
	return &DataChunk{
		buf:   c.buf.Duplicate(),
		flush: c.flush,
		write: c.write,
		id:    c.id,
	}
}

// AsReadOnly returns a duplicate whose buffer rejects mutation, sharing the
// same release callback as Duplicate.
func (c *DataChunk) AsReadOnly() *DataChunk {
	return &DataChunk{
		buf:   c.buf.AsReadOnly(),
		flush: c.flush,
		write: c.write,
		id:    c.id,
	}
}

// Release decrements the underlying buffer's reference count by n. The
// release callback registered at construction fires exactly once, on
// whichever Release call (on this chunk or a duplicate) observes the
// zero-transition.
func (c *DataChunk) Release(n int64) {
	c.buf.Release(n)
}
