// Package buffer implements the cursor-based byte region abstraction the
// pipeline's chunk and content facades are built on (spec §3, §4.1): a
// Buffer with position/limit/mark/capacity cursor semantics, read-only
// views, duplicates that share bytes but not cursor state, and a
// CompositeBuffer that concatenates segments without copying.
//
// Buffers are not safe for concurrent use by more than one owner at a time
// (spec §5: a Buffer is mutated by its single owning task); the only
// thread-safe operation is the shared reference count used by
// Retain/Release, since a duplicate can legitimately outlive the buffer it
// was duplicated from on a different goroutine during an asynchronous
// hand-off.
package buffer

import (
	"fmt"
	"sync/atomic"
)

// Buffer is a logical byte region with position/limit/mark/capacity cursor
// state (spec §3). The zero value is not usable; construct with New.
type Buffer struct {
	data     []byte
	position int
	limit    int
	capacity int
	mark     int
	readOnly bool
	refs     *atomic.Int64
	zeroed   *atomic.Bool
	onZero   *atomic.Pointer[func()]
}

// Option configures a Buffer at construction time.
type Option func(*Buffer)

// WithReleaseCallback registers a callback invoked exactly once, the moment
// the buffer's (shared) reference count transitions to zero.
func WithReleaseCallback(fn func()) Option {
	return func(b *Buffer) { b.SetOnRelease(fn) }
}

// New wraps data as a writable Buffer with position 0, limit and capacity
// equal to len(data), mark unset, and a reference count of 1. New does not
// copy data; the caller must not mutate it outside the returned Buffer
// afterward.
func New(data []byte, opts ...Option) *Buffer {
	b := &Buffer{
		data:     data,
		position: 0,
		limit:    len(data),
		capacity: len(data),
		mark:     -1,
		refs:     &atomic.Int64{},
		zeroed:   &atomic.Bool{},
		onZero:   &atomic.Pointer[func()]{},
	}
	b.refs.Store(1)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// invariant panics with a named invariant message if the cursor state would
// become inconsistent. This is the one place the pipeline panics rather
// than returning an error: cursor violations are programming errors, not
// pipeline-level failures (spec §7).
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("buffer: invariant violated: "+format, args...))
	}
}

func (b *Buffer) checkMutable() {
	if b.readOnly {
		panic("buffer: invariant violated: mutating a read-only buffer")
	}
}

// Position returns the current cursor position.
func (b *Buffer) Position() int { return b.position }

// Limit returns the current limit.
func (b *Buffer) Limit() int { return b.limit }

// Capacity returns the buffer's total capacity.
func (b *Buffer) Capacity() int { return b.capacity }

// Remaining returns the number of bytes between position and limit.
func (b *Buffer) Remaining() int { return b.limit - b.position }

// IsReadOnly reports whether mutating operations are rejected.
func (b *Buffer) IsReadOnly() bool { return b.readOnly }

// SetPosition moves the cursor to an absolute position. Panics if the new
// position is outside [0, limit]; a mark beyond the new position is
// cleared.
func (b *Buffer) SetPosition(n int) *Buffer {
	invariant(n >= 0 && n <= b.limit, "position %d out of [0,%d]", n, b.limit)
	if b.mark > n {
		b.mark = -1
	}
	b.position = n
	return b
}

// SetLimit moves the limit. Panics if the new limit would violate
// position <= limit <= capacity. If position or mark exceed the new limit
// they are clamped/cleared per the standard cursor contract.
func (b *Buffer) SetLimit(n int) *Buffer {
	invariant(n >= 0 && n <= b.capacity, "limit %d out of [0,%d]", n, b.capacity)
	b.limit = n
	if b.position > n {
		b.position = n
	}
	if b.mark > n {
		b.mark = -1
	}
	return b
}

// Mark records the current position so a later Reset can return to it.
func (b *Buffer) Mark() *Buffer {
	b.mark = b.position
	return b
}

// Reset moves the position back to the previously marked position. Panics
// if no mark has been set.
func (b *Buffer) Reset() *Buffer {
	invariant(b.mark >= 0, "reset without a prior mark")
	b.position = b.mark
	return b
}

// Clear resets position to 0 and limit to capacity, and clears the mark.
// The underlying bytes are untouched.
func (b *Buffer) Clear() *Buffer {
	b.position = 0
	b.limit = b.capacity
	b.mark = -1
	return b
}

// Get reads and returns the byte at the current position, advancing it by
// one. Panics if no bytes remain.
func (b *Buffer) Get() byte {
	invariant(b.position < b.limit, "get at position %d with limit %d", b.position, b.limit)
	v := b.data[b.position]
	b.position++
	return v
}

// GetAt reads the byte at the given absolute index without moving the
// cursor.
func (b *Buffer) GetAt(i int) byte {
	invariant(i >= 0 && i < b.limit, "get-at index %d with limit %d", i, b.limit)
	return b.data[i]
}

// GetBytes reads len(dst) bytes into dst starting at the current position,
// advancing the cursor by len(dst).
func (b *Buffer) GetBytes(dst []byte) {
	invariant(b.position+len(dst) <= b.limit, "get %d bytes at position %d with limit %d", len(dst), b.position, b.limit)
	copy(dst, b.data[b.position:b.position+len(dst)])
	b.position += len(dst)
}

// Put writes v at the current position, advancing it by one. Panics on a
// read-only buffer or if no space remains before the limit.
func (b *Buffer) Put(v byte) *Buffer {
	b.checkMutable()
	invariant(b.position < b.limit, "put at position %d with limit %d", b.position, b.limit)
	b.data[b.position] = v
	b.position++
	return b
}

// PutAt writes v at the given absolute index without moving the cursor.
func (b *Buffer) PutAt(i int, v byte) *Buffer {
	b.checkMutable()
	invariant(i >= 0 && i < b.limit, "put-at index %d with limit %d", i, b.limit)
	b.data[i] = v
	return b
}

// PutBytes writes src at the current position, advancing the cursor by
// len(src).
func (b *Buffer) PutBytes(src []byte) *Buffer {
	b.checkMutable()
	invariant(b.position+len(src) <= b.limit, "put %d bytes at position %d with limit %d", len(src), b.position, b.limit)
	copy(b.data[b.position:b.position+len(src)], src)
	b.position += len(src)
	return b
}

// Bytes returns the backing slice between position and limit without
// consuming it. Callers must not retain it past the buffer's release.
func (b *Buffer) Bytes() []byte { return b.data[b.position:b.limit] }

// Duplicate returns a new Buffer sharing the same underlying bytes,
// reference count, and release callback, but with independent cursor state
// (spec §4.1). The duplicate's reference count is incremented by one
// retain. Invariant 6 ("the release callback fires exactly once when the
// refcount first reaches zero") does not depend on which handle's Release
// call causes that transition, so the callback slot is shared rather than
// copied.
func (b *Buffer) Duplicate() *Buffer {
	b.refs.Add(1)
	return &Buffer{
		data:     b.data,
		position: b.position,
		limit:    b.limit,
		capacity: b.capacity,
		mark:     b.mark,
		readOnly: b.readOnly,
		refs:     b.refs,
		zeroed:   b.zeroed,
		onZero:   b.onZero,
	}
}

// AsReadOnly returns a duplicate that rejects mutating operations, sharing
// the same reference count and release callback as b (spec §4.2).
func (b *Buffer) AsReadOnly() *Buffer {
	dup := b.Duplicate()
	dup.readOnly = true
	return dup
}

// SetOnRelease registers a callback invoked exactly once when the shared
// reference count transitions to zero, regardless of which duplicate's
// Release call triggers that transition. It overwrites any callback set
// via WithReleaseCallback or a prior call, visible to every handle sharing
// this buffer's reference count.
func (b *Buffer) SetOnRelease(fn func()) { b.onZero.Store(&fn) }

// Retain increments the shared reference count by n.
func (b *Buffer) Retain(n int64) { b.refs.Add(n) }

// Release decrements the shared reference count by n and, if this call
// causes the count to transition to (or below) zero, invokes the release
// callback exactly once. Release reports whether this call triggered that
// transition.
func (b *Buffer) Release(n int64) bool {
	remaining := b.refs.Add(-n)
	if remaining > 0 {
		return false
	}
	if !b.zeroed.CompareAndSwap(false, true) {
		return false
	}
	if fn := b.onZero.Load(); fn != nil && *fn != nil {
		(*fn)()
	}
	return true
}

// RefCount returns the current shared reference count, for tests and
// diagnostics.
func (b *Buffer) RefCount() int64 { return b.refs.Load() }
