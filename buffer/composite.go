package buffer

import "fmt"

// CompositeBuffer represents an ordered list of segments whose logical view
// is their concatenation (spec §4.1). Locating the segment owning an
// absolute offset is a linear scan — the corpus's own framing/message
// helpers never manage more than a handful of segments per message, so the
// O(n) scan spec §4.1 explicitly permits is the right trade for simplicity
// here.
type CompositeBuffer struct {
	segments []*Buffer
	readOnly bool
}

// NewComposite builds a CompositeBuffer over the given segments, in order.
// NewComposite takes ownership of the segment slice; callers should not
// mutate it afterward.
func NewComposite(segments ...*Buffer) *CompositeBuffer {
	return &CompositeBuffer{segments: segments}
}

// Len returns the logical length: the sum of each segment's remaining
// bytes.
func (c *CompositeBuffer) Len() int {
	n := 0
	for _, s := range c.segments {
		n += s.Remaining()
	}
	return n
}

// Segments returns the current ordered segment list. The returned slice
// must not be mutated by the caller.
func (c *CompositeBuffer) Segments() []*Buffer { return c.segments }

// IsReadOnly reports whether Put/Delete are rejected.
func (c *CompositeBuffer) IsReadOnly() bool { return c.readOnly }

func (c *CompositeBuffer) checkMutable() {
	if c.readOnly {
		panic("composite buffer: invariant violated: mutating a read-only composite")
	}
}

// Put appends segment to the end of the composite.
func (c *CompositeBuffer) Put(segment *Buffer) *CompositeBuffer {
	c.checkMutable()
	c.segments = append(c.segments, segment)
	return c
}

// PutAt inserts segment so its first byte lands at absolute logical offset.
// offset must fall on a segment boundary or within [0, Len()]; inserting
// strictly inside an existing segment's range splits that segment into a
// prefix/suffix pair of read-only-preserving duplicates around the
// insertion point (spec §9's open question: the exact interleaving of
// Delete and Put is resolved by mirroring this split-on-insert behavior
// consistently, see DESIGN.md).
func (c *CompositeBuffer) PutAt(offset int, segment *Buffer) *CompositeBuffer {
	c.checkMutable()
	if offset < 0 || offset > c.Len() {
		panic(fmt.Sprintf("composite buffer: invariant violated: put-at offset %d out of [0,%d]", offset, c.Len()))
	}
	idx, segOff := c.locate(offset)
	switch {
	case idx == len(c.segments):
		c.segments = append(c.segments, segment)
	case segOff == 0:
		c.segments = append(c.segments[:idx], append([]*Buffer{segment}, c.segments[idx:]...)...)
	default:
		before, after := splitSegment(c.segments[idx], segOff)
		rest := append([]*Buffer{before, segment, after}, c.segments[idx+1:]...)
		c.segments = append(c.segments[:idx], rest...)
	}
	return c
}

// Get returns the byte at absolute logical offset i.
func (c *CompositeBuffer) Get(i int) byte {
	idx, segOff := c.locate(i)
	if idx >= len(c.segments) {
		panic(fmt.Sprintf("composite buffer: invariant violated: get index %d with length %d", i, c.Len()))
	}
	seg := c.segments[idx]
	return seg.GetAt(seg.Position() + segOff)
}

// Delete removes the logical range [offset, offset+length) by splitting
// the segments at its boundaries and dropping whatever falls fully inside,
// without copying bytes.
func (c *CompositeBuffer) Delete(offset, length int) *CompositeBuffer {
	c.checkMutable()
	if length <= 0 {
		return c
	}
	total := c.Len()
	if offset < 0 || offset+length > total {
		panic(fmt.Sprintf("composite buffer: invariant violated: delete [%d,%d) out of [0,%d]", offset, offset+length, total))
	}

	startIdx, startOff := c.locate(offset)
	endIdx, endOff := c.locate(offset + length)

	// locate returns segOff = 0 whenever the boundary falls exactly between
	// segments (or at the very end), so startOff > 0 is precisely "segment
	// startIdx is partially retained as a prefix" and endOff > 0 is
	// precisely "segment endIdx is partially retained as a suffix". When
	// startIdx == endIdx both checks apply to the same original segment,
	// producing its non-overlapping retained prefix and suffix.
	var result []*Buffer
	result = append(result, c.segments[:startIdx]...)
	if startOff > 0 {
		result = append(result, subSegment(c.segments[startIdx], 0, startOff))
	}
	if endOff > 0 {
		result = append(result, subSegment(c.segments[endIdx], endOff, c.segments[endIdx].Remaining()))
		result = append(result, c.segments[endIdx+1:]...)
	} else {
		result = append(result, c.segments[endIdx:]...)
	}

	c.segments = result
	return c
}

// locate returns the index of the segment containing absolute logical
// offset and the offset within that segment. If offset equals the
// composite's total length, it returns (len(segments), 0).
func (c *CompositeBuffer) locate(offset int) (idx, segOff int) {
	remaining := offset
	for i, s := range c.segments {
		n := s.Remaining()
		if remaining < n {
			return i, remaining
		}
		remaining -= n
	}
	return len(c.segments), 0
}

// subSegment returns a duplicate of seg narrowed to the relative [from, to)
// range (relative to seg's own position/limit window).
func subSegment(seg *Buffer, from, to int) *Buffer {
	dup := seg.Duplicate()
	base := dup.Position()
	dup.SetLimit(base + to)
	dup.SetPosition(base + from)
	return dup
}

// splitSegment splits seg at relative offset into two duplicates covering
// [0, off) and [off, Remaining()).
func splitSegment(seg *Buffer, off int) (before, after *Buffer) {
	return subSegment(seg, 0, off), subSegment(seg, off, seg.Remaining())
}

// AsReadOnly returns a CompositeBuffer over read-only duplicates of every
// segment (spec §4.1: "read-only composite is a composite of read-only
// segments").
func (c *CompositeBuffer) AsReadOnly() *CompositeBuffer {
	segs := make([]*Buffer, len(c.segments))
	for i, s := range c.segments {
		segs[i] = s.AsReadOnly()
	}
	return &CompositeBuffer{segments: segs, readOnly: true}
}
