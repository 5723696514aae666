// Package buffer provides the random-access and streaming view over input
// text that the matching engine scans characters from.
//
// A Buffer is a cursor: it decodes one rune at a time and reports the byte
// offset the rune started at. Positions are always byte offsets into the
// underlying text, even though the engine steps the automaton rune by rune
// — this keeps position arithmetic consistent with the literal prefilter,
// which scans the same bytes with github.com/coregx/ahocorasick.
package buffer

import (
	"unicode/utf8"
)

// Buffer is a cloneable cursor over input text.
//
// Positions are 0-based byte offsets and strictly non-decreasing as Next is
// called. Substring range errors (start/end outside [0, Len()] or end <
// start) are programmer errors: implementations panic rather than return an
// error.
type Buffer interface {
	// HasNext reports whether any runes remain to be consumed.
	HasNext() bool

	// Next decodes and returns the next rune, advancing the cursor past it.
	// Panics if HasNext() is false.
	Next() rune

	// CurrentPos returns the byte offset of the rune most recently
	// returned by Next (i.e. where that rune started). Before the first
	// call to Next, CurrentPos returns 0.
	CurrentPos() int

	// Substring returns the text in the byte range [start, end), the same
	// half-open convention as Go slicing. A callback reporting a match
	// with inclusive end e reads its text with Substring(start, e+1).
	Substring(start, end int) string

	// Clone returns an independent cursor over the same underlying data,
	// positioned at the same byte offset as the receiver. Advancing the
	// clone does not affect the receiver and vice versa.
	Clone() Buffer

	// Len returns the total length of the underlying text in bytes.
	Len() int

	// Snapshot returns the full underlying text as bytes, for one-shot
	// scans (the literal prefilter, ASCII fast-path detection) that want
	// to look at the whole buffer without disturbing the cursor.
	Snapshot() []byte
}

// ByteBuffer is a Buffer backed by a []byte.
type ByteBuffer struct {
	data []byte
	pos  int // byte offset of the next rune to decode
	last int // byte offset Next last returned
}

// NewByteBuffer creates a ByteBuffer over data. The slice is not copied;
// callers must not mutate it while the buffer (or any of its clones) is in
// use.
func NewByteBuffer(data []byte) *ByteBuffer {
	return &ByteBuffer{data: data}
}

// HasNext implements Buffer.
func (b *ByteBuffer) HasNext() bool {
	return b.pos < len(b.data)
}

// Next implements Buffer.
func (b *ByteBuffer) Next() rune {
	if !b.HasNext() {
		panic("buffer: Next called with no remaining input")
	}
	r, size := utf8.DecodeRune(b.data[b.pos:])
	b.last = b.pos
	b.pos += size
	return r
}

// CurrentPos implements Buffer.
func (b *ByteBuffer) CurrentPos() int {
	return b.last
}

// Substring implements Buffer.
func (b *ByteBuffer) Substring(start, end int) string {
	if start < 0 || end > len(b.data) || start > end {
		panic("buffer: Substring range out of bounds")
	}
	return string(b.data[start:end])
}

// Clone implements Buffer.
func (b *ByteBuffer) Clone() Buffer {
	clone := *b
	return &clone
}

// Len implements Buffer.
func (b *ByteBuffer) Len() int {
	return len(b.data)
}

// Snapshot implements Buffer.
func (b *ByteBuffer) Snapshot() []byte {
	return b.data
}

// StringBuffer is a Buffer backed by a string. It behaves identically to
// ByteBuffer but avoids a []byte conversion when the caller already has a
// string in hand.
type StringBuffer struct {
	data string
	pos  int
	last int
}

// NewStringBuffer creates a StringBuffer over s.
func NewStringBuffer(s string) *StringBuffer {
	return &StringBuffer{data: s}
}

// HasNext implements Buffer.
func (b *StringBuffer) HasNext() bool {
	return b.pos < len(b.data)
}

// Next implements Buffer.
func (b *StringBuffer) Next() rune {
	if !b.HasNext() {
		panic("buffer: Next called with no remaining input")
	}
	r, size := utf8.DecodeRuneInString(b.data[b.pos:])
	b.last = b.pos
	b.pos += size
	return r
}

// CurrentPos implements Buffer.
func (b *StringBuffer) CurrentPos() int {
	return b.last
}

// Substring implements Buffer.
func (b *StringBuffer) Substring(start, end int) string {
	if start < 0 || end > len(b.data) || start > end {
		panic("buffer: Substring range out of bounds")
	}
	return b.data[start:end]
}

// Clone implements Buffer.
func (b *StringBuffer) Clone() Buffer {
	clone := *b
	return &clone
}

// Len implements Buffer.
func (b *StringBuffer) Len() int {
	return len(b.data)
}

// Snapshot implements Buffer.
func (b *StringBuffer) Snapshot() []byte {
	return []byte(b.data)
}
