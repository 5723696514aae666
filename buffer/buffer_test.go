package buffer

import "testing"

func TestByteBufferBasic(t *testing.T) {
	b := NewByteBuffer([]byte("cats"))
	var got []rune
	var positions []int
	for b.HasNext() {
		got = append(got, b.Next())
		positions = append(positions, b.CurrentPos())
	}
	want := []rune{'c', 'a', 't', 's'}
	for i, r := range want {
		if got[i] != r {
			t.Fatalf("rune %d: got %q want %q", i, got[i], r)
		}
	}
	wantPos := []int{0, 1, 2, 3}
	for i, p := range wantPos {
		if positions[i] != p {
			t.Fatalf("pos %d: got %d want %d", i, positions[i], p)
		}
	}
}

func TestByteBufferUnicode(t *testing.T) {
	// "é" is 2 bytes in UTF-8; positions must reflect byte offsets.
	b := NewByteBuffer([]byte("aéb"))
	r1 := b.Next()
	p1 := b.CurrentPos()
	r2 := b.Next()
	p2 := b.CurrentPos()
	r3 := b.Next()
	p3 := b.CurrentPos()
	if r1 != 'a' || p1 != 0 {
		t.Fatalf("first rune: got %q at %d", r1, p1)
	}
	if r2 != 'é' || p2 != 1 {
		t.Fatalf("second rune: got %q at %d", r2, p2)
	}
	if r3 != 'b' || p3 != 3 {
		t.Fatalf("third rune: got %q at %d", r3, p3)
	}
	if b.HasNext() {
		t.Fatal("expected buffer exhausted")
	}
}

func TestByteBufferClone(t *testing.T) {
	b := NewByteBuffer([]byte("hello"))
	b.Next()
	b.Next()
	clone := b.Clone()
	// Advance the original; clone must not see it.
	b.Next()
	if clone.CurrentPos() != 1 {
		t.Fatalf("clone should be frozen at pos 1, got %d", clone.CurrentPos())
	}
	if !clone.HasNext() {
		t.Fatal("clone should still have input remaining")
	}
	r := clone.Next()
	if r != 'l' {
		t.Fatalf("clone.Next() = %q, want 'l'", r)
	}
}

func TestByteBufferSubstring(t *testing.T) {
	b := NewByteBuffer([]byte("hello world"))
	if got := b.Substring(0, 5); got != "hello" {
		t.Fatalf("Substring(0,5) = %q", got)
	}
	if got := b.Substring(6, 11); got != "world" {
		t.Fatalf("Substring(6,11) = %q", got)
	}
}

func TestByteBufferSubstringPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range substring")
		}
	}()
	b := NewByteBuffer([]byte("hi"))
	b.Substring(0, 99)
}

func TestStringBufferMatchesByteBuffer(t *testing.T) {
	sb := NewStringBuffer("cats")
	bb := NewByteBuffer([]byte("cats"))
	for sb.HasNext() {
		if !bb.HasNext() {
			t.Fatal("StringBuffer and ByteBuffer disagree on length")
		}
		if sb.Next() != bb.Next() {
			t.Fatal("StringBuffer and ByteBuffer disagree on decoded runes")
		}
	}
}

func TestSnapshotDoesNotDisturbCursor(t *testing.T) {
	b := NewByteBuffer([]byte("abc"))
	b.Next()
	snap := b.Snapshot()
	if string(snap) != "abc" {
		t.Fatalf("Snapshot() = %q, want full buffer", snap)
	}
	if b.CurrentPos() != 0 {
		t.Fatalf("Snapshot should not move cursor, pos = %d", b.CurrentPos())
	}
}
