package dfa

import (
	"testing"

	"github.com/coregx/multimatch/ndfa"
)

func TestCacheInternsEqualBasisToSameState(t *testing.T) {
	a := ndfa.NewArena()
	fragCat, err := ndfa.Compile(a, 0, "cat")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	fragDog, err := ndfa.Compile(a, 1, "dog")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	c := NewCache(a, 0)
	start, err := c.Start([]uint32{uint32(fragCat.Arrival), uint32(fragDog.Arrival)}, ndfa.NewLookSet(true, true))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	s1, err := c.Next(start, 'c', ndfa.NewLookSet(false, false))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	s2, err := c.Next(start, 'c', ndfa.NewLookSet(false, false))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if s1.ID() != s2.ID() {
		t.Fatalf("expected identical transitions to intern to the same state, got %d and %d", s1.ID(), s2.ID())
	}
	if c.Size() != 2 {
		t.Fatalf("expected 2 interned states (start, after-c), got %d", c.Size())
	}
}

func TestCacheTransitionsDriveMatchToTerminal(t *testing.T) {
	a := ndfa.NewArena()
	frag, err := ndfa.Compile(a, 0, "cat")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	c := NewCache(a, 0)
	cur, err := c.Start([]uint32{uint32(frag.Arrival)}, ndfa.NewLookSet(true, true))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, r := range "cat" {
		cur, err = c.Next(cur, r, ndfa.NewLookSet(false, false))
		if err != nil {
			t.Fatalf("Next(%q): %v", r, err)
		}
	}
	if !cur.IsTerminalFor(a, 0) {
		t.Fatal("expected state after consuming \"cat\" to be terminal for pattern 0")
	}
}

func TestCacheDeadStateOnMismatch(t *testing.T) {
	a := ndfa.NewArena()
	frag, err := ndfa.Compile(a, 0, "cat")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	c := NewCache(a, 0)
	cur, _ := c.Start([]uint32{uint32(frag.Arrival)}, ndfa.NewLookSet(true, true))
	cur, err = c.Next(cur, 'x', ndfa.NewLookSet(false, false))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !cur.IsDead() {
		t.Fatal("expected dead state after mismatching input")
	}
}

func TestCacheReportsFullWhenCapacityExceeded(t *testing.T) {
	a := ndfa.NewArena()
	frag, err := ndfa.Compile(a, 0, "a*b*c*d*")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	c := NewCache(a, 1)
	_, err = c.Start([]uint32{uint32(frag.Arrival)}, ndfa.NewLookSet(true, true))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = c.Next(c.ByID(0), 'a', ndfa.NewLookSet(false, false))
	if err == nil {
		t.Fatal("expected ErrCacheFull once capacity of 1 is exceeded")
	}
}
