package store

import (
	"testing"

	"github.com/coregx/multimatch/ndfa"
)

func TestStoreSharesStartAcrossPatterns(t *testing.T) {
	s := New(Config{})
	if _, err := s.AddPattern(0, "cat"); err != nil {
		t.Fatalf("AddPattern: %v", err)
	}
	if _, err := s.AddPattern(1, "dog"); err != nil {
		t.Fatalf("AddPattern: %v", err)
	}

	start, err := s.Start(ndfa.NewLookSet(true, true))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	cur := start
	for _, r := range "cat" {
		cur, err = s.Next(cur, r, ndfa.NewLookSet(false, false))
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if !cur.IsTerminalFor(s.Arena(), 0) {
		t.Fatal("expected \"cat\" to reach a terminal state for pattern 0")
	}

	cur = start
	for _, r := range "dog" {
		cur, err = s.Next(cur, r, ndfa.NewLookSet(false, false))
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if !cur.IsTerminalFor(s.Arena(), 1) {
		t.Fatal("expected \"dog\" to reach a terminal state for pattern 1")
	}
}

func TestStoreStateCounters(t *testing.T) {
	s := New(Config{})
	if _, err := s.AddPattern(0, "ab"); err != nil {
		t.Fatalf("AddPattern: %v", err)
	}
	if s.NDFAStateCount() == 0 {
		t.Fatal("expected non-zero NDFA state count after adding a pattern")
	}
	if _, err := s.Start(ndfa.NewLookSet(true, true)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.DFAStateCount() == 0 {
		t.Fatal("expected non-zero DFA state count after computing a start state")
	}
}
