package sparse

import "testing"

func TestInsertContains(t *testing.T) {
	s := New(16)
	if s.Contains(3) {
		t.Fatal("empty set should not contain 3")
	}
	s.Insert(3)
	s.Insert(7)
	s.Insert(3) // duplicate, no-op
	if !s.Contains(3) || !s.Contains(7) {
		t.Fatal("expected 3 and 7 to be present")
	}
	if s.Len() != 2 {
		t.Fatalf("expected len 2, got %d", s.Len())
	}
}

func TestRemove(t *testing.T) {
	s := New(8)
	s.Insert(1)
	s.Insert(2)
	s.Insert(4)
	s.Remove(2)
	if s.Contains(2) {
		t.Fatal("2 should have been removed")
	}
	if !s.Contains(1) || !s.Contains(4) {
		t.Fatal("removing 2 should not disturb 1 or 4")
	}
	if s.Len() != 2 {
		t.Fatalf("expected len 2, got %d", s.Len())
	}
	s.Remove(99) // out of range, no-op
}

func TestClear(t *testing.T) {
	s := New(4)
	s.Insert(0)
	s.Insert(1)
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty set after clear, got len %d", s.Len())
	}
	if s.Contains(0) {
		t.Fatal("cleared set should not contain 0")
	}
}

func TestSorted(t *testing.T) {
	s := New(32)
	for _, v := range []uint32{9, 1, 5, 1, 3} {
		s.Insert(v)
	}
	got := s.Sorted()
	want := []uint32{1, 3, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSortedDoesNotAliasInternalStorage(t *testing.T) {
	s := New(8)
	s.Insert(2)
	s.Insert(1)
	sorted := s.Sorted()
	s.Insert(0)
	if sorted[0] != 1 {
		t.Fatalf("Sorted() result was mutated by later Insert: %v", sorted)
	}
}
