package literal

import (
	"testing"

	"github.com/coregx/multimatch/ndfa"
)

func TestIndexPlanFindsLiteralKernels(t *testing.T) {
	b := NewBuilder(DefaultConfig())
	b.Add(1, mustParse(t, "hello"))
	b.Add(2, mustParse(t, "world"))

	idx, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	starts, everywhere := idx.Plan([]byte("say hello to the world"))
	if len(everywhere) != 0 {
		t.Fatalf("expected no everywhere-patterns, got %v", everywhere)
	}
	if ids, ok := starts[4]; !ok || !hasPattern(ids, 1) {
		t.Fatalf("expected pattern 1 candidate at offset 4, got %v", starts)
	}
	if ids, ok := starts[17]; !ok || !hasPattern(ids, 2) {
		t.Fatalf("expected pattern 2 candidate at offset 17, got %v", starts)
	}
}

func TestIndexPlanAlwaysForUnkernelledPattern(t *testing.T) {
	b := NewBuilder(DefaultConfig())
	b.Add(1, mustParse(t, ".*"))

	idx, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	starts, everywhere := idx.Plan([]byte("anything"))
	if len(everywhere) != 1 || everywhere[0] != 1 {
		t.Fatalf("got everywhere=%v, want [1]", everywhere)
	}
	if len(starts) != 0 {
		t.Fatalf("expected no positional candidates when only an always-pattern is registered")
	}
}

func TestIndexPlanSharedLiteralMapsToBothOwners(t *testing.T) {
	b := NewBuilder(DefaultConfig())
	b.Add(1, mustParse(t, "cat"))
	b.Add(2, mustParse(t, "cat"))

	idx, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	starts, _ := idx.Plan([]byte("a cat sat"))
	ids := starts[2]
	if !hasPattern(ids, 1) || !hasPattern(ids, 2) {
		t.Fatalf("got %v, want both pattern 1 and 2 at the shared literal's offset", ids)
	}
}

// Two kernels where one is a prefix of the other must both be reported at
// a shared start offset: the automaton only yields one match per position,
// so Plan re-verifies every kernel at each hit.
func TestIndexPlanOverlappingKernelsShareStart(t *testing.T) {
	b := NewBuilder(DefaultConfig())
	b.Add(1, mustParse(t, "cat"))
	b.Add(2, mustParse(t, "cats"))

	idx, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	starts, _ := idx.Plan([]byte("cats"))
	ids := starts[0]
	if !hasPattern(ids, 1) || !hasPattern(ids, 2) {
		t.Fatalf("got starts[0]=%v, want both cat and cats as candidates", ids)
	}
}

// An inner kernel cannot pin a start position (.*foo matches start before
// "foo" does), so its pattern lands in everywhere when the kernel occurs
// and in neither set when it does not.
func TestIndexPlanInnerKernelPresence(t *testing.T) {
	b := NewBuilder(DefaultConfig())
	b.Add(1, mustParse(t, ".*foo"))

	idx, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, everywhere := idx.Plan([]byte("xx foo yy"))
	if !hasPattern(everywhere, 1) {
		t.Fatalf("kernel present: expected pattern 1 in everywhere, got %v", everywhere)
	}

	starts, everywhere := idx.Plan([]byte("nothing here"))
	if hasPattern(everywhere, 1) || len(starts) != 0 {
		t.Fatalf("kernel absent: expected pattern 1 excluded, got starts=%v everywhere=%v", starts, everywhere)
	}
}

func hasPattern(ids []ndfa.PatternID, want ndfa.PatternID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
