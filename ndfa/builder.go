package ndfa

import (
	"sort"
	"unicode/utf8"
)

// Fragment is a reusable piece of NDFA under construction: an arrival state
// (where control enters the fragment) and an ending state (where control
// exits it, before any surrounding composition adds more edges). This is
// the classic Thompson-construction fragment, generalized here to a shared,
// multi-owner Arena instead of a private per-pattern graph.
type Fragment struct {
	Arrival StateID
	Ending  StateID
}

// RuneRange is an inclusive [Lo, Hi] rune range, the unit character classes
// are built from.
type RuneRange struct {
	Lo, Hi rune
}

func labelFragment(a *Arena, owner PatternID, lo, hi rune) Fragment {
	end := a.NewEpsilon(owner)
	start := a.NewLabel(owner, lo, hi, end)
	return Fragment{Arrival: start, Ending: end}
}

// Range builds a fragment matching a single inclusive rune range.
func Range(a *Arena, owner PatternID, lo, hi rune) Fragment {
	return labelFragment(a, owner, lo, hi)
}

// Any builds a fragment matching any single rune (the `.` metacharacter).
func Any(a *Arena, owner PatternID) Fragment {
	return labelFragment(a, owner, 0, utf8.MaxRune)
}

// Literal builds a fragment matching the exact rune sequence of s, one
// label state per rune concatenated in order.
func Literal(a *Arena, owner PatternID, s string) Fragment {
	if s == "" {
		return Epsilon(a, owner)
	}
	var frag Fragment
	first := true
	for _, r := range s {
		f := labelFragment(a, owner, r, r)
		if first {
			frag = f
			first = false
			continue
		}
		frag = Concat(a, frag, f)
	}
	return frag
}

// Epsilon builds a fragment that matches the empty string: arrival and
// ending connected by a single unconditional edge. Used for the empty
// literal and as the identity fragment quantifiers compose against.
func Epsilon(a *Arena, owner PatternID) Fragment {
	start := a.NewEpsilon(owner)
	end := a.NewEpsilon(owner)
	a.AddEpsilon(start, end)
	return Fragment{Arrival: start, Ending: end}
}

// Class builds a fragment matching any rune in ranges, or (if negate) any
// rune NOT in ranges.
//
// A negated class routes every excluded rune to the arena's fail sink
// instead of leaving it without a transition. Two classes in different
// patterns sharing a DFA basis need a rune that's excluded by one pattern's
// class to still produce a defined transition for that pattern (a dead one,
// via the fail sink) so the subset construction can tell "this pattern died
// here" apart from "this pattern was never reachable here" - both matter
// when other patterns in the same basis are still alive.
func Class(a *Arena, owner PatternID, ranges []RuneRange, negate bool) Fragment {
	merged := mergeRanges(ranges)
	arrival := a.NewEpsilon(owner)
	ending := a.NewEpsilon(owner)

	if !negate {
		for _, r := range merged {
			lbl := a.NewLabel(owner, r.Lo, r.Hi, ending)
			a.AddEpsilon(arrival, lbl)
		}
		return Fragment{Arrival: arrival, Ending: ending}
	}

	fail := a.NewFailSink(owner)
	for _, r := range merged {
		lbl := a.NewLabel(owner, r.Lo, r.Hi, fail)
		a.AddEpsilon(arrival, lbl)
	}
	for _, r := range complement(merged) {
		lbl := a.NewLabel(owner, r.Lo, r.Hi, ending)
		a.AddEpsilon(arrival, lbl)
	}
	return Fragment{Arrival: arrival, Ending: ending}
}

// mergeRanges sorts and coalesces overlapping or adjacent ranges.
func mergeRanges(ranges []RuneRange) []RuneRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]RuneRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })

	out := make([]RuneRange, 0, len(sorted))
	cur := sorted[0]
	for _, r := range sorted[1:] {
		if r.Lo <= cur.Hi+1 {
			if r.Hi > cur.Hi {
				cur.Hi = r.Hi
			}
			continue
		}
		out = append(out, cur)
		cur = r
	}
	out = append(out, cur)
	return out
}

// complement returns the gaps in [0, utf8.MaxRune] left by merged, which
// must already be sorted and non-overlapping.
func complement(merged []RuneRange) []RuneRange {
	var out []RuneRange
	next := rune(0)
	for _, r := range merged {
		if r.Lo > next {
			out = append(out, RuneRange{Lo: next, Hi: r.Lo - 1})
		}
		if r.Hi+1 > next {
			next = r.Hi + 1
		}
	}
	if next <= utf8.MaxRune {
		out = append(out, RuneRange{Lo: next, Hi: utf8.MaxRune})
	}
	return out
}

// Concat sequences f1 then f2: f1's ending flows into f2's arrival.
func Concat(a *Arena, f1, f2 Fragment) Fragment {
	a.AddEpsilon(f1.Ending, f2.Arrival)
	return Fragment{Arrival: f1.Arrival, Ending: f2.Ending}
}

// Alternate builds a fragment matching any one of frags.
func Alternate(a *Arena, owner PatternID, frags ...Fragment) Fragment {
	arrival := a.NewEpsilon(owner)
	ending := a.NewEpsilon(owner)
	for _, f := range frags {
		a.AddEpsilon(arrival, f.Arrival)
		a.AddEpsilon(f.Ending, ending)
	}
	return Fragment{Arrival: arrival, Ending: ending}
}

// Question builds `f?`: f may be skipped entirely.
func Question(a *Arena, f Fragment) Fragment {
	a.AddEpsilon(f.Arrival, f.Ending)
	return f
}

// Star builds `f*`: f may repeat zero or more times.
func Star(a *Arena, owner PatternID, f Fragment) Fragment {
	start := a.NewEpsilon(owner)
	end := a.NewEpsilon(owner)
	a.AddEpsilon(start, f.Arrival)
	a.AddEpsilon(start, end)
	a.AddEpsilon(f.Ending, f.Arrival)
	a.AddEpsilon(f.Ending, end)
	return Fragment{Arrival: start, Ending: end}
}

// Plus builds `f+`: f must match at least once, then may repeat.
func Plus(a *Arena, owner PatternID, f Fragment) Fragment {
	end := a.NewEpsilon(owner)
	a.AddEpsilon(f.Ending, f.Arrival)
	a.AddEpsilon(f.Ending, end)
	return Fragment{Arrival: f.Arrival, Ending: end}
}

// AnchorBOL builds a zero-width fragment that only succeeds at a line
// start.
func AnchorBOL(a *Arena, owner PatternID) Fragment {
	start := a.NewEpsilon(owner)
	end := a.NewEpsilon(owner)
	a.AddGuardedEpsilon(start, end, LookBOL)
	return Fragment{Arrival: start, Ending: end}
}

// AnchorEOL builds a zero-width fragment that only succeeds at a line end.
func AnchorEOL(a *Arena, owner PatternID) Fragment {
	start := a.NewEpsilon(owner)
	end := a.NewEpsilon(owner)
	a.AddGuardedEpsilon(start, end, LookEOL)
	return Fragment{Arrival: start, Ending: end}
}

// Terminal marks f's ending state as completing a match for owner.
func Terminal(a *Arena, f Fragment) {
	a.SetTerminal(f.Ending)
}
