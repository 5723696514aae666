package multimatch_test

import (
	"reflect"
	"sort"
	"testing"

	"github.com/coregx/multimatch"
	"github.com/coregx/multimatch/buffer"
)

type recorded struct {
	start, end int
	text       string
}

func collect(t *testing.T, m *multimatch.Matcher, pattern string, dst *[]recorded) {
	t.Helper()
	_, err := m.Add(pattern, func(buf buffer.Buffer, start, end int) {
		*dst = append(*dst, recorded{start, end, buf.Substring(start, end+1)})
	})
	if err != nil {
		t.Fatalf("Add(%q): %v", pattern, err)
	}
}

func sortRecorded(rs []recorded) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].start < rs[j].start })
}

func newMatcher(t *testing.T) *multimatch.Matcher {
	t.Helper()
	m, err := multimatch.New(multimatch.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// Dominance is per pattern: cat and cats both commit over "cats", the
// shorter pattern's match is not suppressed by the longer pattern's.
func TestOverlappingPatternsCommitIndependently(t *testing.T) {
	m := newMatcher(t)
	var cat, cats []recorded
	collect(t, m, "cat", &cat)
	collect(t, m, "cats", &cats)

	if err := m.Match(buffer.NewStringBuffer("cats")); err != nil {
		t.Fatalf("Match: %v", err)
	}

	if want := []recorded{{0, 2, "cat"}}; !reflect.DeepEqual(cat, want) {
		t.Fatalf("cat commits = %v, want %v", cat, want)
	}
	if want := []recorded{{0, 3, "cats"}}; !reflect.DeepEqual(cats, want) {
		t.Fatalf("cats commits = %v, want %v", cats, want)
	}
}

// a+ over "aaaab" is one maximal match, not four overlapping ones.
func TestMaximalMunch(t *testing.T) {
	m := newMatcher(t)
	var got []recorded
	collect(t, m, "a+", &got)

	if err := m.Match(buffer.NewStringBuffer("aaaab")); err != nil {
		t.Fatalf("Match: %v", err)
	}
	if want := []recorded{{0, 3, "aaaa"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("commits = %v, want %v", got, want)
	}
}

// The digit run wins where it applies; "." still fires once per
// character since each pattern dominates only its own candidates.
func TestMixedSpecificityPatterns(t *testing.T) {
	m := newMatcher(t)
	var digits, any []recorded
	collect(t, m, "[0-9]+", &digits)
	collect(t, m, ".", &any)

	if err := m.Match(buffer.NewStringBuffer("a12b")); err != nil {
		t.Fatalf("Match: %v", err)
	}

	if want := []recorded{{1, 2, "12"}}; !reflect.DeepEqual(digits, want) {
		t.Fatalf("digits commits = %v, want %v", digits, want)
	}

	sortRecorded(any)
	want := []recorded{{0, 0, "a"}, {1, 1, "1"}, {2, 2, "2"}, {3, 3, "b"}}
	if !reflect.DeepEqual(any, want) {
		t.Fatalf(". commits = %v, want %v", any, want)
	}
}

// foo|bar over "foobar" commits two disjoint matches.
func TestAlternationDisjointMatches(t *testing.T) {
	m := newMatcher(t)
	var got []recorded
	collect(t, m, "foo|bar", &got)

	if err := m.Match(buffer.NewStringBuffer("foobar")); err != nil {
		t.Fatalf("Match: %v", err)
	}

	sortRecorded(got)
	want := []recorded{{0, 2, "foo"}, {3, 5, "bar"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("commits = %v, want %v", got, want)
	}
}

// A negated class run is split by the excluded character.
func TestNegatedClassRuns(t *testing.T) {
	m := newMatcher(t)
	var got []recorded
	collect(t, m, "[^a]+", &got)

	if err := m.Match(buffer.NewStringBuffer("xxxaxx")); err != nil {
		t.Fatalf("Match: %v", err)
	}

	sortRecorded(got)
	want := []recorded{{0, 2, "xxx"}, {4, 5, "xx"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("commits = %v, want %v", got, want)
	}
}

// The same patterns and input produce identical commits whether the
// literal prefilter is enabled or disabled.
func TestPrefilterParity(t *testing.T) {
	text := "the quick fox is lazy, a quick lazy fox"

	run := func(cfg multimatch.Config) []recorded {
		m, err := multimatch.New(cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		var got []recorded
		collect(t, m, "quick", &got)
		var lazy []recorded
		collect(t, m, "lazy", &lazy)
		if err := m.Match(buffer.NewStringBuffer(text)); err != nil {
			t.Fatalf("Match: %v", err)
		}
		got = append(got, lazy...)
		sortRecorded(got)
		return got
	}

	withPrefilter := run(multimatch.DefaultConfig())
	withoutPrefilter := run(multimatch.Config{DisablePrefilter: true})

	if !reflect.DeepEqual(withPrefilter, withoutPrefilter) {
		t.Fatalf("prefilter changed the committed set:\nwith:    %v\nwithout: %v", withPrefilter, withoutPrefilter)
	}
	if len(withPrefilter) != 4 {
		t.Fatalf("got %d commits, want 4 (quick x2, lazy x2)", len(withPrefilter))
	}
}

// Adding then immediately removing a pattern leaves results identical to
// never having added it.
func TestAddThenRemoveIsNoOp(t *testing.T) {
	m := newMatcher(t)
	var base []recorded
	collect(t, m, "foo", &base)

	reg, err := m.Add("bar", func(buf buffer.Buffer, start, end int) {
		t.Fatalf("removed pattern's callback fired unexpectedly")
	})
	if err != nil {
		t.Fatalf("Add(bar): %v", err)
	}
	m.Remove(reg)

	if err := m.Match(buffer.NewStringBuffer("foo bar")); err != nil {
		t.Fatalf("Match: %v", err)
	}
	if want := []recorded{{0, 2, "foo"}}; !reflect.DeepEqual(base, want) {
		t.Fatalf("commits = %v, want %v", base, want)
	}
}

// Multiple callbacks on the same source both receive every match; the
// pattern is compiled once regardless.
func TestMultipleCallbacksSameSource(t *testing.T) {
	m := newMatcher(t)
	var a, b []recorded
	collect(t, m, "foo", &a)
	collect(t, m, "foo", &b)

	if err := m.Match(buffer.NewStringBuffer("foo")); err != nil {
		t.Fatalf("Match: %v", err)
	}
	want := []recorded{{0, 2, "foo"}}
	if !reflect.DeepEqual(a, want) || !reflect.DeepEqual(b, want) {
		t.Fatalf("a=%v b=%v, want both %v", a, b, want)
	}
}

// Empty input produces no callbacks.
func TestEmptyInputNoCallbacks(t *testing.T) {
	m := newMatcher(t)
	var got []recorded
	collect(t, m, "a+", &got)

	if err := m.Match(buffer.NewStringBuffer("")); err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want no commits on empty input", got)
	}
}

// A malformed pattern reports a *ParseError and leaves the Matcher
// otherwise unaffected.
func TestAddParseError(t *testing.T) {
	m := newMatcher(t)
	_, err := m.Add("a(", nil)
	if err == nil {
		t.Fatalf("expected a ParseError for an unterminated group")
	}
	var pe *multimatch.ParseError
	if ok := asParseError(err, &pe); !ok {
		t.Fatalf("got %T, want *multimatch.ParseError", err)
	}
}

func asParseError(err error, target **multimatch.ParseError) bool {
	pe, ok := err.(*multimatch.ParseError)
	if ok {
		*target = pe
	}
	return ok
}

// Running Match twice over the same content with an unchanged pattern
// set commits identical sequences.
func TestMatchIsDeterministicAcrossRuns(t *testing.T) {
	m := newMatcher(t)
	var got []recorded
	collect(t, m, "[ab]+", &got)

	if err := m.Match(buffer.NewStringBuffer("xabba ab x")); err != nil {
		t.Fatalf("first Match: %v", err)
	}
	first := append([]recorded(nil), got...)
	got = got[:0]

	if err := m.Match(buffer.NewStringBuffer("xabba ab x")); err != nil {
		t.Fatalf("second Match: %v", err)
	}
	if !reflect.DeepEqual(first, got) {
		t.Fatalf("runs differ:\nfirst:  %v\nsecond: %v", first, got)
	}
}

// Zero-length matches are never committed: a? reports only the positions
// where an "a" was actually consumed.
func TestZeroLengthMatchesNeverCommitted(t *testing.T) {
	m := newMatcher(t)
	var got []recorded
	collect(t, m, "a?", &got)

	if err := m.Match(buffer.NewStringBuffer("bab")); err != nil {
		t.Fatalf("Match: %v", err)
	}
	if want := []recorded{{1, 1, "a"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("commits = %v, want %v", got, want)
	}
}

// A pattern with only an inner literal kernel (the kernel cannot pin the
// match's start position) must still match from its true start with the
// prefilter enabled.
func TestInnerKernelPrefilterParity(t *testing.T) {
	text := "xx foo yy"

	run := func(cfg multimatch.Config) []recorded {
		m, err := multimatch.New(cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		var got []recorded
		collect(t, m, "[a-z ]*foo", &got)
		if err := m.Match(buffer.NewStringBuffer(text)); err != nil {
			t.Fatalf("Match: %v", err)
		}
		return got
	}

	withPrefilter := run(multimatch.DefaultConfig())
	withoutPrefilter := run(multimatch.Config{DisablePrefilter: true})
	if !reflect.DeepEqual(withPrefilter, withoutPrefilter) {
		t.Fatalf("prefilter changed the committed set:\nwith:    %v\nwithout: %v", withPrefilter, withoutPrefilter)
	}
	if want := []recorded{{0, 5, "xx foo"}}; !reflect.DeepEqual(withPrefilter, want) {
		t.Fatalf("commits = %v, want %v", withPrefilter, want)
	}
}

// Line anchors bind to line boundaries, not only to the text's edges.
func TestLineAnchors(t *testing.T) {
	m := newMatcher(t)
	var got []recorded
	collect(t, m, "^foo", &got)

	if err := m.Match(buffer.NewStringBuffer("foo\nbarfoo\nfoo")); err != nil {
		t.Fatalf("Match: %v", err)
	}
	sortRecorded(got)
	want := []recorded{{0, 2, "foo"}, {11, 13, "foo"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("commits = %v, want %v", got, want)
	}
}

func TestStatsReflectRegisteredPatterns(t *testing.T) {
	m := newMatcher(t)
	var got []recorded
	collect(t, m, "abc", &got)

	stats := m.Stats()
	if stats.Patterns != 1 {
		t.Fatalf("Stats().Patterns = %d, want 1", stats.Patterns)
	}
	if stats.Shards < 1 {
		t.Fatalf("Stats().Shards = %d, want >= 1", stats.Shards)
	}
	if stats.NDFAStateCount == 0 {
		t.Fatal("expected non-zero NDFA state count after Add")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	m := newMatcher(t)
	m.Shutdown()
	m.Shutdown()
}
