package literal

import (
	"bytes"
	"regexp/syntax"

	"github.com/coregx/ahocorasick"
	"github.com/coregx/multimatch/ndfa"
)

// Index is the engine's literal prefilter: Aho-Corasick automatons fused
// from every registered pattern's literal kernels. Scanning a haystack with
// it once locates every position worth starting a fresh automaton attempt
// at, well cheaper than walking the fused NDFA/DFA from every position
// regardless of whether any pattern could plausibly begin a match there.
//
// Kernels come in two strengths. A prefix kernel ("foo" for the pattern
// foo.*bar) pins down exactly where a match can start, so its pattern only
// needs attempts at positions the kernel occurs. An inner kernel ("foo" for
// .*foo) only promises the literal appears somewhere inside every match;
// its pattern can be skipped entirely when the kernel is absent from the
// haystack, but must be tried at every position when it is present. A
// pattern with neither kind of kernel (".*", a case-insensitive pattern,
// a lossy extraction) is always a candidate everywhere.
type Index struct {
	prefix     *ahocorasick.Automaton
	prefixLits []patternLiteral

	inner     *ahocorasick.Automaton
	innerLits []patternLiteral

	always []ndfa.PatternID
}

// Builder accumulates one literal kernel per pattern before Build fuses
// them into a single Index.
type Builder struct {
	extractor  *Extractor
	prefixLits []patternLiteral
	innerLits  []patternLiteral
	always     []ndfa.PatternID
}

type patternLiteral struct {
	id  ndfa.PatternID
	lit []byte
}

// NewBuilder creates a Builder that extracts kernels with the given config.
func NewBuilder(config ExtractorConfig) *Builder {
	return &Builder{extractor: New(config)}
}

// Add extracts id's literal kernel from its parsed pattern: a required
// prefix if one exists, otherwise a required inner literal. A pattern with
// neither — or whose extraction dropped literals and so no longer covers
// every possible match — is recorded as always-candidate instead.
func (b *Builder) Add(id ndfa.PatternID, re *syntax.Regexp) {
	seq := b.extractor.ExtractPrefixes(re)
	if usable(seq) {
		for i := 0; i < seq.Len(); i++ {
			b.prefixLits = append(b.prefixLits, patternLiteral{id: id, lit: seq.Get(i).Bytes})
		}
		return
	}

	seq = b.extractor.ExtractInner(re)
	if usable(seq) {
		for i := 0; i < seq.Len(); i++ {
			b.innerLits = append(b.innerLits, patternLiteral{id: id, lit: seq.Get(i).Bytes})
		}
		return
	}

	b.always = append(b.always, id)
}

// usable reports whether seq can serve as a filtering kernel: non-empty,
// complete coverage, and no zero-length literal (an empty literal matches
// at every position, which filters nothing).
func usable(seq *Seq) bool {
	if seq.IsEmpty() || seq.Lossy() {
		return false
	}
	for i := 0; i < seq.Len(); i++ {
		if len(seq.Get(i).Bytes) == 0 {
			return false
		}
	}
	return true
}

// Build assembles the fused automatons. An Index with no automaton (every
// pattern landed in always) is valid and simply never narrows candidates.
func (b *Builder) Build() (*Index, error) {
	idx := &Index{
		prefixLits: b.prefixLits,
		innerLits:  b.innerLits,
		always:     b.always,
	}

	var err error
	if idx.prefix, err = buildAutomaton(b.prefixLits); err != nil {
		return nil, err
	}
	if idx.inner, err = buildAutomaton(b.innerLits); err != nil {
		return nil, err
	}
	return idx, nil
}

func buildAutomaton(lits []patternLiteral) (*ahocorasick.Automaton, error) {
	if len(lits) == 0 {
		return nil, nil
	}
	ab := ahocorasick.NewBuilder()
	for _, pl := range lits {
		ab.AddPattern(pl.lit)
	}
	return ab.Build()
}

// Plan runs the fused automatons over haystack once. starts maps each byte
// offset where some prefix kernel occurs to the patterns owning a kernel at
// that offset; everywhere lists the patterns that must be tried at every
// position — those with no kernel at all, plus inner-kernel patterns whose
// kernel occurs somewhere in haystack. An inner-kernel pattern whose kernel
// never occurs appears in neither and cannot match anywhere.
//
// The scan advances one byte past each hit's start rather than past its
// end: two kernels may begin at the same or overlapping offsets (cat/cats),
// and the automaton reports only one match per call, so each candidate
// offset is re-verified against every kernel directly.
func (x *Index) Plan(haystack []byte) (starts map[int][]ndfa.PatternID, everywhere []ndfa.PatternID) {
	starts = make(map[int][]ndfa.PatternID)
	if x.prefix != nil {
		at := 0
		for at <= len(haystack) {
			m := x.prefix.Find(haystack, at)
			if m == nil {
				break
			}
			pos := m.Start
			for _, pl := range x.prefixLits {
				if hasPrefixAt(haystack, pos, pl.lit) {
					starts[pos] = appendUniquePattern(starts[pos], pl.id)
				}
			}
			at = pos + 1
		}
	}

	everywhere = append(everywhere, x.always...)
	if x.inner != nil {
		need := make(map[ndfa.PatternID]bool, len(x.innerLits))
		for _, pl := range x.innerLits {
			need[pl.id] = true
		}
		at := 0
		for at <= len(haystack) && len(need) > 0 {
			m := x.inner.Find(haystack, at)
			if m == nil {
				break
			}
			pos := m.Start
			for _, pl := range x.innerLits {
				if need[pl.id] && hasPrefixAt(haystack, pos, pl.lit) {
					delete(need, pl.id)
					everywhere = append(everywhere, pl.id)
				}
			}
			at = pos + 1
		}
	}
	return starts, everywhere
}

func hasPrefixAt(haystack []byte, pos int, lit []byte) bool {
	if pos < 0 || pos+len(lit) > len(haystack) {
		return false
	}
	return bytes.Equal(haystack[pos:pos+len(lit)], lit)
}

func appendUniquePattern(ids []ndfa.PatternID, id ndfa.PatternID) []ndfa.PatternID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
