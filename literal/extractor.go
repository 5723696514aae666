// Package literal extracts literal substrings from parsed regex patterns
// for the matching engine's C9 prefilter: a required literal run tells the
// prefilter where a pattern's match could possibly start, without running
// its automaton at every input position.
package literal

import (
	"regexp/syntax"
)

// ExtractorConfig configures literal extraction limits.
//
// These limits prevent excessive extraction from complex patterns:
//   - MaxLiterals: prevents memory bloat from alternations like (a|b|c|d|...)
//   - MaxLiteralLen: prevents extracting very long literals that hurt cache locality
//   - MaxClassSize: prevents expanding large character classes like [a-z]
type ExtractorConfig struct {
	// MaxLiterals limits the maximum number of literals to extract.
	// For patterns with many alternations like (a|b|c|...|z), this prevents
	// unbounded memory growth. Default: 64.
	MaxLiterals int

	// MaxLiteralLen limits the maximum length of each extracted literal.
	// Very long literals hurt prefilter performance due to cache misses.
	// Default: 64.
	MaxLiteralLen int

	// MaxClassSize limits the size of character classes to expand.
	// Character classes like [abc] are expanded to ["a", "b", "c"].
	// Large classes like [a-z] (26 chars) are NOT expanded if > MaxClassSize.
	// Default: 10.
	MaxClassSize int

	// CrossProductLimit is the maximum total number of intermediate literals allowed
	// during cross-product expansion in OpConcat traversal. When a concatenation
	// contains small character classes (e.g., ag[act]gtaaa), the extractor computes
	// the cross-product of accumulated literals with each class expansion.
	// This limit prevents combinatorial explosion from patterns with many classes.
	// Default: 250.
	CrossProductLimit int
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:       64,
		MaxLiteralLen:     64,
		MaxClassSize:      10,
		CrossProductLimit: 250,
	}
}

// Extractor extracts literal sequences from a parsed regex AST
// (regexp/syntax.Regexp) — prefix literals that must appear at the start of
// any match, and inner literals that must appear somewhere. These feed the
// prefilter's Aho-Corasick kernel index (see Index in kernel.go).
type Extractor struct {
	config ExtractorConfig
}

// New creates a new Extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// ExtractPrefixes extracts prefix literals from the regex: literals that
// must appear at the start of any match.
//
// Examples:
//
//	"hello"         → ["hello"]
//	"(foo|bar)"     → ["foo", "bar"]
//	"[abc]test"     → ["atest", "btest", "ctest"]
//	"hello.*world"  → ["hello"]
//	".*foo"         → [] (no prefix requirement)
func (e *Extractor) ExtractPrefixes(re *syntax.Regexp) *Seq {
	return e.extractPrefixes(re, 0)
}

func (e *Extractor) extractPrefixes(re *syntax.Regexp, depth int) *Seq {
	// Skip case-insensitive patterns because prefilter does case-sensitive
	// byte matching, which would miss matches.
	if depth > 100 || re.Flags&syntax.FoldCase != 0 {
		return NewSeq()
	}

	switch re.Op {
	case syntax.OpLiteral:
		bytes := runeSliceToBytes(re.Rune)
		complete := true
		if len(bytes) > e.config.MaxLiteralLen {
			bytes = bytes[:e.config.MaxLiteralLen]
			complete = false
		}
		return NewSeq(NewLiteral(bytes, complete))

	case syntax.OpConcat:
		return e.extractPrefixesConcat(re, depth)

	case syntax.OpAlternate:
		// If ANY alternative has no prefix requirement, neither does the
		// whole alternation.
		var allLits []Literal
		truncated := false
		for _, sub := range re.Sub {
			seq := e.extractPrefixes(sub, depth+1)
			if seq.IsEmpty() {
				return NewSeq()
			}
			if seq.Lossy() {
				truncated = true
			}
			for i := 0; i < seq.Len(); i++ {
				allLits = append(allLits, seq.Get(i))
				if len(allLits) >= e.config.MaxLiterals {
					truncated = true
					break
				}
			}
			if truncated {
				break
			}
		}
		out := NewSeq(allLits...)
		if truncated {
			for i := range allLits {
				allLits[i].Complete = false
			}
			out.MarkLossy()
		}
		return out

	case syntax.OpCharClass:
		return e.expandCharClass(re)

	case syntax.OpCapture:
		if len(re.Sub) == 0 {
			return NewSeq()
		}
		return e.extractPrefixes(re.Sub[0], depth+1)

	case syntax.OpStar, syntax.OpQuest, syntax.OpPlus:
		return NewSeq()

	case syntax.OpBeginLine, syntax.OpBeginText, syntax.OpEndLine, syntax.OpEndText:
		return NewSeq()

	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return NewSeq()

	default:
		return NewSeq()
	}
}

// extractPrefixesConcat handles cross-product literal expansion for
// OpConcat: literals from successive sub-expressions are concatenated
// pairwise until a non-literal piece (wildcard, repetition, ...) is hit.
func (e *Extractor) extractPrefixesConcat(re *syntax.Regexp, depth int) *Seq {
	if len(re.Sub) == 0 {
		return NewSeq()
	}

	startIdx := 0
	for startIdx < len(re.Sub) {
		op := re.Sub[startIdx].Op
		if op == syntax.OpBeginLine || op == syntax.OpBeginText {
			startIdx++
		} else {
			break
		}
	}
	if startIdx >= len(re.Sub) {
		return NewSeq()
	}

	crossLimit := e.config.CrossProductLimit
	if crossLimit <= 0 {
		crossLimit = 250
	}

	acc := NewSeq(NewLiteral([]byte{}, true))

	for i := startIdx; i < len(re.Sub); i++ {
		if !e.hasAnyExact(acc) {
			break
		}

		sub := re.Sub[i]
		contribution := e.concatSubContribution(sub, depth)

		if contribution == nil {
			e.markAllInexact(acc)
			break
		}

		acc.CrossForward(contribution)

		if acc.Len() > crossLimit || acc.Len() > e.config.MaxLiterals {
			acc = e.handleCrossProductOverflow(acc)
			break
		}

		e.enforceMaxLiteralLen(acc)
	}

	if acc.Len() == 1 && len(acc.Get(0).Bytes) == 0 {
		return NewSeq()
	}

	return acc
}

// concatSubContribution returns sub's contribution to cross-product
// expansion, or nil if sub is not expandable (wildcard, repetition, ...).
func (e *Extractor) concatSubContribution(sub *syntax.Regexp, depth int) *Seq {
	if sub.Flags&syntax.FoldCase != 0 {
		return nil
	}

	switch sub.Op {
	case syntax.OpLiteral:
		b := runeSliceToBytes(sub.Rune)
		return NewSeq(NewLiteral(b, true))

	case syntax.OpCharClass:
		expanded := e.expandCharClass(sub)
		if expanded.IsEmpty() {
			return nil
		}
		return expanded

	case syntax.OpAlternate:
		return e.expandAlternateContribution(sub, depth)

	case syntax.OpCapture:
		if len(sub.Sub) == 0 {
			return nil
		}
		return e.concatSubContribution(sub.Sub[0], depth)

	case syntax.OpRepeat:
		if sub.Min >= 1 && len(sub.Sub) > 0 {
			inner := e.concatSubContribution(sub.Sub[0], depth)
			if inner == nil {
				return nil
			}
			for i := range inner.literals {
				inner.literals[i].Complete = false
			}
			return inner
		}
		return nil

	default:
		return nil
	}
}

// expandAlternateContribution expands an alternation inside a concat into a
// set of literals for cross-product, or nil if any branch isn't expandable.
func (e *Extractor) expandAlternateContribution(alt *syntax.Regexp, depth int) *Seq {
	if alt.Op != syntax.OpAlternate {
		return nil
	}
	var allLits []Literal
	for _, sub := range alt.Sub {
		seq := e.extractPrefixes(sub, depth+1)
		if seq.IsEmpty() || seq.Lossy() {
			return nil
		}
		for i := 0; i < seq.Len(); i++ {
			allLits = append(allLits, seq.Get(i))
			if len(allLits) > e.config.MaxLiterals {
				return nil
			}
		}
	}
	return NewSeq(allLits...)
}

func (e *Extractor) hasAnyExact(s *Seq) bool {
	for i := 0; i < s.Len(); i++ {
		if s.Get(i).Complete {
			return true
		}
	}
	return false
}

func (e *Extractor) markAllInexact(s *Seq) {
	for i := range s.literals {
		s.literals[i].Complete = false
	}
}

func (e *Extractor) enforceMaxLiteralLen(s *Seq) {
	for i := range s.literals {
		if len(s.literals[i].Bytes) > e.config.MaxLiteralLen {
			s.literals[i].Bytes = s.literals[i].Bytes[:e.config.MaxLiteralLen]
			s.literals[i].Complete = false
		}
	}
}

// handleCrossProductOverflow truncates every literal to 4 bytes (enough for
// an Aho-Corasick discriminating prefix), deduplicates, and marks all as
// inexact.
func (e *Extractor) handleCrossProductOverflow(s *Seq) *Seq {
	s.KeepFirstBytes(4)
	e.markAllInexact(s)
	s.Dedup()

	if s.Len() > e.config.MaxLiterals {
		s.literals = s.literals[:e.config.MaxLiterals]
		s.MarkLossy()
	}
	return s
}

// ExtractInner extracts a literal required to appear somewhere in the
// match, not necessarily at the start — useful for patterns like ".*foo.*"
// where ExtractPrefixes finds nothing but foo is still a valid kernel.
func (e *Extractor) ExtractInner(re *syntax.Regexp) *Seq {
	return e.extractInner(re, 0)
}

func (e *Extractor) extractInner(re *syntax.Regexp, depth int) *Seq {
	if depth > 100 || re.Flags&syntax.FoldCase != 0 {
		return NewSeq()
	}

	switch re.Op {
	case syntax.OpLiteral:
		bytes := runeSliceToBytes(re.Rune)
		if len(bytes) > e.config.MaxLiteralLen {
			bytes = bytes[:e.config.MaxLiteralLen]
		}
		return NewSeq(NewLiteral(bytes, false))

	case syntax.OpConcat:
		for _, sub := range re.Sub {
			seq := e.extractInner(sub, depth+1)
			if !seq.IsEmpty() {
				return seq
			}
		}
		return NewSeq()

	case syntax.OpAlternate:
		var allLits []Literal
		lossy := false
		for _, sub := range re.Sub {
			seq := e.extractInner(sub, depth+1)
			if seq.IsEmpty() {
				return NewSeq()
			}
			if seq.Lossy() {
				lossy = true
			}
			for i := 0; i < seq.Len(); i++ {
				allLits = append(allLits, seq.Get(i))
				if len(allLits) >= e.config.MaxLiterals {
					out := NewSeq(allLits...)
					out.MarkLossy()
					return out
				}
			}
		}
		out := NewSeq(allLits...)
		if lossy {
			out.MarkLossy()
		}
		return out

	case syntax.OpCharClass:
		return e.expandCharClass(re)

	case syntax.OpCapture:
		if len(re.Sub) == 0 {
			return NewSeq()
		}
		return e.extractInner(re.Sub[0], depth+1)

	case syntax.OpStar, syntax.OpQuest, syntax.OpPlus:
		return NewSeq()

	case syntax.OpBeginLine, syntax.OpBeginText, syntax.OpEndLine, syntax.OpEndText:
		return NewSeq()

	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return NewSeq()

	default:
		return NewSeq()
	}
}

// expandCharClass expands a small character class to individual-character
// literals. Classes larger than MaxClassSize return an empty Seq instead
// (e.g. [a-z] is 26 runes, over the default limit of 10).
func (e *Extractor) expandCharClass(re *syntax.Regexp) *Seq {
	if re.Op != syntax.OpCharClass {
		return NewSeq()
	}

	count := 0
	for i := 0; i < len(re.Rune); i += 2 {
		lo, hi := re.Rune[i], re.Rune[i+1]
		count += int(hi - lo + 1)
		if count > e.config.MaxClassSize {
			return NewSeq()
		}
	}

	var lits []Literal
	for i := 0; i < len(re.Rune); i += 2 {
		lo, hi := re.Rune[i], re.Rune[i+1]
		for r := lo; r <= hi; r++ {
			bytes := []byte(string(r))
			if len(bytes) > e.config.MaxLiteralLen {
				bytes = bytes[:e.config.MaxLiteralLen]
			}
			lits = append(lits, NewLiteral(bytes, true))
			if len(lits) >= e.config.MaxLiterals {
				out := NewSeq(lits...)
				out.MarkLossy()
				return out
			}
		}
	}

	return NewSeq(lits...)
}

// runeSliceToBytes converts []rune to []byte using UTF-8 encoding.
func runeSliceToBytes(runes []rune) []byte {
	return []byte(string(runes))
}
