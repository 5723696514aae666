// Package-level pattern compilation: turning a regex source string into a
// Fragment spliced into the shared Arena.
//
// Parsing is delegated entirely to the standard library's regexp/syntax
// package, so pattern syntax and precedence match net/regexp exactly. What
// is custom is the walk from the parsed *syntax.Regexp tree down to NDFA
// states: rather than expanding every Unicode codepoint into its UTF-8
// byte sequence and building byte-range states, this engine keeps the
// alphabet as whole runes, so each parsed rune range becomes one labelled
// state rather than a chain of 1-4 byte-range states. That trade
// simplifies the automaton considerably at the cost of not operating
// below the rune level - acceptable since the buffer this engine scans
// already walks input rune by rune.
package ndfa

import (
	"fmt"
	"regexp/syntax"
	"unicode"
)

// ParseFlags always parses ^ and $ as line anchors (Go's regexp/syntax
// OpBeginLine/OpEndLine) rather than requiring an inline (?m) flag, since
// this engine's LookSet only models the line-level assertion (see State's
// doc comment on Look/LookSet) and has no separate "whole text" variant to
// fall back to. Exported so callers that need the same parsed AST Compile
// sees — the literal prefilter's kernel extraction, in particular — parse
// with identical flags instead of drifting out of sync.
const ParseFlags = syntax.Perl &^ syntax.OneLine

// maxCompileDepth bounds recursion over the parsed syntax tree to avoid a
// stack overflow on pathologically nested patterns.
const maxCompileDepth = 100

// Compile parses pattern and compiles it into a Fragment owned by owner,
// spliced into a. The fragment's Ending state is marked terminal.
func Compile(a *Arena, owner PatternID, pattern string) (Fragment, error) {
	re, err := syntax.Parse(pattern, ParseFlags)
	if err != nil {
		return Fragment{}, &CompileError{Pattern: pattern, Err: err}
	}
	re = re.Simplify()

	c := &compiler{arena: a, owner: owner}
	frag, err := c.compile(re, 0)
	if err != nil {
		return Fragment{}, &CompileError{Pattern: pattern, Err: err}
	}
	Terminal(a, frag)
	return frag, nil
}

type compiler struct {
	arena *Arena
	owner PatternID
}

func (c *compiler) compile(re *syntax.Regexp, depth int) (Fragment, error) {
	if depth > maxCompileDepth {
		return Fragment{}, fmt.Errorf("pattern too complex (exceeds depth %d)", maxCompileDepth)
	}

	switch re.Op {
	case syntax.OpLiteral:
		return c.compileLiteral(re), nil

	case syntax.OpCharClass:
		return c.compileCharClass(re.Rune), nil

	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		if re.Op == syntax.OpAnyCharNotNL {
			return Class(c.arena, c.owner, []RuneRange{{Lo: '\n', Hi: '\n'}}, true), nil
		}
		return Any(c.arena, c.owner), nil

	case syntax.OpEmptyMatch:
		return Epsilon(c.arena, c.owner), nil

	case syntax.OpNoMatch:
		return Class(c.arena, c.owner, nil, false), nil

	case syntax.OpCapture:
		return c.compile(re.Sub[0], depth+1)

	case syntax.OpConcat:
		return c.compileConcat(re.Sub, depth)

	case syntax.OpAlternate:
		return c.compileAlternate(re.Sub, depth)

	case syntax.OpStar:
		sub, err := c.compile(re.Sub[0], depth+1)
		if err != nil {
			return Fragment{}, err
		}
		return Star(c.arena, c.owner, sub), nil

	case syntax.OpPlus:
		sub, err := c.compile(re.Sub[0], depth+1)
		if err != nil {
			return Fragment{}, err
		}
		return Plus(c.arena, c.owner, sub), nil

	case syntax.OpQuest:
		sub, err := c.compile(re.Sub[0], depth+1)
		if err != nil {
			return Fragment{}, err
		}
		return Question(c.arena, sub), nil

	case syntax.OpRepeat:
		return c.compileRepeat(re, depth)

	case syntax.OpBeginLine, syntax.OpBeginText:
		return AnchorBOL(c.arena, c.owner), nil

	case syntax.OpEndLine, syntax.OpEndText:
		return AnchorEOL(c.arena, c.owner), nil

	case syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return Fragment{}, fmt.Errorf("%w: word boundary assertions", ErrUnsupportedOp)

	default:
		return Fragment{}, fmt.Errorf("%w: %v", ErrUnsupportedOp, re.Op)
	}
}

// compileLiteral handles a run of literal runes. For a case-insensitive
// (?i) literal, each rune is compiled as the alternation of its full
// case-fold orbit rather than a single fixed rune.
func (c *compiler) compileLiteral(re *syntax.Regexp) Fragment {
	fold := re.Flags&syntax.FoldCase != 0
	var frag Fragment
	first := true
	for _, r := range re.Rune {
		var f Fragment
		if fold {
			f = c.foldedRune(r)
		} else {
			f = Range(c.arena, c.owner, r, r)
		}
		if first {
			frag = f
			first = false
			continue
		}
		frag = Concat(c.arena, frag, f)
	}
	if first {
		return Epsilon(c.arena, c.owner)
	}
	return frag
}

// foldedRune builds the alternation of every rune in r's case-fold orbit,
// walked via unicode.SimpleFold the same way the standard library's own
// regexp engine resolves (?i) matches.
func (c *compiler) foldedRune(r rune) Fragment {
	ranges := []RuneRange{{Lo: r, Hi: r}}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		ranges = append(ranges, RuneRange{Lo: f, Hi: f})
	}
	return Class(c.arena, c.owner, ranges, false)
}

func (c *compiler) compileCharClass(pairs []rune) Fragment {
	ranges := make([]RuneRange, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		ranges = append(ranges, RuneRange{Lo: pairs[i], Hi: pairs[i+1]})
	}
	return Class(c.arena, c.owner, ranges, false)
}

func (c *compiler) compileConcat(subs []*syntax.Regexp, depth int) (Fragment, error) {
	if len(subs) == 0 {
		return Epsilon(c.arena, c.owner), nil
	}
	frag, err := c.compile(subs[0], depth+1)
	if err != nil {
		return Fragment{}, err
	}
	for _, sub := range subs[1:] {
		next, err := c.compile(sub, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		frag = Concat(c.arena, frag, next)
	}
	return frag, nil
}

func (c *compiler) compileAlternate(subs []*syntax.Regexp, depth int) (Fragment, error) {
	if len(subs) == 0 {
		return Epsilon(c.arena, c.owner), nil
	}
	frags := make([]Fragment, 0, len(subs))
	for _, sub := range subs {
		f, err := c.compile(sub, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		frags = append(frags, f)
	}
	if len(frags) == 1 {
		return frags[0], nil
	}
	return Alternate(c.arena, c.owner, frags...), nil
}

// compileRepeat expands a{m,n} by unrolling m mandatory copies followed by
// either a trailing star (unbounded) or (n-m) optional copies. Quantifier
// greediness (NonGreedy) is not threaded through: this engine always
// explores every reachable terminal state and lets the dominance
// discipline's longer-wins rule pick the reported match, so a*? and a*
// compile identically here.
func (c *compiler) compileRepeat(re *syntax.Regexp, depth int) (Fragment, error) {
	sub := re.Sub[0]
	min, max := re.Min, re.Max

	if max == -1 {
		return c.compileRepeatMin(sub, min, depth)
	}
	if min == max {
		return c.compileExactN(sub, min, depth)
	}
	return c.compileRangeN(sub, min, max, depth)
}

// compileRepeatMin handles a{m,}: m-1 mandatory copies followed by a
// Plus-wrapped final copy, so the total is always >= m.
func (c *compiler) compileRepeatMin(sub *syntax.Regexp, min, depth int) (Fragment, error) {
	if min == 0 {
		s, err := c.compile(sub, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		return Star(c.arena, c.owner, s), nil
	}

	var frag Fragment
	for i := 0; i < min-1; i++ {
		f, err := c.compile(sub, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		if i == 0 {
			frag = f
		} else {
			frag = Concat(c.arena, frag, f)
		}
	}
	last, err := c.compile(sub, depth+1)
	if err != nil {
		return Fragment{}, err
	}
	plus := Plus(c.arena, c.owner, last)
	if min == 1 {
		return plus, nil
	}
	return Concat(c.arena, frag, plus), nil
}

// compileExactN handles a{n}: n concatenated copies.
func (c *compiler) compileExactN(sub *syntax.Regexp, n, depth int) (Fragment, error) {
	if n == 0 {
		return Epsilon(c.arena, c.owner), nil
	}
	frag, err := c.compile(sub, depth+1)
	if err != nil {
		return Fragment{}, err
	}
	for i := 1; i < n; i++ {
		f, err := c.compile(sub, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		frag = Concat(c.arena, frag, f)
	}
	return frag, nil
}

// compileRangeN handles a{m,n}: m mandatory copies followed by (n-m)
// independently optional copies.
func (c *compiler) compileRangeN(sub *syntax.Regexp, min, max, depth int) (Fragment, error) {
	var frag Fragment
	have := false
	if min > 0 {
		f, err := c.compileExactN(sub, min, depth)
		if err != nil {
			return Fragment{}, err
		}
		frag, have = f, true
	}
	for i := 0; i < max-min; i++ {
		f, err := c.compile(sub, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		opt := Question(c.arena, f)
		if !have {
			frag, have = opt, true
			continue
		}
		frag = Concat(c.arena, frag, opt)
	}
	if !have {
		return Epsilon(c.arena, c.owner), nil
	}
	return frag, nil
}
