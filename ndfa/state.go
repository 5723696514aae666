// Package ndfa implements the shared non-deterministic automaton that every
// registered pattern is compiled into: states, epsilon edges, labelled
// (rune-range) edges, and the fragment algebra a parser drives to build
// them.
//
// States live in a single Arena shared by every pattern, so that patterns
// can be spliced into one shared start state and share DFA basis
// computation; each State still records which pattern it belongs to via
// PatternID.
//
// States are addressed by a flat, id-addressed arena (StateID indexing
// into a slice) rather than a pointer graph, generalized to a graph with
// arbitrary epsilon fan-out and multiple owning patterns since every
// registered pattern is fused into one shared automaton instead of each
// getting its own private graph.
package ndfa

import "fmt"

// StateID uniquely identifies an NDFA state within an Arena.
type StateID uint32

// InvalidState marks the absence of a state reference.
const InvalidState StateID = 0xFFFFFFFF

// PatternID identifies the pattern (regexp.Regexp) that owns a state.
// NoOwner is used for states that belong to no single pattern (the shared
// start state).
type PatternID uint32

// NoOwner marks a state that isn't owned by any one pattern.
const NoOwner PatternID = 0xFFFFFFFF

// Look names a zero-width line assertion an epsilon edge can be guarded by.
// Only line-level ^ and $ are supported; there is no separate "whole text"
// variant (\A/\z collapse onto the same two assertions as ^/$).
type Look uint8

const (
	// LookNone marks an unconditional epsilon edge.
	LookNone Look = iota
	// LookBOL requires the current position to be a line start.
	LookBOL
	// LookEOL requires the current position to be a line end.
	LookEOL
)

// LookSet is the set of line assertions satisfied at the engine's current
// scan position.
type LookSet uint8

const (
	lookBOLBit LookSet = 1 << iota
	lookEOLBit
)

// NewLookSet builds a LookSet from the individual assertions satisfied at a
// position.
func NewLookSet(bol, eol bool) LookSet {
	var s LookSet
	if bol {
		s |= lookBOLBit
	}
	if eol {
		s |= lookEOLBit
	}
	return s
}

// Satisfies reports whether look is satisfied under s. LookNone is always
// satisfied (it marks an unguarded edge).
func (s LookSet) Satisfies(look Look) bool {
	switch look {
	case LookBOL:
		return s&lookBOLBit != 0
	case LookEOL:
		return s&lookEOLBit != 0
	default:
		return true
	}
}

// EpsEdge is an epsilon (non-consuming) out-edge, optionally guarded by a
// line assertion.
type EpsEdge struct {
	Target StateID
	Look   Look
}

// State is a single NDFA state.
//
// A state may carry both epsilon out-edges and a single labelled
// (rune-range) consuming edge at once: fragment composition adds epsilon
// edges onto existing arrival/ending nodes after the fact (e.g. `?` adds an
// epsilon arrival->ending edge even when arrival already carries a
// literal's consuming edge), so the two must coexist on one state rather
// than be mutually exclusive state kinds.
type State struct {
	id       StateID
	owner    PatternID
	terminal bool
	failing  bool

	eps []EpsEdge

	hasLabel bool
	lo, hi   rune // inclusive rune range; Any() uses [0, utf8.MaxRune]
	next     StateID
}

// ID returns the state's id.
func (s *State) ID() StateID { return s.id }

// Owner returns the pattern this state was compiled for, or NoOwner for
// shared infrastructure states (the start state).
func (s *State) Owner() PatternID { return s.owner }

// Terminal reports whether reaching this state completes a match for its
// owning pattern.
func (s *State) Terminal() bool { return s.terminal }

// Failing reports whether this is the designated sink state that kills an
// inverted character class's owning pattern.
func (s *State) Failing() bool { return s.failing }

// EpsEdges returns the state's epsilon out-edges.
func (s *State) EpsEdges() []EpsEdge { return s.eps }

// Label returns the state's consuming rune range and target, if any.
func (s *State) Label() (lo, hi rune, next StateID, ok bool) {
	if !s.hasLabel {
		return 0, 0, InvalidState, false
	}
	return s.lo, s.hi, s.next, true
}

// Matches reports whether rune c falls within this state's labelled range.
func (s *State) Matches(c rune) bool {
	return s.hasLabel && c >= s.lo && c <= s.hi
}

func (s *State) String() string {
	return fmt.Sprintf("State{id=%d owner=%d terminal=%v failing=%v eps=%d label=%v}",
		s.id, s.owner, s.terminal, s.failing, len(s.eps), s.hasLabel)
}
