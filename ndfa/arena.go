package ndfa

import (
	"sort"

	"github.com/coregx/multimatch/internal/conv"
	"github.com/coregx/multimatch/internal/sparse"
)

// Arena owns every NDFA state created for every registered pattern. It is
// shared and lives for the life of the process; package store wraps one
// Arena plus the DFA interning table and start-state bookkeeping.
type Arena struct {
	states []State
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{states: make([]State, 0, 64)}
}

// Len returns the number of states allocated so far, used to size scratch
// sparse sets for closure/step computations.
func (a *Arena) Len() int { return len(a.states) }

// State returns a pointer to the state with the given id. The pointer is
// valid only until the next allocation (states is a growing slice); callers
// needing stability should copy out the fields they need.
func (a *Arena) State(id StateID) *State {
	return &a.states[id]
}

func (a *Arena) alloc(owner PatternID) StateID {
	id := StateID(len(a.states))
	a.states = append(a.states, State{id: id, owner: owner})
	return id
}

// NewEpsilon allocates a bare epsilon-hub state (no label, no edges yet).
func (a *Arena) NewEpsilon(owner PatternID) StateID {
	return a.alloc(owner)
}

// NewLabel allocates a state that consumes a rune in [lo, hi] and
// transitions to next.
func (a *Arena) NewLabel(owner PatternID, lo, hi rune, next StateID) StateID {
	id := a.alloc(owner)
	s := &a.states[id]
	s.hasLabel = true
	s.lo, s.hi = lo, hi
	s.next = next
	return id
}

// NewFailSink allocates the designated dead state an inverted character
// class routes excluded members to. It has no outgoing edges; once reached
// it can never produce a transition, and its mere presence in a DFA basis
// signals "kill this pattern's matches".
func (a *Arena) NewFailSink(owner PatternID) StateID {
	id := a.alloc(owner)
	a.states[id].failing = true
	return id
}

// AddEpsilon adds an unconditional epsilon edge from -> to. Additive: never
// removes or replaces existing edges.
func (a *Arena) AddEpsilon(from, to StateID) {
	a.states[from].eps = append(a.states[from].eps, EpsEdge{Target: to})
}

// AddGuardedEpsilon adds an epsilon edge from -> to that is only followed
// when look is satisfied at the current scan position.
func (a *Arena) AddGuardedEpsilon(from, to StateID, look Look) {
	a.states[from].eps = append(a.states[from].eps, EpsEdge{Target: to, Look: look})
}

// SetTerminal marks id as a terminal (match-completing) state for its
// owning pattern.
func (a *Arena) SetTerminal(id StateID) {
	a.states[id].terminal = true
}

// Step computes the raw (non-closed) successor set reached by consuming
// rune c from any state in ids. The result is not epsilon-closed; callers
// follow with EpsilonClosure.
func (a *Arena) Step(ids []uint32, c rune) []uint32 {
	out := make([]uint32, 0, len(ids))
	for _, id := range ids {
		s := &a.states[id]
		if s.hasLabel && c >= s.lo && c <= s.hi {
			out = append(out, uint32(s.next))
		}
	}
	return out
}

// EpsilonClosure computes the epsilon closure of ids under the line
// assertions satisfied by look, returning a canonical (sorted, deduplicated)
// id slice suitable for use as a DFA basis.
//
// touchedLook reports whether any guarded epsilon edge was encountered
// while computing the closure (traversed or not). The DFA layer uses this
// to decide whether the resulting transition is safe to memoize: a
// look-sensitive closure can come out differently for the same input basis
// at a different scan position, so the caller must not cache it keyed only
// by (basis, c). The alternative is carrying the LookSet into the DFA
// interning key itself; only line-level anchors are supported here, so the
// simpler key plus occasional re-computation wins.
func (a *Arena) EpsilonClosure(ids []uint32, look LookSet) (basis []uint32, touchedLook bool) {
	set := sparse.New(conv.IntToUint32(len(a.states)))
	stack := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if !set.Contains(id) {
			set.Insert(id)
			stack = append(stack, id)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s := &a.states[id]
		for _, e := range s.eps {
			if e.Look != LookNone {
				touchedLook = true
				if !look.Satisfies(e.Look) {
					continue
				}
			}
			t := uint32(e.Target)
			if !set.Contains(t) {
				set.Insert(t)
				stack = append(stack, t)
			}
		}
	}
	basis = set.Sorted()
	return basis, touchedLook
}

// OwnersOf returns the distinct pattern ids owning states in basis, sorted
// ascending. Used by the engine (directly and via dfa.State.Owners) to find
// which patterns a DFA state's basis still carries.
func (a *Arena) OwnersOf(basis []uint32) []PatternID {
	seen := make(map[PatternID]bool, 4)
	var owners []PatternID
	for _, id := range basis {
		o := a.states[id].owner
		if o == NoOwner || seen[o] {
			continue
		}
		seen[o] = true
		owners = append(owners, o)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

// IsTerminalFor reports whether basis contains a terminal state owned by p.
func (a *Arena) IsTerminalFor(basis []uint32, p PatternID) bool {
	for _, id := range basis {
		s := &a.states[id]
		if s.owner == p && s.terminal {
			return true
		}
	}
	return false
}

// IsFailingFor reports whether basis contains a failing sink owned by p.
func (a *Arena) IsFailingFor(basis []uint32, p PatternID) bool {
	for _, id := range basis {
		s := &a.states[id]
		if s.owner == p && s.failing {
			return true
		}
	}
	return false
}
