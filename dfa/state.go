// Package dfa lazily determinizes the shared NDFA into interned DFA states.
//
// A DFA state's identity is its basis: the canonical (sorted, deduplicated)
// set of NDFA state ids it represents. Two transitions that land on the
// same basis intern to the same StateID, which is what gives this engine
// its sub-linear scaling in the number of registered patterns — most of a
// large pattern set's states collapse into a small number of distinct DFA
// nodes once their automata are fused into one shared arena.
package dfa

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/coregx/multimatch/ndfa"
)

// StateID identifies an interned DFA state within a Cache.
type StateID uint32

// InvalidState marks the absence of a state reference.
const InvalidState StateID = 0xFFFFFFFF

// State is one interned DFA node.
type State struct {
	id    StateID
	basis []uint32

	mu          sync.Mutex
	transitions map[rune]StateID
}

// ID returns the state's interned id.
func (s *State) ID() StateID { return s.id }

// Basis returns the canonical NDFA state-id set this DFA state represents.
func (s *State) Basis() []uint32 { return s.basis }

// IsTerminalFor reports whether this state completes a match for pattern p.
func (s *State) IsTerminalFor(arena *ndfa.Arena, p ndfa.PatternID) bool {
	return arena.IsTerminalFor(s.basis, p)
}

// IsFailingFor reports whether this state is a dead end for pattern p (an
// inverted character class's fail sink was reached).
func (s *State) IsFailingFor(arena *ndfa.Arena, p ndfa.PatternID) bool {
	return arena.IsFailingFor(s.basis, p)
}

// Owners returns the patterns with any live NDFA state in this basis.
func (s *State) Owners(arena *ndfa.Arena) []ndfa.PatternID {
	return arena.OwnersOf(s.basis)
}

// IsDead reports whether this state's basis is empty: no NDFA state
// survived closure, so no pattern can ever match by continuing from here.
func (s *State) IsDead() bool { return len(s.basis) == 0 }

// cachedTransition returns a previously memoized transition for c, if any.
func (s *State) cachedTransition(c rune) (StateID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.transitions[c]
	return id, ok
}

// memoize records a transition for c. Callers must only call this for
// transitions known not to have touched a look-guarded epsilon edge (see
// Cache.Next), since those are position-sensitive and unsafe to cache.
func (s *State) memoize(c rune, next StateID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transitions == nil {
		s.transitions = make(map[rune]StateID, 4)
	}
	s.transitions[c] = next
}

func (s *State) String() string {
	return fmt.Sprintf("dfa.State{id=%d basisLen=%d}", s.id, len(s.basis))
}

// key is the interning key for a basis: an FNV-1a hash of its sorted NDFA
// ids. Two distinct bases may hash to the same key, so the intern map holds
// a bucket per key and resolves collisions with basisEqual.
type key uint64

func computeKey(basis []uint32) key {
	h := fnv.New64a()
	buf := make([]byte, 4)
	for _, id := range basis {
		buf[0] = byte(id)
		buf[1] = byte(id >> 8)
		buf[2] = byte(id >> 16)
		buf[3] = byte(id >> 24)
		_, _ = h.Write(buf)
	}
	return key(h.Sum64())
}

// basisEqual reports whether two canonical (sorted, deduplicated) bases hold
// the same NDFA state ids.
func basisEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
