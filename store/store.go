// Package store owns the shared automaton a matching engine runs against:
// one NDFA arena holding every registered pattern's compiled fragment, one
// shared start hub all patterns are spliced into, and the lazy DFA cache
// built over that arena.
//
// Sharing a single arena and start hub across every pattern is what lets
// the engine scale sub-linearly in the number of registered patterns: a
// scan position that many patterns' automata agree on collapses into one
// interned DFA state instead of one per pattern.
package store

import (
	"sync"

	"github.com/coregx/multimatch/dfa"
	"github.com/coregx/multimatch/ndfa"
)

// Store is the per-shard home for compiled patterns and their shared
// automaton. It is not safe for concurrent writers; AddPattern calls must be
// serialized by the caller (engine.Engine.Add holds its write lock around
// each one).
type Store struct {
	arena *ndfa.Arena
	cache *dfa.Cache
	start ndfa.StateID

	// startMemo caches the interned start state per LookSet value (there
	// are only four), so a scan does not re-close the whole start hub at
	// every position. Invalidated whenever a pattern is spliced in.
	mu        sync.Mutex
	startMemo [4]*dfa.State
}

// Config controls Store construction.
type Config struct {
	// MaxDFAStates bounds the number of interned DFA states before Next
	// reports dfa.ErrCacheFull. Zero uses dfa.DefaultMaxStates.
	MaxDFAStates uint32
}

// New creates an empty Store.
func New(cfg Config) *Store {
	arena := ndfa.NewArena()
	start := arena.NewEpsilon(ndfa.NoOwner)
	return &Store{
		arena: arena,
		cache: dfa.NewCache(arena, cfg.MaxDFAStates),
		start: start,
	}
}

// Arena exposes the shared NDFA arena, e.g. for terminal/failing queries an
// engine runs against a dfa.State's basis.
func (s *Store) Arena() *ndfa.Arena { return s.arena }

// AddPattern compiles pattern's source into a fragment owned by owner and
// splices it into the shared start hub. The fragment's NDFA ending state is
// already marked terminal by ndfa.Compile.
func (s *Store) AddPattern(owner ndfa.PatternID, pattern string) (ndfa.Fragment, error) {
	frag, err := ndfa.Compile(s.arena, owner, pattern)
	if err != nil {
		return ndfa.Fragment{}, err
	}
	s.arena.AddEpsilon(s.start, frag.Arrival)

	s.mu.Lock()
	s.startMemo = [4]*dfa.State{}
	s.mu.Unlock()
	return frag, nil
}

// Start returns the interned DFA state reached from the shared start hub
// under the line assertions satisfied by look. Called whenever the engine
// wants to spawn a fresh attempt at the current scan position.
func (s *Store) Start(look ndfa.LookSet) (*dfa.State, error) {
	slot := int(look) & 3

	s.mu.Lock()
	if st := s.startMemo[slot]; st != nil {
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	st, err := s.cache.Start([]uint32{uint32(s.start)}, look)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.startMemo[slot] = st
	s.mu.Unlock()
	return st, nil
}

// Next advances from from by consuming rune r under look, the shared
// transition function every in-flight attempt (running or newly spawned)
// steps through each scan position.
func (s *Store) Next(from *dfa.State, r rune, look ndfa.LookSet) (*dfa.State, error) {
	return s.cache.Next(from, r, look)
}

// DFAStateCount returns the number of DFA states interned so far, exposed
// for Stats snapshots.
func (s *Store) DFAStateCount() int {
	return s.cache.Size()
}

// NDFAStateCount returns the number of NDFA states allocated so far.
func (s *Store) NDFAStateCount() int {
	return s.arena.Len()
}
