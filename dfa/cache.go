package dfa

import (
	"sync"

	"github.com/coregx/multimatch/internal/conv"
	"github.com/coregx/multimatch/ndfa"
)

// DefaultMaxStates bounds how many distinct DFA states a single Cache will
// intern before reporting ErrCacheFull, a safeguard against pathological
// pattern sets whose basis combinations blow up combinatorially.
const DefaultMaxStates = 1 << 16

// Cache interns DFA states by basis and lazily computes transitions between
// them. One Cache belongs to exactly one shard's NodeStorage; it is safe
// for concurrent reads (the engine's scan loop is single-threaded per
// shard, but prefilter warm-up and diagnostics may read concurrently).
type Cache struct {
	arena *ndfa.Arena

	mu        sync.RWMutex
	states    map[key][]*State
	byID      []*State
	maxStates uint32
}

// NewCache creates a Cache over arena with the given state capacity. A
// capacity of 0 uses DefaultMaxStates.
func NewCache(arena *ndfa.Arena, maxStates uint32) *Cache {
	if maxStates == 0 {
		maxStates = DefaultMaxStates
	}
	return &Cache{
		arena:     arena,
		states:    make(map[key][]*State, 64),
		byID:      make([]*State, 0, 64),
		maxStates: maxStates,
	}
}

// Size returns the number of distinct interned states.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// ByID returns the state with the given id, or nil if out of range.
func (c *Cache) ByID(id StateID) *State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := int(id)
	if idx < 0 || idx >= len(c.byID) {
		return nil
	}
	return c.byID[idx]
}

// intern returns the interned State for basis, creating and assigning it a
// new id if this is the first time basis has been seen. Hash buckets keep
// interning correct even when two distinct bases collide on the same key.
func (c *Cache) intern(basis []uint32) (*State, error) {
	k := computeKey(basis)

	c.mu.RLock()
	if s := lookupBucket(c.states[k], basis); s != nil {
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if s := lookupBucket(c.states[k], basis); s != nil {
		return s, nil
	}
	if conv.IntToUint32(len(c.byID)) >= c.maxStates {
		return nil, ErrCacheFull
	}
	s := &State{id: StateID(len(c.byID)), basis: basis}
	c.states[k] = append(c.states[k], s)
	c.byID = append(c.byID, s)
	return s, nil
}

func lookupBucket(bucket []*State, basis []uint32) *State {
	for _, s := range bucket {
		if basisEqual(s.basis, basis) {
			return s
		}
	}
	return nil
}

// Start computes (and interns) the DFA state reached by epsilon-closing
// roots under look. This is the entry point for scanning at a given
// position: callers re-derive a start state whenever a fresh matching
// attempt needs to begin.
func (c *Cache) Start(roots []uint32, look ndfa.LookSet) (*State, error) {
	basis, _ := c.arena.EpsilonClosure(roots, look)
	return c.intern(basis)
}

// Next computes the transition from from on rune r under the line
// assertions satisfied by look.
//
// When the transition's epsilon closure does not cross any look-guarded
// edge, the result is memoized on from so repeat visits skip straight to
// the cached StateID. When it does cross one, the transition is
// position-sensitive (the same (from, r) pair can lead to different DFA
// states depending on whether look holds), so it is recomputed fresh every
// time and deliberately never cached.
func (c *Cache) Next(from *State, r rune, look ndfa.LookSet) (*State, error) {
	if next, ok := from.cachedTransition(r); ok {
		return c.ByID(next), nil
	}

	raw := c.arena.Step(from.basis, r)
	if len(raw) == 0 {
		dead, err := c.intern(nil)
		if err != nil {
			return nil, err
		}
		from.memoize(r, dead.id)
		return dead, nil
	}

	basis, touchedLook := c.arena.EpsilonClosure(raw, look)
	next, err := c.intern(basis)
	if err != nil {
		return nil, err
	}
	if !touchedLook {
		from.memoize(r, next.id)
	}
	return next, nil
}
