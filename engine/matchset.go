package engine

// matchSet tracks one pattern's view of the shared attempt pool: which
// attempts it still cares about, and which unresolved terminal candidates
// are competing to be reported.
type matchSet struct {
	presence map[*attempt]*candidate
	pending  dominationHeap

	nextSpawn int // earliest position a new attempt may be of interest
}

func newMatchSet() *matchSet {
	return &matchSet{
		presence: make(map[*attempt]*candidate),
		pending:  make(dominationHeap, 0, 4),
	}
}

// track starts following at, recording that this pattern is interested in
// however far it carries.
func (m *matchSet) track(at *attempt) *candidate {
	c := &candidate{at: at, heapIndex: -1}
	m.presence[at] = c
	return c
}

// recordTerminal grows c's candidate match to end and reorders the heap.
func (m *matchSet) recordTerminal(c *candidate, end int) {
	c.hasMatch = true
	c.matchEnd = end
	m.pending.fixOrPush(c)
}

// drop stops following at for this pattern: either its branch died within
// the shared basis, or the whole attempt died.
func (m *matchSet) drop(at *attempt) {
	c, ok := m.presence[at]
	if !ok {
		return
	}
	delete(m.presence, at)
	if !c.hasMatch {
		m.pending.remove(c)
	}
}

// minTrackedStart returns the smallest start among attempts this pattern
// is still actively following, or -1 if none.
func (m *matchSet) minTrackedStart() int {
	min := -1
	for at := range m.presence {
		if at.alive && (min == -1 || at.start < min) {
			min = at.start
		}
	}
	return min
}

// resolve commits every heap-top candidate that can no longer be beaten,
// invoking fn for each, until either the heap is empty or the current top
// might still be dominated by a still-tracked attempt.
//
// finalize forces every remaining candidate through regardless of tracked
// attempts, used once the scan has run out of input.
func (m *matchSet) resolve(finalize bool, fn func(start, end int)) {
	for len(m.pending) > 0 {
		top := m.pending[0]
		if !finalize {
			if top.at.alive {
				if _, stillTracked := m.presence[top.at]; stillTracked {
					break
				}
			}
			if min := m.minTrackedStart(); min != -1 && min < top.matchEnd {
				break
			}
		}
		fn(top.at.start, top.matchEnd)
		m.discardOverlapping(top.matchEnd)
	}
}

// discardOverlapping removes every pending candidate, and stops tracking
// every attempt, whose start falls before end: once a match ending at end
// is committed, nothing that started earlier can also be reported.
//
// This must scan m.pending directly rather than m.presence: a candidate
// whose attempt has already died (the common case right after it becomes
// terminal, via drop/dropAll in engine.go) is no longer in m.presence at
// all, but its heap entry — including the one resolve is about to commit —
// is still sitting in m.pending and must still be popped.
func (m *matchSet) discardOverlapping(end int) {
	if end > m.nextSpawn {
		m.nextSpawn = end
	}
	stale := make([]*candidate, 0, len(m.pending))
	for _, c := range m.pending {
		if c.at.start < end {
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		delete(m.presence, c.at)
		m.pending.remove(c)
	}
}
