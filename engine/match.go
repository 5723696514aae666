// Package engine runs registered patterns against a buffer and reports
// every maximal, non-overlapping match per pattern via callback.
//
// A single attempt (one walk through the shared DFA, started at a fixed
// buffer position) tracks every registered pattern's progress jointly: the
// state it is currently in is one interned basis that can contain live
// NDFA states from many patterns at once, and as the walk continues some
// of those patterns drop out of the basis (their branch died) while others
// reach a terminal state. Each pattern gets its own record of how far a
// given attempt carried it; the engine spawns a fresh attempt at every scan
// position so a match starting anywhere is found, which means several
// attempts of the same pattern can be alive at once and end up with
// overlapping candidate spans. When that happens a dominance rule decides
// which one is actually reported: the longer span wins; a tie is broken in
// favor of the attempt that was spawned first (the leftmost start).
package engine

import "container/heap"

// attempt is one in-flight walk through the shared DFA, started at a fixed
// buffer position. It is shared across every pattern still reachable from
// its current state.
type attempt struct {
	start int
	seq   uint64
	alive bool
}

// candidate is one pattern's view of an attempt: how far that attempt has
// carried this particular pattern towards a match.
type candidate struct {
	at        *attempt
	hasMatch  bool
	matchEnd  int
	heapIndex int
}

func (c *candidate) length() int { return c.matchEnd - c.at.start }

// dominationHeap is a max-heap of candidates that have reached at least
// one terminal state for their pattern, ordered so the top is always the
// current dominating match: longest span wins; ties are broken by
// earliest start (the attempt spawned first).
type dominationHeap []*candidate

func (h dominationHeap) Len() int { return len(h) }

func (h dominationHeap) Less(i, j int) bool {
	li, lj := h[i].length(), h[j].length()
	if li != lj {
		return li > lj
	}
	return h[i].at.seq < h[j].at.seq
}

func (h dominationHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *dominationHeap) Push(x any) {
	c := x.(*candidate)
	c.heapIndex = len(*h)
	*h = append(*h, c)
}

func (h *dominationHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.heapIndex = -1
	*h = old[:n-1]
	return c
}

// fixOrPush updates c's position in h after its matchEnd has grown, or
// inserts it for the first time.
func (h *dominationHeap) fixOrPush(c *candidate) {
	if c.heapIndex >= 0 {
		heap.Fix(h, c.heapIndex)
		return
	}
	heap.Push(h, c)
}

// remove drops c from h; safe to call even if c is not currently present.
func (h *dominationHeap) remove(c *candidate) {
	if c.heapIndex < 0 {
		return
	}
	heap.Remove(h, c.heapIndex)
}
