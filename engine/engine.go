package engine

import (
	"sync"
	"unicode/utf8"

	"github.com/coregx/multimatch/buffer"
	"github.com/coregx/multimatch/dfa"
	"github.com/coregx/multimatch/ndfa"
	"github.com/coregx/multimatch/simd"
	"github.com/coregx/multimatch/store"
)

// Engine owns one shared automaton and every pattern registered against
// it, and drives a single left-to-right scan that reports each pattern's
// matches through its callback.
type Engine struct {
	mu       sync.RWMutex
	st       *store.Store
	patterns map[ndfa.PatternID]*Pattern
	nextID   ndfa.PatternID

	// Prefilter narrows the positions Scan will spawn a new attempt at, and
	// optionally the candidate patterns considered at each such position.
	// Nil disables the optimization; Scan then treats every position as a
	// candidate for every pattern.
	Prefilter Prefilter
}

// Prefilter restricts where Scan spawns new attempts. An
// implementation scans a full buffer snapshot once up front and reports
// where matching attempts are worth starting.
type Prefilter interface {
	// Plan returns, for the given haystack, a map from start byte offset
	// to the patterns whose literal kernel pins a possible match start to
	// that offset, plus the patterns that must be tried at every position
	// (no positional kernel exists for them). A pattern appearing in
	// neither cannot match anywhere in haystack and is skipped outright.
	Plan(haystack []byte) (starts map[int][]ndfa.PatternID, everywhere []ndfa.PatternID)
}

// New creates an empty Engine.
func New(cfg store.Config) *Engine {
	return &Engine{
		st:       store.New(cfg),
		patterns: make(map[ndfa.PatternID]*Pattern),
	}
}

// Add compiles source and registers cb to receive its matches. Callers
// must serialize Add/Remove with each other and with any in-progress Scan.
func (e *Engine) Add(source string, cb Callback) (ndfa.PatternID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	if _, err := e.st.AddPattern(id, source); err != nil {
		return 0, err
	}
	e.nextID++
	e.patterns[id] = &Pattern{id: uint32(id), source: source, callback: cb}
	return id, nil
}

// Remove stops delivering matches for id. The pattern's compiled states
// remain in the shared arena (the automaton has no structural removal once
// patterns are fused together); Remove only suppresses future callbacks.
func (e *Engine) Remove(id ndfa.PatternID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.patterns, id)
}

// Len returns the number of patterns currently registered.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

// NDFAStateCount and DFAStateCount expose the shared automaton's size, for
// Stats snapshots.
func (e *Engine) NDFAStateCount() int { return e.st.Arena().Len() }
func (e *Engine) DFAStateCount() int  { e.mu.RLock(); defer e.mu.RUnlock(); return e.st.DFAStateCount() }

// scanPos is one decoded rune: the byte offset it starts at and how many
// bytes it occupies. Width is recorded at decode time rather than
// recomputed from the rune value later, since utf8.RuneLen(utf8.RuneError)
// would over-report the width of a malformed single byte.
type scanPos struct {
	r     rune
	pos   int
	width int
}

// decode splits buf's full text into runes and their byte offsets.
//
// When data is pure ASCII, simd.IsASCII lets this skip per-rune UTF-8
// decoding entirely: every byte is already its own one-byte-wide rune.
// Non-ASCII input falls back to utf8.DecodeRune per position.
func decode(data []byte) []scanPos {
	if simd.IsASCII(data) {
		out := make([]scanPos, len(data))
		for i, b := range data {
			out[i] = scanPos{r: rune(b), pos: i, width: 1}
		}
		return out
	}

	out := make([]scanPos, 0, len(data))
	pos := 0
	for pos < len(data) {
		r, size := utf8.DecodeRune(data[pos:])
		out = append(out, scanPos{r: r, pos: pos, width: size})
		pos += size
	}
	return out
}

// lookAtIndex returns the line assertions satisfied at the boundary before
// rune i (i == len(runes) means end of text): BOL at the start of text or
// immediately after a newline; EOL at the end of text or immediately before
// a newline.
func lookAtIndex(runes []scanPos, i int) ndfa.LookSet {
	bol := i == 0 || runes[i-1].r == '\n'
	eol := i == len(runes) || runes[i].r == '\n'
	return ndfa.NewLookSet(bol, eol)
}

// attemptState pairs a live attempt with the shared DFA state it has
// reached. Shared because one attempt's walk through the automaton serves
// every pattern still reachable from its current basis at once.
type attemptState struct {
	at    *attempt
	state *dfa.State
}

// Scan runs every registered pattern against buf's entire contents once,
// invoking each pattern's callback for every maximal, non-overlapping
// match it finds, left to right.
//
// One shared pool of attempts walks the fused automaton: each attempt
// started at a given position advances through a single interned DFA
// state, and every pattern still present in that state's basis rides
// along for free. Per-pattern bookkeeping (which attempts a pattern still
// cares about, and the dominance order among its terminal candidates)
// lives in that pattern's matchSet; Engine only decides, each position,
// which attempts survive and which patterns each surviving attempt still
// carries.
func (e *Engine) Scan(buf buffer.Buffer) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	runes := decode(buf.Snapshot())
	n := len(runes)
	arena := e.st.Arena()

	sets := make(map[ndfa.PatternID]*matchSet, len(e.patterns))
	for id := range e.patterns {
		sets[id] = newMatchSet()
	}

	var starts map[int][]ndfa.PatternID
	var everywhere []ndfa.PatternID
	filtered := false
	if e.Prefilter != nil {
		starts, everywhere = e.Prefilter.Plan(buf.Snapshot())
		filtered = true
	}

	var seq uint64
	live := make([]*attemptState, 0, 8)

	emit := func(id ndfa.PatternID, start, end int) {
		p := e.patterns[id]
		if p == nil {
			return
		}
		p.callback(buf, start, end)
	}

	for i := 0; i <= n; i++ {
		if i < n {
			sp := runes[i]
			lookAfter := lookAtIndex(runes, i+1)

			kept := live[:0]
			for _, as := range live {
				if !as.at.alive {
					continue
				}
				before := arena.OwnersOf(as.state.Basis())
				next, err := e.st.Next(as.state, sp.r, lookAfter)
				if err != nil {
					return err
				}
				if next.IsDead() {
					dropAll(sets, before, as.at)
					as.at.alive = false
					continue
				}

				after := arena.OwnersOf(next.Basis())
				afterSet := toSet(after)
				for _, p := range before {
					if !afterSet[p] {
						dropOne(sets, p, as.at)
					}
				}

				as.state = next
				trackedAny := false
				for _, p := range after {
					ms, ok := sets[p]
					if !ok {
						continue
					}
					if next.IsFailingFor(arena, p) {
						ms.drop(as.at)
						continue
					}
					c, tracked := ms.presence[as.at]
					if !tracked {
						continue
					}
					trackedAny = true
					if next.IsTerminalFor(arena, p) {
						ms.recordTerminal(c, sp.pos+sp.width)
					}
				}
				// An attempt no pattern tracks anymore can never record
				// another terminal; walking it further serves nobody.
				if !trackedAny {
					as.at.alive = false
					continue
				}
				kept = append(kept, as)
			}
			live = kept
		} else {
			for _, as := range live {
				as.at.alive = false
				dropAll(sets, arena.OwnersOf(as.state.Basis()), as.at)
			}
			live = live[:0]
		}

		for id, ms := range sets {
			ms.resolve(i == n, func(start, end int) { emit(id, start, end) })
		}

		if i < n {
			e.trySpawn(runes, i, filtered, starts, everywhere, sets, &live, &seq)
		}
	}

	return nil
}

// trySpawn attempts to start one new shared attempt at rune index i,
// consuming its rune immediately so the result already reflects which
// patterns can begin a match with this character. There is no separate
// start-character index: the first transition out of the shared start hub
// is an ordinary subset-construction step, memoized like any other.
func (e *Engine) trySpawn(
	runes []scanPos,
	i int,
	filtered bool,
	starts map[int][]ndfa.PatternID,
	everywhere []ndfa.PatternID,
	sets map[ndfa.PatternID]*matchSet,
	live *[]*attemptState,
	seq *uint64,
) {
	sp := runes[i]

	var allowed map[ndfa.PatternID]bool
	if filtered {
		list := starts[sp.pos]
		if len(list) == 0 && len(everywhere) == 0 {
			return
		}
		allowed = toSet(list)
		for _, p := range everywhere {
			allowed[p] = true
		}
	}

	lookBefore := lookAtIndex(runes, i)
	lookAfter := lookAtIndex(runes, i+1)

	start0, err := e.st.Start(lookBefore)
	if err != nil || start0.IsDead() {
		return
	}
	next, err := e.st.Next(start0, sp.r, lookAfter)
	if err != nil || next.IsDead() {
		return
	}

	arena := e.st.Arena()
	owners := arena.OwnersOf(next.Basis())
	at := &attempt{start: sp.pos, seq: *seq, alive: true}
	*seq++

	spawned := false
	for _, p := range owners {
		ms, ok := sets[p]
		if !ok || sp.pos < ms.nextSpawn {
			continue
		}
		if allowed != nil && !allowed[p] {
			continue
		}
		if next.IsFailingFor(arena, p) {
			continue
		}
		c := ms.track(at)
		spawned = true
		if next.IsTerminalFor(arena, p) {
			ms.recordTerminal(c, sp.pos+sp.width)
		}
	}
	if spawned {
		*live = append(*live, &attemptState{at: at, state: next})
	}
}

func toSet(ids []ndfa.PatternID) map[ndfa.PatternID]bool {
	set := make(map[ndfa.PatternID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func dropAll(sets map[ndfa.PatternID]*matchSet, owners []ndfa.PatternID, at *attempt) {
	for _, p := range owners {
		dropOne(sets, p, at)
	}
}

func dropOne(sets map[ndfa.PatternID]*matchSet, p ndfa.PatternID, at *attempt) {
	if ms, ok := sets[p]; ok {
		ms.drop(at)
	}
}
