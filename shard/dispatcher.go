// Package shard partitions a registered pattern set across N independent
// matching engines and runs them concurrently over cloned buffers. Each
// shard owns its own fused automaton; because a pattern
// belongs to exactly one shard, shards never need to coordinate while
// matching, only at dispatch and at the final barrier.
package shard

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"

	"github.com/coregx/multimatch/buffer"
	"github.com/coregx/multimatch/engine"
	"github.com/coregx/multimatch/ndfa"
	"github.com/coregx/multimatch/store"
)

// Config controls how many shards a Dispatcher creates and the automaton
// size limit each shard's Store enforces.
type Config struct {
	// Shards is the number of independent engines to route patterns
	// across. Zero selects the default of approximately 1.5x GOMAXPROCS.
	Shards int

	// MaxDFAStates bounds each shard's lazy DFA cache. Zero selects
	// dfa.DefaultMaxStates.
	MaxDFAStates uint32
}

// DefaultConfig returns a Config sized for the current machine.
func DefaultConfig() Config {
	n := int(float64(runtime.GOMAXPROCS(0)) * 1.5)
	if n < 1 {
		n = 1
	}
	return Config{Shards: n}
}

// Validate reports whether c can be used to construct a Dispatcher.
func (c Config) Validate() error {
	if c.Shards < 0 {
		return &ConfigError{Field: "Shards", Reason: "must not be negative"}
	}
	return nil
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("shard: invalid %s: %s", e.Field, e.Reason)
}

// Handle identifies one pattern registered with a Dispatcher: which shard
// it was routed to, and its id within that shard's engine.
type Handle struct {
	shard int
	id    ndfa.PatternID
}

// Shard returns the index of the shard h's pattern was routed to.
func (h Handle) Shard() int { return h.shard }

// ID returns h's pattern id within its owning shard's engine.
func (h Handle) ID() ndfa.PatternID { return h.id }

// Dispatcher owns N engines and routes each incoming pattern to exactly
// one of them by a stable hash of its source text.
type Dispatcher struct {
	shards []*engine.Engine
}

// New creates a Dispatcher with cfg.Shards engines (or the default shard
// count if cfg.Shards is zero).
func New(cfg Config) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.Shards
	if n == 0 {
		n = DefaultConfig().Shards
	}

	shards := make([]*engine.Engine, n)
	for i := range shards {
		shards[i] = engine.New(store.Config{MaxDFAStates: cfg.MaxDFAStates})
	}
	return &Dispatcher{shards: shards}, nil
}

// Shards returns the number of shards this Dispatcher owns.
func (d *Dispatcher) Shards() int {
	return len(d.shards)
}

// Route returns the shard source is assigned to out of n: an FNV-1a hash
// of its bytes reduced mod n, the same hashing strategy the shared DFA
// cache uses to intern states by basis (dfa/state.go's computeKey).
func Route(source string, n int) int {
	h := fnv.New64a()
	h.Write([]byte(source))
	return int(h.Sum64() % uint64(n))
}

// Add compiles source against the shard it routes to and registers cb to
// receive its matches. Callers must serialize Add/Remove with each other
// and with any in-progress Match on the same shard.
func (d *Dispatcher) Add(source string, cb engine.Callback) (Handle, error) {
	idx := Route(source, len(d.shards))
	id, err := d.shards[idx].Add(source, cb)
	if err != nil {
		return Handle{}, err
	}
	return Handle{shard: idx, id: id}, nil
}

// Remove stops delivering matches for h. It has no effect on a Match
// already in progress; the change takes hold at the next Match.
func (d *Dispatcher) Remove(h Handle) {
	d.shards[h.shard].Remove(h.id)
}

// SetPrefilter installs pf as the literal prefilter for shard idx. Callers
// typically rebuild and install a prefilter after a batch of Add calls,
// once every pattern routed to that shard is known.
func (d *Dispatcher) SetPrefilter(idx int, pf engine.Prefilter) {
	d.shards[idx].Prefilter = pf
}

// Len returns the number of patterns currently registered on shard idx.
func (d *Dispatcher) Len(idx int) int {
	return d.shards[idx].Len()
}

// Match clones buf once per shard and scans every shard concurrently,
// blocking until all have finished. Ordering of callback invocations
// across shards is unspecified, since each shard's pattern partition is
// independent of every other's.
func (d *Dispatcher) Match(buf buffer.Buffer) error {
	var wg sync.WaitGroup
	errs := make([]error, len(d.shards))

	for i, eng := range d.shards {
		wg.Add(1)
		go func(i int, eng *engine.Engine) {
			defer wg.Done()
			errs[i] = eng.Scan(buf.Clone())
		}(i, eng)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// NDFAStateCount and DFAStateCount sum each shard's automaton size, for
// Stats snapshots at the public API layer.
func (d *Dispatcher) NDFAStateCount() int {
	total := 0
	for _, eng := range d.shards {
		total += eng.NDFAStateCount()
	}
	return total
}

func (d *Dispatcher) DFAStateCount() int {
	total := 0
	for _, eng := range d.shards {
		total += eng.DFAStateCount()
	}
	return total
}
