// Package multimatch is the public entry point to the matching engine: a
// multi-pattern regex matcher that fuses every registered pattern into one
// shared automaton per shard and reports, per pattern, every maximal
// non-overlapping match found in a scanned buffer.
//
// Typical use:
//
//	m, _ := multimatch.New(multimatch.DefaultConfig())
//	reg, err := m.Add("foo|bar", func(buf buffer.Buffer, start, end int) {
//	    fmt.Println(buf.Substring(start, end+1))
//	})
//	m.Match(buffer.NewStringBuffer(text))
//	m.Remove(reg)
package multimatch

import (
	"errors"
	"fmt"
	"regexp/syntax"
	"strings"
	"sync"

	"github.com/coregx/multimatch/buffer"
	"github.com/coregx/multimatch/literal"
	"github.com/coregx/multimatch/ndfa"
	"github.com/coregx/multimatch/shard"
)

// Callback is invoked once per committed match. end is the position of the
// match's last matched character (inclusive) — the public contract, one
// less than the exclusive end engine.Callback works with internally.
// Callbacks must not call Add, Remove, Match, or Shutdown on the Matcher
// that invoked them.
type Callback func(buf buffer.Buffer, start, end int)

// Config controls a Matcher's shard count, automaton size limit, and
// optional optimizations. The zero Config is valid and selects every
// default.
type Config struct {
	// Shards overrides the default shard count of roughly 1.5x the
	// machine's core count. Zero keeps the default.
	Shards int

	// MaxDFAStates bounds each shard's lazy DFA cache. Zero uses
	// dfa.DefaultMaxStates.
	MaxDFAStates uint32

	// DisablePrefilter turns off the literal prefilter. Matching still
	// produces identical results with it off, only slower; useful for
	// isolating prefilter bugs during testing.
	DisablePrefilter bool
}

// DefaultConfig returns the zero Config: default shard count, default DFA
// state limit, prefilter enabled.
func DefaultConfig() Config {
	return Config{}
}

// Validate reports whether c can be used to construct a Matcher.
func (c Config) Validate() error {
	if c.Shards < 0 {
		return &ConfigurationError{Field: "Shards", Reason: "must not be negative"}
	}
	return nil
}

// ConfigurationError reports an invalid Config field. Returned by New;
// construction fails fast rather than silently clamping.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("multimatch: invalid config field %s: %s", e.Field, e.Reason)
}

// ParseError reports a pattern that failed to compile. Add returns one
// with no registration side effects: the pattern is not linked into any
// shard's automaton and no callback is registered.
type ParseError struct {
	Pattern string
	Pos     int // byte offset of the offending construct, or -1 if unknown
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("multimatch: parse %q at byte %d: %v", e.Pattern, e.Pos, e.Cause)
	}
	return fmt.Sprintf("multimatch: parse %q: %v", e.Pattern, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Stats is a snapshot of a Matcher's internal size, for debugging and
// tuning rather than anything load-bearing in match semantics.
type Stats struct {
	Shards         int
	Patterns       int
	NDFAStateCount int
	DFAStateCount  int
}

// Registration identifies one callback registered via Add. Pass it to
// Remove to stop delivering matches to that specific callback. Go func
// values are not comparable, so removal works off this handle rather
// than the callback value itself.
type Registration struct {
	source string
}

// pattern tracks everything shared by every callback registered for one
// source string: its parsed AST (reused by the prefilter, so it isn't
// re-parsed per callback) and the single shard handle its one compiled
// NDFA fragment was registered under.
type pattern struct {
	re        *syntax.Regexp
	handle    shard.Handle
	mu        sync.RWMutex
	callbacks map[*Registration]Callback
}

// Matcher registers pattern+callback pairs, runs them against buffers,
// and shuts down.
type Matcher struct {
	mu       sync.Mutex
	cfg      Config
	disp     *shard.Dispatcher
	patterns map[string]*pattern
	dirty    bool // prefilter needs rebuilding before the next Match
}

// New creates a Matcher. It returns a *ConfigurationError if cfg is
// invalid.
func New(cfg Config) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	disp, err := shard.New(shard.Config{Shards: cfg.Shards, MaxDFAStates: cfg.MaxDFAStates})
	if err != nil {
		return nil, err
	}
	return &Matcher{
		cfg:      cfg,
		disp:     disp,
		patterns: make(map[string]*pattern),
	}, nil
}

// Add compiles source if it has not already been registered, and
// associates cb with it. Multiple callbacks may be registered for the
// same source; each receives every match independently, and the source is
// compiled into the shared automaton only once regardless of how many
// callbacks ride on it. A malformed source returns a *ParseError and
// leaves the Matcher unchanged.
//
// Add/Remove must be serialized with each other and with any in-progress
// Match; callers own that synchronization.
func (m *Matcher) Add(source string, cb Callback) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg := &Registration{source: source}

	p, ok := m.patterns[source]
	if !ok {
		re, err := syntax.Parse(source, ndfa.ParseFlags)
		if err != nil {
			return nil, &ParseError{Pattern: source, Pos: findErrorPos(source, err), Cause: err}
		}
		p = &pattern{re: re.Simplify(), callbacks: make(map[*Registration]Callback)}

		handle, err := m.disp.Add(source, p.dispatch)
		if err != nil {
			var ce *ndfa.CompileError
			if errors.As(err, &ce) {
				return nil, &ParseError{Pattern: source, Pos: findErrorPos(source, err), Cause: err}
			}
			return nil, err
		}
		p.handle = handle
		m.patterns[source] = p
	}

	p.mu.Lock()
	p.callbacks[reg] = cb
	p.mu.Unlock()

	m.dirty = true
	return reg, nil
}

// dispatch is p's single engine-level callback: it converts the internal
// exclusive end to the public inclusive contract once, then fans the
// match out to every Go-level callback currently registered for p.
func (p *pattern) dispatch(buf buffer.Buffer, start, end int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, cb := range p.callbacks {
		cb(buf, start, end-1)
	}
}

// findErrorPos makes a best effort at recovering a byte offset from a
// regexp/syntax.Error: it looks for the offending sub-expression text
// inside the original source. regexp/syntax does not track positions
// directly, so this is an approximation, not an exact offset.
func findErrorPos(source string, err error) int {
	var se *syntax.Error
	if errors.As(err, &se) && se.Expr != "" {
		if idx := strings.Index(source, se.Expr); idx >= 0 {
			return idx
		}
	}
	return -1
}

// Remove stops delivering matches to reg's callback. The pattern itself is
// unregistered only once every callback registered for its source has been
// removed; its compiled NDFA states stay in the shard's shared arena, which
// has no structural removal. Removal has
// no retroactive effect on matches already committed from an in-progress
// Match; the change takes hold at the next Match.
func (m *Matcher) Remove(reg *Registration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.patterns[reg.source]
	if !ok {
		return
	}

	p.mu.Lock()
	delete(p.callbacks, reg)
	empty := len(p.callbacks) == 0
	p.mu.Unlock()

	if empty {
		m.disp.Remove(p.handle)
		delete(m.patterns, reg.source)
	}
	m.dirty = true
}

// rebuildPrefilter rebuilds every shard's literal prefilter from the
// currently registered patterns' parsed ASTs. Called lazily, right before
// the first Match after any Add/Remove: a freshly built Matcher that
// never calls Match never pays for it.
func (m *Matcher) rebuildPrefilter() {
	if m.cfg.DisablePrefilter {
		m.dirty = false
		return
	}

	builders := make(map[int]*literal.Builder)
	for _, p := range m.patterns {
		idx := p.handle.Shard()
		b, ok := builders[idx]
		if !ok {
			b = literal.NewBuilder(literal.DefaultConfig())
			builders[idx] = b
		}
		b.Add(p.handle.ID(), p.re)
	}

	for idx := 0; idx < m.disp.Shards(); idx++ {
		b, ok := builders[idx]
		if !ok {
			m.disp.SetPrefilter(idx, nil)
			continue
		}
		idxAuto, err := b.Build()
		if err != nil {
			// A broken Aho-Corasick build degrades to no prefilter for
			// this shard rather than failing Match outright: matching
			// without a prefilter is always correct, just slower.
			m.disp.SetPrefilter(idx, nil)
			continue
		}
		m.disp.SetPrefilter(idx, idxAuto)
	}
	m.dirty = false
}

// Match runs every registered pattern against buf once, invoking each
// pattern's callbacks for every maximal, non-overlapping match found. It
// blocks until the scan completes across every shard.
func (m *Matcher) Match(buf buffer.Buffer) error {
	m.mu.Lock()
	if m.dirty {
		m.rebuildPrefilter()
	}
	disp := m.disp
	m.mu.Unlock()

	return disp.Match(buf)
}

// Shutdown waits for any in-flight shard work to finish. It is idempotent
// and safe to call multiple times.
func (m *Matcher) Shutdown() {
	// Shards run no background goroutines outside of Match's own wait
	// group, which has already returned by the time Match does; Shutdown
	// exists as a forward extension point for a worker-pool-backed
	// Dispatcher with a real grace period to wait out.
}

// Stats returns a snapshot of the Matcher's current size.
func (m *Matcher) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Shards:         m.disp.Shards(),
		Patterns:       len(m.patterns),
		NDFAStateCount: m.disp.NDFAStateCount(),
		DFAStateCount:  m.disp.DFAStateCount(),
	}
}
