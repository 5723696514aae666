package engine

import "github.com/coregx/multimatch/buffer"

// Callback is invoked once for every maximal, non-overlapping match a
// registered pattern finds. start and end are byte offsets into the
// buffer that was scanned.
type Callback func(buf buffer.Buffer, start, end int)

// Pattern is one registered regular expression and the callback that
// receives its matches.
type Pattern struct {
	id       uint32
	source   string
	callback Callback
}

// Source returns the pattern's original regular expression text.
func (p *Pattern) Source() string { return p.source }
