// Package conv provides safe integer conversion helpers for the matching
// engine's id arenas.
//
// NDFA and DFA state ids are stored as uint32 so that basis vectors and
// transition tables stay compact; these helpers guard the narrowing
// conversions from plain int counters used elsewhere in the engine. They
// panic on overflow since running out of 32-bit ids indicates a pattern set
// far beyond anything this engine is designed for, not a recoverable error.
package conv

import "math"

// IntToUint32 safely converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
func IntToUint32(n int) uint32 {
	// Use uint for comparison to avoid overflow on 32-bit platforms
	// where int cannot represent math.MaxUint32.
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("conv: integer overflow converting int to uint32")
	}
	return uint32(n)
}

// Uint32ToInt safely converts a uint32 to int.
// Panics if the platform's int cannot represent n (32-bit platforms only).
func Uint32ToInt(n uint32) int {
	if uint64(n) > uint64(math.MaxInt) {
		panic("conv: integer overflow converting uint32 to int")
	}
	return int(n)
}
