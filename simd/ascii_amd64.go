//go:build amd64

package simd

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// hasWideLoads reports whether the CPU moves 32-byte chunks efficiently
// (AVX2-class parts). The wide SWAR loop below only pays for itself there;
// older CPUs go straight to the 8-byte generic path.
var hasWideLoads = cpu.X86.HasAVX2

// IsASCII checks if all bytes in the slice are ASCII (< 0x80).
// Returns true if all bytes have the high bit clear (values 0x00-0x7F).
//
// This function is critical for UTF-8 optimization in the regex engine.
// When input is ASCII-only, the engine can skip UTF-8 decoding overhead
// entirely and treat every byte as a one-byte rune.
func IsASCII(data []byte) bool {
	// Empty slice is trivially ASCII
	if len(data) == 0 {
		return true
	}

	// For small inputs (< 32 bytes), the wide loop's setup cost outweighs
	// the benefit.
	if hasWideLoads && len(data) >= 32 {
		return isASCIIWide(data)
	}

	return isASCIIGeneric(data)
}

// isASCIIWide checks 32 bytes per iteration as four 8-byte SWAR lanes: OR
// the lanes together, then test the combined high bits once. A single
// branch per 32 bytes keeps the loop memory-bandwidth bound on AVX2-class
// hardware.
func isASCIIWide(data []byte) bool {
	const hi8 = uint64(0x8080808080808080)

	i := 0
	for i+32 <= len(data) {
		a := binary.LittleEndian.Uint64(data[i:])
		b := binary.LittleEndian.Uint64(data[i+8:])
		c := binary.LittleEndian.Uint64(data[i+16:])
		d := binary.LittleEndian.Uint64(data[i+24:])
		if (a|b|c|d)&hi8 != 0 {
			return false
		}
		i += 32
	}

	// Tail of 0-31 bytes.
	return isASCIIGeneric(data[i:])
}
