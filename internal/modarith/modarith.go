// Package modarith provides overflow-free modular arithmetic primitives.
package modarith

import "math/bits"

// FloorMod returns x mod m with the result always in [0, m), including for
// negative x. m must be non-zero.
//
// Truncated remainder (Go's %) keeps the sign of the dividend, so -1 % 7 is -1.
// Floored modulo maps it to 6 instead.
func FloorMod(x int64, m uint64) uint64 {
	if x >= 0 {
		return uint64(x) % m
	}
	// -(x+1) cannot overflow, even for math.MinInt64.
	return m - 1 - uint64(-(x+1))%m
}

// MulAddMod returns (a*x + b) mod m using a 128-bit intermediate, so the
// product never wraps. a, x and b must already be reduced into [0, m).
func MulAddMod(a, x, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, x)
	var carry uint64
	lo, carry = bits.Add64(lo, b, 0)
	hi += carry
	// hi < m holds because a, x < m, so Rem64 never sees a quotient overflow.
	return bits.Rem64(hi, lo, m)
}
