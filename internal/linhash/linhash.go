// Package linhash implements the randomized affine hash family
// h(x) = (a*x + b) mod p over a fixed prime field.
package linhash

import (
	"fmt"

	"github.com/dvpolyakov/fixedset/internal/modarith"
)

// DefaultModulus is the Mersenne prime 2^31 - 1.
const DefaultModulus uint64 = 2147483647

// Source is a uniform random source. *math/rand/v2.Rand satisfies it.
type Source interface {
	// Uint64N returns a uniform value in [0, n). n must be > 0.
	Uint64N(n uint64) uint64
}

// Func is an immutable hash function (coefficient, intercept, modulus).
// The zero value is not a usable hash function; see IsZero.
type Func struct {
	coeff     uint64
	intercept uint64
	modulus   uint64
}

// New returns the hash function (coeff*x + intercept) mod modulus.
// A zero modulus selects DefaultModulus. coeff and intercept are reduced
// into [0, modulus).
func New(coeff, intercept, modulus uint64) Func {
	if modulus == 0 {
		modulus = DefaultModulus
	}
	return Func{
		coeff:     coeff % modulus,
		intercept: intercept % modulus,
		modulus:   modulus,
	}
}

// Random draws a function from the family: coefficient in [0, modulus-1],
// intercept in [1, modulus-1]. The intercept excludes zero so that a zero
// coefficient cannot produce the all-zero map. modulus must be >= 2; a zero
// modulus selects DefaultModulus.
func Random(src Source, modulus uint64) Func {
	if modulus == 0 {
		modulus = DefaultModulus
	}
	coeff := src.Uint64N(modulus)
	intercept := src.Uint64N(modulus-1) + 1
	return Func{coeff: coeff, intercept: intercept, modulus: modulus}
}

// Eval returns (coeff*key + intercept) mod modulus, floored, so the result is
// in [0, modulus) for negative keys too.
func (f Func) Eval(key int64) uint64 {
	x := modarith.FloorMod(key, f.modulus)
	return modarith.MulAddMod(f.coeff, x, f.intercept, f.modulus)
}

// Coeff returns the multiplicative coefficient.
func (f Func) Coeff() uint64 { return f.coeff }

// Intercept returns the additive intercept.
func (f Func) Intercept() uint64 { return f.intercept }

// Modulus returns the prime modulus.
func (f Func) Modulus() uint64 { return f.modulus }

// IsZero reports whether f is the zero value (no hash function).
func (f Func) IsZero() bool { return f.modulus == 0 }

// String returns the function in "(a*x + b) mod p" form.
func (f Func) String() string {
	if f.IsZero() {
		return "linhash.Func{}"
	}
	return fmt.Sprintf("(%d*x + %d) mod %d", f.coeff, f.intercept, f.modulus)
}
