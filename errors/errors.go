// Package errors defines all exported error sentinels for the fixedset library.
//
// This is the single source of truth for error values. Both the top-level
// fixedset package and the internal packages import from here, so errors.Is
// checks work across package boundaries.
package errors

import "errors"

// Construction errors
var (
	ErrConstructionExhausted     = errors.New("fixedset: hash search exceeded its attempt limit")
	ErrDuplicateElement          = errors.New("fixedset: duplicate element")
	ErrIndistinguishableElements = errors.New("fixedset: distinct elements are congruent modulo the hash prime")
)

// Configuration errors
var (
	ErrInvalidModulus   = errors.New("fixedset: modulus must be a prime >= 2")
	ErrInvalidSizeRatio = errors.New("fixedset: size ratio must be >= 1")
	ErrInvalidAttempts  = errors.New("fixedset: max attempts must be >= 0")
)

// Key file errors
var (
	ErrInvalidMagic   = errors.New("fixedset: invalid key file magic number")
	ErrInvalidVersion = errors.New("fixedset: unsupported key file version")
	ErrTruncatedFile  = errors.New("fixedset: key file is truncated")
	ErrChecksumFailed = errors.New("fixedset: key file checksum verification failed")
	ErrCorruptedFile  = errors.New("fixedset: key file is corrupted")
)
