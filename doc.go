// Package fixedset implements an immutable membership set for signed
// integers using two-level static perfect hashing (the FKS scheme).
//
// Construction takes expected linear time; Contains is worst-case O(1):
// two hash evaluations and one comparison, with no probing.
//
// # Basic Usage
//
//	set, err := fixedset.New(ctx, []int64{3, 7, 11, 19})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(set.Contains(11)) // true
//	fmt.Println(set.Contains(5))  // false
//
// # How It Works
//
// Both levels draw hash functions from the family h(x) = (a*x + b) mod p,
// with p = 2^31 - 1 by default.
//
//   - Top level: a function is drawn until the n elements, spread over n
//     buckets, satisfy sum(size_i^2) <= 2n. This bound keeps total storage
//     linear.
//   - Bucket level: bucket i with m_i elements draws a function until its
//     elements land in distinct cells of an m_i^2 table, then stores them.
//
// Contains hashes once to pick a bucket, once to pick a cell, and compares
// the stored element.
//
// # Input Requirements
//
// Elements must be distinct, and no two may be congruent modulo p, since
// every function in the family maps congruent values together. New rejects
// such input with ErrDuplicateElement or ErrIndistinguishableElements from
// the errors subpackage. The default prime 2^31 - 1 is narrower than the
// int32 range, so even arbitrary int32 input can hit this; use WithModulus
// with a larger prime (for example 2^61 - 1) for keys that span more than
// 2^31 - 1 values.
//
// # Package Structure
//
//   - Public API: set.go (New, Contains), options.go (Option, With* functions), stats.go
//   - Bucket tables: bucket.go; parallel bucket construction: build.go
//   - Seed derivation: seed.go (independent source per bucket)
//   - Hash family: internal/linhash; modular arithmetic: internal/modarith
//   - Randomized search and occupancy oracle: internal/search
//   - Bench key files: internal/keyfile
package fixedset
