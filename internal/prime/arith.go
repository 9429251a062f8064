// Package prime defines the domain boundaries of the prime-search
// workload: the arbitrary-precision arithmetic backend, the candidate
// growth strategies, and the clock used to scope search timing.
package prime

import "time"

// Integer is an opaque arbitrary-precision integer handle. A handle is
// owned by the backend that created it and by exactly one worker; it is
// not safe for concurrent mutation.
type Integer interface {
	// String renders the value in decimal.
	String() string
}

// Arith is the boundary to the arbitrary-precision arithmetic engine.
// Destination handles may alias operand handles. The search loop treats
// NextPrime as its sole primality oracle; the call may be arbitrarily
// expensive for large operands and has no internal cancellation point.
type Arith interface {
	// New returns a fresh handle holding the small value n.
	New(n uint64) Integer
	// Set assigns the small value n to dst.
	Set(dst Integer, n uint64)
	// Mul stores a*b into dst.
	Mul(dst, a, b Integer)
	// MulSmall stores a*n into dst.
	MulSmall(dst, a Integer, n uint64)
	// AddSmall stores a+n into dst.
	AddSmall(dst, a Integer, n uint64)
	// NextPrime stores the smallest prime strictly greater than n into dst.
	NextPrime(dst, n Integer)
	// Digits reports the decimal digit length of x.
	Digits(x Integer) int
	// Release returns handles to the backend for reuse. Released handles
	// must not be used again.
	Release(xs ...Integer)
}

// Clock supplies the timestamps used for search timing and progress
// gating.
type Clock interface {
	Now() time.Time
}
