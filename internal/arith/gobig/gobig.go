// Package gobig implements the prime.Arith boundary on math/big.
package gobig

import (
	"math/big"
	"sync"

	"github.com/primestress/primestress/internal/prime"
)

// rounds is the Miller-Rabin round count handed to ProbablyPrime.
// Results are already deterministic for operands below 2^64; the extra
// rounds keep the error probability negligible for the huge operands
// the factorial and power methods produce.
const rounds = 20

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Backend implements prime.Arith with math/big integers. Released
// handles are pooled and reused across iterations so steady-state
// searching does not churn allocations.
type Backend struct {
	pool sync.Pool
}

// New creates a Backend.
func New() *Backend {
	b := &Backend{}
	b.pool.New = func() any {
		return &handle{v: new(big.Int)}
	}
	return b
}

type handle struct {
	v *big.Int
}

// String renders the value in decimal.
func (h *handle) String() string {
	return h.v.Text(10)
}

// New returns a pooled handle holding n.
func (b *Backend) New(n uint64) prime.Integer {
	h := b.pool.Get().(*handle)
	h.v.SetUint64(n)
	return h
}

// Set assigns n to dst.
func (b *Backend) Set(dst prime.Integer, n uint64) {
	unwrap(dst).SetUint64(n)
}

// Mul stores x*y into dst.
func (b *Backend) Mul(dst, x, y prime.Integer) {
	unwrap(dst).Mul(unwrap(x), unwrap(y))
}

// MulSmall stores x*n into dst.
func (b *Backend) MulSmall(dst, x prime.Integer, n uint64) {
	t := b.pool.Get().(*handle)
	t.v.SetUint64(n)
	unwrap(dst).Mul(unwrap(x), t.v)
	b.pool.Put(t)
}

// AddSmall stores x+n into dst.
func (b *Backend) AddSmall(dst, x prime.Integer, n uint64) {
	t := b.pool.Get().(*handle)
	t.v.SetUint64(n)
	unwrap(dst).Add(unwrap(x), t.v)
	b.pool.Put(t)
}

// NextPrime stores the smallest prime strictly greater than n into dst.
// The scan walks odd values, so the cost grows with the prime gap and
// the operand size; callers must treat this as a blocking call with no
// cancellation point.
func (b *Backend) NextPrime(dst, n prime.Integer) {
	d, s := unwrap(dst), unwrap(n)
	if s.Cmp(one) <= 0 {
		d.SetUint64(2)
		return
	}
	d.Add(s, one)
	if d.Bit(0) == 0 {
		d.Add(d, one)
	}
	for !d.ProbablyPrime(rounds) {
		d.Add(d, two)
	}
}

// Digits reports the decimal digit length of x.
func (b *Backend) Digits(x prime.Integer) int {
	return len(unwrap(x).Text(10))
}

// Release returns handles to the pool. Nil entries are ignored.
func (b *Backend) Release(xs ...prime.Integer) {
	for _, x := range xs {
		if h, ok := x.(*handle); ok && h != nil {
			b.pool.Put(h)
		}
	}
}

func unwrap(x prime.Integer) *big.Int {
	return x.(*handle).v
}
