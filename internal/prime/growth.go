package prime

import (
	"fmt"
	"strings"
)

// Method selects how each successive search candidate is derived from
// the previous candidate and the most recently found prime. It is fixed
// for a worker's entire lifetime.
type Method string

// Supported growth methods.
const (
	// MethodFactorial multiplies the candidate by an ever-growing
	// factor, exercising very large operands quickly.
	MethodFactorial Method = "factorial"
	// MethodInc restarts the search just past the previous prime,
	// walking primes in a tight sequence.
	MethodInc Method = "inc"
	// MethodPwr2 doubles the candidate each iteration.
	MethodPwr2 Method = "pwr2"
	// MethodPwr10 multiplies the candidate by ten each iteration,
	// useful for digit-length milestones.
	MethodPwr10 Method = "pwr10"
)

// Methods lists the supported growth methods in declaration order.
func Methods() []Method {
	return []Method{MethodFactorial, MethodInc, MethodPwr2, MethodPwr10}
}

// ParseMethod resolves a config value to a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods() {
		if m == known {
			return m, nil
		}
	}
	names := make([]string, 0, len(Methods()))
	for _, known := range Methods() {
		names = append(names, string(known))
	}
	return "", fmt.Errorf("prime method must be one of: %s", strings.Join(names, " "))
}

// Strategy produces the next search candidate. Advance mutates start in
// place; value is the most recently found prime and is only read by the
// inc method. Close releases any strategy-owned handles and must not be
// called after a forced worker exit.
type Strategy interface {
	Advance(start, value Integer)
	Close()
}

// NewStrategy builds the Strategy for the given method on top of the
// supplied backend.
func NewStrategy(a Arith, method Method) (Strategy, error) {
	switch method {
	case MethodFactorial:
		return &factorialStrategy{a: a, m: a.New(2)}, nil
	case MethodInc:
		return incStrategy{a: a}, nil
	case MethodPwr2:
		return mulStrategy{a: a, factor: 2}, nil
	case MethodPwr10:
		return mulStrategy{a: a, factor: 10}, nil
	default:
		return nil, fmt.Errorf("unknown prime method %q", method)
	}
}

// factorialStrategy multiplies the candidate by a monotonically
// increasing factor m, m starting at 2.
type factorialStrategy struct {
	a Arith
	m Integer
}

func (s *factorialStrategy) Advance(start, _ Integer) {
	s.a.Mul(start, start, s.m)
	s.a.AddSmall(s.m, s.m, 1)
}

func (s *factorialStrategy) Close() {
	s.a.Release(s.m)
}

// incStrategy resumes two past the found prime; p+1 is even for any
// prime p > 2, so the next prime is at least p+2.
type incStrategy struct {
	a Arith
}

func (s incStrategy) Advance(start, value Integer) {
	s.a.AddSmall(start, value, 2)
}

func (incStrategy) Close() {}

// mulStrategy scales the candidate by a fixed factor each iteration.
type mulStrategy struct {
	a      Arith
	factor uint64
}

func (s mulStrategy) Advance(start, _ Integer) {
	s.a.MulSmall(start, start, s.factor)
}

func (mulStrategy) Close() {}
