package prime_test

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/primestress/primestress/internal/arith/gobig"
	"github.com/primestress/primestress/internal/prime"
)

func TestParseMethod(t *testing.T) {
	t.Parallel()

	for _, m := range prime.Methods() {
		got, err := prime.ParseMethod(string(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}

	got, err := prime.ParseMethod("  PWR2 ")
	require.NoError(t, err)
	require.Equal(t, prime.MethodPwr2, got)

	_, err = prime.ParseMethod("fibonacci")
	require.Error(t, err)
	require.Contains(t, err.Error(), "factorial inc pwr2 pwr10")
}

func TestNewStrategy_UnknownMethod(t *testing.T) {
	t.Parallel()

	_, err := prime.NewStrategy(gobig.New(), prime.Method("nope"))
	require.Error(t, err)
}

func TestStrategy_CandidatesStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	for _, m := range prime.Methods() {
		m := m
		t.Run(string(m), func(t *testing.T) {
			t.Parallel()

			a := gobig.New()
			s, err := prime.NewStrategy(a, m)
			require.NoError(t, err)
			defer s.Close()

			start := a.New(1)
			value := a.New(0)
			prev := new(big.Int)
			for i := 0; i < 8; i++ {
				a.NextPrime(value, start)
				s.Advance(start, value)

				cur, ok := new(big.Int).SetString(start.String(), 10)
				require.True(t, ok)
				require.Greater(t, cur.Cmp(prev), 0, "candidate must strictly increase")
				require.GreaterOrEqual(t, cur.Cmp(big.NewInt(2)), 0, "candidate must be >= 2")
				prev.Set(cur)
			}
			a.Release(start, value)
		})
	}
}

func TestIncStrategy_NextCandidateIsPrimePlusTwo(t *testing.T) {
	t.Parallel()

	a := gobig.New()
	s, err := prime.NewStrategy(a, prime.MethodInc)
	require.NoError(t, err)
	defer s.Close()

	start := a.New(1)
	value := a.New(0)
	for i := 0; i < 20; i++ {
		a.NextPrime(value, start)
		p, ok := new(big.Int).SetString(value.String(), 10)
		require.True(t, ok)

		s.Advance(start, value)
		want := new(big.Int).Add(p, big.NewInt(2))
		require.Equal(t, want.String(), start.String())
	}
}

func TestPowerStrategies_ExactSequences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		method prime.Method
		base   int64
	}{
		{prime.MethodPwr2, 2},
		{prime.MethodPwr10, 10},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.method), func(t *testing.T) {
			t.Parallel()

			a := gobig.New()
			s, err := prime.NewStrategy(a, tc.method)
			require.NoError(t, err)
			defer s.Close()

			// The power methods never read the found prime, so the
			// candidate after n steps from 1 is exactly base^n.
			start := a.New(1)
			for n := 1; n <= 40; n++ {
				s.Advance(start, nil)
				want := new(big.Int).Exp(big.NewInt(tc.base), big.NewInt(int64(n)), nil)
				require.Equal(t, want.String(), start.String(), "after %d steps", n)
			}
		})
	}
}

func TestFactorialStrategy_Sequence(t *testing.T) {
	t.Parallel()

	a := gobig.New()
	s, err := prime.NewStrategy(a, prime.MethodFactorial)
	require.NoError(t, err)
	defer s.Close()

	// Starting from 1 with m=2, the k-th candidate is (k+1)!.
	start := a.New(1)
	want := []string{"2", "6", "24", "120", "720", "5040"}
	for i, w := range want {
		s.Advance(start, nil)
		require.Equal(t, w, start.String(), fmt.Sprintf("step %d", i+1))
	}
}
