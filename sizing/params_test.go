package sizing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectTinyProducesCoprimeOddM(t *testing.T) {
	p := Select(4)
	require.Equal(t, uint32(5), p.M, "m should be odd and close to N*muH")
	require.Equal(t, uint32(1), gcd(p.R, p.M))
	require.True(t, p.M%2 == 1)
}

func TestSelectZeroKeys(t *testing.T) {
	p := Select(0)
	require.Equal(t, uint32(1), p.M)
	require.Equal(t, uint32(1), gcd(p.R, p.M))
	require.False(t, p.Oversize())
}

func TestSelectStaircaseRowsAreOrdered(t *testing.T) {
	sizes := []int{500, 5_000, 50_000, 500_000, 5_000_000, 50_000_000, 150_000_000, 300_000_000}
	var prevMuO float64
	for _, n := range sizes {
		p := Select(n)
		require.GreaterOrEqual(t, p.MuO, prevMuO)
		prevMuO = p.MuO
	}
}

func TestRetryAdvancesRWithoutTouchingMUntilFifthRetry(t *testing.T) {
	p := Select(1000)
	m0 := p.M
	muO0, muH0 := p.MuO, p.MuH

	for i := 1; i <= 4; i++ {
		p.Retry()
		require.Equal(t, m0, p.M, "m must not change before the 5th retry")
		require.Equal(t, muO0, p.MuO)
		require.Equal(t, muH0, p.MuH)
	}

	p.Retry() // 5th retry: multipliers bump and sizes are rederived
	require.InDelta(t, muO0+0.05, p.MuO, 1e-9)
	require.InDelta(t, muH0+0.005, p.MuH, 1e-9)
}

func TestRetryAlwaysKeepsCoprimality(t *testing.T) {
	p := Select(9973)
	for i := 0; i < 25; i++ {
		p.Retry()
		require.Equal(t, uint32(1), gcd(p.R, p.M), "iteration %d", i)
	}
}

func TestNextPrimeIsTotalAndStrictlyGreater(t *testing.T) {
	for digit := uint32(0); digit <= 9; digit++ {
		got := nextPrime(digit)
		require.Greater(t, got, digit)
		require.True(t, isPrime(got), "nextPrime(%d)=%d not prime", digit, got)
	}
}

func isPrime(n uint32) bool {
	if n < 2 {
		return false
	}
	for i := uint32(2); i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}
