package solver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"perfecthash/bucket"
	"perfecthash/widekey"
)

func buildAndSolve(t *testing.T, keys []widekey.Key, r uint32, seed int64) (Outcome, *widekey.Table, []uint32, widekey.Adapter, uint32) {
	t.Helper()
	adapter := widekey.New(widekey.Width192)
	m := uint32(len(keys))*2 + 1
	for gcdUint32(r, m) != 1 {
		m += 2
	}
	shift64R, shift128R := widekey.ShiftConstants(r)
	shift64M, shift128M := widekey.ShiftConstants(m)

	infos, maxPop, err := bucket.Build(keys, adapter, r, shift64R, shift128R, 2)
	require.NoError(t, err)
	bucket.Sort(infos, maxPop)

	h := adapter.Allocate(int(m))
	o := make([]uint32, r)

	s := New(adapter, h, o, m, shift64M, shift128M, seed, time.Hour, time.Hour)
	outcome, err := s.Run(keys, infos)
	require.NoError(t, err)
	return outcome, h, o, adapter, m
}

func gcdUint32(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func verifyAll(t *testing.T, keys []widekey.Key, h *widekey.Table, o []uint32, adapter widekey.Adapter, r, m uint32, shift64R, shift128R, shift64M, shift128M uint64) {
	t.Helper()
	seen := make(map[uint32]bool)
	for _, k := range keys {
		b := adapter.Modulo(k, r, shift64R, shift128R)
		idx := (adapter.ComputeHIndex(k, m, shift64M, shift128M) + o[b]) % m
		require.False(t, seen[idx], "slot %d hit twice", idx)
		seen[idx] = true
		require.True(t, adapter.ZeroCheck(h, int(idx)))
		require.True(t, adapter.Verify(h, int(idx), k))
	}
	require.Equal(t, len(keys), len(seen))
}

func TestSolverTinyFourKeys(t *testing.T) {
	keys := []widekey.Key{
		widekey.NewKey192(1, 0, 0),
		widekey.NewKey192(2, 0, 0),
		widekey.NewKey192(3, 0, 0),
		widekey.NewKey192(4, 0, 0),
	}
	r := uint32(1)
	outcome, h, o, adapter, m := buildAndSolve(t, keys, r, 42)
	require.True(t, outcome.Converged)

	shift64R, shift128R := widekey.ShiftConstants(r)
	shift64M, shift128M := widekey.ShiftConstants(m)
	verifyAll(t, keys, h, o, adapter, r, m, shift64R, shift128R, shift64M, shift128M)
}

func TestSolverSmallUniform(t *testing.T) {
	n := 500
	keys := make([]widekey.Key, n)
	for i := range keys {
		keys[i] = widekey.NewKey192(uint64(i*2654435761+1), uint64(i), 0)
	}
	r := uint32(n/4 + 1)
	outcome, h, o, adapter, m := buildAndSolve(t, keys, r, 7)
	require.True(t, outcome.Converged)

	shift64R, shift128R := widekey.ShiftConstants(r)
	shift64M, shift128M := widekey.ShiftConstants(m)
	verifyAll(t, keys, h, o, adapter, r, m, shift64R, shift128R, shift64M, shift128M)
}

func TestSolverCollisionRichBucket(t *testing.T) {
	// 8 keys forced into the same h_O bucket by construction: r=3 and
	// values chosen so LO mod r is identical for all eight (MI and HI
	// are zero, so LO alone decides the bucket).
	r := uint32(3)
	keys := make([]widekey.Key, 0, 8)
	for i := 0; i < 8; i++ {
		keys = append(keys, widekey.NewKey192(uint64(i*3+1), 0, 0))
	}
	outcome, h, o, adapter, m := buildAndSolve(t, keys, r, 99)
	require.True(t, outcome.Converged)

	shift64R, shift128R := widekey.ShiftConstants(r)
	shift64M, shift128M := widekey.ShiftConstants(m)
	verifyAll(t, keys, h, o, adapter, r, m, shift64R, shift128R, shift64M, shift128M)
}

func TestSolverDeterministicGivenSeed(t *testing.T) {
	n := 200
	keys := make([]widekey.Key, n)
	for i := range keys {
		keys[i] = widekey.NewKey192(uint64(i*97+3), uint64(i*13), 0)
	}
	r := uint32(n/4 + 1)

	_, h1, o1, _, _ := buildAndSolve(t, keys, r, 123)
	_, h2, o2, _, _ := buildAndSolve(t, keys, r, 123)

	require.Equal(t, o1, o2)
	require.Equal(t, h1.SizeBytes(), h2.SizeBytes())
}

func TestWatchdogAbortsOnStall(t *testing.T) {
	w := NewWatchdog(10*time.Millisecond, 10*time.Millisecond)
	w.Start()
	defer w.Stop()
	time.Sleep(60 * time.Millisecond)
	require.True(t, w.ShouldAbort())
}

func TestWatchdogNoAbortWhenAdvancing(t *testing.T) {
	w := NewWatchdog(10*time.Millisecond, 10*time.Millisecond)
	w.Start()
	defer w.Stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			w.Advance(i)
			time.Sleep(2 * time.Millisecond)
		}
	}()
	<-done
	require.False(t, w.ShouldAbort())
}
