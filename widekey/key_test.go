package widekey

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuloMatchesBigIntReduction(t *testing.T) {
	n := uint32(1_000_003)
	shift64, shift128 := ShiftConstants(n)

	cases := []Key{
		NewKey192(1, 0, 0),
		NewKey192(0xffffffffffffffff, 0x1, 0x2),
		NewKey192(123456789, 987654321, 42),
	}

	a192 := New(Width192)
	for _, k := range cases {
		got := a192.Modulo(k, n, shift64, shift128)
		want := bigMod192(k, n)
		require.Equal(t, want, got, "key=%+v", k)
	}

	a128 := New(Width128)
	for _, k := range cases {
		k.Mi = 0
		got := a128.Modulo(k, n, shift64, shift128)
		want := bigMod128(k, n)
		require.Equal(t, want, got, "key=%+v", k)
	}
}

// bigMod192/128 compute k mod n the slow, obviously-correct way with
// math/big over the full key value, to cross-check the limb-reduction
// trick.
func bigMod192(k Key, n uint32) uint32 {
	v := new(big.Int).SetUint64(k.Hi)
	v.Lsh(v, 64).Or(v, new(big.Int).SetUint64(k.Mi))
	v.Lsh(v, 64).Or(v, new(big.Int).SetUint64(k.Lo))
	return uint32(v.Mod(v, big.NewInt(int64(n))).Uint64())
}

func bigMod128(k Key, n uint32) uint32 {
	v := new(big.Int).SetUint64(k.Hi)
	v.Lsh(v, 64).Or(v, new(big.Int).SetUint64(k.Lo))
	return uint32(v.Mod(v, big.NewInt(int64(n))).Uint64())
}

func TestAdd32OverflowOnTopLimbCarry(t *testing.T) {
	a := New(Width192)
	k := NewKey192(0, 0, ^uint64(0))
	// Force Lo and Mi to both be maxed so the add carries all the way
	// into Hi and wraps it.
	k.Lo = ^uint64(0)
	k.Mi = ^uint64(0)
	_, err := a.Add32(k, 1)
	require.Error(t, err)
	var overflow *OverflowError
	require.ErrorAs(t, err, &overflow)
	require.Equal(t, Width192, overflow.Width)
}

func TestAdd32NoOverflow(t *testing.T) {
	a := New(Width192)
	k := NewKey192(^uint64(0), 0, 0)
	got, err := a.Add32(k, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(4), got.Lo)
	require.Equal(t, uint64(1), got.Mi)
	require.Equal(t, uint64(0), got.Hi)
}

func TestAssignLoadZeroCheckRoundTrip192(t *testing.T) {
	a := New(Width192)
	tbl := a.Allocate(4)

	require.False(t, a.ZeroCheck(tbl, 0))

	k := NewKey192(11, 22, 33)
	a.Assign(tbl, 2, k)
	require.True(t, a.ZeroCheck(tbl, 2))
	require.Equal(t, k, a.Load(tbl, 2))
	require.True(t, a.Verify(tbl, 2, k))
	require.False(t, a.Verify(tbl, 2, NewKey192(11, 22, 34)))

	a.AssignZero(tbl, 2)
	require.False(t, a.ZeroCheck(tbl, 2))
}

func TestAssignLoadZeroCheckRoundTrip128(t *testing.T) {
	a := New(Width128)
	tbl := a.Allocate(4)

	k := NewKey128(0xdeadbeef, 0xcafef00d)
	a.Assign(tbl, 1, k)
	require.Equal(t, k, a.Load(tbl, 1))
	require.True(t, a.Verify(tbl, 1, k))
}

func TestComputeStoredOffsetRecoversSlot(t *testing.T) {
	a := New(Width192)
	m := uint32(997)
	shift64, shift128 := ShiftConstants(m)

	k := NewKey192(123456, 7, 0)
	hIdx := a.ComputeHIndex(k, m, shift64, shift128)

	for _, idx := range []int{0, 1, int(hIdx), int(m) - 1} {
		offset := a.ComputeStoredOffset(k, idx, m, shift64, shift128)
		recovered := (hIdx + offset) % m
		require.Equal(t, uint32(idx), recovered)
	}
}

func TestShiftConstantsSmallModulus(t *testing.T) {
	shift64, shift128 := ShiftConstants(5)
	// 2^64 mod 5 == 1, 2^128 mod 5 == 1.
	require.Equal(t, uint64(1), shift64)
	require.Equal(t, uint64(1), shift128)
}

func TestKeyIsZero(t *testing.T) {
	require.True(t, Key{}.IsZero())
	require.False(t, NewKey128(1, 0).IsZero())
	require.False(t, NewKey192(0, 1, 0).IsZero())
}
