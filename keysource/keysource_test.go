package keysource

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"perfecthash/widekey"
)

func TestDedupRemovesExactDuplicatesOnly(t *testing.T) {
	keys := []widekey.Key{
		widekey.NewKey192(1, 0, 0),
		widekey.NewKey192(2, 0, 0),
		widekey.NewKey192(1, 0, 0), // exact duplicate of index 0
		widekey.NewKey192(1, 1, 0), // shares LO with index 0 but differs
		widekey.NewKey192(3, 0, 0),
	}
	out := Dedup(keys)

	seen := map[widekey.Key]int{}
	for _, k := range out {
		seen[k]++
	}
	require.Equal(t, 1, seen[widekey.NewKey192(1, 0, 0)])
	require.Equal(t, 1, seen[widekey.NewKey192(1, 1, 0)])
	require.Len(t, out, 4)
}

func TestDedupNoDuplicates(t *testing.T) {
	keys := make([]widekey.Key, 200)
	for i := range keys {
		keys[i] = widekey.NewKey192(uint64(i*2654435761+1), uint64(i), 0)
	}
	out := Dedup(keys)
	require.Len(t, out, len(keys))
}

func TestDedupEmpty(t *testing.T) {
	require.Empty(t, Dedup(nil))
}

func TestFromSliceDeduplicates(t *testing.T) {
	src := FromSlice([]widekey.Key{
		widekey.NewKey192(5, 0, 0),
		widekey.NewKey192(5, 0, 0),
		widekey.NewKey192(6, 0, 0),
	})
	keys, err := src.Load()
	require.NoError(t, err)
	require.Len(t, keys, 2)
}

func TestFromReaderRoundTrip192(t *testing.T) {
	var buf bytes.Buffer
	want := []widekey.Key{
		widekey.NewKey192(1, 2, 3),
		widekey.NewKey192(4, 5, 6),
		widekey.NewKey192(1, 2, 3), // duplicate, should be removed
	}
	for _, k := range want {
		require.NoError(t, WriteKey(&buf, widekey.Width192, k))
	}

	src := FromReader(&buf, widekey.Width192, len(want))
	got, err := src.Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestFromReaderRoundTrip128(t *testing.T) {
	var buf bytes.Buffer
	want := widekey.NewKey128(0xdeadbeefcafe, 0x1)
	require.NoError(t, WriteKey(&buf, widekey.Width128, want))

	src := FromReader(&buf, widekey.Width128, 1)
	got, err := src.Load()
	require.NoError(t, err)
	require.Equal(t, []widekey.Key{want}, got)
}

func TestFromReaderShortRead(t *testing.T) {
	src := FromReader(bytes.NewReader([]byte{1, 2, 3}), widekey.Width192, 1)
	_, err := src.Load()
	require.Error(t, err)
}
