package diagnostics

import "perfecthash/widekey"

// BitmapProbe is the experimental key-distribution diagnostic from
// build_table.c's bitmap_test (guarded there by BITMAP_TEST_OFF, never
// part of the production build path): a stack of power-of-two bitmaps
// of increasing size, each populated by setting the bit addressed by
// the low bits of a key's LO limb. A low fraction-positive at a given
// size indicates the key stream does not fill that address space
// uniformly.
type BitmapProbe struct {
	sizes   []uint64
	bitmaps [][]uint32
	set     []uint64
}

// DefaultSizes is the production probe's staircase: 1Kbit up to
// 4Gbit, matching bitmap_test's eight bitmaps exactly.
var DefaultSizes = []uint64{
	1024,
	16 * 1024,
	128 * 1024,
	1024 * 1024,
	16 * 1024 * 1024,
	128 * 1024 * 1024,
	1024 * 1024 * 1024,
	4 * 1024 * 1024 * 1024,
}

// NewBitmapProbe allocates a probe with the given bit-count sizes.
// Each size must be a power of two; callers wanting the production
// staircase should pass DefaultSizes.
func NewBitmapProbe(sizes ...uint64) *BitmapProbe {
	p := &BitmapProbe{
		sizes:   append([]uint64(nil), sizes...),
		bitmaps: make([][]uint32, len(sizes)),
		set:     make([]uint64, len(sizes)),
	}
	for i, bits := range sizes {
		p.bitmaps[i] = make([]uint32, bits/32)
	}
	return p
}

// Observe records one key against every bitmap in the stack.
func (p *BitmapProbe) Observe(k widekey.Key) {
	lo32 := uint32(k.Lo)
	for i, bits := range p.sizes {
		mask := uint32(bits - 1)
		idx := lo32 & mask
		word, bit := idx>>5, idx&31
		if p.bitmaps[i][word]&(1<<bit) == 0 {
			p.bitmaps[i][word] |= 1 << bit
			p.set[i]++
		}
	}
}

// Stat is one bitmap's outcome: how many distinct bits were set, and
// what fraction of the bitmap's address space that represents.
type Stat struct {
	SizeBits uint64
	BitsSet  uint64
	Fraction float64
}

// Report returns one Stat per bitmap, in the order the probe was
// constructed with (smallest first).
func (p *BitmapProbe) Report() []Stat {
	stats := make([]Stat, len(p.sizes))
	for i, bits := range p.sizes {
		stats[i] = Stat{
			SizeBits: bits,
			BitsSet:  p.set[i],
			Fraction: float64(p.set[i]) / float64(bits),
		}
	}
	return stats
}

// TotalSizeBytes returns the combined allocation size of every bitmap
// in the stack, for a MemReport leaf.
func (p *BitmapProbe) TotalSizeBytes() int64 {
	var total int64
	for _, bm := range p.bitmaps {
		total += int64(len(bm)) * 4
	}
	return total
}
