// Package bucket groups keys by their h_O bucket and orders the
// result by descending population, per spec.md §4.2 and §4.3.
package bucket

import (
	"fmt"
	"sync/atomic"

	"perfecthash/widekey"
)

// Info is one offset-table slot's bucket (BucketInfo in spec.md §3).
// Index is retained across the later sort permutation so the solver
// can still write back into O[Index].
type Info struct {
	Index      uint32
	Population uint16
	Members    []uint32 // input key indices; nil when Population == 0
}

// PopulationOverflowError is spec.md §7's PopulationOverflow: a
// bucket collected more than 2^16-1 members, meaning r is far too
// small for N. Fatal — the caller should not retry the same sizing.
type PopulationOverflowError struct {
	BucketIndex uint32
	Population  uint32
}

func (e *PopulationOverflowError) Error() string {
	return fmt.Sprintf("bucket %d: population %d exceeds uint16 range", e.BucketIndex, e.Population)
}

// Build runs the three-pass parallel construction of spec.md §4.2:
// count each bucket's population with atomic increments, allocate
// exact-size member lists, then fill them with an atomic fetch-add
// cursor. workers <= 0 means "use runtime.NumCPU() workers".
func Build(keys []widekey.Key, adapter widekey.Adapter, r uint32, shift64, shift128 uint64, workers int) ([]Info, uint16, error) {
	infos := make([]Info, r)
	for i := range infos {
		infos[i].Index = uint32(i)
	}
	if r == 0 || len(keys) == 0 {
		return infos, 0, nil
	}

	counts := make([]uint32, r)
	parallelFor(len(keys), workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			b := adapter.Modulo(keys[i], r, shift64, shift128)
			atomic.AddUint32(&counts[b], 1)
		}
	})

	var maxPopulation uint32
	for i, c := range counts {
		if c > 0xffff {
			return nil, 0, &PopulationOverflowError{BucketIndex: uint32(i), Population: c}
		}
		infos[i].Population = uint16(c)
		if c > 0 {
			infos[i].Members = make([]uint32, c)
		}
		if c > maxPopulation {
			maxPopulation = c
		}
	}

	cursors := make([]uint32, r)
	parallelFor(len(keys), workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			b := adapter.Modulo(keys[i], r, shift64, shift128)
			slot := atomic.AddUint32(&cursors[b], 1) - 1
			infos[b].Members[slot] = uint32(i)
		}
	})

	return infos, uint16(maxPopulation), nil
}
