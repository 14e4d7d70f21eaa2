package keysource

import "perfecthash/widekey"

// Dedup removes duplicate keys, returning survivors compacted to a
// dense prefix. Grounded on remove_duplicates_192 in
// hash_type_192.c's open-addressed side table: each key is bucketed
// by the low bits of its LO limb into a power-of-two side table, and
// on a bucket collision the full key (all limbs) is compared against
// every earlier member of that bucket before being kept.
//
// The source compacts survivors by scanning backward and swapping the
// last live element into each hole, using an unsigned loop counter
// that underflows past index 0 — a latent bug in the original, not an
// intentional behavior. This rewrite keeps the same bucketing and
// comparison logic but compacts with a single forward stable pass,
// which has the same post-condition (unique keys occupy a dense
// prefix) without the underflow hazard.
func Dedup(keys []widekey.Key) []widekey.Key {
	n := len(keys)
	if n == 0 {
		return keys
	}

	size := nextPow2(n) * 2
	if size == 0 {
		size = 2
	}
	mask := uint64(size - 1)

	type slot struct {
		collisions int
		iter       int
		members    []int
	}
	table := make([]slot, size)

	for _, k := range keys {
		idx := k.Lo & mask
		table[idx].collisions++
	}
	for i := range table {
		if table[i].collisions > 1 {
			table[i].members = make([]int, 0, table[i].collisions)
		}
	}

	removed := make([]bool, n)
	for i, k := range keys {
		idx := k.Lo & mask
		s := &table[idx]
		if s.collisions <= 1 {
			continue
		}
		if s.iter == 0 {
			s.members = append(s.members, i)
			s.iter++
			continue
		}
		dup := false
		for _, prior := range s.members {
			if keys[prior] == k {
				dup = true
				break
			}
		}
		if dup {
			removed[i] = true
		} else {
			s.members = append(s.members, i)
			s.iter++
		}
	}

	out := make([]widekey.Key, 0, n)
	for i, k := range keys {
		if !removed[i] {
			out = append(out, k)
		}
	}
	return out
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
