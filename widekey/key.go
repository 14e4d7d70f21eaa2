// Package widekey implements the wide-integer adapter contract of
// spec.md §4.7/§6: a small capability set (assign, assign-zero,
// zero-check, compute-H-index, compute-stored-offset, allocate, load)
// made polymorphic over the two key widths the builder supports —
// 128-bit (LO, HI) and 192-bit (LO, MI, HI), each limb a uint64.
//
// Exactly one Adapter is selected at build start (widekey.New) and
// used uniformly afterwards; the capability set is a pair of
// implementations behind an interface rather than the source's
// function-pointer table, per the DESIGN NOTES translation of the
// global function-pointer indirection into a tagged variant.
package widekey

import "fmt"

// Width identifies a key's bit width. Only Width128 and Width192 are
// supported; the value is fixed for the lifetime of one build.
type Width int

const (
	Width128 Width = 128
	Width192 Width = 192
)

func (w Width) String() string {
	switch w {
	case Width128:
		return "128"
	case Width192:
		return "192"
	default:
		return fmt.Sprintf("Width(%d)", int(w))
	}
}

// Lanes returns the number of 32-bit lanes a key of this width
// occupies in the struct-of-arrays primary table.
func (w Width) Lanes() int {
	return int(w) / 32
}

// Key is a fixed three-limb unsigned integer. For Width128 keys, Mi is
// always zero and ignored by every Adapter method; the zero value is
// the reserved "empty slot" sentinel for both widths (spec.md §3).
type Key struct {
	Lo, Mi, Hi uint64
}

// NewKey128 builds a 128-bit key from its two limbs.
func NewKey128(lo, hi uint64) Key {
	return Key{Lo: lo, Hi: hi}
}

// NewKey192 builds a 192-bit key from its three limbs.
func NewKey192(lo, mi, hi uint64) Key {
	return Key{Lo: lo, Mi: mi, Hi: hi}
}

// IsZero reports whether k is the all-zero sentinel key.
func (k Key) IsZero() bool {
	return k.Lo == 0 && k.Mi == 0 && k.Hi == 0
}

// OverflowError is returned by Adapter.Add32 when adding would carry
// out of the top limb (spec.md §7, OverflowOnAdd — fatal, since it
// indicates a pathological offset or an out-of-range key).
type OverflowError struct {
	Width Width
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("widekey: %s-bit add overflow", e.Width)
}

// ShiftConstants precomputes the limb-reduction constants used by
// Modulo: shift64 = (2^64 mod N), shift128 = (2^128 mod N). Both
// tables (O and H) need their own pair, keyed by their own modulus,
// since the constants depend only on N (spec.md §4.1). Requires
// n < 2^31 so the intermediate products fit in 64 bits during Modulo.
func ShiftConstants(n uint32) (shift64, shift128 uint64) {
	if n == 0 {
		return 0, 0
	}
	N := uint64(n)
	// (2^63 mod N) * 2 mod N == 2^64 mod N, computed without a 64-bit
	// overflow the way the source does it.
	shift64 = (((uint64(1) << 63) % N) * 2) % N
	shift128 = (shift64 * shift64) % N
	return shift64, shift128
}

// Table is the struct-of-arrays primary-table storage for one key
// width: one []uint32 lane per 32-bit limb-half, each of length m. A
// slot is empty iff every lane at that index is zero.
type Table struct {
	width Width
	m     int
	lanes [][]uint32
}

// Width reports the key width this table was allocated for.
func (t *Table) Width() Width { return t.width }

// Len reports m, the number of slots.
func (t *Table) Len() int { return t.m }

// SizeBytes returns the table's allocated size, for diagnostics.
func (t *Table) SizeBytes() int64 {
	return int64(len(t.lanes)) * int64(t.m) * 4
}

// Adapter is the capability set of spec.md §4.7, implemented once per
// key width.
type Adapter interface {
	Width() Width

	// Allocate returns a zeroed primary table of m slots.
	Allocate(m int) *Table

	// Load reads the key stored at idx. Behavior is undefined if the
	// slot is empty (callers must ZeroCheck first).
	Load(t *Table, idx int) Key

	// Assign writes k into slot idx, all lanes.
	Assign(t *Table, idx int, k Key)

	// AssignZero clears slot idx back to the empty sentinel.
	AssignZero(t *Table, idx int)

	// ZeroCheck reports whether slot idx is non-empty.
	ZeroCheck(t *Table, idx int) bool

	// Modulo computes k mod n using the precomputed shift constants
	// for n, reducing limb-by-limb so the intermediate products fit
	// in 64 bits (spec.md §6). This is both h_H and h_O — the caller
	// picks n (m or r) and the matching shift constants.
	Modulo(k Key, n uint32, shift64, shift128 uint64) uint32

	// Add32 returns k+b, or an OverflowError if the addition carries
	// out of the top limb.
	Add32(k Key, b uint32) (Key, error)

	// ComputeHIndex is h_H(k): Modulo(k, m, ...) against the primary
	// table's reduction constants. A thin, named alias over Modulo so
	// call sites read like the spec's capability list.
	ComputeHIndex(k Key, m uint32, shift64, shift128 uint64) uint32

	// ComputeStoredOffset implements get_offset: given the primary
	// slot idx a key ended up in during tail placement, returns the
	// O[] value that recovers idx from h_H(k) at lookup time, i.e.
	// (idx - h_H(k) + m) mod m.
	ComputeStoredOffset(k Key, idx int, m uint32, shift64, shift128 uint64) uint32

	// Verify reports whether slot idx holds k, comparing lane by
	// lane. The caller supplies idx. Used by package verify.
	Verify(t *Table, idx int, k Key) bool
}

// New returns the Adapter for the requested width.
func New(w Width) Adapter {
	switch w {
	case Width128:
		return key128Adapter{}
	case Width192:
		return key192Adapter{}
	default:
		panic(fmt.Sprintf("widekey: unsupported width %v", w))
	}
}

func newTable(w Width, m int) *Table {
	lanes := make([][]uint32, w.Lanes())
	for i := range lanes {
		lanes[i] = make([]uint32, m)
	}
	return &Table{width: w, m: m, lanes: lanes}
}

func computeStoredOffset(a Adapter, k Key, idx int, m uint32, shift64, shift128 uint64) uint32 {
	z := a.Modulo(k, m, shift64, shift128)
	return uint32((uint64(idx) + uint64(m) - uint64(z)) % uint64(m))
}
