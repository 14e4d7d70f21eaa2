package widekey

// key128Adapter implements Adapter for 128-bit keys (Lo, Hi limbs; Mi
// is always zero and unused). The primary table lays out four 32-bit
// lanes spanning all m slots: LO-lo, LO-hi, HI-lo, HI-hi.
type key128Adapter struct{}

func (key128Adapter) Width() Width { return Width128 }

func (key128Adapter) Allocate(m int) *Table {
	return newTable(Width128, m)
}

func (key128Adapter) Load(t *Table, idx int) Key {
	lo := uint64(t.lanes[0][idx]) | uint64(t.lanes[1][idx])<<32
	hi := uint64(t.lanes[2][idx]) | uint64(t.lanes[3][idx])<<32
	return Key{Lo: lo, Hi: hi}
}

func (key128Adapter) Assign(t *Table, idx int, k Key) {
	t.lanes[0][idx] = uint32(k.Lo)
	t.lanes[1][idx] = uint32(k.Lo >> 32)
	t.lanes[2][idx] = uint32(k.Hi)
	t.lanes[3][idx] = uint32(k.Hi >> 32)
}

func (key128Adapter) AssignZero(t *Table, idx int) {
	t.lanes[0][idx] = 0
	t.lanes[1][idx] = 0
	t.lanes[2][idx] = 0
	t.lanes[3][idx] = 0
}

func (key128Adapter) ZeroCheck(t *Table, idx int) bool {
	return t.lanes[0][idx] != 0 || t.lanes[1][idx] != 0 ||
		t.lanes[2][idx] != 0 || t.lanes[3][idx] != 0
}

func (key128Adapter) Modulo(k Key, n uint32, shift64, _ uint64) uint32 {
	if n == 0 {
		return 0
	}
	N := uint64(n)
	p := (k.Hi % N) * shift64
	p += k.Lo % N
	p %= N
	return uint32(p)
}

func (a key128Adapter) Add32(k Key, b uint32) (Key, error) {
	lo := k.Lo + uint64(b)
	carry := uint64(0)
	if lo < k.Lo {
		carry = 1
	}
	hi := k.Hi + carry
	if hi < k.Hi {
		return Key{}, &OverflowError{Width: Width128}
	}
	return Key{Lo: lo, Hi: hi}, nil
}

func (a key128Adapter) ComputeHIndex(k Key, m uint32, shift64, shift128 uint64) uint32 {
	return a.Modulo(k, m, shift64, shift128)
}

func (a key128Adapter) ComputeStoredOffset(k Key, idx int, m uint32, shift64, shift128 uint64) uint32 {
	return computeStoredOffset(a, k, idx, m, shift64, shift128)
}

func (a key128Adapter) Verify(t *Table, idx int, k Key) bool {
	lo := uint64(t.lanes[0][idx]) | uint64(t.lanes[1][idx])<<32
	hi := uint64(t.lanes[2][idx]) | uint64(t.lanes[3][idx])<<32
	return lo == k.Lo && hi == k.Hi
}
