package sizing

import "perfecthash/widekey"

// Params holds the sizing outcome for one build attempt: the chosen
// table sizes, the multipliers that produced them, the watchdog
// timing for this N, and the wide-int reduction constants for both
// moduli (spec.md §3, §4.1).
type Params struct {
	N int

	MuO, MuH float64

	R uint32 // offset table size
	M uint32 // primary table size

	Shift64R, Shift128R uint64
	Shift64M, Shift128M uint64

	WatchdogStart, WatchdogRepeat int64 // nanoseconds, time.Duration-compatible

	attempt int
}

// Select computes the initial Params for n keys, per spec.md §4.1 and
// the staircase table in §6.
func Select(n int) *Params {
	row := rowFor(n)
	p := &Params{
		N:              n,
		MuO:            row.muO,
		MuH:            row.muH,
		WatchdogStart:  int64(row.watchdogStart),
		WatchdogRepeat: int64(row.watchdogRepeat),
	}
	p.recomputeFromMultipliers()
	return p
}

// recomputeFromMultipliers derives r0, m0 from N and the current
// multipliers, forces m odd, and enforces coprimality by incrementing
// r, exactly as init_tables in build_table.c.
func (p *Params) recomputeFromMultipliers() {
	r0 := uint32(float64(p.N) / 4.0 * p.MuO)
	m0 := uint32(float64(p.N)*p.MuH) | 1

	for gcd(r0, m0) != 1 {
		r0++
	}

	p.R = r0
	p.M = m0
	p.refreshShiftConstants()
}

func (p *Params) refreshShiftConstants() {
	p.Shift64R, p.Shift128R = widekey.ShiftConstants(p.R)
	p.Shift64M, p.Shift128M = widekey.ShiftConstants(p.M)
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Oversize reports whether either table exceeds the 2^31 bound of
// spec.md §7 (SizeTooLarge).
func (p *Params) Oversize() bool {
	const max31 = uint32(1) << 31
	return p.R > max31 || p.M > max31
}

// Retry advances r (and, every fifth retry, both multipliers and
// hence m too) for the next size-search attempt, per spec.md §4.1:
// divide r by 10, multiply by 10, add a small prime keyed on the
// digit that was just truncated off; re-derive from scratch every
// fifth retry.
func (p *Params) Retry() {
	digit := p.R % 10
	p.R = (p.R/10)*10 + nextPrime(digit)
	for gcd(p.R, p.M) != 1 {
		p.R++
	}
	p.refreshShiftConstants()

	p.attempt++
	if p.attempt%5 == 0 {
		p.MuO += 0.05
		p.MuH += 0.005
		p.recomputeFromMultipliers()
	}
}

// nextPrime returns the least prime strictly greater than digit, for
// digit in [0,9]. spec.md §9 flags the source's next_prime as an open
// question: it only covers inputs up to 6 and silently degrades to 1
// (a no-op nudge) for 7..9, with the extension to larger primes left
// commented out. This rewrite keeps the same "next prime after the
// truncated digit" intent but makes it total over the only domain it
// is ever called with (a base-10 digit), rather than reproducing the
// degenerate case.
func nextPrime(digit uint32) uint32 {
	switch digit {
	case 0, 1:
		return 2
	case 2:
		return 3
	case 3, 4:
		return 5
	case 5, 6:
		return 7
	default: // 7, 8, 9
		return 11
	}
}
