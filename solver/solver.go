// Package solver implements spec.md §4.4–§4.6: the single-threaded
// offset-search state machine, the tail placement pass for
// singleton/empty buckets, and the watchdog that aborts a stalled
// attempt so the outer size-search loop can retry at a larger r.
package solver

import (
	"fmt"
	"math/rand"
	"time"

	"perfecthash/bucket"
	"perfecthash/errutil"
	"perfecthash/widekey"
)

// mode names the two states the top-level loop of spec.md §4.4 can be
// in, per the DESIGN NOTES' "(i, mode) loop" translation of the
// source's intertwined while/if backtracking control flow.
type mode int

const (
	modeForward mode = iota
	modeBacktracking
)

// Solver owns the mutable primary/offset tables for one size-search
// attempt and runs the bucket-by-bucket placement state machine.
// H and O are read and written only here (spec.md §5: single writer).
type Solver struct {
	adapter widekey.Adapter
	h       *widekey.Table
	o       []uint32

	m                   uint32
	shift64M, shift128M uint64

	rng      *rand.Rand
	watchdog *Watchdog
	progress ProgressFunc
}

// ProgressFunc is called as buckets settle during Run, matching
// create_tables's periodic "\rProgress:%Lf %%, Number of
// collisions:%u" stdout line in build_table.c: settled/totalKeys is
// the percent-complete figure, population is the bucket just placed
// (1 during tail placement, which reports only singleton buckets and
// skips empty ones).
type ProgressFunc func(bucketIndex, totalBuckets int, population int, settled, totalKeys int)

// New builds a Solver over an already-allocated primary table H and
// offset table O. seed drives the offset search's starting-point
// choice; pass a wall-clock-derived seed to match spec.md §4.4's
// "seeded from wall-clock once per run", or a fixed seed for
// reproducible tests (spec.md §8's determinism property).
func New(adapter widekey.Adapter, h *widekey.Table, o []uint32, m uint32, shift64M, shift128M uint64, seed int64, watchdogStart, watchdogRepeat time.Duration) *Solver {
	return &Solver{
		adapter:  adapter,
		h:        h,
		o:        o,
		m:        m,
		shift64M: shift64M,
		shift128M: shift128M,
		rng:      rand.New(rand.NewSource(seed)),
		watchdog: NewWatchdog(watchdogStart, watchdogRepeat),
	}
}

// SetProgress installs a callback fired once per settled bucket.
// Optional; a nil progress (the default) is a no-op. Must be called
// before Run.
func (s *Solver) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// Outcome reports what happened when the solver finished.
type Outcome struct {
	Converged bool // false means the watchdog aborted this attempt
	Settled   int  // number of keys placed into H when it stopped
}

// limit is the per-bucket probe cap of spec.md §4.4: (2^W-1) mod m +
// 1, with W=32 since O's entries are 32-bit words.
func (s *Solver) limit() uint32 {
	const bitmap = uint64(0xffffffff)
	return uint32(bitmap%uint64(s.m)) + 1
}

// Run processes infos (already sorted by descending population, per
// bucket.Sort) until the first population<=1 bucket, then hands the
// rest to tail placement. infos must share indexing with keys via
// Members. Run returns an Outcome with Converged false and a nil
// error if the watchdog observed a stall — the NoConvergence case the
// caller retries at a larger size — and a non-nil error for a wide-int
// add overflow (spec.md §7's OverflowOnAdd) or when bucket 0 exhausts
// its probe limit with no prior bucket to backtrack into.
func (s *Solver) Run(keys []widekey.Key, infos []bucket.Info) (Outcome, error) {
	s.watchdog.Start()
	defer s.watchdog.Stop()

	i := 0
	md := modeForward
	var lastOffset uint32
	settled := 0

	for i < len(infos) && infos[i].Population > 1 {
		if s.watchdog.ShouldAbort() {
			return Outcome{Converged: false, Settled: settled}, nil
		}
		s.watchdog.Advance(i)

		info := &infos[i]
		p := int(info.Population)

		modH := make([]uint32, p)
		for j, memberIdx := range info.Members {
			modH[j] = s.adapter.ComputeHIndex(keys[memberIdx], s.m, s.shift64M, s.shift128M)
		}

		var startOffset uint32
		if md == modeBacktracking {
			startOffset = (lastOffset + 1) % s.m
			md = modeForward
		} else {
			startOffset = uint32(s.rng.Int63n(int64(s.m)))
		}

		limit := s.limit()
		offset := startOffset
		found := false
		for tried := uint32(0); tried < limit; tried++ {
			if s.tryPlace(keys, modH, info.Members, offset) {
				found = true
				break
			}
			offset++
			if offset >= s.m {
				offset = 0
			}
		}

		if found {
			s.o[info.Index] = offset
			lastOffset = offset
			settled += p
			if s.progress != nil {
				s.progress(i, len(infos), p, settled, len(keys))
			}
			i++
			continue
		}

		// STUCK: undo exactly the immediately preceding bucket
		// (backtrack_steps hard-wired to 1, spec.md §4.4) and step
		// back to it; the current bucket is probed again afterwards.
		if i == 0 {
			return Outcome{}, fmt.Errorf("solver: bucket 0 exhausted its probe limit with no prior bucket to backtrack into")
		}

		prev := &infos[i-1]
		prevOffset := s.o[prev.Index]
		for _, memberIdx := range prev.Members {
			idx, err := s.slotFor(keys[memberIdx], prevOffset)
			if err != nil {
				return Outcome{}, err
			}
			s.adapter.AssignZero(s.h, int(idx))
		}
		s.o[prev.Index] = 0
		settled -= int(prev.Population)

		// The bucket that resumes next is prev (i-1): it restarts its
		// search from its own just-undone offset, plus one.
		lastOffset = prevOffset
		md = modeBacktracking
		i--
	}

	s.placeTail(keys, infos, i, settled)
	return Outcome{Converged: true, Settled: len(keys)}, nil
}

// tryPlace implements check_n_insert_into_hash_table: a check phase
// that rejects if any candidate slot is already occupied, then a
// commit phase that writes every member, rolling back this bucket's
// own partial writes if two of its members collide with each other.
func (s *Solver) tryPlace(keys []widekey.Key, modH []uint32, members []uint32, offset uint32) bool {
	errutil.BugOn(len(modH) != len(members), "tryPlace: modH/members length mismatch (%d vs %d)", len(modH), len(members))
	idxs := make([]uint32, len(modH))
	for j, h := range modH {
		idx := h + offset
		if idx >= s.m {
			idx -= s.m
		}
		idxs[j] = idx
		if s.adapter.ZeroCheck(s.h, int(idx)) {
			return false
		}
	}

	for j, idx := range idxs {
		if s.adapter.ZeroCheck(s.h, int(idx)) {
			for k := 0; k < j; k++ {
				s.adapter.AssignZero(s.h, int(idxs[k]))
			}
			return false
		}
		s.adapter.Assign(s.h, int(idx), keys[members[j]])
	}
	return true
}

// slotFor recomputes a member's primary-table slot from scratch via
// wide-int add+modulo (calc_ht_idx in the source), used only during
// backtrack rollback where the forward pass's cached modH values are
// no longer in scope.
func (s *Solver) slotFor(key widekey.Key, offset uint32) (uint32, error) {
	shifted, err := s.adapter.Add32(key, offset)
	if err != nil {
		return 0, err
	}
	return s.adapter.Modulo(shifted, s.m, s.shift64M, s.shift128M), nil
}

// placeTail implements spec.md §4.5: every bucket from start onward
// has population <= 1 (guaranteed since infos is sorted descending).
// A cursor walks H from 0, placing each remaining singleton in the
// next empty slot and recording the offset that recovers it.
func (s *Solver) placeTail(keys []widekey.Key, infos []bucket.Info, start, settled int) {
	cursor := 0
	for i := start; i < len(infos); i++ {
		info := &infos[i]
		if info.Population == 0 {
			continue
		}
		for cursor < int(s.m) && s.adapter.ZeroCheck(s.h, cursor) {
			cursor++
		}
		errutil.BugOn(cursor >= int(s.m), "placeTail: ran out of empty slots with %d buckets still unplaced", len(infos)-i)
		key := keys[info.Members[0]]
		s.adapter.Assign(s.h, cursor, key)
		s.o[info.Index] = s.adapter.ComputeStoredOffset(key, cursor, s.m, s.shift64M, s.shift128M)
		settled++
		if s.progress != nil {
			s.progress(i, len(infos), int(info.Population), settled, len(keys))
		}
	}
}
