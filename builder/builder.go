// Package builder orchestrates one end-to-end perfect-hash build:
// size selection, bucket construction and sort, the offset solver,
// and final verification, retrying NoConvergence at the next size per
// spec.md §4.1 and §7. The source's file-scope globals become local
// state of a single Build call, threaded through each attempt; there
// is no separate Builder type.
package builder

import (
	"math/rand"
	"time"

	"perfecthash/bucket"
	"perfecthash/sizing"
	"perfecthash/solver"
	"perfecthash/verify"
	"perfecthash/widekey"
)

// ErrorKind is spec.md §7's taxonomy.
type ErrorKind int

const (
	// SizeTooLarge: the staircase produced R or M beyond the 2^31
	// bound Modulo's limb-wise reduction relies on.
	SizeTooLarge ErrorKind = iota
	// AllocFailure: table allocation failed. Go's allocator panics
	// rather than returning an error on OOM, so this kind exists for
	// completeness with spec.md §7 but is not raised by this
	// implementation; callers embedding Build in a context with a
	// recoverable allocation path can still match on it.
	AllocFailure
	// OverflowOnAdd: a wide-int Add32 carried out of the top limb.
	OverflowOnAdd
	// PopulationOverflow: a bucket collected more than 2^16-1 members.
	PopulationOverflow
	// NoConvergence: the watchdog observed a stalled solver attempt.
	// Handled internally by Build's retry loop; only escapes if every
	// configured attempt is exhausted.
	NoConvergence
	// VerifierMismatch: the finished table failed verify.Reference.
	// Should be unreachable — a solver bug, not a sizing problem.
	VerifierMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case SizeTooLarge:
		return "SizeTooLarge"
	case AllocFailure:
		return "AllocFailure"
	case OverflowOnAdd:
		return "OverflowOnAdd"
	case PopulationOverflow:
		return "PopulationOverflow"
	case NoConvergence:
		return "NoConvergence"
	case VerifierMismatch:
		return "VerifierMismatch"
	default:
		return "Unknown"
	}
}

// Error wraps an ErrorKind with the attempt context that produced it.
type Error struct {
	Kind    ErrorKind
	Attempt int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Config controls one Build call.
type Config struct {
	Width Width

	// Workers bounds the worker-pool parallelism in bucket
	// construction and verification. <= 0 means runtime.NumCPU().
	Workers int

	// MaxAttempts bounds the size-search retry loop. <= 0 means 32,
	// matching the teacher's outer-loop convention of a generous but
	// finite retry ceiling rather than an unbounded one.
	MaxAttempts int

	// Seed drives the solver's offset-search RNG. Zero means seed from
	// the wall clock, per spec.md §4.4; pass a nonzero value for
	// reproducible builds (spec.md §8's determinism property).
	Seed int64

	// Progress, if set, is called once per settled bucket during each
	// attempt's solve, matching create_tables's periodic stdout
	// progress line in build_table.c (spec.md §6's "build-perfect-hash
	// CLI ... percent-of-keys-settled and current bucket population").
	Progress ProgressFunc

	// forceNoConvergeAttempts is a test-only hook: the first N attempts
	// are treated as non-convergent without ever invoking the solver,
	// so the size-search retry loop (Params.Retry, re-attempt,
	// eventual success) can be exercised deterministically. Real
	// watchdog-triggered stalls are inherently timing-dependent and are
	// covered instead by solver's own Watchdog unit tests.
	forceNoConvergeAttempts int
}

// ProgressFunc re-exports solver.ProgressFunc so callers need not
// import solver just to set Config.Progress.
type ProgressFunc = solver.ProgressFunc

// Width re-exports widekey.Width so callers need not import widekey
// just to build a Config.
type Width = widekey.Width

const (
	Width128 = widekey.Width128
	Width192 = widekey.Width192
)

// Result is a finished, verified build.
type Result struct {
	Params   *sizing.Params
	H        *widekey.Table
	O        []uint32
	Adapter  widekey.Adapter
	Attempts int
	Verify   verify.Result
}

// Build runs the full pipeline over keys (already deduplicated — see
// package keysource), retrying at larger sizes on NoConvergence, and
// verifying the result before returning it.
func Build(keys []widekey.Key, cfg Config) (*Result, error) {
	n := len(keys)
	params := sizing.Select(n)

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 32
	}

	adapter := widekey.New(cfg.Width)

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if params.Oversize() {
			return nil, &Error{Kind: SizeTooLarge, Attempt: attempt}
		}

		if attempt <= cfg.forceNoConvergeAttempts {
			params.Retry()
			continue
		}

		infos, maxPop, err := bucket.Build(keys, adapter, params.R, params.Shift64R, params.Shift128R, cfg.Workers)
		if err != nil {
			return nil, &Error{Kind: PopulationOverflow, Attempt: attempt, Err: err}
		}
		bucket.Sort(infos, maxPop)

		h := adapter.Allocate(int(params.M))
		o := make([]uint32, params.R)

		watchdogStart := time.Duration(params.WatchdogStart)
		watchdogRepeat := time.Duration(params.WatchdogRepeat)
		s := solver.New(adapter, h, o, params.M, params.Shift64M, params.Shift128M, seed+int64(attempt), watchdogStart, watchdogRepeat)
		if cfg.Progress != nil {
			s.SetProgress(cfg.Progress)
		}

		// solver.Run's only error returns are a wide-int add overflow
		// (OverflowOnAdd) or bucket 0 exhausting its probe limit with
		// no prior bucket to backtrack into — a solver invariant
		// violation outside the named taxonomy, folded into the same
		// kind since both indicate the attempt cannot proceed and
		// neither is sizing-recoverable like NoConvergence.
		outcome, err := s.Run(keys, infos)
		if err != nil {
			return nil, &Error{Kind: OverflowOnAdd, Attempt: attempt, Err: err}
		}
		if !outcome.Converged {
			params.Retry()
			continue
		}

		result := verify.Reference{}.Verify(keys, adapter, h, o, params.R, params.M, params.Shift64R, params.Shift128R, params.Shift64M, params.Shift128M, cfg.Workers)
		if !result.OK {
			return nil, &Error{Kind: VerifierMismatch, Attempt: attempt}
		}

		return &Result{
			Params:   params,
			H:        h,
			O:        o,
			Adapter:  adapter,
			Attempts: attempt,
			Verify:   result,
		}, nil
	}

	return nil, &Error{Kind: NoConvergence, Attempt: maxAttempts}
}
