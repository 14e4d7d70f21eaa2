package bucket

import (
	"runtime"
	"sync"
)

// parallelFor splits [0, n) into chunks and runs fn(lo, hi) on a
// worker pool, grounded on the teacher's channel + sync.WaitGroup +
// sync/atomic worker-pool idiom (mmph/paramselect/cmd/psig_study).
// It blocks until every chunk has run — spec.md §5's phase barrier.
// ParallelForExported exposes parallelFor's chunked worker pool to
// other packages (package verify reuses it for its recomputation
// pass) so the concurrency idiom stays in one place.
func ParallelForExported(n, workers int, fn func(lo, hi int)) {
	parallelFor(n, workers, fn)
}

func parallelFor(n, workers int, fn func(lo, hi int)) {
	if n == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
