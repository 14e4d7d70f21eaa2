// Package sizing implements spec.md §4.1: choosing the offset-table
// size r and primary-table size m from the key count N, and the
// retry schedule the outer size-search loop uses when an attempt
// fails to converge.
package sizing

import "time"

// row is one entry of the staircase table in spec.md §6.
type row struct {
	nUpperBound    int // inclusive; 0 means "no bound, last row"
	muO            float64
	muH            float64
	watchdogStart  time.Duration
	watchdogRepeat time.Duration
}

// staircase is the table from spec.md §6, verbatim.
var staircase = []row{
	{nUpperBound: 1_000, muO: 1.101375173, muH: 1.001097317, watchdogStart: time.Second, watchdogRepeat: time.Second},
	{nUpperBound: 10_000, muO: 1.151375173, muH: 1.001097317, watchdogStart: time.Second, watchdogRepeat: time.Second},
	{nUpperBound: 100_000, muO: 1.20375173, muH: 1.001097317, watchdogStart: time.Second, watchdogRepeat: time.Second},
	{nUpperBound: 1_000_000, muO: 1.25375173, muH: 1.001097317, watchdogStart: time.Second, watchdogRepeat: time.Second},
	{nUpperBound: 10_000_000, muO: 1.31375173, muH: 1.001097317, watchdogStart: time.Second, watchdogRepeat: time.Second},
	{nUpperBound: 110_000_000, muO: 1.41375173, muH: 1.001097317, watchdogStart: 3 * time.Second, watchdogRepeat: 7 * time.Second},
	{nUpperBound: 200_000_000, muO: 1.61375173, muH: 1.001097317, watchdogStart: 4 * time.Second, watchdogRepeat: 10 * time.Second},
	{nUpperBound: 0, muO: 3.01375173, muH: 1.001097317, watchdogStart: 5 * time.Second, watchdogRepeat: 15 * time.Second},
}

func rowFor(n int) row {
	for _, r := range staircase {
		if r.nUpperBound != 0 && n <= r.nUpperBound {
			return r
		}
	}
	return staircase[len(staircase)-1]
}
