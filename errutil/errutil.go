// Package errutil collects the small fatal/bug-check helpers used
// throughout the builder. It does not replace Go's error returns for
// recoverable conditions; it exists for invariants whose violation
// means the solver itself is wrong, not that the caller did something
// wrong.
package errutil

import "fmt"

// debug gates BugOn/Bug, matching the teacher's local errutil shape.
// It is a constant true, so invariant checks always panic; setting it
// to false turns them into no-ops.
const debug = true

// First returns the first non-nil error, or nil if all are nil.
func First(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// FatalIf panics with a FATAL-prefixed message if err is non-nil.
func FatalIf(err error) {
	if err == nil {
		return
	}
	panic(fmt.Sprintf("FATAL: %v", err))
}

// Bug panics with the formatted message when debug is enabled.
func Bug(format string, args ...any) {
	if debug {
		panic(fmt.Sprintf("BUG: "+format, args...))
	}
}

// BugOn calls Bug when cond is true.
func BugOn(cond bool, format string, args ...any) {
	if cond {
		Bug(format, args...)
	}
}
