// Package diagnostics holds the optional, non-load-bearing reporting
// tools around a build: a hierarchical byte-accounting tree for H/O
// and their auxiliary bucket arrays, and the experimental bitmap-load
// probe from build_table.c's bitmap_test (compiled out upstream under
// BITMAP_TEST_OFF, kept here as an opt-in diagnostic).
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// MemReport is a hierarchical memory-usage report for one build's
// tables, adapted from the teacher's utils.MemReport: same shape, now
// rendered with humanize.Bytes instead of a raw byte count so a
// multi-gigabyte H table reads as "4.3 GB" rather than a twelve-digit
// integer.
type MemReport struct {
	Name       string      `json:"name"`
	TotalBytes int64       `json:"total_bytes"`
	Children   []MemReport `json:"children,omitempty"`
}

// Sum returns a MemReport whose TotalBytes is the sum of its
// children's, for a named group of sibling components (e.g. "primary
// table lanes").
func Sum(name string, children ...MemReport) MemReport {
	var total int64
	for _, c := range children {
		total += c.TotalBytes
	}
	return MemReport{Name: name, TotalBytes: total, Children: children}
}

// Leaf is a single named, sized component with no children.
func Leaf(name string, bytes int64) MemReport {
	return MemReport{Name: name, TotalBytes: bytes}
}

// String returns a human-readable indented tree, each line annotated
// with a humanize.Bytes rendering of its size.
func (r MemReport) String() string {
	var sb strings.Builder
	r.buildString(&sb, 0)
	return sb.String()
}

func (r MemReport) buildString(sb *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%s- %s: %s\n", prefix, r.Name, humanize.Bytes(uint64(r.TotalBytes)))
	for _, child := range r.Children {
		child.buildString(sb, indent+1)
	}
}

// JSON returns a JSON string representation of the report.
func (r MemReport) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}
