package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// CaseRecord is the per-test entry kept alongside the rendered text so that
// machine-readable reporters do not have to re-parse the report block.
type CaseRecord struct {
	Title   string
	Path    []string
	Outcome Outcome
	Message string
	Lines   []int
}

// Result accumulates counts, rendered body text, and failing assertion line
// numbers over a run. Merging sibling results is associative and preserves
// declaration order; the failed count is always derived, never stored.
type Result struct {
	Total       int
	Succeeded   int
	Pending     int
	Text        string
	FailedLines []int
	Cases       []CaseRecord
}

// Failed returns the derived failure count.
func (r Result) Failed() int {
	return r.Total - r.Succeeded - r.Pending
}

// Merge combines two results, keeping r's content before other's.
func (r Result) Merge(other Result) Result {
	out := Result{
		Total:     r.Total + other.Total,
		Succeeded: r.Succeeded + other.Succeeded,
		Pending:   r.Pending + other.Pending,
		Text:      r.Text + other.Text,
	}
	out.FailedLines = append(out.FailedLines, r.FailedLines...)
	out.FailedLines = append(out.FailedLines, other.FailedLines...)
	out.Cases = append(out.Cases, r.Cases...)
	out.Cases = append(out.Cases, other.Cases...)
	return out
}

// Summary returns the end-of-run line, e.g.
// "Executed 2 tests | 1 succeeded | 1 failed | 0 pending".
func (r Result) Summary() string {
	noun := "tests"
	if r.Total == 1 {
		noun = "test"
	}
	return fmt.Sprintf("Executed %d %s | %d succeeded | %d failed | %d pending",
		r.Total, noun, r.Succeeded, r.Failed(), r.Pending)
}

// Render produces the full report block: body text, the failing-lines line
// when any assertion failed, and the summary line. It is a pure function of
// the accumulator.
func (r Result) Render() string {
	var b strings.Builder
	b.WriteString(r.Text)
	if len(r.FailedLines) > 0 {
		b.WriteString("Failed on line(s): [")
		for i, n := range r.FailedLines {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Itoa(n))
		}
		b.WriteString("]\n")
	}
	b.WriteString(r.Summary())
	b.WriteString("\n")
	return b.String()
}
