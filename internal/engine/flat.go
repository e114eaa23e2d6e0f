package engine

import (
	"fmt"

	"pkt.systems/pslog"
)

// Tester is the flat, non-nested declaration surface: tests are collected
// with AddTest and run by an explicit ExecuteTests call instead of
// auto-running on declaration. Focus and pending resolve exactly as in the
// scope tree.
type Tester struct {
	tr   *Tracker
	root *scope
}

// NewTester builds a flat tester rendered under the given title. A nil
// logger discards log output; a nil console discards the report.
func NewTester(title string, logger pslog.Base, console Console) *Tester {
	return &Tester{
		tr:   NewTracker(logger, console),
		root: &scope{kind: KindTopLevel, title: title},
	}
}

func (ft *Tester) add(title, behavior string, mark Mark, body func() bool) {
	if ft.tr.executing {
		panic(structuralPanic{fmt.Errorf("add test %q: %w", title, ErrDeclareDuringRun)})
	}
	ft.root.tests = append(ft.root.tests, &leafTest{
		title:    title,
		behavior: behavior,
		mark:     mark,
		boolBody: body,
	})
}

// AddTest collects a test whose body reports success by returning true.
// The behavior message describes the expected behavior and is appended to
// the test's report line when it fails.
func (ft *Tester) AddTest(title, behavior string, body func() bool) {
	ft.add(title, behavior, MarkNone, body)
}

// FAddTest collects a focused test.
func (ft *Tester) FAddTest(title, behavior string, body func() bool) {
	ft.add(title, behavior, MarkFocused, body)
}

// XAddTest collects a pending test. The body may be nil.
func (ft *Tester) XAddTest(title, behavior string, body func() bool) {
	ft.add(title, behavior, MarkPending, body)
}

// ExecuteTests runs every collected test and prints one report block.
// It may be called again to re-run the same collection.
func (ft *Tester) ExecuteTests() (Result, error) {
	return ft.tr.run(ft.root)
}
