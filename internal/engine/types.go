// Package engine builds and executes scope trees: nested describe/context/group
// declarations captured into a tree of hooks and leaf tests, resolved for
// focus/pending state, executed in a single deterministic pass, and rendered
// as a text report.
package engine

import (
	"fmt"
	"io"
)

// Mark is the author-declared state of a scope or leaf test.
type Mark int

const (
	MarkNone Mark = iota
	// MarkFocused restricts the run to focused scopes/tests once any focus exists.
	MarkFocused
	// MarkPending suppresses execution regardless of focus.
	MarkPending
)

// ScopeKind selects the scope's report label and execution policy. Group
// scopes batch their hooks across all direct leaf tests.
type ScopeKind int

const (
	KindTopLevel ScopeKind = iota
	KindDescribe
	KindContext
	KindGroup
)

// Label returns the fixed report prefix for the scope kind.
func (k ScopeKind) Label() string {
	switch k {
	case KindTopLevel:
		return "SUITE"
	case KindDescribe:
		return "DESCRIBE"
	case KindContext:
		return "CONTEXT"
	case KindGroup:
		return "GROUP"
	}
	return "SCOPE"
}

// HookKind orders a hook within the setup/action/teardown sequence.
type HookKind int

const (
	HookBeforeEach HookKind = iota
	HookSubjectAction
	HookAfterEach
)

func (k HookKind) String() string {
	switch k {
	case HookBeforeEach:
		return "beforeEach"
	case HookSubjectAction:
		return "subjectAction"
	case HookAfterEach:
		return "afterEach"
	}
	return "hook"
}

// Outcome is the single pass/fail/pending verdict of one leaf test.
type Outcome int

const (
	OutcomePassed Outcome = iota
	OutcomeFailed
	OutcomePending
)

// Symbol returns the one-character report marker for the outcome.
func (o Outcome) Symbol() string {
	switch o {
	case OutcomeFailed:
		return "F"
	case OutcomePending:
		return ">"
	}
	return "."
}

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomePending:
		return "pending"
	}
	return "passed"
}

// Matcher is the predicate evaluated against an assertion's actual value.
// String describes the expectation for failure messages, e.g. "equal 42".
type Matcher interface {
	Match(actual any) bool
	String() string
}

// Console receives one rendered report block per completed run.
type Console interface {
	Print(block string)
}

type writerConsole struct {
	w io.Writer
}

// NewWriterConsole returns a Console that writes each block to w unchanged.
func NewWriterConsole(w io.Writer) Console {
	return writerConsole{w: w}
}

func (c writerConsole) Print(block string) {
	_, _ = fmt.Fprint(c.w, block)
}

type hook struct {
	kind HookKind
	fn   func() error
}

type assertion struct {
	actual  any
	matcher Matcher
	negated bool
	line    int
}

type leafTest struct {
	title    string
	behavior string // expected-behavior message, flat tester only
	mark     Mark

	actingFocused bool
	actingPending bool

	body     func(*T) error
	boolBody func() bool
}

func (lt *leafTest) shouldExecute(anyFocused bool) bool {
	if lt.actingPending {
		return false
	}
	if anyFocused {
		return lt.actingFocused
	}
	return true
}
