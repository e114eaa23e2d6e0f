package engine

import (
	"fmt"
	"io"

	"pkt.systems/pslog"
)

// Tracker owns one capture/execute sequence: it routes declarations into the
// scope tree via a current-scope stack, guards against structural misuse,
// runs the finished tree, and prints exactly one report block per root-level
// declaration. A Tracker is single-threaded and returns to idle after every
// run, so several root declarations may share one instance sequentially.
type Tracker struct {
	logger  pslog.Base
	console Console

	stack     []*scope
	executing bool
	current   *T
}

// NewTracker builds a Tracker. A nil logger discards log output; a nil
// console discards report blocks.
func NewTracker(logger pslog.Base, console Console) *Tracker {
	if logger == nil {
		logger = pslog.New(io.Discard)
	}
	if console == nil {
		console = NewWriterConsole(io.Discard)
	}
	return &Tracker{logger: logger, console: console}
}

// DeclareScope routes one scope declaration. With no enclosing scope the
// declaration becomes the root of a fresh run: the body is captured and the
// tree immediately executes and reports. Nested declarations only append a
// child scope and capture its body.
func (tr *Tracker) DeclareScope(kind ScopeKind, title string, mark Mark, body func() error) (Result, error) {
	if tr.executing {
		panic(structuralPanic{fmt.Errorf("declare scope %q: %w", title, ErrDeclareDuringRun)})
	}
	if len(tr.stack) == 0 {
		root := &scope{kind: KindTopLevel, title: title, mark: mark}
		err := tr.capture(root, body)
		if err != nil {
			return Result{}, err
		}
		return tr.run(root)
	}
	parent := tr.stack[len(tr.stack)-1]
	child := &scope{kind: kind, title: title, mark: mark}
	parent.children = append(parent.children, child)
	return Result{}, tr.capture(child, body)
}

// DeclareHook appends a hook to the current scope.
func (tr *Tracker) DeclareHook(kind HookKind, fn func() error) error {
	if tr.executing {
		panic(structuralPanic{fmt.Errorf("declare %s: %w", kind, ErrDeclareDuringRun)})
	}
	if len(tr.stack) == 0 {
		return fmt.Errorf("declare %s: %w", kind, ErrNoEnclosingScope)
	}
	cur := tr.stack[len(tr.stack)-1]
	cur.hooks = append(cur.hooks, hook{kind: kind, fn: fn})
	return nil
}

// DeclareTest appends a leaf test with a capture-style body to the current
// scope. A nil body is allowed for pending stubs.
func (tr *Tracker) DeclareTest(title string, mark Mark, body func(*T) error) error {
	if tr.executing {
		panic(structuralPanic{fmt.Errorf("declare test %q: %w", title, ErrDeclareDuringRun)})
	}
	if len(tr.stack) == 0 {
		return fmt.Errorf("declare test %q: %w", title, ErrNoEnclosingScope)
	}
	cur := tr.stack[len(tr.stack)-1]
	cur.tests = append(cur.tests, &leafTest{title: title, mark: mark, body: body})
	return nil
}

// Current returns the test context of the leaf test whose body is executing,
// or nil outside any body. Script bindings use it to attach assertions
// without threading the context through the host language.
func (tr *Tracker) Current() *T {
	return tr.current
}

// Depth returns the current capture nesting depth. Zero means the next scope
// declaration starts a fresh root-level run.
func (tr *Tracker) Depth() int {
	return len(tr.stack)
}

func (tr *Tracker) capture(sc *scope, body func() error) error {
	tr.stack = append(tr.stack, sc)
	defer func() {
		tr.stack = tr.stack[:len(tr.stack)-1]
	}()
	if body == nil {
		return nil
	}
	return body()
}

// run executes a finished tree: resolve focus, propagate acting flags, walk
// once, render, and print. Structural panics raised anywhere below surface
// here as the run error; nothing is printed for an aborted run.
func (tr *Tracker) run(root *scope) (res Result, err error) {
	defer func() {
		tr.executing = false
		tr.current = nil
		if rec := recover(); rec != nil {
			sp, ok := rec.(structuralPanic)
			if !ok {
				panic(rec)
			}
			res = Result{}
			err = sp.err
			tr.logger.Error("run aborted", "title", root.title, "error", err)
		}
	}()

	tr.executing = true
	anyFocused := root.hasActiveFocus()
	root.propagate(false, false)
	res = root.execute(tr, anyFocused, 0, nil, nil)
	tr.executing = false

	tr.logger.Debug("run complete",
		"title", root.title,
		"total", res.Total,
		"succeeded", res.Succeeded,
		"failed", res.Failed(),
		"pending", res.Pending)
	tr.console.Print(res.Render())
	return res, nil
}
