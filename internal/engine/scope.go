package engine

import (
	"fmt"
	"strings"
)

const indentUnit = "  "

// scope is one node of the capture tree. It is mutated only during the
// capture phase and is read-only once execution starts.
type scope struct {
	kind  ScopeKind
	title string
	mark  Mark

	actingFocused bool
	actingPending bool

	hooks    []hook
	tests    []*leafTest
	children []*scope
}

// hasActiveFocus reports whether any focus mark is reachable in the subtree.
// Pending subtrees contribute no focus: pending dominates. Computed from the
// author marks once per run, before propagation.
func (s *scope) hasActiveFocus() bool {
	if s.mark == MarkPending {
		return false
	}
	if s.mark == MarkFocused {
		return true
	}
	for _, lt := range s.tests {
		if lt.mark == MarkFocused {
			return true
		}
	}
	for _, c := range s.children {
		if c.hasActiveFocus() {
			return true
		}
	}
	return false
}

// propagate resolves acting focus/pending flags top-down, exactly once per
// run. Children inherit the acting flags, not the raw parent marks, so the
// resolved state is monotonic down the tree.
func (s *scope) propagate(parentFocused, parentPending bool) {
	s.actingFocused = parentFocused || s.mark == MarkFocused
	s.actingPending = parentPending || s.mark == MarkPending
	for _, lt := range s.tests {
		lt.actingFocused = s.actingFocused || lt.mark == MarkFocused
		lt.actingPending = s.actingPending || lt.mark == MarkPending
	}
	for _, c := range s.children {
		c.propagate(s.actingFocused, s.actingPending)
	}
}

// execute walks the subtree once. Ancestor hooks strictly precede this
// scope's own hooks; leaf tests run before child scopes, both in declaration
// order.
func (s *scope) execute(tr *Tracker, anyFocused bool, level int, inherited []hook, path []string) Result {
	hooks := make([]hook, 0, len(inherited)+len(s.hooks))
	hooks = append(hooks, inherited...)
	hooks = append(hooks, s.hooks...)

	selfPath := make([]string, 0, len(path)+1)
	selfPath = append(selfPath, path...)
	selfPath = append(selfPath, s.title)

	res := Result{Text: s.titleLine(level)}
	if s.kind == KindGroup {
		res = res.Merge(s.executeGroup(tr, anyFocused, level+1, hooks, selfPath))
	} else {
		for _, lt := range s.tests {
			res = res.Merge(runLeaf(tr, lt, anyFocused, level+1, hooks, selfPath))
		}
	}
	for _, c := range s.children {
		res = res.Merge(c.execute(tr, anyFocused, level+1, hooks, selfPath))
	}
	return res
}

func (s *scope) titleLine(level int) string {
	marker := "  "
	switch {
	case s.actingPending:
		marker = "> "
	case s.actingFocused:
		marker = "* "
	}
	return strings.Repeat(indentUnit, level) + marker + s.kind.Label() + " " + s.title + "\n"
}

// executeGroup runs this scope's direct leaf tests in batch mode: the shared
// before hooks and the single subject action run once, every eligible body
// runs in declaration order, then the after hooks run once in reverse. When
// no test is eligible at all, everything renders pending and no hook runs.
func (s *scope) executeGroup(tr *Tracker, anyFocused bool, level int, hooks []hook, path []string) Result {
	eligible := 0
	for _, lt := range s.tests {
		if lt.shouldExecute(anyFocused) {
			eligible++
		}
	}

	outcomes := make([]caseOutcome, 0, len(s.tests))
	if eligible == 0 {
		for _, lt := range s.tests {
			outcomes = append(outcomes, caseOutcome{lt: lt, outcome: OutcomePending})
		}
		return renderCases(outcomes, level, path)
	}

	befores, action, afters := splitHooks(hooks, fmt.Sprintf("group %q", s.title))
	var sharedErr error
	for _, h := range befores {
		if sharedErr = invokeHook(h); sharedErr != nil {
			break
		}
	}
	if sharedErr == nil && action != nil {
		sharedErr = invokeHook(*action)
	}

	for _, lt := range s.tests {
		switch {
		case !lt.shouldExecute(anyFocused):
			outcomes = append(outcomes, caseOutcome{lt: lt, outcome: OutcomePending})
		case sharedErr != nil:
			outcomes = append(outcomes, caseOutcome{lt: lt, outcome: OutcomeFailed, msg: sharedErr.Error()})
		default:
			outcomes = append(outcomes, tr.runLeafBody(lt))
		}
	}

	var afterErr error
	for i := len(afters) - 1; i >= 0; i-- {
		if err := invokeHook(afters[i]); err != nil && afterErr == nil {
			afterErr = err
		}
	}
	if afterErr != nil {
		for i := range outcomes {
			if outcomes[i].outcome == OutcomePassed {
				outcomes[i].outcome = OutcomeFailed
				outcomes[i].msg = afterErr.Error()
			}
		}
	}
	return renderCases(outcomes, level, path)
}

// splitHooks partitions an ordered hook chain into setup, the single subject
// action, and teardown. More than one applicable subject action is a
// structural error and aborts the run.
func splitHooks(hooks []hook, where string) (befores []hook, action *hook, afters []hook) {
	for i := range hooks {
		switch hooks[i].kind {
		case HookBeforeEach:
			befores = append(befores, hooks[i])
		case HookSubjectAction:
			if action != nil {
				panic(structuralPanic{fmt.Errorf("%s: %w", where, ErrMultipleSubjectActions)})
			}
			action = &hooks[i]
		case HookAfterEach:
			afters = append(afters, hooks[i])
		}
	}
	return befores, action, afters
}

func invokeHook(h hook) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if sp, ok := rec.(structuralPanic); ok {
				panic(sp)
			}
			err = fmt.Errorf("%s: panic: %v", h.kind, rec)
		}
	}()
	if h.fn == nil {
		return nil
	}
	if err := h.fn(); err != nil {
		return fmt.Errorf("%s: %w", h.kind, err)
	}
	return nil
}
