package engine

import (
	"fmt"
	"strings"
)

// caseOutcome is the resolved verdict of one leaf test before rendering.
type caseOutcome struct {
	lt      *leafTest
	outcome Outcome
	msg     string
	lines   []int
}

// runLeaf executes a single leaf test in per-test mode: the full hook chain
// wraps this one body. Pending tests render without touching any hook.
func runLeaf(tr *Tracker, lt *leafTest, anyFocused bool, level int, hooks []hook, path []string) Result {
	if !lt.shouldExecute(anyFocused) {
		return renderCases([]caseOutcome{{lt: lt, outcome: OutcomePending}}, level, path)
	}

	befores, action, afters := splitHooks(hooks, fmt.Sprintf("test %q", lt.title))
	var hookErr error
	for _, h := range befores {
		if hookErr = invokeHook(h); hookErr != nil {
			break
		}
	}
	if hookErr == nil && action != nil {
		hookErr = invokeHook(*action)
	}

	var co caseOutcome
	if hookErr != nil {
		co = caseOutcome{lt: lt, outcome: OutcomeFailed, msg: hookErr.Error()}
	} else {
		co = tr.runLeafBody(lt)
	}

	for i := len(afters) - 1; i >= 0; i-- {
		if err := invokeHook(afters[i]); err != nil && co.outcome != OutcomeFailed {
			co.outcome = OutcomeFailed
			co.msg = err.Error()
		}
	}
	return renderCases([]caseOutcome{co}, level, path)
}

// runLeafBody invokes the test body and evaluates its captured assertions.
// Panics in the body are contained at this boundary; structural panics pass
// through untouched.
func (tr *Tracker) runLeafBody(lt *leafTest) caseOutcome {
	t := &T{tr: tr}
	tr.current = t

	var bodyErr error
	boolFailed := false
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				if sp, ok := rec.(structuralPanic); ok {
					panic(sp)
				}
				bodyErr = fmt.Errorf("panic: %v", rec)
			}
		}()
		switch {
		case lt.boolBody != nil:
			boolFailed = !lt.boolBody()
		case lt.body != nil:
			bodyErr = lt.body(t)
		}
	}()
	tr.current = nil

	co := caseOutcome{lt: lt}
	if bodyErr != nil {
		co.outcome = OutcomeFailed
		co.msg = bodyErr.Error()
		return co
	}

	failedAsserts := 0
	for _, a := range t.asserts {
		ok, msg := a.eval()
		if ok {
			continue
		}
		failedAsserts++
		if co.msg == "" {
			co.msg = msg
		}
		if a.line > 0 {
			co.lines = append(co.lines, a.line)
		}
	}

	switch {
	case boolFailed:
		co.outcome = OutcomeFailed
		co.msg = "returned false"
	case failedAsserts > 0:
		co.outcome = OutcomeFailed
	case t.failed:
		co.outcome = OutcomeFailed
		if co.msg == "" {
			co.msg = t.failMsg
		}
	default:
		co.outcome = OutcomePassed
	}
	return co
}

func renderCases(outcomes []caseOutcome, level int, path []string) Result {
	var res Result
	for _, co := range outcomes {
		line := strings.Repeat(indentUnit, level) + co.outcome.Symbol() + " " + co.lt.title
		msg := co.msg
		if co.outcome == OutcomeFailed && co.lt.behavior != "" {
			line += " (expected: " + co.lt.behavior + ")"
			msg += " (expected: " + co.lt.behavior + ")"
		}
		one := Result{
			Total:       1,
			Text:        line + "\n",
			FailedLines: co.lines,
			Cases: []CaseRecord{{
				Title:   co.lt.title,
				Path:    path,
				Outcome: co.outcome,
				Message: msg,
				Lines:   co.lines,
			}},
		}
		switch co.outcome {
		case OutcomePassed:
			one.Succeeded = 1
		case OutcomePending:
			one.Pending = 1
		}
		res = res.Merge(one)
	}
	return res
}

func (a *assertion) eval() (bool, string) {
	actual, err := resolveActual(a.actual)
	if err != nil {
		return false, fmt.Sprintf("actual value: %v", err)
	}
	matched, err := safeMatch(a.matcher, actual)
	if err != nil {
		return false, fmt.Sprintf("matcher: %v", err)
	}
	if a.negated {
		matched = !matched
	}
	if matched {
		return true, ""
	}
	if a.negated {
		return false, fmt.Sprintf("expected %v not to %s", actual, a.matcher)
	}
	return false, fmt.Sprintf("expected %v to %s", actual, a.matcher)
}

// resolveActual unwraps a deferred actual value, containing any panic the
// thunk raises.
func resolveActual(v any) (out any, err error) {
	f, ok := v.(func() any)
	if !ok {
		return v, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return f(), nil
}

func safeMatch(m Matcher, actual any) (matched bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	if m == nil {
		return false, fmt.Errorf("nil matcher")
	}
	return m.Match(actual), nil
}
