package engine

import "runtime"

// S is the scope context handed to every describe/context/group body. All
// declarations route through the owning Tracker's current-scope stack, so an
// S kept past its body remains bound to the same run sequence. Structural
// misuse (declaring a hook or test with no enclosing scope) panics with the
// structural error.
type S struct {
	tr *Tracker
}

func (s *S) declareScope(kind ScopeKind, title string, mark Mark, body func(*S)) {
	_, err := s.tr.DeclareScope(kind, title, mark, func() error {
		if body != nil {
			body(s)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// Describe declares a nested describe scope.
func (s *S) Describe(title string, body func(*S)) {
	s.declareScope(KindDescribe, title, MarkNone, body)
}

// FDescribe declares a focused describe scope.
func (s *S) FDescribe(title string, body func(*S)) {
	s.declareScope(KindDescribe, title, MarkFocused, body)
}

// XDescribe declares a pending describe scope.
func (s *S) XDescribe(title string, body func(*S)) {
	s.declareScope(KindDescribe, title, MarkPending, body)
}

// Context declares a nested context scope. Identical to Describe apart from
// the report label.
func (s *S) Context(title string, body func(*S)) {
	s.declareScope(KindContext, title, MarkNone, body)
}

// FContext declares a focused context scope.
func (s *S) FContext(title string, body func(*S)) {
	s.declareScope(KindContext, title, MarkFocused, body)
}

// XContext declares a pending context scope.
func (s *S) XContext(title string, body func(*S)) {
	s.declareScope(KindContext, title, MarkPending, body)
}

// Group declares a batching scope: its before/action/after hooks run once
// around all of its direct leaf tests instead of once per test. A test that
// mutates shared state read by a later test in the same group is an accepted
// hazard of this mode.
func (s *S) Group(title string, body func(*S)) {
	s.declareScope(KindGroup, title, MarkNone, body)
}

// FGroup declares a focused group scope.
func (s *S) FGroup(title string, body func(*S)) {
	s.declareScope(KindGroup, title, MarkFocused, body)
}

// XGroup declares a pending group scope.
func (s *S) XGroup(title string, body func(*S)) {
	s.declareScope(KindGroup, title, MarkPending, body)
}

func (s *S) declareTest(title string, mark Mark, body func(*T)) {
	var fn func(*T) error
	if body != nil {
		fn = func(t *T) error {
			body(t)
			return nil
		}
	}
	if err := s.tr.DeclareTest(title, mark, fn); err != nil {
		panic(err)
	}
}

// It declares a leaf test. The body records assertions through the given test
// context; they are evaluated once the body returns.
func (s *S) It(title string, body func(*T)) {
	s.declareTest(title, MarkNone, body)
}

// FIt declares a focused leaf test.
func (s *S) FIt(title string, body func(*T)) {
	s.declareTest(title, MarkFocused, body)
}

// XIt declares a pending leaf test. The body may be nil.
func (s *S) XIt(title string, body func(*T)) {
	s.declareTest(title, MarkPending, body)
}

func (s *S) declareHook(kind HookKind, fn func()) {
	var wrapped func() error
	if fn != nil {
		wrapped = func() error {
			fn()
			return nil
		}
	}
	if err := s.tr.DeclareHook(kind, wrapped); err != nil {
		panic(err)
	}
}

// BeforeEach registers a setup hook on the current scope. Setup hooks run in
// root-to-leaf declaration order before each applicable test.
func (s *S) BeforeEach(fn func()) {
	s.declareHook(HookBeforeEach, fn)
}

// AfterEach registers a teardown hook on the current scope. Teardown hooks
// run in leaf-to-root reverse order after each applicable test.
func (s *S) AfterEach(fn func()) {
	s.declareHook(HookAfterEach, fn)
}

// SubjectAction registers the single action hook that runs between setup and
// the test body. At most one subject action may apply to any leaf test's
// execution; a second one aborts the run.
func (s *S) SubjectAction(fn func()) {
	s.declareHook(HookSubjectAction, fn)
}

// T is the context of one executing leaf test. Assertions recorded through
// it are evaluated in declaration order after the body returns.
type T struct {
	tr      *Tracker
	asserts []assertion
	failed  bool
	failMsg string
}

// Expect captures an actual value for assertion. Pass a func() any to defer
// evaluation until the assertion itself is checked. The caller's source line
// is recorded for the failure report.
func (t *T) Expect(actual any) *Expectation {
	line := 0
	if _, _, l, ok := runtime.Caller(1); ok {
		line = l
	}
	return &Expectation{t: t, actual: actual, line: line}
}

// ExpectAt is Expect with an explicit source line, for bindings that track
// their own positions.
func (t *T) ExpectAt(actual any, line int) *Expectation {
	return &Expectation{t: t, actual: actual, line: line}
}

// Fail marks the test failed regardless of its assertions.
func (t *T) Fail() {
	t.failed = true
	if t.failMsg == "" {
		t.failMsg = "explicit failure"
	}
}

func (t *T) record(a assertion) {
	t.asserts = append(t.asserts, a)
}

// Expectation pairs a captured actual value with the matcher applied to it.
type Expectation struct {
	t      *T
	actual any
	line   int
}

// To records an assertion that the matcher accepts the actual value.
func (e *Expectation) To(m Matcher) {
	e.t.record(assertion{actual: e.actual, matcher: m, line: e.line})
}

// ToNot records an assertion that the matcher rejects the actual value.
func (e *Expectation) ToNot(m Matcher) {
	e.t.record(assertion{actual: e.actual, matcher: m, negated: true, line: e.line})
}

// NotTo is an alias for ToNot.
func (e *Expectation) NotTo(m Matcher) {
	e.ToNot(m)
}
