package engine

// Root-level declaration entry points. Declaring a scope with no enclosing
// scope is the run trigger: the tree is captured, executed, and reported in
// the same call.

// Describe captures and immediately runs a root-level describe.
func (tr *Tracker) Describe(title string, body func(*S)) (Result, error) {
	return tr.rootScope(title, MarkNone, body)
}

// FDescribe is Describe with the root marked focused.
func (tr *Tracker) FDescribe(title string, body func(*S)) (Result, error) {
	return tr.rootScope(title, MarkFocused, body)
}

// XDescribe is Describe with the root marked pending: the tree is captured
// and reported with every test pending, nothing executes.
func (tr *Tracker) XDescribe(title string, body func(*S)) (Result, error) {
	return tr.rootScope(title, MarkPending, body)
}

func (tr *Tracker) rootScope(title string, mark Mark, body func(*S)) (Result, error) {
	return tr.DeclareScope(KindDescribe, title, mark, func() error {
		if body != nil {
			body(&S{tr: tr})
		}
		return nil
	})
}
