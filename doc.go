// Package gocha exposes a Go API for defining and running BDD-style specs
// in-process, either through a Go DSL or from JavaScript spec files executed
// in an embedded VM.
//
// Quick start with the Go DSL (a root-level Describe runs immediately and
// prints one report block):
//
//	ctx := context.Background()
//	g, _ := gocha.New(ctx)
//	res, _ := g.Describe("calculator", func(s *gocha.S) {
//		s.It("adds", func(t *gocha.T) {
//			t.Expect(2 + 3).To(gocha.Equal(5))
//		})
//	})
//
// Run a folder of .spec.js files:
//
//	sum, _ := g.RunFolder(ctx, "specs", gocha.RunOptions{
//		Tags: []string{"smoke"},
//		Bail: true,
//	})
//
// A spec file uses the same vocabulary in JavaScript:
//
//	// gch:seq 1
//	// gch:tags smoke
//	describe('calculator', () => {
//		beforeEach(() => { /* setup */ });
//		it('adds', () => {
//			expect(2 + 3).to(equal(5));
//		});
//		xit('multiplies', () => { /* pending */ });
//	});
//
// The flat variant collects tests first and runs on demand:
//
//	ft := g.NewTester("smoke checks")
//	ft.AddTest("server answers", "responds to ping", func() bool { return ping() })
//	res, _ := ft.ExecuteTests()
//
// The SDK keeps concrete types unexported; interaction happens through the
// Gocha interface plus RunOptions and the result structs defined in this
// package.
package gocha
