package script

import (
	"fmt"
	"os"
	"strings"

	"github.com/dop251/goja"
	"pkt.systems/gocha/internal/engine"
	"pkt.systems/gocha/internal/match"
	"pkt.systems/pslog"
)

// fileAbort unwinds the whole spec file when a structural declaration error
// surfaces. It crosses script frames as a foreign panic, so spec code cannot
// swallow it with try/catch.
type fileAbort struct {
	err error
}

// specVM wires the declaration surface of one spec file into a fresh script
// runtime. Root-level describe/context/group calls run immediately and append
// their results.
type specVM struct {
	vm      *goja.Runtime
	tracker *engine.Tracker
	logger  pslog.Base
	results []engine.Result
	console []string
}

func newSpecVM(tracker *engine.Tracker, logger pslog.Base) *specVM {
	e := &specVM{vm: goja.New(), tracker: tracker, logger: logger}
	e.registerScopes()
	e.registerTests()
	e.registerHooks()
	e.registerExpect()
	e.registerMatchers()
	e.registerConsole()
	e.registerProcessEnv()
	return e
}

// run evaluates the spec source. The returned error covers top-level script
// exceptions and structural declaration errors; test failures are reported
// through the collected results instead.
func (e *specVM) run(name, src string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fa, ok := rec.(fileAbort)
			if !ok {
				panic(rec)
			}
			err = fa.err
		}
	}()
	_, rerr := e.vm.RunScript(name, src)
	return rerr
}

func (e *specVM) registerScopes() {
	bind := func(name string, kind engine.ScopeKind, mark engine.Mark) {
		e.vm.Set(name, func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(e.vm.NewGoError(fmt.Errorf("%s(title, fn) requires 2 args", name)))
			}
			title := call.Arguments[0].String()
			fn, ok := goja.AssertFunction(call.Arguments[1])
			if !ok {
				panic(e.vm.NewGoError(fmt.Errorf("%s: second arg must be function", name)))
			}
			wasRoot := e.tracker.Depth() == 0
			res, err := e.tracker.DeclareScope(kind, title, mark, func() error {
				_, cerr := fn(goja.Undefined())
				return cerr
			})
			if err != nil {
				if wasRoot {
					panic(fileAbort{err})
				}
				panic(e.vm.NewGoError(err))
			}
			if wasRoot {
				e.results = append(e.results, res)
			}
			return goja.Undefined()
		})
	}
	bind("describe", engine.KindDescribe, engine.MarkNone)
	bind("fdescribe", engine.KindDescribe, engine.MarkFocused)
	bind("xdescribe", engine.KindDescribe, engine.MarkPending)
	bind("context", engine.KindContext, engine.MarkNone)
	bind("fcontext", engine.KindContext, engine.MarkFocused)
	bind("xcontext", engine.KindContext, engine.MarkPending)
	bind("group", engine.KindGroup, engine.MarkNone)
	bind("fgroup", engine.KindGroup, engine.MarkFocused)
	bind("xgroup", engine.KindGroup, engine.MarkPending)
}

func (e *specVM) registerTests() {
	bind := func(name string, mark engine.Mark) {
		e.vm.Set(name, func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				panic(e.vm.NewGoError(fmt.Errorf("%s(title, fn) requires a title", name)))
			}
			title := call.Arguments[0].String()
			var body func(*engine.T) error
			if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) && !goja.IsNull(call.Arguments[1]) {
				fn, ok := goja.AssertFunction(call.Arguments[1])
				if !ok {
					panic(e.vm.NewGoError(fmt.Errorf("%s: second arg must be function", name)))
				}
				body = func(*engine.T) error {
					v, cerr := fn(goja.Undefined())
					if cerr != nil {
						return cerr
					}
					// Returning false is the simple-variant failure signal.
					if b, ok := v.Export().(bool); ok && !b {
						return fmt.Errorf("returned false")
					}
					return nil
				}
			}
			if err := e.tracker.DeclareTest(title, mark, body); err != nil {
				panic(fileAbort{err})
			}
			return goja.Undefined()
		})
	}
	bind("it", engine.MarkNone)
	bind("fit", engine.MarkFocused)
	bind("xit", engine.MarkPending)
}

func (e *specVM) registerHooks() {
	bind := func(name string, kind engine.HookKind) {
		e.vm.Set(name, func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				panic(e.vm.NewGoError(fmt.Errorf("%s(fn) requires a function", name)))
			}
			fn, ok := goja.AssertFunction(call.Arguments[0])
			if !ok {
				panic(e.vm.NewGoError(fmt.Errorf("%s: arg must be function", name)))
			}
			err := e.tracker.DeclareHook(kind, func() error {
				_, cerr := fn(goja.Undefined())
				return cerr
			})
			if err != nil {
				panic(fileAbort{err})
			}
			return goja.Undefined()
		})
	}
	bind("beforeEach", engine.HookBeforeEach)
	bind("afterEach", engine.HookAfterEach)
	bind("subjectAction", engine.HookSubjectAction)
}

func (e *specVM) registerExpect() {
	e.vm.Set("expect", func(call goja.FunctionCall) goja.Value {
		t := e.tracker.Current()
		if t == nil {
			panic(fileAbort{fmt.Errorf("expect: %w", engine.ErrExpectOutsideTest)})
		}
		if len(call.Arguments) == 0 {
			panic(e.vm.NewGoError(fmt.Errorf("expect requires a value")))
		}
		actual := call.Arguments[0].Export()
		line := 0
		if len(call.Arguments) > 1 {
			line = int(call.Arguments[1].ToInteger())
		}
		if line == 0 {
			line = e.callerLine()
		}
		exp := t.ExpectAt(actual, line)

		obj := e.vm.NewObject()
		obj.Set("to", func(call goja.FunctionCall) goja.Value {
			exp.To(e.matcherArg(call))
			return goja.Undefined()
		})
		obj.Set("toNot", func(call goja.FunctionCall) goja.Value {
			exp.ToNot(e.matcherArg(call))
			return goja.Undefined()
		})
		obj.Set("notTo", func(call goja.FunctionCall) goja.Value {
			exp.ToNot(e.matcherArg(call))
			return goja.Undefined()
		})
		return obj
	})
}

// callerLine finds the spec source line of the innermost script frame, so
// failures can report the expect call site.
func (e *specVM) callerLine() int {
	frames := e.vm.CaptureCallStack(3, nil)
	for _, f := range frames {
		if pos := f.Position(); pos.Line > 0 {
			return pos.Line
		}
	}
	return 0
}

func (e *specVM) matcherArg(call goja.FunctionCall) engine.Matcher {
	if len(call.Arguments) == 0 {
		panic(e.vm.NewGoError(fmt.Errorf("matcher required")))
	}
	return e.asMatcher(call.Arguments[0])
}

func (e *specVM) asMatcher(v goja.Value) match.M {
	m, ok := v.Export().(match.M)
	if !ok {
		panic(e.vm.NewGoError(fmt.Errorf("argument is not a matcher: %v", v)))
	}
	return m
}

func (e *specVM) registerMatchers() {
	vm := e.vm
	oneArg := func(name string, build func(arg goja.Value) match.M) {
		vm.Set(name, func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				panic(vm.NewGoError(fmt.Errorf("%s expects arg", name)))
			}
			return vm.ToValue(build(call.Arguments[0]))
		})
	}
	noArg := func(name string, build func() match.M) {
		vm.Set(name, func(goja.FunctionCall) goja.Value {
			return vm.ToValue(build())
		})
	}

	oneArg("equal", func(arg goja.Value) match.M { return match.Equal(arg.Export()) })
	oneArg("contain", func(arg goja.Value) match.M { return match.Contain(arg.Export()) })
	oneArg("beGreaterThan", func(arg goja.Value) match.M { return match.BeGreaterThan(arg.Export()) })
	oneArg("beLessThan", func(arg goja.Value) match.M { return match.BeLessThan(arg.Export()) })
	oneArg("haveLength", func(arg goja.Value) match.M { return match.HaveLength(int(arg.ToInteger())) })
	oneArg("matchPattern", func(arg goja.Value) match.M { return match.MatchPattern(arg.String()) })
	oneArg("not", func(arg goja.Value) match.M { return match.Not(e.asMatcher(arg)) })
	noArg("beTrue", match.BeTrue)
	noArg("beFalse", match.BeFalse)
	noArg("beNull", match.BeNil)

	vm.Set("beWithin", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewGoError(fmt.Errorf("beWithin expects min,max")))
		}
		return vm.ToValue(match.BeWithin(call.Arguments[0].Export(), call.Arguments[1].Export()))
	})
	many := func(name string, build func(ms ...match.M) match.M) {
		vm.Set(name, func(call goja.FunctionCall) goja.Value {
			ms := make([]match.M, 0, len(call.Arguments))
			for _, arg := range call.Arguments {
				ms = append(ms, e.asMatcher(arg))
			}
			return vm.ToValue(build(ms...))
		})
	}
	many("allOf", match.AllOf)
	many("anyOf", match.AnyOf)
}

func (e *specVM) registerConsole() {
	console := e.vm.NewObject()
	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		line := strings.Join(parts, " ")
		e.console = append(e.console, line)
		if e.logger != nil {
			e.logger.Debug("script", "msg", line)
		}
		return goja.Undefined()
	}
	console.Set("log", logFn)
	e.vm.Set("console", console)
}

func (e *specVM) registerProcessEnv() {
	envObj := e.vm.NewObject()
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			envObj.Set(parts[0], parts[1])
		}
	}
	proc := e.vm.NewObject()
	proc.Set("env", envObj)
	e.vm.Set("process", proc)
}
