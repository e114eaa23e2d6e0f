package script

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	"pkt.systems/gocha/internal/engine"
	"pkt.systems/gocha/internal/match"
	"pkt.systems/pslog"
)

func newQuietGocha(t *testing.T) Gocha {
	t.Helper()
	g, err := New(context.Background(), WithLogger(pslog.New(io.Discard)), WithWriter(io.Discard))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return g
}

func runSrc(t *testing.T, src string) FileResult {
	t.Helper()
	g := newQuietGocha(t)
	fr, err := g.RunSource(context.Background(), "inline.spec.js", src, RunOptions{Quiet: true})
	if err != nil {
		t.Fatalf("run source: %v", err)
	}
	return fr
}

func TestNewNilContext(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil context")
	}
}

func TestRunSourceReport(t *testing.T) {
	fr := runSrc(t, `describe('calc', () => {
	it('adds', () => {
		expect(1 + 2).to(equal(3));
	});
	it('subtracts', () => {
		expect(5 - 2).to(equal(2));
	});
});`)
	if fr.Total != 2 || fr.Succeeded != 1 || fr.Failed != 1 || fr.Pending != 0 {
		t.Fatalf("unexpected counts: %+v", fr)
	}
	if fr.ErrorText != "" {
		t.Fatalf("unexpected error: %s", fr.ErrorText)
	}
	for _, want := range []string{"  SUITE calc\n", "  . adds\n", "  F subtracts\n",
		"Executed 2 tests | 1 succeeded | 1 failed | 0 pending"} {
		if !strings.Contains(fr.Output, want) {
			t.Fatalf("output missing %q:\n%s", want, fr.Output)
		}
	}
	if !strings.Contains(fr.Output, "Failed on line(s): [") {
		t.Fatalf("expected failed lines in output:\n%s", fr.Output)
	}
}

func TestRunSourceExplicitAssertionLine(t *testing.T) {
	fr := runSrc(t, `describe('lines', () => {
	it('fails', () => {
		expect(1, 42).to(equal(2));
	});
});`)
	if fr.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", fr.Failed)
	}
	if !strings.Contains(fr.Output, "Failed on line(s): [42]") {
		t.Fatalf("expected line 42 in output:\n%s", fr.Output)
	}
	if len(fr.Runs) != 1 || !reflect.DeepEqual(fr.Runs[0].FailedLines, []int{42}) {
		t.Fatalf("unexpected failed lines: %+v", fr.Runs)
	}
}

func TestRunSourceCapturesCallSiteLine(t *testing.T) {
	fr := runSrc(t, "describe('lines', () => {\n"+
		"  it('fails', () => {\n"+
		"    expect(1).to(equal(2));\n"+
		"  });\n"+
		"});\n")
	if len(fr.Runs) != 1 || len(fr.Runs[0].FailedLines) != 1 {
		t.Fatalf("expected one failed line, got %+v", fr.Runs)
	}
	if got := fr.Runs[0].FailedLines[0]; got != 3 {
		t.Fatalf("expected line 3, got %d", got)
	}
}

func TestRunSourceFocusNarrowsRun(t *testing.T) {
	fr := runSrc(t, `describe('root', () => {
	fit('focused', () => true);
	it('normal', () => true);
	xit('skipped', () => true);
});`)
	if fr.Total != 3 || fr.Succeeded != 1 || fr.Pending != 2 || fr.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", fr)
	}
	if !strings.Contains(fr.Output, "> normal") || !strings.Contains(fr.Output, "> skipped") {
		t.Fatalf("expected pending markers:\n%s", fr.Output)
	}
	if !strings.Contains(fr.Output, ". focused") {
		t.Fatalf("expected focused test to run:\n%s", fr.Output)
	}
}

func TestRunSourcePendingScope(t *testing.T) {
	fr := runSrc(t, `describe('root', () => {
	xcontext('later', () => {
		beforeEach(() => { console.log('never'); });
		it('waits', () => { console.log('never'); });
	});
	it('runs', () => true);
});`)
	if fr.Total != 2 || fr.Succeeded != 1 || fr.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", fr)
	}
	if len(fr.Console) != 0 {
		t.Fatalf("pending scope must not execute hooks or bodies: %v", fr.Console)
	}
	if !strings.Contains(fr.Output, "> CONTEXT later") {
		t.Fatalf("expected pending marker on scope:\n%s", fr.Output)
	}
}

func TestRunSourceHookOrder(t *testing.T) {
	fr := runSrc(t, `describe('outer', () => {
	beforeEach(() => { console.log('outer-before'); });
	afterEach(() => { console.log('outer-after'); });
	context('inner', () => {
		beforeEach(() => { console.log('inner-before'); });
		afterEach(() => { console.log('inner-after'); });
		it('runs', () => { console.log('body'); });
	});
});`)
	want := []string{"outer-before", "inner-before", "body", "inner-after", "outer-after"}
	if !reflect.DeepEqual(fr.Console, want) {
		t.Fatalf("expected %v, got %v", want, fr.Console)
	}
}

func TestRunSourceGroupSharedHooks(t *testing.T) {
	fr := runSrc(t, `describe('api', () => {
	group('batch', () => {
		beforeEach(() => { console.log('setup'); });
		subjectAction(() => { console.log('action'); });
		it('a', () => true);
		it('b', () => true);
	});
});`)
	if fr.Total != 2 || fr.Succeeded != 2 {
		t.Fatalf("unexpected counts: %+v", fr)
	}
	if !strings.Contains(fr.Output, "GROUP batch") {
		t.Fatalf("expected group heading:\n%s", fr.Output)
	}
	want := []string{"setup", "action"}
	if !reflect.DeepEqual(fr.Console, want) {
		t.Fatalf("expected shared hooks to run once, got %v", fr.Console)
	}
}

func TestRunSourceHookErrorFailsTest(t *testing.T) {
	fr := runSrc(t, `describe('hooks', () => {
	beforeEach(() => { throw new Error('setup broke'); });
	afterEach(() => { console.log('cleanup'); });
	it('victim', () => { console.log('body'); });
});`)
	if fr.Failed != 1 || fr.Succeeded != 0 {
		t.Fatalf("unexpected counts: %+v", fr)
	}
	if !reflect.DeepEqual(fr.Console, []string{"cleanup"}) {
		t.Fatalf("expected afters to run and body to be skipped, got %v", fr.Console)
	}
}

func TestRunSourceBodyReturningFalseFails(t *testing.T) {
	fr := runSrc(t, `describe('simple', () => {
	it('truthy', () => true);
	it('falsy', () => false);
});`)
	if fr.Succeeded != 1 || fr.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", fr)
	}
}

func TestRunSourceMatchers(t *testing.T) {
	fr := runSrc(t, `describe('matchers', () => {
	it('equal', () => { expect(3).to(equal(3)); });
	it('negation', () => { expect(3).toNot(equal(4)); });
	it('notTo alias', () => { expect('abc').notTo(contain('z')); });
	it('beTrue', () => { expect(true).to(beTrue()); });
	it('beFalse', () => { expect(false).to(beFalse()); });
	it('beNull', () => { expect(null).to(beNull()); });
	it('contain string', () => { expect('hello world').to(contain('world')); });
	it('contain element', () => { expect([1, 2, 3]).to(contain(2)); });
	it('greater', () => { expect(5).to(beGreaterThan(4)); });
	it('less', () => { expect(5).to(beLessThan(6)); });
	it('within', () => { expect(5).to(beWithin(1, 10)); });
	it('length', () => { expect([1, 2]).to(haveLength(2)); });
	it('pattern', () => { expect('abc123').to(matchPattern('^[a-z]+[0-9]+$')); });
	it('not', () => { expect(3).to(not(equal(4))); });
	it('allOf', () => { expect(5).to(allOf(beGreaterThan(1), beLessThan(10))); });
	it('anyOf', () => { expect(5).to(anyOf(equal(1), equal(5))); });
});`)
	if fr.Failed != 0 {
		t.Fatalf("expected all matchers to pass:\n%s", fr.Output)
	}
	if fr.Succeeded != 16 {
		t.Fatalf("expected 16 succeeded, got %d", fr.Succeeded)
	}
}

func TestRunSourceMultipleRootDeclarations(t *testing.T) {
	fr := runSrc(t, `describe('first', () => { it('a', () => true); });
context('second', () => { it('b', () => true); });
`)
	if len(fr.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(fr.Runs))
	}
	if fr.Total != 2 || fr.Succeeded != 2 {
		t.Fatalf("unexpected counts: %+v", fr)
	}
	if !strings.Contains(fr.Output, "SUITE first") || !strings.Contains(fr.Output, "SUITE second") {
		t.Fatalf("expected a report block per root declaration:\n%s", fr.Output)
	}
}

func TestRunSourceTopLevelHookAborts(t *testing.T) {
	fr := runSrc(t, `beforeEach(() => {});`)
	if !strings.Contains(fr.ErrorText, "no enclosing scope") {
		t.Fatalf("expected structural error, got %q", fr.ErrorText)
	}
	if fr.Total != 0 || fr.Output != "" {
		t.Fatalf("expected no results, got %+v", fr)
	}
	if fr.Passed() {
		t.Fatal("aborted file must not pass")
	}
}

func TestRunSourceDeclarationDuringRunAborts(t *testing.T) {
	fr := runSrc(t, `describe('suite', () => {
	it('declares inside', () => {
		try {
			it('nested', () => true);
		} catch (e) {
			console.log('caught');
		}
	});
});`)
	if !strings.Contains(fr.ErrorText, "while a run is executing") {
		t.Fatalf("expected abort, got %q", fr.ErrorText)
	}
	for _, line := range fr.Console {
		if line == "caught" {
			t.Fatal("structural abort must not be catchable from script code")
		}
	}
	if fr.Output != "" {
		t.Fatalf("aborted run must not print a report, got:\n%s", fr.Output)
	}
}

func TestRunSourceScriptExceptionKeepsEarlierRuns(t *testing.T) {
	fr := runSrc(t, `describe('one', () => { it('ok', () => true); });
throw new Error('boom');
`)
	if fr.Total != 1 || fr.Succeeded != 1 {
		t.Fatalf("expected first run to be kept, got %+v", fr)
	}
	if !strings.Contains(fr.ErrorText, "boom") {
		t.Fatalf("expected boom in error, got %q", fr.ErrorText)
	}
	if fr.Passed() {
		t.Fatal("file with script error must not pass")
	}
}

func TestRunSourceProcessEnv(t *testing.T) {
	t.Setenv("GOCHA_TEST_ENV", "present")
	fr := runSrc(t, `describe('env', () => {
	it('reads process.env', () => {
		expect(process.env.GOCHA_TEST_ENV).to(equal('present'));
	});
});`)
	if fr.Succeeded != 1 {
		t.Fatalf("expected env value to be visible, got %+v", fr)
	}
}

func TestRunSourceForwardsBlocksToConsole(t *testing.T) {
	var buf bytes.Buffer
	g, err := New(context.Background(), WithLogger(pslog.New(io.Discard)), WithWriter(&buf))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fr, err := g.RunSource(context.Background(), "fwd.spec.js",
		`describe('fwd', () => { it('ok', () => true); });`, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected live output")
	}
	if !strings.Contains(buf.String(), fr.Output) {
		t.Fatalf("live output should contain the report block:\n%s", buf.String())
	}
}

func TestDescribeGoSide(t *testing.T) {
	var buf bytes.Buffer
	g, err := New(context.Background(), WithLogger(pslog.New(io.Discard)), WithWriter(&buf))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := g.Describe("calc", func(s *engine.S) {
		s.It("adds", func(tc *engine.T) {
			tc.Expect(1 + 2).To(match.Equal(3))
		})
	})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if res.Total != 1 || res.Succeeded != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(buf.String(), ". adds") {
		t.Fatalf("expected printed block:\n%s", buf.String())
	}
}

func TestNewTesterFlat(t *testing.T) {
	g := newQuietGocha(t)
	ft := g.NewTester("checks")
	ft.AddTest("works", "returns true", func() bool { return true })
	res, err := ft.ExecuteTests()
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Total != 1 || res.Succeeded != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunFileSkipDirective(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "skip.spec.js",
		"// gch:skip\ndescribe('x', () => { it('never', () => false); });\n")
	g := newQuietGocha(t)
	fr, err := g.RunFile(context.Background(), path, RunOptions{Quiet: true})
	if err != nil {
		t.Fatalf("run file: %v", err)
	}
	if !fr.Skipped || fr.Total != 0 {
		t.Fatalf("expected skipped file, got %+v", fr)
	}
}

func TestRunFolderSequencesAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "a.spec.js", "// gch:seq 2\ndescribe('a', () => { it('ok', () => true); });\n")
	writeSpec(t, dir, "b.spec.js", "// gch:seq 1\ndescribe('b', () => { it('ok', () => true); });\n")
	writeSpec(t, dir, "slow.spec.js", "// gch:seq 3\n// gch:tags slow\ndescribe('s', () => { it('ok', () => true); });\n")

	g := newQuietGocha(t)
	sum, err := g.RunFolder(context.Background(), dir, RunOptions{Quiet: true, ExcludeTags: []string{"slow"}})
	if err != nil {
		t.Fatalf("run folder: %v", err)
	}
	if len(sum.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(sum.Files))
	}
	if sum.Files[0].Name != "b" || sum.Files[1].Name != "a" {
		t.Fatalf("expected seq order b,a got %s,%s", sum.Files[0].Name, sum.Files[1].Name)
	}
	if sum.FilesSkipped != 1 || sum.Total != 2 || sum.Succeeded != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRunFolderIncludeTags(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "a.spec.js", "// gch:tags smoke\ndescribe('a', () => { it('ok', () => true); });\n")
	writeSpec(t, dir, "b.spec.js", "describe('b', () => { it('ok', () => true); });\n")

	g := newQuietGocha(t)
	sum, err := g.RunFolder(context.Background(), dir, RunOptions{Quiet: true, Tags: []string{"smoke"}})
	if err != nil {
		t.Fatalf("run folder: %v", err)
	}
	if sum.FilesSkipped != 1 || sum.Total != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRunFolderBailStopsEarly(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "a.spec.js", "// gch:seq 1\ndescribe('a', () => { it('fails', () => false); });\n")
	writeSpec(t, dir, "b.spec.js", "// gch:seq 2\ndescribe('b', () => { it('ok', () => true); });\n")

	g := newQuietGocha(t)
	sum, err := g.RunFolder(context.Background(), dir, RunOptions{Quiet: true, Bail: true})
	if err != nil {
		t.Fatalf("run folder: %v", err)
	}
	if len(sum.Files) != 1 || sum.FilesFailed != 1 {
		t.Fatalf("expected bail after first failure, got %+v", sum)
	}
}
