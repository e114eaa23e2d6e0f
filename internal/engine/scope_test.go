package engine

import (
	"strings"
	"testing"
)

func TestFocusSkipsUnfocusedTests(t *testing.T) {
	console := &captureConsole{}
	tr := NewTracker(nil, console)

	ran := []string{}
	res, err := tr.Describe("root", func(s *S) {
		s.Describe("A", func(s *S) {
			s.BeforeEach(func() { ran = append(ran, "beforeA") })
			s.It("t1", func(*T) { ran = append(ran, "t1") })
		})
		s.FDescribe("B", func(s *S) {
			s.It("t2", func(*T) { ran = append(ran, "t2") })
		})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Total != 2 || res.Succeeded != 1 || res.Pending != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(ran) != 1 || ran[0] != "t2" {
		t.Fatalf("focus leaked, ran %v", ran)
	}
	block := console.blocks[0]
	if !strings.Contains(block, "    > t1\n") {
		t.Fatalf("t1 should render pending:\n%s", block)
	}
	if !strings.Contains(block, "    . t2\n") {
		t.Fatalf("t2 should render executed:\n%s", block)
	}
	if !strings.Contains(block, "  * DESCRIBE B\n") {
		t.Fatalf("focused scope should carry the focus marker:\n%s", block)
	}
}

func TestFocusedTestBesideUnfocusedSibling(t *testing.T) {
	tr := NewTracker(nil, nil)
	res, err := tr.Describe("root", func(s *S) {
		s.FIt("x", func(*T) {})
		s.It("y", func(*T) {})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Total != 2 || res.Succeeded != 1 || res.Failed() != 0 || res.Pending != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Text, "  . x\n") || !strings.Contains(res.Text, "  > y\n") {
		t.Fatalf("unexpected text:\n%s", res.Text)
	}
}

func TestPendingDominatesFocus(t *testing.T) {
	tr := NewTracker(nil, nil)
	ran := false
	res, err := tr.Describe("root", func(s *S) {
		s.XDescribe("shelved", func(s *S) {
			s.FIt("still pending", func(*T) { ran = true })
		})
		s.It("normal", func(*T) {})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ran {
		t.Fatalf("focused test under pending scope must not run")
	}
	// the pending subtree contributes no focus, so the sibling runs normally
	if res.Succeeded != 1 || res.Pending != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Text, "  > DESCRIBE shelved\n") {
		t.Fatalf("pending scope should carry the pending marker:\n%s", res.Text)
	}
}

func TestPendingRootRunsNothing(t *testing.T) {
	console := &captureConsole{}
	tr := NewTracker(nil, console)
	ran := false
	res, err := tr.XDescribe("all off", func(s *S) {
		s.BeforeEach(func() { ran = true })
		s.It("a", func(*T) { ran = true })
		s.It("b", func(*T) { ran = true })
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ran {
		t.Fatalf("pending root must suppress all execution")
	}
	if res.Total != 2 || res.Pending != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(console.blocks) != 1 {
		t.Fatalf("pending runs still report, got %d blocks", len(console.blocks))
	}
}

func TestHookOrderPerTest(t *testing.T) {
	tr := NewTracker(nil, nil)
	var order []string
	_, err := tr.Describe("root", func(s *S) {
		s.BeforeEach(func() { order = append(order, "beforeOuter") })
		s.AfterEach(func() { order = append(order, "afterOuter") })
		s.Describe("inner", func(s *S) {
			s.BeforeEach(func() { order = append(order, "beforeInner") })
			s.AfterEach(func() { order = append(order, "afterInner") })
			s.SubjectAction(func() { order = append(order, "action") })
			s.It("t", func(*T) { order = append(order, "body") })
		})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"beforeOuter", "beforeInner", "action", "body", "afterInner", "afterOuter"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected order %v, want %v", order, want)
	}
}

func TestHooksRunOncePerTestOutsideGroups(t *testing.T) {
	tr := NewTracker(nil, nil)
	count := 0
	_, err := tr.Describe("root", func(s *S) {
		s.BeforeEach(func() { count++ })
		s.It("a", func(*T) {})
		s.It("b", func(*T) {})
		s.It("c", func(*T) {})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 3 {
		t.Fatalf("beforeEach should run once per test, ran %d times", count)
	}
}

func TestBeforeHookErrorFailsTestButRunsAfters(t *testing.T) {
	tr := NewTracker(nil, nil)
	var order []string
	res, err := tr.Describe("root", func(s *S) {
		s.BeforeEach(func() { order = append(order, "before"); panic("setup broke") })
		s.AfterEach(func() { order = append(order, "after") })
		s.It("t", func(*T) { order = append(order, "body") })
	})
	if err != nil {
		t.Fatalf("hook panic must not abort the run: %v", err)
	}
	if res.Failed() != 1 {
		t.Fatalf("expected failure, got %+v", res)
	}
	joined := strings.Join(order, ",")
	if joined != "before,after" {
		t.Fatalf("body must be skipped and teardown still run, got %v", order)
	}
	if !strings.Contains(res.Cases[0].Message, "setup broke") {
		t.Fatalf("hook error not surfaced: %+v", res.Cases[0])
	}
}

func TestAfterHookErrorFailsPassedTest(t *testing.T) {
	tr := NewTracker(nil, nil)
	res, err := tr.Describe("root", func(s *S) {
		s.AfterEach(func() { panic("teardown broke") })
		s.It("t", func(*T) {})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Failed() != 1 || res.Succeeded != 0 {
		t.Fatalf("teardown failure should fail the test: %+v", res)
	}
}

func TestGroupBatchesHooksOnce(t *testing.T) {
	tr := NewTracker(nil, nil)
	var order []string
	res, err := tr.Describe("root", func(s *S) {
		s.Group("batch", func(s *S) {
			s.BeforeEach(func() { order = append(order, "before") })
			s.SubjectAction(func() { order = append(order, "action") })
			s.AfterEach(func() { order = append(order, "after") })
			s.It("a", func(*T) { order = append(order, "a") })
			s.XIt("b", nil)
			s.It("c", func(*T) { order = append(order, "c") })
		})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "before,action,a,c,after"
	if strings.Join(order, ",") != want {
		t.Fatalf("unexpected group order %v, want %s", order, want)
	}
	if res.Total != 3 || res.Succeeded != 2 || res.Pending != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Text, "    > b\n") {
		t.Fatalf("pending group member should still render:\n%s", res.Text)
	}
}

func TestGroupAllPendingSkipsHooksEntirely(t *testing.T) {
	tr := NewTracker(nil, nil)
	hookRan := false
	res, err := tr.Describe("root", func(s *S) {
		s.Group("batch", func(s *S) {
			s.BeforeEach(func() { hookRan = true })
			s.XIt("a", nil)
			s.XIt("b", nil)
		})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if hookRan {
		t.Fatalf("no hooks may run when no group test is eligible")
	}
	if res.Pending != 2 || res.Total != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestGroupWithOneFocusedStillRunsSharedHooks(t *testing.T) {
	tr := NewTracker(nil, nil)
	before, after := 0, 0
	res, err := tr.Describe("root", func(s *S) {
		s.Group("batch", func(s *S) {
			s.BeforeEach(func() { before++ })
			s.AfterEach(func() { after++ })
			s.FIt("focused", func(*T) {})
			s.It("left out", func(*T) {})
			s.It("also out", func(*T) {})
		})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if before != 1 || after != 1 {
		t.Fatalf("shared hooks should run exactly once, got before=%d after=%d", before, after)
	}
	if res.Succeeded != 1 || res.Pending != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestGroupSharedHookErrorFailsAllEligible(t *testing.T) {
	tr := NewTracker(nil, nil)
	res, err := tr.Describe("root", func(s *S) {
		s.Group("batch", func(s *S) {
			s.BeforeEach(func() { panic("shared setup broke") })
			s.It("a", func(*T) {})
			s.XIt("b", nil)
			s.It("c", func(*T) {})
		})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Failed() != 2 || res.Pending != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestGroupInheritsAncestorHooks(t *testing.T) {
	tr := NewTracker(nil, nil)
	var order []string
	_, err := tr.Describe("root", func(s *S) {
		s.BeforeEach(func() { order = append(order, "outerBefore") })
		s.AfterEach(func() { order = append(order, "outerAfter") })
		s.Group("batch", func(s *S) {
			s.BeforeEach(func() { order = append(order, "groupBefore") })
			s.AfterEach(func() { order = append(order, "groupAfter") })
			s.It("a", func(*T) { order = append(order, "a") })
			s.It("b", func(*T) { order = append(order, "b") })
		})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "outerBefore,groupBefore,a,b,groupAfter,outerAfter"
	if strings.Join(order, ",") != want {
		t.Fatalf("unexpected order %v, want %s", order, want)
	}
}
