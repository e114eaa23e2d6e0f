package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"pkt.systems/gocha/internal/engine"
	"pkt.systems/pslog"
)

type runner struct {
	logger  pslog.Base
	console engine.Console
}

type runnerConfig struct {
	logger  pslog.Base
	console engine.Console
}

// New returns a Gocha instance. Without options it logs to stdout and prints
// report blocks to stdout as files complete.
func New(ctx context.Context, opts ...Option) (Gocha, error) {
	if ctx == nil {
		return nil, errors.New("nil context")
	}
	cfg := runnerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = pslog.New(os.Stdout)
	}
	if cfg.console == nil {
		cfg.console = engine.NewWriterConsole(os.Stdout)
	}
	return &runner{logger: cfg.logger, console: cfg.console}, nil
}

// Describe declares and immediately runs a root-level suite through the Go
// DSL, printing one report block to the configured console.
func (r *runner) Describe(title string, body func(*engine.S)) (engine.Result, error) {
	return engine.NewTracker(r.logger, r.console).Describe(title, body)
}

// FDescribe is Describe with the root marked focused.
func (r *runner) FDescribe(title string, body func(*engine.S)) (engine.Result, error) {
	return engine.NewTracker(r.logger, r.console).FDescribe(title, body)
}

// XDescribe is Describe with the root marked pending.
func (r *runner) XDescribe(title string, body func(*engine.S)) (engine.Result, error) {
	return engine.NewTracker(r.logger, r.console).XDescribe(title, body)
}

// NewTester returns a flat tester bound to the runner's logger and console.
func (r *runner) NewTester(title string) *engine.Tester {
	return engine.NewTester(title, r.logger, r.console)
}

// RunSource executes spec source held in memory. The name is used for script
// stack traces and the derived spec name.
func (r *runner) RunSource(ctx context.Context, name string, src string, opts RunOptions) (FileResult, error) {
	sf := SpecFile{FilePath: name, Source: src, Meta: ParseMeta(src)}
	return r.executeSpec(sf, opts), nil
}

// RunFile executes a single spec file from disk.
func (r *runner) RunFile(ctx context.Context, path string, opts RunOptions) (FileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("read spec: %w", err)
	}
	sf := SpecFile{FilePath: path, Source: string(src), Meta: ParseMeta(string(src))}
	return r.executeSpec(sf, opts), nil
}

// RunFolder discovers spec files under path and executes them in sequence
// order. Files sharing a sequence number run in path order.
func (r *runner) RunFolder(ctx context.Context, path string, opts RunOptions) (RunSummary, error) {
	start := time.Now()
	recursive := true
	if opts.RecursiveSet {
		recursive = opts.Recursive
	}
	files, err := DiscoverSpecFiles(path, recursive, opts.Pattern)
	if err != nil {
		return RunSummary{}, err
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Meta.Seq == files[j].Meta.Seq {
			return files[i].FilePath < files[j].FilePath
		}
		return files[i].Meta.Seq < files[j].Meta.Seq
	})

	var summary RunSummary
	for _, sf := range files {
		if err := ctx.Err(); err != nil {
			summary.TotalElapsed = time.Since(start)
			return summary, err
		}
		fr := r.executeSpec(sf, opts)
		summary.Files = append(summary.Files, fr)
		if fr.Skipped {
			summary.FilesSkipped++
			continue
		}
		summary.Total += fr.Total
		summary.Succeeded += fr.Succeeded
		summary.Failed += fr.Failed
		summary.Pending += fr.Pending
		if !fr.Passed() {
			summary.FilesFailed++
			if opts.Bail {
				break
			}
		}
	}
	summary.TotalElapsed = time.Since(start)
	return summary, nil
}

// executeSpec runs one spec file in a fresh VM with a fresh tracker. Script
// exceptions and structural declaration errors abort the file and land in
// ErrorText; results collected before the abort are kept.
func (r *runner) executeSpec(sf SpecFile, opts RunOptions) FileResult {
	logger := r.logger
	if opts.Logger != nil {
		logger = opts.Logger
	}
	name := sf.Meta.Name
	if name == "" {
		name = specName(sf.FilePath)
	}
	fr := FileResult{
		Name:     name,
		FilePath: sf.FilePath,
		Seq:      sf.Meta.Seq,
		Tags:     sf.Meta.Tags,
	}
	if sf.Meta.Skip || !passesTagFilter(sf.Meta.Tags, opts.Tags, opts.ExcludeTags) {
		fr.Skipped = true
		logger.Debug("spec file skipped", "file", sf.FilePath)
		return fr
	}

	console := &blockConsole{}
	if !opts.Quiet {
		console.forward = r.console
	}
	tracker := engine.NewTracker(logger, console)
	env := newSpecVM(tracker, logger)

	started := time.Now()
	err := env.run(sf.FilePath, sf.Source)
	fr.Duration = time.Since(started)

	fr.Runs = env.results
	fr.Console = env.console
	for _, res := range env.results {
		fr.Total += res.Total
		fr.Succeeded += res.Succeeded
		fr.Failed += res.Failed()
		fr.Pending += res.Pending
	}
	fr.Output = strings.Join(console.blocks, "\n")
	if err != nil {
		fr.ErrorText = err.Error()
		logger.Error("spec file aborted", "file", sf.FilePath, "error", err)
	} else {
		logger.Debug("spec file complete", "file", sf.FilePath,
			"total", fr.Total, "failed", fr.Failed, "pending", fr.Pending)
	}
	return fr
}

// blockConsole collects rendered report blocks and optionally forwards them
// to a live console as they arrive.
type blockConsole struct {
	blocks  []string
	forward engine.Console
}

func (c *blockConsole) Print(block string) {
	c.blocks = append(c.blocks, block)
	if c.forward != nil {
		c.forward.Print(block)
	}
}

func specName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".spec.js")
	base = strings.TrimSuffix(base, ".js")
	return base
}

func passesTagFilter(tags []string, include []string, exclude []string) bool {
	if len(include) > 0 {
		found := false
		for _, t := range tags {
			if slices.Contains(include, t) {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	for _, t := range tags {
		if slices.Contains(exclude, t) {
			return false
		}
	}
	return true
}
