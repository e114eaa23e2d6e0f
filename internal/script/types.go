package script

import (
	"context"
	"io"
	"time"

	"pkt.systems/gocha/internal/engine"
	"pkt.systems/pslog"
)

// Gocha is the public interface exposed by this module. It is safe to hold
// and reuse; each spec file runs in its own script VM and each Go-side root
// declaration runs on a fresh tracker.
type Gocha interface {
	Describe(title string, body func(*engine.S)) (engine.Result, error)
	FDescribe(title string, body func(*engine.S)) (engine.Result, error)
	XDescribe(title string, body func(*engine.S)) (engine.Result, error)
	NewTester(title string) *engine.Tester
	RunSource(ctx context.Context, name string, src string, opts RunOptions) (FileResult, error)
	RunFile(ctx context.Context, path string, opts RunOptions) (FileResult, error)
	RunFolder(ctx context.Context, path string, opts RunOptions) (RunSummary, error)
}

// RunOptions controls execution of one or more spec files.
type RunOptions struct {
	Tags        []string
	ExcludeTags []string
	// Pattern filters discovered file names; empty means *.spec.js.
	Pattern string
	// Quiet collects results without printing report blocks as they complete.
	Quiet        bool
	Bail         bool       // stop after first failing file
	Recursive    bool       // walk subfolders
	RecursiveSet bool       // whether Recursive was explicitly set by caller
	Logger       pslog.Base

	// Reporter/output hints (used by CLI layer).
	OutputPath    string
	OutputFormat  string // json|junit|html
	ReporterJSON  string
	ReporterJUnit string
	ReporterHTML  string
}

// FileResult captures the outcome of a single spec file.
type FileResult struct {
	Name     string
	FilePath string
	Seq      float64
	Tags     []string
	Skipped  bool
	// Runs holds one engine result per root-level declaration in the file.
	Runs      []engine.Result
	Total     int
	Succeeded int
	Failed    int
	Pending   int
	// Output is the concatenation of the rendered report blocks.
	Output    string
	Console   []string
	ErrorText string // set when the file aborted before or between runs
	Duration  time.Duration
}

// Passed reports whether the file completed without failing tests or a
// file-level abort.
func (fr FileResult) Passed() bool {
	return fr.ErrorText == "" && fr.Failed == 0
}

// RunSummary aggregates multiple file results.
type RunSummary struct {
	Files        []FileResult
	Total        int
	Succeeded    int
	Failed       int
	Pending      int
	FilesFailed  int
	FilesSkipped int
	TotalElapsed time.Duration
}

// Option modifies a Gocha instance at construction time.
type Option func(*runnerConfig)

// WithLogger overrides the default logger (pslog console).
func WithLogger(logger pslog.Base) Option {
	return func(rc *runnerConfig) { rc.logger = logger }
}

// WithConsole sets the console collaborator that receives rendered report
// blocks.
func WithConsole(console engine.Console) Option {
	return func(rc *runnerConfig) { rc.console = console }
}

// WithWriter directs report blocks to w. Shorthand for WithConsole with a
// plain writer console.
func WithWriter(w io.Writer) Option {
	return func(rc *runnerConfig) { rc.console = engine.NewWriterConsole(w) }
}
