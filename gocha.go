package gocha

import (
	"context"

	"pkt.systems/gocha/internal/engine"
	"pkt.systems/gocha/internal/match"
	"pkt.systems/gocha/internal/script"
	"pkt.systems/version"
)

// Public type aliases to the engine and script packages

// Gocha runs JavaScript spec files and Go-side suites in-process.
type (
	Gocha = script.Gocha
	// RunOptions configure a single run invocation.
	RunOptions = script.RunOptions
	// FileResult captures the outcome of a single spec file.
	FileResult = script.FileResult
	// RunSummary aggregates file results from a folder run.
	RunSummary = script.RunSummary
	// SpecFile is one discovered spec source with its parsed directives.
	SpecFile = script.SpecFile
	// Meta holds the run directives read from a spec file's comment block.
	Meta = script.Meta
	// Result is the accumulated outcome of one root-level declaration.
	Result = engine.Result
	// CaseRecord is one leaf test outcome kept for machine reporters.
	CaseRecord = engine.CaseRecord
	// Outcome classifies one executed leaf test.
	Outcome = engine.Outcome
	// S is the scope context passed to suite bodies.
	S = engine.S
	// T is the test context passed to test bodies.
	T = engine.T
	// Tester is the flat, explicitly executed variant.
	Tester = engine.Tester
	// Matcher is the predicate strategy applied to asserted values.
	Matcher = engine.Matcher
	// Console receives rendered report blocks.
	Console = engine.Console
)

// Outcome values recorded per case.
const (
	OutcomePassed  = engine.OutcomePassed
	OutcomeFailed  = engine.OutcomeFailed
	OutcomePending = engine.OutcomePending
)

// Option tweaks runner construction.
type Option = script.Option

var (
	// WithLogger supplies a custom pslog logger.
	WithLogger = script.WithLogger
	// WithConsole supplies the console that report blocks are printed to.
	WithConsole = script.WithConsole
	// WithWriter directs report blocks to a plain writer.
	WithWriter = script.WithWriter
)

// Matcher constructors for the Go DSL.
var (
	Equal         = match.Equal
	BeTrue        = match.BeTrue
	BeFalse       = match.BeFalse
	BeNil         = match.BeNil
	Contain       = match.Contain
	BeGreaterThan = match.BeGreaterThan
	BeLessThan    = match.BeLessThan
	BeWithin      = match.BeWithin
	HaveLength    = match.HaveLength
	MatchPattern  = match.MatchPattern
	Not           = match.Not
	AllOf         = match.AllOf
	AnyOf         = match.AnyOf
	NewMatcher    = match.New
)

// New constructs a Gocha instance.
func New(ctx context.Context, opts ...Option) (Gocha, error) {
	return script.New(ctx, opts...)
}

// DiscoverSpecFiles lists spec files under folder without running them.
func DiscoverSpecFiles(folder string, recursive bool, pattern string) ([]SpecFile, error) {
	return script.DiscoverSpecFiles(folder, recursive, pattern)
}

// Version returns the current module version (best effort).
func Version() string {
	return moduleVersion(modulePath)
}

const modulePath = "pkt.systems/gocha"

var moduleVersion = version.ModuleVersion
