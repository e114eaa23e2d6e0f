package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"pkt.systems/gocha"
	"pkt.systems/gocha/internal/console"
	"pkt.systems/pslog"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [folder|file]",
		Short: "Execute spec files",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runE,
	}

	addLoggingFlags(runCmd.Flags())
	runCmd.Flags().StringSlice("tags", nil, "Only run spec files with these tags")
	runCmd.Flags().StringSlice("exclude-tags", nil, "Skip spec files with these tags")
	runCmd.Flags().Bool("bail", false, "Stop after first failing file")
	runCmd.Flags().BoolP("recursive", "r", false, "Recurse into subfolders")
	runCmd.Flags().String("pattern", "", "Spec file name glob (default *.spec.js)")
	runCmd.Flags().StringP("output", "o", "", "Write summary to file (see --format)")
	runCmd.Flags().StringP("format", "f", "json", "Output format: json|junit|html")
	runCmd.Flags().String("reporter-json", "", "Write JSON report to path")
	runCmd.Flags().String("reporter-junit", "", "Write JUnit XML report to path")
	runCmd.Flags().String("reporter-html", "", "Write HTML report to path")
	runCmd.Flags().String("color", "", "Colorize report output: auto|always|never")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress report blocks, log the summary only")

	return runCmd
}

func newLogger(structured bool, level string, flagSet bool, caller bool, w io.Writer) (pslog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	var logger pslog.Logger
	opts := pslog.Options{CallerKeyval: caller}
	if structured {
		opts.Mode = pslog.ModeStructured
	}
	logger = pslog.NewWithOptions(w, opts)

	logger = logger.LogLevel(pslog.InfoLevel)

	if flagSet {
		if lvl, ok := pslog.ParseLevel(level); ok {
			return logger.LogLevel(lvl), nil
		}
		return nil, fmt.Errorf("unknown level %q", level)
	}

	if lvl, ok := pslog.LevelFromEnv("LOG_LEVEL"); ok {
		return logger.LogLevel(lvl), nil
	}
	if lvl, ok := pslog.ParseLevel(level); ok {
		return logger.LogLevel(lvl), nil
	}
	return logger, nil
}

func runE(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	logger := loggerFromCmd(cmd)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("config", "err", err)
		return nil
	}

	flags := cmd.Flags()
	tags, _ := flags.GetStringSlice("tags")
	exclude, _ := flags.GetStringSlice("exclude-tags")
	bail, _ := flags.GetBool("bail")
	recursive, _ := flags.GetBool("recursive")
	recursiveSet := flags.Changed("recursive")
	pattern, _ := flags.GetString("pattern")
	output, _ := flags.GetString("output")
	format, _ := flags.GetString("format")
	reportJSON, _ := flags.GetString("reporter-json")
	reportJUnit, _ := flags.GetString("reporter-junit")
	reportHTML, _ := flags.GetString("reporter-html")
	colorMode, _ := flags.GetString("color")
	quiet, _ := flags.GetBool("quiet")

	// Layering: built-in defaults, then .gch.yaml, then flags.
	if pattern == "" {
		pattern = cfg.Pattern
	}
	if colorMode == "" {
		colorMode = cfg.Color
	}
	if !quiet {
		quiet = cfg.Quiet
	}
	if reportJSON == "" {
		reportJSON = cfg.Reporters.JSON
	}
	if reportJUnit == "" {
		reportJUnit = cfg.Reporters.JUnit
	}
	if reportHTML == "" {
		reportHTML = cfg.Reporters.HTML
	}
	if !recursiveSet && cfg.Recursive != nil {
		recursive = *cfg.Recursive
		recursiveSet = true
	}

	printer := console.New(os.Stdout,
		console.WithMode(console.Mode(strings.ToLower(colorMode))),
		console.WithWidth(console.DetectWidth(os.Stdout)))

	g, err := gocha.New(cmd.Context(), gocha.WithLogger(logger), gocha.WithConsole(printer))
	if err != nil {
		logger.Fatal("init", "err", err)
		return nil
	}

	opts := gocha.RunOptions{
		Tags:          tags,
		ExcludeTags:   exclude,
		Pattern:       pattern,
		Quiet:         quiet,
		Bail:          bail,
		Recursive:     recursive,
		RecursiveSet:  recursiveSet,
		OutputPath:    output,
		OutputFormat:  format,
		ReporterJSON:  reportJSON,
		ReporterJUnit: reportJUnit,
		ReporterHTML:  reportHTML,
	}

	info, err := os.Stat(target)
	if err != nil {
		logger.Fatal("stat", "path", target, "err", err)
		return nil
	}
	if info.IsDir() {
		summary, err := g.RunFolder(cmd.Context(), target, opts)
		if err != nil {
			logger.Fatal("run", "err", err)
			return nil
		}
		if err := writeOutputs(opts, summary); err != nil {
			logger.Fatal("report", "err", err)
			return nil
		}
		logger.Info("summary",
			"files", len(summary.Files),
			"total", summary.Total,
			"succeeded", summary.Succeeded,
			"failed", summary.Failed,
			"pending", summary.Pending,
			"elapsed", summary.TotalElapsed.String())
		if summary.Failed > 0 || summary.FilesFailed > 0 {
			logger.Fatal("specs failed", "tests", summary.Failed, "files", summary.FilesFailed)
		}
		return nil
	}

	fr, err := g.RunFile(cmd.Context(), target, opts)
	if err != nil {
		logger.Fatal("run", "err", err)
		return nil
	}
	summary := gocha.RunSummary{
		Files:        []gocha.FileResult{fr},
		Total:        fr.Total,
		Succeeded:    fr.Succeeded,
		Failed:       fr.Failed,
		Pending:      fr.Pending,
		TotalElapsed: fr.Duration,
	}
	switch {
	case fr.Skipped:
		summary.FilesSkipped = 1
	case !fr.Passed():
		summary.FilesFailed = 1
	}
	if err := writeOutputs(opts, summary); err != nil {
		logger.Fatal("report", "err", err)
		return nil
	}
	if !fr.Passed() {
		logger.Fatal("spec failed", "file", fr.FilePath, "failed", fr.Failed, "err", fr.ErrorText)
	}
	return nil
}

func writeOutputs(opts gocha.RunOptions, sum gocha.RunSummary) error {
	if opts.OutputPath != "" {
		if err := gocha.WriteReport(opts.OutputFormat, opts.OutputPath, sum); err != nil {
			return err
		}
	}
	if opts.ReporterJSON != "" {
		if err := gocha.WriteReportJSON(opts.ReporterJSON, sum); err != nil {
			return err
		}
	}
	if opts.ReporterJUnit != "" {
		if err := gocha.WriteReportJUnit(opts.ReporterJUnit, sum); err != nil {
			return err
		}
	}
	if opts.ReporterHTML != "" {
		if err := gocha.WriteReportHTML(opts.ReporterHTML, sum); err != nil {
			return err
		}
	}
	return nil
}
