package gocha

import (
	"context"

	"pkt.systems/gocha/internal/importer"
	"pkt.systems/pslog"
)

// ImportOptions control import of OpenAPI specs into spec-file collections.
type ImportOptions struct {
	Source          string
	OutputDir       string
	OutputFile      string
	CollectionName  string
	GroupBy         string // tags|path
	IncludePaths    []string
	Insecure        bool
	AllowRemoteRefs bool
	AllowFileRefs   bool
	// Active emits runnable it stubs instead of pending xit stubs.
	Active bool
	Logger pslog.Logger
}

// ImportOpenAPI generates a pending spec-file collection from an
// OpenAPI/Swagger document.
func ImportOpenAPI(ctx context.Context, opts ImportOptions) error {
	return importer.ImportOpenAPI(ctx, importer.Options{
		Source:          opts.Source,
		OutputDir:       opts.OutputDir,
		OutputFile:      opts.OutputFile,
		CollectionName:  opts.CollectionName,
		GroupBy:         opts.GroupBy,
		IncludePaths:    opts.IncludePaths,
		Insecure:        opts.Insecure,
		AllowRemoteRefs: opts.AllowRemoteRefs,
		AllowFileRefs:   opts.AllowFileRefs,
		Active:          opts.Active,
		Logger:          opts.Logger,
	})
}
