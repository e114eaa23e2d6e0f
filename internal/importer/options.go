package importer

import (
	"net/url"

	"pkt.systems/pslog"
)

// Options describes import settings for OpenAPI conversion.
type Options struct {
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
	// BaseLocation tracks the original spec location (file or URL) for ref resolution.
	BaseLocation *url.URL
}
