package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dop251/goja"
	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"pkt.systems/pslog"
)

// specOperation is one route/verb pair scheduled for stub generation.
type specOperation struct {
	Verb     string
	Route    string
	Title    string
	Statuses []string
}

// specGroup collects the operations that land in one generated spec file.
type specGroup struct {
	Name string
	Ops  []specOperation
}

var verbOrder = []string{"get", "post", "put", "patch", "delete", "options", "head", "trace"}

// ImportOpenAPI generates a spec-file collection from an OpenAPI or Swagger
// document: one .spec.js per group, a describe per operation and a pending
// stub per documented response status. Stubs are emitted as xit unless
// Options.Active asks for runnable it stubs.
func ImportOpenAPI(ctx context.Context, opts Options) error {
	doc, err := loadDocument(ctx, &opts)
	if err != nil {
		return fmt.Errorf("load openapi: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = pslog.NewWithOptions(os.Stdout, pslog.Options{Mode: pslog.ModeConsole, MinLevel: pslog.InfoLevel})
	}
	log = log.With("fn", pslog.CurrentFn())

	if verr := doc.Validate(ctx); verr != nil {
		log.Warn("import.openapi.validate.warn", "err", verr)
	}
	pathCount := len(doc.Paths.Map())
	log.Debug("import.openapi.loaded", "paths", pathCount)

	collectionName := opts.CollectionName
	if collectionName == "" {
		if doc.Info != nil && doc.Info.Title != "" {
			collectionName = doc.Info.Title
		} else {
			collectionName = "imported-openapi"
		}
	}

	log.Info("import.openapi.start", "source", opts.Source, "output", opts.OutputDir)

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return err
		}
		manifest := fmt.Appendf(nil, "{\"name\":%q,\"version\":\"1.0\",\"type\":\"collection\"}", collectionName)
		if err := os.WriteFile(filepath.Join(opts.OutputDir, "gocha.json"), manifest, 0o644); err != nil {
			return err
		}
	}

	groups := groupOperations(doc, opts)
	existing := map[string]int{}
	written := 0
	for i, group := range groups {
		content := renderSpecFile(group, i+1, opts.Active)
		name := specFileName(existing, group.Name)
		if _, err := goja.Parse(name, content); err != nil {
			return fmt.Errorf("generated spec %s does not parse: %w", name, err)
		}
		if opts.OutputDir != "" {
			if err := os.WriteFile(filepath.Join(opts.OutputDir, name), []byte(content), 0o644); err != nil {
				return err
			}
		}
		written++
		log.Info("import.openapi.spec.write", "group", group.Name, "ops", len(group.Ops), "file", name)
	}

	if opts.OutputFile != "" {
		summary := map[string]any{
			"name":    collectionName,
			"source":  opts.Source,
			"output":  opts.OutputDir,
			"format":  "gocha",
			"groupBy": opts.GroupBy,
			"files":   written,
		}
		if err := writeJSONFile(opts.OutputFile, summary); err != nil {
			return err
		}
	}
	log.Info("import.openapi.done", "output", opts.OutputDir, "paths", pathCount, "files", written)
	return nil
}

func groupOperations(doc *openapi3.T, opts Options) []specGroup {
	paths := doc.Paths.Map()
	routes := make([]string, 0, len(paths))
	for route := range paths {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	byName := map[string][]specOperation{}
	for _, route := range routes {
		if !shouldIncludePath(route, opts.IncludePaths) {
			continue
		}
		item := paths[route]
		for _, verb := range verbOrder {
			op := operationFor(item, verb)
			if op == nil {
				continue
			}
			name := groupName(route, op, opts.GroupBy)
			byName[name] = append(byName[name], specOperation{
				Verb:     strings.ToUpper(verb),
				Route:    route,
				Title:    operationTitle(verb, route, op),
				Statuses: responseStatuses(op),
			})
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	groups := make([]specGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, specGroup{Name: name, Ops: byName[name]})
	}
	return groups
}

func operationFor(item *openapi3.PathItem, verb string) *openapi3.Operation {
	if item == nil {
		return nil
	}
	switch verb {
	case "get":
		return item.Get
	case "post":
		return item.Post
	case "put":
		return item.Put
	case "patch":
		return item.Patch
	case "delete":
		return item.Delete
	case "options":
		return item.Options
	case "head":
		return item.Head
	case "trace":
		return item.Trace
	}
	return nil
}

func groupName(route string, op *openapi3.Operation, groupBy string) string {
	if groupBy == "path" {
		seg := strings.Trim(route, "/")
		if i := strings.Index(seg, "/"); i >= 0 {
			seg = seg[:i]
		}
		if seg == "" {
			return "root"
		}
		return seg
	}
	if len(op.Tags) > 0 {
		return op.Tags[0]
	}
	return "untagged"
}

func operationTitle(verb, route string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return humanizeTitle(op.OperationID)
	}
	if s := strings.TrimSpace(op.Summary); s != "" {
		return s
	}
	return strings.ToUpper(verb) + " " + route
}

func responseStatuses(op *openapi3.Operation) []string {
	if op.Responses == nil {
		return nil
	}
	codes := make([]string, 0, op.Responses.Len())
	for code := range op.Responses.Map() {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func shouldIncludePath(route string, includes []string) bool {
	if len(includes) == 0 {
		return true
	}
	for _, p := range includes {
		if p == route || strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

// renderSpecFile produces one spec file: meta directives for the discovery
// layer, then a top-level describe per operation with one stub per status.
func renderSpecFile(group specGroup, seq int, active bool) string {
	stub := "xit"
	if active {
		stub = "it"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "// gch:name %s\n", humanizeTitle(group.Name))
	fmt.Fprintf(&b, "// gch:seq %d\n", seq)
	fmt.Fprintf(&b, "// gch:tags imported,%s\n", sanitizeName(group.Name))
	for _, op := range group.Ops {
		b.WriteString("\n")
		fmt.Fprintf(&b, "// %s %s\n", op.Verb, op.Route)
		fmt.Fprintf(&b, "describe(%s, function() {\n", jsString(op.Title))
		if len(op.Statuses) == 0 {
			fmt.Fprintf(&b, "  %s(\"responds\", function() {\n", stub)
			b.WriteString("    expect(true).to(beTrue());\n")
			b.WriteString("  });\n")
		}
		for _, code := range op.Statuses {
			fmt.Fprintf(&b, "  %s(%s, function() {\n", stub, jsString("responds "+code))
			if isStatusCode(code) {
				fmt.Fprintf(&b, "    expect(%s).to(equal(%s));\n", code, code)
			} else {
				b.WriteString("    expect(true).to(beTrue());\n")
			}
			b.WriteString("  });\n")
		}
		b.WriteString("});\n")
	}
	return b.String()
}

var statusCodeRe = regexp.MustCompile(`^\d+$`)

func isStatusCode(code string) bool {
	return statusCodeRe.MatchString(code)
}

func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

var camelBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// humanizeTitle turns identifiers like "listPets" or "get_user-by-id" into
// readable titles.
func humanizeTitle(s string) string {
	s = camelBoundaryRe.ReplaceAllString(s, "$1 $2")
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	return cases.Title(language.English).String(strings.ToLower(s))
}

func specFileName(existing map[string]int, group string) string {
	base := sanitizeName(group)
	n := existing[base]
	existing[base] = n + 1
	if n > 0 {
		return fmt.Sprintf("%s-%d.spec.js", base, n+1)
	}
	return base + ".spec.js"
}

var unsafeNameRe = regexp.MustCompile(`[^a-z0-9]+`)

func sanitizeName(s string) string {
	s = unsafeNameRe.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "spec"
	}
	const maxLen = 80
	if len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	return s
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
