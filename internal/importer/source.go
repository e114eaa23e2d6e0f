package importer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/oasdiff/yaml"
)

// loadDocument reads the spec source (file or URL), converts Swagger 2 input
// to v3 and resolves external refs subject to the remote/file ref guards.
func loadDocument(ctx context.Context, opts *Options) (*openapi3.T, error) {
	var (
		data     []byte
		err      error
		location *url.URL
	)
	if isURL(opts.Source) {
		client := http.DefaultClient
		if opts.Insecure {
			client = insecureHTTPClient()
		}
		data, err = fetchWithClient(opts.Source, client)
		location, _ = url.Parse(opts.Source)
	} else {
		if !filepath.IsAbs(opts.Source) {
			if abs, errAbs := filepath.Abs(opts.Source); errAbs == nil {
				opts.Source = abs
			}
		}
		data, err = os.ReadFile(opts.Source)
		location = &url.URL{Path: filepath.ToSlash(opts.Source)}
	}
	if err != nil {
		return nil, fmt.Errorf("load openapi source: %w", err)
	}
	opts.BaseLocation = location

	if isSwagger2Data(data) {
		return loadSwaggerAsV3(data, newLoader(ctx, *opts), location)
	}
	loader := newLoader(ctx, *opts)
	if location != nil {
		return loader.LoadFromDataWithPath(data, location)
	}
	return loader.LoadFromData(data)
}

func newLoader(ctx context.Context, opts Options) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	loader.Context = ctx
	client := http.DefaultClient
	if opts.Insecure || opts.AllowRemoteRefs {
		client = insecureHTTPClient()
	}
	loader.ReadFromURIFunc = func(_ *openapi3.Loader, u *url.URL) ([]byte, error) {
		return fetchExternal(u, client, opts)
	}
	return loader
}

func loadSwaggerAsV3(data []byte, loader *openapi3.Loader, location *url.URL) (*openapi3.T, error) {
	var doc2 openapi2.T
	if err := json.Unmarshal(data, &doc2); err != nil {
		if err2 := yaml.Unmarshal(data, &doc2); err2 != nil {
			return nil, fmt.Errorf("unmarshal swagger: %v / %v", err, err2)
		}
	}
	if doc2.Swagger == "" {
		return nil, fmt.Errorf("invalid swagger: missing swagger field")
	}
	return openapi2conv.ToV3WithLoader(&doc2, loader, location)
}

func isSwagger2Data(data []byte) bool {
	lower := bytes.ToLower(data)
	return bytes.Contains(lower, []byte("swagger")) && bytes.Contains(lower, []byte("2.0"))
}

// fetchExternal resolves an external $ref. Local file refs outside the source
// tree and cross-origin remote refs are blocked unless explicitly allowed.
func fetchExternal(u *url.URL, client *http.Client, opts Options) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	if u.Scheme == "" || u.Scheme == "file" {
		if !allowLocalRef(u, opts) {
			return nil, fmt.Errorf("file ref blocked: %s (use --allow-file-refs)", u.String())
		}
		return os.ReadFile(u.Path)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported external ref scheme: %s", u.Scheme)
	}
	if !opts.AllowRemoteRefs {
		if !sameOrigin(u, opts.Source) {
			return nil, fmt.Errorf("remote external ref blocked: %s (use --allow-remote-refs)", u.String())
		}
	}
	return fetchWithClient(u.String(), client)
}

func sameOrigin(ref *url.URL, source string) bool {
	srcURL, err := url.Parse(source)
	if err != nil || srcURL.Scheme == "" {
		return false
	}
	return srcURL.Scheme == ref.Scheme && srcURL.Host == ref.Host
}

func allowLocalRef(u *url.URL, opts Options) bool {
	if opts.AllowFileRefs {
		return true
	}
	// Only allow when the root source is a local file and the ref stays
	// within the same directory tree.
	srcURL, err := url.Parse(opts.Source)
	if err != nil || srcURL.Scheme == "http" || srcURL.Scheme == "https" {
		return false
	}
	baseDir := filepath.Clean(filepath.Dir(opts.Source))
	refPath := u.Path
	if !filepath.IsAbs(refPath) {
		refPath = filepath.Join(baseDir, refPath)
	}
	refPath = filepath.Clean(refPath)

	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return false
	}
	refAbs, err := filepath.Abs(refPath)
	if err != nil {
		return false
	}

	if !strings.HasPrefix(refAbs, baseAbs+string(filepath.Separator)) && refAbs != baseAbs {
		return false
	}
	rel, err := filepath.Rel(baseAbs, refAbs)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func insecureHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
	}
}

func fetchWithClient(src string, client *http.Client) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(src)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
