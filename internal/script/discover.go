package script

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultPattern matches the conventional spec file naming.
const DefaultPattern = "*.spec.js"

// SpecFile is one discovered spec source with its parsed run directives.
type SpecFile struct {
	FilePath string
	Source   string
	Meta     Meta
}

// DiscoverSpecFiles walks a folder and loads spec files matching pattern
// (default *.spec.js), skipping helpers and node_modules directories.
func DiscoverSpecFiles(folder string, recursive bool, pattern string) ([]SpecFile, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	var files []SpecFile
	rootDepth := strings.Count(filepath.Clean(folder), string(os.PathSeparator))
	err := filepath.WalkDir(folder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.EqualFold(d.Name(), "helpers") || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			if !recursive && strings.Count(filepath.Clean(path), string(os.PathSeparator)) > rootDepth {
				return filepath.SkipDir
			}
			return nil
		}
		ok, merr := filepath.Match(pattern, d.Name())
		if merr != nil {
			return merr
		}
		if !ok {
			return nil
		}
		src, rerr := os.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		files = append(files, SpecFile{
			FilePath: path,
			Source:   string(src),
			Meta:     ParseMeta(string(src)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
