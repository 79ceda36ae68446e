package gen

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Discoverer enumerates test source files under an explicit root directory.
//
// The root is always passed in; the process current working directory is
// never consulted. Results are sorted lexicographically so generation order
// is stable across runs and machines (each artifact's content is independent
// of order, but reviewable diffs benefit from a fixed order).
type Discoverer struct {
	// Root is the absolute directory the recursive search starts from.
	Root string

	// Extension is the test-source extension including the dot (e.g. ".my").
	Extension string
}

// Discover walks Root recursively and returns every file path ending in
// Extension, sorted lexicographically. An empty result is valid: it means
// the pipeline has no work to do.
func (d *Discoverer) Discover() ([]string, error) {
	if d.Root == "" {
		return nil, fmt.Errorf("discover: root is required")
	}
	if d.Extension == "" || !strings.HasPrefix(d.Extension, ".") {
		return nil, fmt.Errorf("discover: extension must start with '.' (got %q)", d.Extension)
	}

	var files []string
	err := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.HasSuffix(entry.Name(), d.Extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walking %s: %w", d.Root, err)
	}

	// Do not rely on filesystem ordering.
	sort.Strings(files)
	return files, nil
}
