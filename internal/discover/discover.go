// Package discover expands a glob of source files into an ordered file
// list for the CLI. It lives strictly outside the semantic core: it only
// produces paths, which an (out-of-scope) parser would go on to read.
package discover

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Files expands pattern (a doublestar glob, e.g. "src/**/*.cone") against
// the filesystem rooted at root, returning matched paths sorted
// lexically so a later pass sees a stable, reproducible compilation
// order regardless of directory-entry order on disk.
func Files(root, pattern string) ([]string, error) {
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(root, m)
	}
	return out, nil
}
