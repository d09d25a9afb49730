package importgraph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/mod/module"
)

// SourceExt is the file extension a resolved import path resolves to.
const SourceExt = ".chem"

// PathResolver resolves a dotted import path (e.g. "std.io") against a
// search path of root directories, the way a Go import path resolves
// against GOPATH/module roots — reused here rather than inventing a new
// path-resolution scheme, per §9's domain stack.
type PathResolver struct {
	Roots []string
}

// Resolve validates importPath as a module-style dotted path via
// golang.org/x/mod/module (treating dots as the path separator, since this
// language has no slash-delimited import syntax), then looks for
// "<path-with-dots-as-slashes>.chem" first relative to the importing file's
// directory (same-module sibling imports) and then under each of Roots in
// order.
func (r *PathResolver) Resolve(fromAbsPath, importPath string) (string, error) {
	slashPath := strings.ReplaceAll(importPath, ".", "/")
	if err := module.CheckImportPath(slashPath); err != nil {
		return "", fmt.Errorf("malformed import path %q: %w", importPath, err)
	}

	rel := slashPath + SourceExt
	candidates := make([]string, 0, len(r.Roots)+1)
	candidates = append(candidates, filepath.Join(filepath.Dir(fromAbsPath), rel))
	for _, root := range r.Roots {
		candidates = append(candidates, filepath.Join(root, rel))
	}

	for _, cand := range candidates {
		if info, err := os.Stat(cand); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(cand)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("cannot find %q (tried %s)", importPath, strings.Join(candidates, ", "))
}

// ExpandBuildSources expands a build descriptor's glob-style source
// patterns (e.g. "src/**/*.chem") into a sorted, de-duplicated list of
// absolute file paths, rooted at dir.
func ExpandBuildSources(dir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(dir)
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("importgraph: bad glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(filepath.Join(dir, m))
			if err != nil {
				return nil, err
			}
			if !seen[abs] {
				seen[abs] = true
				out = append(out, abs)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
