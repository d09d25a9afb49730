// Package importgraph computes a flattened, topologically ordered list of
// source units for a compilation root (§4.6), grounded on
// original_source/compiler/ASTProcessor.h's flat_imports_mul/FlatIGFile
// contract: each import statement becomes one FlatFile carrying the
// resolved absolute path, the path text as written, and any `as` alias.
package importgraph

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// FlatFile is one entry of a flattened import graph — a direct translation
// of original_source/integration/ide/model/FlatIGFile.h into Go naming.
type FlatFile struct {
	AbsPath      string
	ImportPath   string
	AsIdentifier string
	// Forward indicates this file's edge into whatever imported it was
	// demoted to a forward declaration to break a cycle — downstream
	// passes (§4.7) must not wait on this file's full body before
	// resolving the importer's top-level names.
	Forward bool
}

// RawImport is what a Loader reports for a single file: one `import` line
// before path resolution.
type RawImport struct {
	Path         string
	AsIdentifier string
}

// Loader reads the direct imports of one already-resolved absolute file
// path. It is implemented by a thin adapter over internal/lexer + internal/
// cst + internal/astconv in the driver package — importgraph itself knows
// nothing about lexing or parsing, only about the shape of one file's
// import list.
type Loader interface {
	Imports(absPath string) ([]RawImport, error)
}

// Resolver turns the import path written in a file into the absolute path
// of the file it names, relative to the importing file's directory.
type Resolver interface {
	Resolve(fromAbsPath, importPath string) (string, error)
}

type node struct {
	flat FlatFile
	deps []string // absolute paths of direct imports, in source order
}

type color int

const (
	white color = iota
	gray
	black
)

// Graph holds every file discovered while building a flattened order.
type Graph struct {
	loader   Loader
	resolver Resolver

	nodes map[string]*node
	order []string

	// forward records, per edge, whether it was demoted to break a cycle;
	// keyed by "fromAbsPath -> toAbsPath".
	forward map[string]bool
}

// New builds a Graph over the given Loader/Resolver pair.
func New(loader Loader, resolver Resolver) *Graph {
	return &Graph{
		loader:   loader,
		resolver: resolver,
		nodes:    make(map[string]*node),
		forward:  make(map[string]bool),
	}
}

// Build computes the flattened, topologically ordered file list for one or
// more compilation roots, matching ASTProcessor::flat_imports_mul's
// multi-root contract. Files already visited via an earlier root are not
// revisited — the returned order is the union, still topologically valid
// for every root.
func (g *Graph) Build(roots []string) ([]FlatFile, error) {
	colors := make(map[string]color)
	stack := make([]string, 0, 8)

	var visit func(path, importPath, asIdent string) error
	visit = func(path, importPath, asIdent string) error {
		switch colors[path] {
		case black:
			return nil
		case gray:
			return g.breakCycle(path, stack)
		}

		colors[path] = gray
		stack = append(stack, path)

		n, ok := g.nodes[path]
		if !ok {
			n = &node{flat: FlatFile{AbsPath: path, ImportPath: importPath, AsIdentifier: asIdent}}
			g.nodes[path] = n

			raws, err := g.loader.Imports(path)
			if err != nil {
				return fmt.Errorf("importgraph: reading imports of %s: %w", path, err)
			}
			for _, raw := range raws {
				depAbs, err := g.resolver.Resolve(path, raw.Path)
				if err != nil {
					return fmt.Errorf("importgraph: resolving import %q from %s: %w", raw.Path, path, err)
				}
				n.deps = append(n.deps, depAbs)
				if err := visit(depAbs, raw.Path, raw.AsIdentifier); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		colors[path] = black
		if !contains(g.order, path) {
			g.order = append(g.order, path)
		}
		return nil
	}

	for _, root := range roots {
		if err := visit(root, root, ""); err != nil {
			return nil, err
		}
	}

	out := make([]FlatFile, 0, len(g.order))
	for _, path := range g.order {
		flat := g.nodes[path].flat
		if g.forward[path] {
			flat.Forward = true
		}
		out = append(out, flat)
	}
	return out, nil
}

// breakCycle handles a back-edge from the file on top of stack into an
// ancestor already gray. The edge that closes the cycle (the one we're
// currently following) is the one demoted to a forward declaration — the
// ancestor keeps its place earlier in the order, since it was reached
// first and its declarations are therefore already available.
//
// A cycle of length 1 — a file importing itself, directly or by a chain
// that resolves back to the identical absolute path immediately — has no
// redundant edge to drop, so it's always an error.
func (g *Graph) breakCycle(ancestor string, stack []string) error {
	idx := -1
	for i, p := range stack {
		if p == ancestor {
			idx = i
			break
		}
	}
	if idx == len(stack)-1 {
		return fmt.Errorf("importgraph: %s imports itself", ancestor)
	}
	g.forward[ancestor] = true
	return nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// LoadAll runs the Loader concurrently over a known file set, useful when
// the caller already has a flattened path list (e.g. from a build
// descriptor) and only needs each file's declarations shrunk/cached — the
// Go analogue of original_source/compiler/ASTProcessor.h's
// concurrent_processor, minus the CBI/job-id plumbing that doesn't apply
// here.
func LoadAll(loader Loader, paths []string, fn func(path string, imports []RawImport) error) error {
	g := new(errgroup.Group)
	for _, p := range paths {
		path := p
		g.Go(func() error {
			imports, err := loader.Imports(path)
			if err != nil {
				return fmt.Errorf("importgraph: loading %s: %w", path, err)
			}
			return fn(path, imports)
		})
	}
	return g.Wait()
}
