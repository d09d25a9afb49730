// Package driver wires the front end (internal/lexer, internal/cst,
// internal/astconv), resolution (internal/resolver, which runs
// internal/destruct), and back ends (internal/ir, internal/cbackend,
// internal/optimizer) into the end-to-end pipeline §4.14's CLI drives.
//
// Subsystem packages stay logging-free and report through diagnostics.Bag
// or a returned error (per SPEC_FULL.md §4.12); only this package and
// cmd/chemc log, through an injected logrus.FieldLogger — the same shape
// grafana-k6's cloudapi.Client takes a logger through its constructor
// rather than reaching for a package-global one.
package driver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/astconv"
	"github.com/hassan/chemc/internal/cache"
	"github.com/hassan/chemc/internal/cbackend"
	"github.com/hassan/chemc/internal/cst"
	"github.com/hassan/chemc/internal/diagnostics"
	"github.com/hassan/chemc/internal/importgraph"
	"github.com/hassan/chemc/internal/ir"
	"github.com/hassan/chemc/internal/lexer"
	"github.com/hassan/chemc/internal/optimizer"
	"github.com/hassan/chemc/internal/resolver"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options configures a Driver. Target64 selects the ir.Builder/cbackend
// pointer-width model; Roots are the additional search directories an
// `import` statement resolves against, beyond an importing file's own
// directory (importgraph.PathResolver.Roots).
type Options struct {
	Target64 bool
	Roots    []string
	Optimize bool
	CacheDB  string // optional --cache-db path; empty disables the disk tier
	Log      logrus.FieldLogger
}

// Driver holds the state shared across every file of one build: the
// in-process/on-disk caches, the logger, and the optimizer pipeline.
type Driver struct {
	opts Options
	log  logrus.FieldLogger

	src   *SourceCache
	cache *cache.Cache
	disk  *cache.DiskCache

	opt *optimizer.Optimizer
}

// New constructs a Driver. Callers own the returned Driver's lifetime and
// must call Close when CacheDB was set.
func New(opts Options) (*Driver, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var disk *cache.DiskCache
	if opts.CacheDB != "" {
		var err error
		disk, err = cache.OpenDiskCache(opts.CacheDB)
		if err != nil {
			return nil, fmt.Errorf("driver: opening cache db: %w", err)
		}
	}

	opt := optimizer.NewOptimizer()
	if opts.Optimize {
		opt.AddPass(&optimizer.ConstantFoldingPass{})
		opt.AddPass(&optimizer.DeadCodeEliminationPass{})
	}

	return &Driver{
		opts:  opts,
		log:   log,
		src:   NewSourceCache(),
		cache: cache.New(),
		disk:  disk,
		opt:   opt,
	}, nil
}

// Close releases the optional on-disk cache handle.
func (d *Driver) Close() error {
	if d.disk != nil {
		return d.disk.Close()
	}
	return nil
}

// Build compiles roots and every file they transitively import, in
// dependency order, returning one Unit per file plus the concatenated C
// translation unit for the whole program. Diagnostics from every stage and
// every file are merged into the returned Bag; a non-nil error means the
// build could not proceed past some file (diagnostics still hold whatever
// was collected before the failure).
//
// Cross-file symbol resolution is not wired: each file is resolved against
// its own global scope only (internal/resolver has no notion of an
// imported file's declarations). The import graph here governs emission
// order and cycle diagnostics, not name binding — a program whose files
// call into one another across an import edge will resolve cleanly per
// file but is not yet linked at the symbol-table level. Lifting that
// restriction needs internal/resolver to accept a parent scope assembled
// from a file's already-resolved imports, deferred as an open question.
func (d *Driver) Build(roots []string) ([]*Unit, string, *diagnostics.Bag, error) {
	diags := &diagnostics.Bag{}

	loader := NewImportLoader(d.src)
	resolve := &importgraph.PathResolver{Roots: d.opts.Roots}
	graph := importgraph.New(loader, resolve)

	flat, err := graph.Build(roots)
	if err != nil {
		return nil, "", diags, fmt.Errorf("driver: building import graph: %w", err)
	}

	order := dedupeOrder(roots, flat)
	d.log.WithField("files", len(order)).Debug("import graph flattened")

	units, err := d.frontendFanOut(order)
	if err != nil {
		return units, "", diags, err
	}

	var c strings.Builder
	for _, u := range units {
		d.log.WithField("file", u.AbsPath).Debug("resolving and lowering")
		lowerErr := d.lower(u)
		diags.Merge(&u.Diags)
		if lowerErr != nil {
			return units, c.String(), diags, lowerErr
		}
		c.WriteString(u.C)
	}

	return units, c.String(), diags, nil
}

// CompileFile runs the full pipeline over a single file with no import
// resolution beyond what it declares itself — used by single-file
// invocations (--print-ast, --print-ir) and by tests.
func (d *Driver) CompileFile(absPath string) (*Unit, error) {
	u, err := d.convert(absPath)
	if err != nil {
		return u, err
	}
	if err := d.lower(u); err != nil {
		return u, err
	}
	return u, nil
}

// dedupeOrder returns flat's AbsPaths followed by any root not itself
// reached by an import edge, each appearing once in first-occurrence
// order. importgraph.Graph.Build already lists each file once and includes
// the roots it was given, so the dedupe only guards roots missing from flat;
// flat is already import-dependency ordered, so roots are appended rather
// than prepended to preserve that ordering.
func dedupeOrder(roots []string, flat []importgraph.FlatFile) []string {
	seen := make(map[string]bool, len(flat)+len(roots))
	var order []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			order = append(order, p)
		}
	}
	for _, f := range flat {
		add(f.AbsPath)
	}
	for _, r := range roots {
		add(r)
	}
	return order
}

// frontendFanOut runs the §5 import-stage concurrency carve-out: lex and
// convert every file in paths concurrently via errgroup, each result
// memoized in d.cache so a file reached by more than one import edge pays
// the lex/convert cost once. Resolution and lowering are not done here —
// those stay single-threaded per SPEC_FULL.md line 214.
func (d *Driver) frontendFanOut(paths []string) ([]*Unit, error) {
	units := make([]*Unit, len(paths))

	var g errgroup.Group
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			u, err := d.convert(p)
			units[i] = u
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return units, err
	}
	return units, nil
}

// convert reads, hashes, and lexes/converts absPath, consulting the
// in-process cache (and, for the lex step, the optional on-disk tier)
// before doing the work itself.
func (d *Driver) convert(absPath string) (*Unit, error) {
	entry, err := d.cache.GetOrCompute(absPath, func() (*cache.Entry, error) {
		src, err := d.src.Read(absPath)
		if err != nil {
			return nil, fmt.Errorf("driver: reading %s: %w", absPath, err)
		}
		hash := cache.ContentHash(src)

		arena, file, err := d.convertWithDiskCache(absPath, src, hash)
		if err != nil {
			return nil, err
		}
		return &cache.Entry{AbsPath: absPath, Hash: hash, Arena: arena, File: file}, nil
	})
	if err != nil {
		return nil, err
	}

	return &Unit{AbsPath: entry.AbsPath, Hash: entry.Hash, Arena: entry.Arena, File: entry.File}, nil
}

// convertWithDiskCache re-lexes absPath unless the on-disk tier already has
// a token stream for this exact content hash. CST building and AST
// conversion always re-run — only the lex step is skippable across
// processes (cache/diskcache.go explains why).
func (d *Driver) convertWithDiskCache(absPath string, src []byte, hash string) (*ast.Arena, *ast.File, error) {
	var toks []lexer.Token
	if d.disk != nil {
		if cached, ok, lookupErr := d.disk.Lookup(absPath, hash); lookupErr == nil && ok {
			toks = cached
		} else if lookupErr != nil {
			d.log.WithError(lookupErr).Warn("cache db lookup failed, re-lexing")
		}
	}
	if toks == nil {
		toks = lexer.New(string(src), absPath).Lex()
		if d.disk != nil {
			if storeErr := d.disk.Store(absPath, hash, toks); storeErr != nil {
				d.log.WithError(storeErr).Warn("cache db store failed")
			}
		}
	}

	root := cst.NewBuilder(toks, absPath).Build()
	c := astconv.New(root, absPath)
	file := c.ConvertFile()
	if c.Diagnostics().HasErrors() {
		return nil, nil, fmt.Errorf("driver: %s: %d conversion error(s)", absPath, len(c.Diagnostics().Items()))
	}
	return c.Arena(), file, nil
}

// lower resolves u.File's symbols, lowers it to IR, optimizes, and emits C,
// merging every stage's diagnostics into u.Diags.
func (d *Driver) lower(u *Unit) error {
	r := resolver.New(u.Arena)
	r.Resolve(u.File)
	u.Diags.Merge(r.Diagnostics())
	if r.Diagnostics().HasErrors() {
		return fmt.Errorf("driver: %s: %d resolution error(s)", u.AbsPath, len(r.Diagnostics().Items()))
	}

	b := ir.NewBuilder(u.Arena, r.GlobalScope(), d.opts.Target64)
	mod := b.Build(u.File, moduleName(u.AbsPath))
	u.Diags.Merge(b.Diagnostics())
	if b.Diagnostics().HasErrors() {
		return fmt.Errorf("driver: %s: %d IR build error(s)", u.AbsPath, len(b.Diagnostics().Items()))
	}

	if err := d.opt.Optimize(mod); err != nil {
		return fmt.Errorf("driver: %s: optimizing: %w", u.AbsPath, err)
	}

	u.Module = mod
	u.C = cbackend.NewEmitter(u.Arena, mod).Emit(u.File)
	return nil
}

func moduleName(absPath string) string {
	base := filepath.Base(absPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
