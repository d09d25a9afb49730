// Package cache implements the §5 shared import cache: an append-only,
// process-lifetime map from a file's absolute path to its already-converted
// AST, plus an optional cross-run tier backed by an on-disk SQLite database
// (diskcache.go). Entries are written once by the file's owner thread and
// read thereafter without locks, matching §5's "single-writer-per-key"
// contract for the import-stage fan-out.
package cache

import (
	"sync"

	"github.com/hassan/chemc/internal/ast"

	"golang.org/x/sync/singleflight"
)

// Entry is what the cache stores for one source file: its converted file
// node, the arena it was built in (arena-relative NodeRef/ValueRef/TypeRef
// values are only meaningful alongside the arena they index into), and the
// content hash it was computed from.
type Entry struct {
	AbsPath string
	Hash    string
	Arena   *ast.Arena
	File    *ast.File
}

// Cache is the in-process tier: a sync.Map keyed by absolute path, guarded
// against duplicate concurrent computation by a singleflight.Group so that
// two goroutines racing to import the same file via the §5 errgroup fan-out
// run the loader once, not twice.
type Cache struct {
	entries sync.Map // absPath -> *Entry
	group   singleflight.Group
}

// New returns an empty in-process cache.
func New() *Cache {
	return &Cache{}
}

// Get returns the cached entry for absPath, if present.
func (c *Cache) Get(absPath string) (*Entry, bool) {
	v, ok := c.entries.Load(absPath)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// GetOrCompute returns the cached entry for absPath, computing and storing
// it via compute if absent. Concurrent calls for the same absPath block
// behind the first and all observe its result — compute never runs twice
// for the same path, even under concurrent §5 import-stage fan-out.
func (c *Cache) GetOrCompute(absPath string, compute func() (*Entry, error)) (*Entry, error) {
	if e, ok := c.Get(absPath); ok {
		return e, nil
	}

	v, err, _ := c.group.Do(absPath, func() (interface{}, error) {
		if e, ok := c.Get(absPath); ok {
			return e, nil
		}
		e, err := compute()
		if err != nil {
			return nil, err
		}
		// LoadOrStore rather than Store: append-only semantics mean the
		// first write for a key wins even if two singleflight calls for
		// distinct-but-racing groups both reach here (they can't under
		// the same Group key, but this keeps the invariant true even if
		// a caller bypasses GetOrCompute and calls Store directly).
		actual, _ := c.entries.LoadOrStore(absPath, e)
		return actual.(*Entry), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Store records e under e.AbsPath. It is a no-op if an entry already exists
// for that path — the cache is append-only during a build, so the first
// writer for a key always wins.
func (c *Cache) Store(e *Entry) {
	c.entries.LoadOrStore(e.AbsPath, e)
}

// Len reports how many files currently have a cached entry.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
