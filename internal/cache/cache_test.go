package cache

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/lexer"
	"github.com/stretchr/testify/require"
)

func TestCacheGetOrComputeRunsOnceConcurrently(t *testing.T) {
	c := New()

	var calls int32
	var mu sync.Mutex
	compute := func() (*Entry, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return &Entry{AbsPath: "a.chem", Hash: "h1", Arena: ast.NewArena(), File: &ast.File{Path: "a.chem"}}, nil
	}

	var wg sync.WaitGroup
	results := make([]*Entry, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := c.GetOrCompute("a.chem", compute)
			require.NoError(t, err)
			results[i] = e
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, calls)
	for _, e := range results {
		require.Same(t, results[0], e)
	}
}

func TestCacheStoreIsAppendOnly(t *testing.T) {
	c := New()
	first := &Entry{AbsPath: "a.chem", Hash: "h1"}
	second := &Entry{AbsPath: "a.chem", Hash: "h2"}

	c.Store(first)
	c.Store(second)

	got, ok := c.Get("a.chem")
	require.True(t, ok)
	require.Same(t, first, got, "second Store for an already-present key must be ignored")
	require.Equal(t, 1, c.Len())
}

func TestDiskCacheRoundTripsTokensAndDetectsStaleness(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDiskCache(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer d.Close()

	toks := []lexer.Token{
		{Type: lexer.TokenIdentifier, Literal: "foo"},
		{Type: lexer.TokenEOF},
	}

	_, ok, err := d.Lookup("a.chem", "h1")
	require.NoError(t, err)
	require.False(t, ok, "expected a miss before anything is stored")

	require.NoError(t, d.Store("a.chem", "h1", toks))

	got, ok, err := d.Lookup("a.chem", "h1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, toks, got)

	_, ok, err = d.Lookup("a.chem", "h2")
	require.NoError(t, err)
	require.False(t, ok, "a different hash for the same path must miss, not return stale tokens")
}
