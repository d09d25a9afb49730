package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestCompileFileEmitsC(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.chem", `
func add(a : int, b : int) : int {
    return a + b;
}
`)

	d, err := New(Options{Target64: true, Log: testLogger()})
	require.NoError(t, err)
	defer d.Close()

	u, err := d.CompileFile(path)
	require.NoError(t, err)
	require.False(t, u.HasErrors())
	require.Contains(t, u.C, "add(")
	require.Contains(t, u.C, "return")
}

func TestBuildFlattensImportsAndConcatenatesOutput(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "util.chem", `
func double(x : int) : int {
    return x * 2;
}
`)
	mainPath := writeSource(t, dir, "main.chem", `
import "util";

func triple(x : int) : int {
    return x * 3;
}
`)

	d, err := New(Options{Target64: true, Roots: []string{dir}, Log: testLogger()})
	require.NoError(t, err)
	defer d.Close()

	units, c, diags, err := d.Build([]string{mainPath})
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Len(t, units, 2)
	require.Contains(t, c, "double(")
	require.Contains(t, c, "triple(")

	// util.chem is imported by main.chem, so it must be emitted first.
	require.Equal(t, "util.chem", filepath.Base(units[0].AbsPath))
	require.Equal(t, "main.chem", filepath.Base(units[1].AbsPath))
}

func TestBuildReusesCacheAcrossOverlappingBuilds(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.chem", `
func zero() : int {
    return 0;
}
`)

	d, err := New(Options{Target64: true, Log: testLogger()})
	require.NoError(t, err)
	defer d.Close()

	_, _, _, err = d.Build([]string{path})
	require.NoError(t, err)
	require.Equal(t, 1, d.cache.Len())

	_, _, _, err = d.Build([]string{path})
	require.NoError(t, err)
	require.Equal(t, 1, d.cache.Len(), "second Build over the same file must hit the in-process cache, not grow it")
}

func TestBuildWithDiskCachePersistsTokensAcrossDrivers(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.chem", `
func one() : int {
    return 1;
}
`)
	dbPath := filepath.Join(dir, "cache.db")

	d1, err := New(Options{Target64: true, CacheDB: dbPath, Log: testLogger()})
	require.NoError(t, err)
	_, _, diags, err := d1.Build([]string{path})
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.NoError(t, d1.Close())

	d2, err := New(Options{Target64: true, CacheDB: dbPath, Log: testLogger()})
	require.NoError(t, err)
	defer d2.Close()

	units, _, diags, err := d2.Build([]string{path})
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Len(t, units, 1)
	require.Contains(t, units[0].C, "one(")
}
