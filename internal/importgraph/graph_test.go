package importgraph

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

type fakeLoader map[string][]RawImport

func (f fakeLoader) Imports(absPath string) ([]RawImport, error) { return f[absPath], nil }

type fakeResolver struct{}

func (fakeResolver) Resolve(fromAbsPath, importPath string) (string, error) {
	return importPath, nil
}

func TestBuild_LinearOrder(t *testing.T) {
	loader := fakeLoader{
		"a": {{Path: "b"}},
		"b": {{Path: "c"}},
		"c": nil,
	}
	g := New(loader, fakeResolver{})
	flats, err := g.Build([]string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var order []string
	for _, f := range flats {
		order = append(order, f.AbsPath)
	}
	want := []string{"c", "b", "a"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestBuild_Diamond(t *testing.T) {
	loader := fakeLoader{
		"a": {{Path: "b"}, {Path: "c"}},
		"b": {{Path: "d"}},
		"c": {{Path: "d"}},
		"d": nil,
	}
	g := New(loader, fakeResolver{})
	flats, err := g.Build([]string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flats) != 4 {
		t.Fatalf("expected 4 files, got %d: %+v", len(flats), flats)
	}
	pos := make(map[string]int)
	for i, f := range flats {
		pos[f.AbsPath] = i
	}
	if pos["d"] > pos["b"] || pos["d"] > pos["c"] || pos["b"] > pos["a"] || pos["c"] > pos["a"] {
		t.Fatalf("dependency order violated: %+v", flats)
	}
}

func TestBuild_CycleDemotesBackEdge(t *testing.T) {
	loader := fakeLoader{
		"a": {{Path: "b"}},
		"b": {{Path: "a"}},
	}
	g := New(loader, fakeResolver{})
	flats, err := g.Build([]string{"a"})
	if err != nil {
		t.Fatalf("expected cycle to be broken, not errored: %v", err)
	}
	forwardCount := 0
	for _, f := range flats {
		if f.Forward {
			forwardCount++
		}
	}
	if forwardCount != 1 {
		t.Fatalf("expected exactly one edge demoted to forward declaration, got %d in %+v", forwardCount, flats)
	}
}

func TestBuild_SelfImportErrors(t *testing.T) {
	loader := fakeLoader{
		"a": {{Path: "a"}},
	}
	g := New(loader, fakeResolver{})
	if _, err := g.Build([]string{"a"}); err == nil {
		t.Fatalf("expected self-import to error")
	}
}

func TestExpandBuildSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"main.chem", "lib/util.chem", "lib/nested/more.chem"} {
		writeFile(t, dir, name)
	}
	got, err := ExpandBuildSources(dir, []string{"**/*.chem"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d: %v", len(got), got)
	}
	sort.Strings(got)
}

func writeFile(t *testing.T, dir, rel string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir for fixture %s: %v", full, err)
	}
	if err := os.WriteFile(full, []byte(""), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", full, err)
	}
}
