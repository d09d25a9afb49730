package cbackend

import (
	"strings"
	"testing"

	"github.com/hassan/chemc/internal/astconv"
	"github.com/hassan/chemc/internal/cst"
	"github.com/hassan/chemc/internal/ir"
	"github.com/hassan/chemc/internal/lexer"
	"github.com/hassan/chemc/internal/resolver"

	"github.com/pmezard/go-difflib/difflib"
)

func emit(t *testing.T, src string) string {
	t.Helper()
	toks := lexer.New(src, "test.chem").Lex()
	root := cst.NewBuilder(toks, "test.chem").Build()
	c := astconv.New(root, "test.chem")
	file := c.ConvertFile()
	if c.Diagnostics().HasErrors() {
		t.Fatalf("unexpected conversion errors for %q: %v", src, c.Diagnostics().Items())
	}
	r := resolver.New(c.Arena())
	r.Resolve(file)
	if r.Diagnostics().HasErrors() {
		t.Fatalf("unexpected resolution errors for %q: %v", src, r.Diagnostics().Items())
	}
	b := ir.NewBuilder(c.Arena(), r.GlobalScope(), true)
	mod := b.Build(file, "test")
	if b.Diagnostics().HasErrors() {
		t.Fatalf("unexpected IR build errors for %q: %v", src, b.Diagnostics().Items())
	}
	return NewEmitter(c.Arena(), mod).Emit(file)
}

func TestEmitSimpleFunction(t *testing.T) {
	out := emit(t, `func add(a: int, b: int): int { return a + b; }`)
	if !strings.Contains(out, "add(") {
		t.Fatalf("expected a C function named add in:\n%s", out)
	}
	if !strings.Contains(out, "entry:;") {
		t.Fatalf("expected an entry: label in:\n%s", out)
	}
	if !strings.Contains(out, "return") {
		t.Fatalf("expected a return statement in:\n%s", out)
	}
}

func TestEmitIfElseProducesGotoLabels(t *testing.T) {
	out := emit(t, `
func sign(x: int): int {
	if (x > 0) {
		return 1;
	} else {
		return 0;
	}
}
`)
	if !strings.Contains(out, "if_then:;") {
		t.Fatalf("expected if_then label in:\n%s", out)
	}
	if !strings.Contains(out, "goto if_then") {
		t.Fatalf("expected a goto to if_then in:\n%s", out)
	}
}

func TestEmitStructDeclAndFieldAccess(t *testing.T) {
	out := emit(t, `
struct Point { x: int, y: int }
func getX(p: *Point): int { return p.x; }
`)
	if !strings.Contains(out, "struct Point {") {
		t.Fatalf("expected a struct Point declaration in:\n%s", out)
	}
	if !strings.Contains(out, "int32_t x;") {
		t.Fatalf("expected field x in struct decl:\n%s", out)
	}
	if !strings.Contains(out, "->x") {
		t.Fatalf("expected a field access through -> in:\n%s", out)
	}
}

func TestEmitAggregateReturnUsesVoidSignature(t *testing.T) {
	out := emit(t, `
struct Point { x: int, y: int }
func origin(): Point { return Point{x: 0, y: 0}; }
`)
	if !strings.Contains(out, "void origin(struct Point*") {
		t.Fatalf("expected origin to return void and take a hidden struct Point* parameter, got:\n%s", out)
	}
	if !strings.Contains(out, "$sret") {
		t.Fatalf("expected the hidden sret parameter to be named $sret, got:\n%s", out)
	}
}

// assertGolden compares got against want line-by-line, printing a unified
// diff (the same shape grafana-k6's cmd/convert_test.go uses for its HAR
// fixture comparisons) so a mismatch shows exactly which lines moved.
func assertGolden(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		t.Fatalf("computing diff: %v", err)
	}
	t.Fatalf("output mismatch:\n%s", diff)
}

func TestEmitStructOnlyFileMatchesGoldenOutput(t *testing.T) {
	out := emit(t, `struct Point { x: int, y: int }`)

	want := `#include <stdint.h>
#include <stdbool.h>
#include <stddef.h>
#include <stdlib.h>
#include <string.h>

typedef struct { void* fn; void* env; } chem_closure_t;
typedef void* (*chem_fnptr_t)();

struct Point {
  int32_t x;
  int32_t y;
};


`
	assertGolden(t, want, out)
}

func TestEmitDestructorCall(t *testing.T) {
	out := emit(t, `
struct Resource {
	handle: int
	@destructor func deinit(): void {}
}
func use(): void {
	var r: Resource = Resource{handle: 1};
}
`)
	if !strings.Contains(out, "Resource_deinit(") {
		t.Fatalf("expected a call to Resource_deinit in:\n%s", out)
	}
}
