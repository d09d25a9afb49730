package compiletime

import (
	"testing"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/astconv"
	"github.com/hassan/chemc/internal/cst"
	"github.com/hassan/chemc/internal/lexer"
)

func parseFunction(t *testing.T, src string) (*ast.Function, *ast.Arena) {
	t.Helper()
	toks := lexer.New(src, "test.chem").Lex()
	root := cst.NewBuilder(toks, "test.chem").Build()
	c := astconv.New(root, "test.chem")
	file := c.ConvertFile()
	if c.Diagnostics().HasErrors() {
		t.Fatalf("unexpected conversion errors: %v", c.Diagnostics().Items())
	}
	fn, ok := file.Decls[0].(*ast.Function)
	if !ok {
		t.Fatalf("expected *ast.Function, got %T", file.Decls[0])
	}
	return fn, c.Arena()
}

func TestEval_SimpleArithmetic(t *testing.T) {
	fn, arena := parseFunction(t, `@comptime func add(a: int, b: int): int { return a + b; }`)
	ev := New(arena)

	a := arena.AddValue(&ast.IntLiteral{Value: 2, Width: 32})
	b := arena.AddValue(&ast.IntLiteral{Value: 3, Width: 32})
	callSite := arena.AddValue(&ast.NullLiteral{})

	ret, err := ev.Eval(callSite, fn, []ast.ValueRef{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := arena.Value(ret).(*ast.IntLiteral)
	if !ok {
		t.Fatalf("expected *ast.IntLiteral, got %T", arena.Value(ret))
	}
	if lit.Value != 5 {
		t.Fatalf("expected 5, got %d", lit.Value)
	}
}

func TestEval_MemoizedPerCallSite(t *testing.T) {
	fn, arena := parseFunction(t, `@comptime func inc(a: int): int { return a + 1; }`)
	ev := New(arena)

	a := arena.AddValue(&ast.IntLiteral{Value: 10, Width: 32})
	callSite := arena.AddValue(&ast.NullLiteral{})

	ret1, err := ev.Eval(callSite, fn, []ast.ValueRef{a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Evaluate again with a different argument but the same call-site ref:
	// the memoised result must win, per §4.8.
	other := arena.AddValue(&ast.IntLiteral{Value: 999, Width: 32})
	ret2, err := ev.Eval(callSite, fn, []ast.ValueRef{other})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ret1 != ret2 {
		t.Fatalf("expected memoised result to be reused for the same call-site")
	}
}

func TestEval_LoopAccumulation(t *testing.T) {
	fn, arena := parseFunction(t, `
@comptime func sumTo(n: int): int {
	var total: int = 0;
	var i: int = 1;
	while (i <= n) {
		total = total + i;
		i = i + 1;
	}
	return total;
}
`)
	ev := New(arena)
	n := arena.AddValue(&ast.IntLiteral{Value: 5, Width: 32})
	callSite := arena.AddValue(&ast.NullLiteral{})

	ret, err := ev.Eval(callSite, fn, []ast.ValueRef{n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := arena.Value(ret).(*ast.IntLiteral)
	if !ok {
		t.Fatalf("expected *ast.IntLiteral, got %T", arena.Value(ret))
	}
	if lit.Value != 15 {
		t.Fatalf("expected 1+2+3+4+5=15, got %d", lit.Value)
	}
}

func TestEval_StructFieldAccess(t *testing.T) {
	fn, arena := parseFunction(t, `
@comptime func px(p: Point): int {
	return p.x;
}
`)
	ev := New(arena)
	xVal := arena.AddValue(&ast.IntLiteral{Value: 7, Width: 32})
	point := arena.AddValue(&ast.StructValue{
		StructName: "Point",
		Fields:     []ast.StructValueField{{Name: "x", Value: xVal}},
	})
	callSite := arena.AddValue(&ast.NullLiteral{})

	ret, err := ev.Eval(callSite, fn, []ast.ValueRef{point})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := arena.Value(ret).(*ast.IntLiteral)
	if !ok {
		t.Fatalf("expected *ast.IntLiteral, got %T", arena.Value(ret))
	}
	if lit.Value != 7 {
		t.Fatalf("expected 7, got %d", lit.Value)
	}
}

func TestEval_DivisionByZeroErrors(t *testing.T) {
	fn, arena := parseFunction(t, `@comptime func div(a: int, b: int): int { return a / b; }`)
	ev := New(arena)
	a := arena.AddValue(&ast.IntLiteral{Value: 1, Width: 32})
	b := arena.AddValue(&ast.IntLiteral{Value: 0, Width: 32})
	callSite := arena.AddValue(&ast.NullLiteral{})

	if _, err := ev.Eval(callSite, fn, []ast.ValueRef{a, b}); err == nil {
		t.Fatalf("expected division by zero to error")
	}
}
