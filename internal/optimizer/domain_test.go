package optimizer

import (
	"testing"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/astconv"
	"github.com/hassan/chemc/internal/cst"
	"github.com/hassan/chemc/internal/ir"
	"github.com/hassan/chemc/internal/lexer"
	"github.com/hassan/chemc/internal/resolver"
)

// buildModule runs the real front-end/middle-end pipeline (as opposed to
// optimizer_test.go's hand-assembled ir.Function literals) so these tests
// exercise the passes against the struct-return and destructor IR shapes
// the domain actually produces, not just synthetic arithmetic.
func buildModule(t *testing.T, src string) *ir.Module {
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
		t.Fatalf("unexpected build errors for %q: %v", src, b.Diagnostics().Items())
	}
	return mod
}

func findFunction(mod *ir.Module, name string) *ir.Function {
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// TestOptimizeDropsDeadComputationButKeepsAggregateReturn runs the default
// pass pipeline over a struct-returning function (S2's call-site ABI): the
// dead arithmetic local disappears, but the sret Alloca/Call pair that
// builds the returned struct survives, because DeadCodeEliminationPass's
// isCritical treats every *ir.Call as critical regardless of whether its
// Dest is nil (§4.10 invariant 6, "aggregate-return ABI consistency").
func TestOptimizeDropsDeadComputationButKeepsAggregateReturn(t *testing.T) {
	mod := buildModule(t, `
struct Point { x: int, y: int }
func mk(a: int, b: int): Point { return Point{x: a, y: b}; }
func use(): Point {
	var dead = 2 + 3;
	return mk(1, 2);
}
`)
	fn := findFunction(mod, "use")
	if fn == nil {
		t.Fatalf("expected function use in %v", mod.Functions)
	}

	NewOptimizer().OptimizeFunction(fn)

	sawCall := false
	for _, instr := range fn.Entry.Instructions {
		if bin, ok := instr.(*ir.BinaryOp); ok && bin.Op == ir.OpAdd {
			t.Fatalf("expected the dead 2+3 computation to be folded away and removed, found %v", bin)
		}
		if _, ok := instr.(*ir.Call); ok {
			sawCall = true
		}
	}
	if !sawCall {
		t.Fatalf("expected the struct-returning call to mk to survive DCE in:\n%v", fn.Entry.Instructions)
	}
}

// TestOptimizeKeepsDestructorCallsAfterConstantFolding runs the pipeline
// over a function with both a foldable constant expression and a
// destructor-requiring local (§4.9), confirming the two passes compose: the
// fold happens, and the (always-critical) destructor Call is untouched.
func TestOptimizeKeepsDestructorCallsAfterConstantFolding(t *testing.T) {
	mod := buildModule(t, `
struct Resource {
	handle: int
	@destructor func deinit(): void {}
}
func use(): int {
	var r: Resource = Resource{handle: 1};
	return 2 + 3;
}
`)
	fn := findFunction(mod, "use")
	if fn == nil {
		t.Fatalf("expected function use in %v", mod.Functions)
	}

	NewOptimizer().OptimizeFunction(fn)

	calls := 0
	for _, instr := range fn.Entry.Instructions {
		if c, ok := instr.(*ir.Call); ok {
			calls++
			if c.Function == nil || c.Function.Name != "Resource_deinit" {
				t.Fatalf("expected the surviving call to be Resource_deinit, got %v", c)
			}
		}
	}
	if calls != 1 {
		t.Fatalf("expected exactly one destructor call to survive, found %d in:\n%v", calls, fn.Entry.Instructions)
	}
}

// TestFoldSizedIntegerPreservesTypeAndWraps pins truncateToIntType: folding
// a sized-integer (int8) addition has to keep the result typed int8, not
// widen it to the teacher's one-size-fits-all ast.Int, and has to wrap on
// overflow the same way the emitted C arithmetic does.
func TestFoldSizedIntegerPreservesTypeAndWraps(t *testing.T) {
	int8Type := &ast.IntNType{Width: 8, Signed: true}
	dest := &ir.Value{ID: 1, Type: int8Type}
	left := &ir.Value{ID: -1, Type: int8Type, Kind: ir.ValueConstant, Constant: int64(100)}
	right := &ir.Value{ID: -1, Type: int8Type, Kind: ir.ValueConstant, Constant: int64(100)}

	fn := &ir.Function{
		Name: "test",
		Entry: &ir.BasicBlock{
			Label: "entry",
			Instructions: []ir.Instruction{
				&ir.BinaryOp{Op: ir.OpAdd, Dest: dest, Left: left, Right: right},
			},
		},
	}
	fn.Blocks = []*ir.BasicBlock{fn.Entry}

	if err := (&ConstantFoldingPass{}).Run(fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cp, ok := fn.Entry.Instructions[0].(*ir.Copy)
	if !ok {
		t.Fatalf("expected folding to replace the BinaryOp with a Copy, got %T", fn.Entry.Instructions[0])
	}
	if _, ok := cp.Value.Type.(*ast.IntNType); !ok {
		t.Fatalf("expected the folded constant to keep an IntNType, got %T", cp.Value.Type)
	}
	if !cp.Value.Type.IsSame(int8Type) {
		t.Fatalf("expected the folded constant to stay int8, got %v", cp.Value.Type)
	}
	// 100 + 100 = 200, which overflows a signed int8 (max 127) and wraps to -56.
	if cp.Value.Constant.(int64) != -56 {
		t.Fatalf("expected 100+100 folded as int8 to wrap to -56, got %v", cp.Value.Constant)
	}
}
