package ir

import (
	"testing"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/astconv"
	"github.com/hassan/chemc/internal/cst"
	"github.com/hassan/chemc/internal/lexer"
	"github.com/hassan/chemc/internal/resolver"
)

func build(t *testing.T, src string) *Module {
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
	b := NewBuilder(c.Arena(), r.GlobalScope(), true)
	mod := b.Build(file, "test")
	if b.Diagnostics().HasErrors() {
		t.Fatalf("unexpected build errors for %q: %v", src, b.Diagnostics().Items())
	}
	return mod
}

func findFunc(mod *Module, name string) *Function {
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func TestBuildSimpleFunction(t *testing.T) {
	mod := build(t, `func add(a: int, b: int): int { return a + b; }`)
	fn := findFunc(mod, "add")
	if fn == nil {
		t.Fatalf("expected function add in %v", mod.Functions)
	}
	if len(fn.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(fn.Parameters))
	}
	if errs := mod.Verify(); len(errs) != 0 {
		t.Fatalf("unexpected verify errors: %v", errs)
	}
	found := false
	for _, instr := range fn.Entry.Instructions {
		if bin, ok := instr.(*BinaryOp); ok && bin.Op == OpAdd {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a BinaryOp add instruction in %v", fn.Entry.Instructions)
	}
}

func TestBuildIfElseTerminatesAllPaths(t *testing.T) {
	mod := build(t, `
func sign(x: int): int {
	if (x > 0) {
		return 1;
	} else {
		return 0;
	}
}
`)
	fn := findFunc(mod, "sign")
	if fn == nil {
		t.Fatalf("expected function sign")
	}
	if errs := mod.Verify(); len(errs) != 0 {
		t.Fatalf("unexpected verify errors: %v", errs)
	}
	if len(fn.Blocks) < 3 {
		t.Fatalf("expected at least 3 blocks (entry, then, else), got %d", len(fn.Blocks))
	}
}

func TestBuildWhileLoop(t *testing.T) {
	mod := build(t, `
func sum(n: int): int {
	var total: int = 0;
	var i: int = 0;
	while (i < n) {
		total = total + i;
		i = i + 1;
	}
	return total;
}
`)
	fn := findFunc(mod, "sum")
	if fn == nil {
		t.Fatalf("expected function sum")
	}
	if errs := mod.Verify(); len(errs) != 0 {
		t.Fatalf("unexpected verify errors: %v", errs)
	}
	var hasCondBlock, hasBodyBlock bool
	for _, bb := range fn.Blocks {
		switch bb.Label {
		case "while.cond":
			hasCondBlock = true
		case "while.body":
			hasBodyBlock = true
		}
	}
	if !hasCondBlock || !hasBodyBlock {
		t.Fatalf("expected while.cond and while.body blocks, got %v", fn.Blocks)
	}
}

func TestBuildStructFieldAccess(t *testing.T) {
	mod := build(t, `
struct Point { x: int, y: int }
func getX(p: *Point): int { return p.x; }
`)
	fn := findFunc(mod, "getX")
	if fn == nil {
		t.Fatalf("expected function getX")
	}
	if errs := mod.Verify(); len(errs) != 0 {
		t.Fatalf("unexpected verify errors: %v", errs)
	}
	var sawFieldPtr bool
	for _, instr := range fn.Entry.Instructions {
		if gfp, ok := instr.(*GetFieldPtr); ok && gfp.FieldName == "x" {
			sawFieldPtr = true
		}
	}
	if !sawFieldPtr {
		t.Fatalf("expected a GetFieldPtr(x) instruction in %v", fn.Entry.Instructions)
	}
}

func TestBuildAggregateReturnUsesSRet(t *testing.T) {
	mod := build(t, `
struct Point { x: int, y: int }
func origin(): Point { return Point{x: 0, y: 0}; }
`)
	fn := findFunc(mod, "origin")
	if fn == nil {
		t.Fatalf("expected function origin")
	}
	if fn.SRet == nil {
		t.Fatalf("expected an aggregate-returning function to get a hidden SRet parameter")
	}
	if errs := mod.Verify(); len(errs) != 0 {
		t.Fatalf("unexpected verify errors: %v", errs)
	}
}

// TestBuildCallSiteAggregateReturnUsesSRet pins the review fix to
// buildAccessSegment/buildCall: calling a struct method through an access
// chain (as opposed to a function's own return, covered by
// TestBuildAggregateReturnUsesSRet above) has to read the callee's real
// return type off AccessChainSegment.Linked rather than fall back to
// ast.Any, or an aggregate-returning method call never gets the sret
// call-site rewrite and its Dest register silently holds garbage.
func TestBuildCallSiteAggregateReturnUsesSRet(t *testing.T) {
	mod := build(t, `
struct Point {
	x: int;
	y: int;
	func clone(): Point {
		return Point{x: this.x, y: this.y};
	}
}
func use(p: Point): Point {
	return p.clone();
}
`)
	fn := findFunc(mod, "use")
	if fn == nil {
		t.Fatalf("expected function use")
	}
	var sawAlloca, sawVoidCall bool
	for _, instr := range fn.Entry.Instructions {
		if _, ok := instr.(*Alloca); ok {
			sawAlloca = true
		}
		if call, ok := instr.(*Call); ok && call.Function.Name == "Point_clone" {
			if call.Dest != nil {
				t.Fatalf("expected an aggregate-returning call site to have a nil Dest, got %v", call.Dest)
			}
			sawVoidCall = true
		}
	}
	if !sawAlloca {
		t.Fatalf("expected an sret Alloca for the call-site aggregate return in %v", fn.Entry.Instructions)
	}
	if !sawVoidCall {
		t.Fatalf("expected a call to Point_clone in %v", fn.Entry.Instructions)
	}
}

// TestBuildUnionValueConstruction pins S10: a union literal is built through
// the same ast.StructValue node and buildStructValue path as a struct
// literal (a union has no separate construction AST), so the IR it lowers to
// is just the single-member Alloca/GetFieldPtr/Store sequence for the field
// that was actually initialized.
func TestBuildUnionValueConstruction(t *testing.T) {
	mod := build(t, `
union Number {
	i: int,
	f: float
}
func mk(): Number {
	return Number{f: 2.5};
}
`)
	fn := findFunc(mod, "mk")
	if fn == nil {
		t.Fatalf("expected function mk")
	}
	var sawAlloca, sawFieldPtr, sawStore bool
	for _, instr := range fn.Entry.Instructions {
		switch in := instr.(type) {
		case *Alloca:
			sawAlloca = true
		case *GetFieldPtr:
			if in.FieldName != "f" {
				t.Fatalf("expected the union construction to address field %q, got %q", "f", in.FieldName)
			}
			sawFieldPtr = true
		case *Store:
			sawStore = true
		}
	}
	if !sawAlloca || !sawFieldPtr || !sawStore {
		t.Fatalf("expected Alloca+GetFieldPtr+Store for the union literal in %v", fn.Entry.Instructions)
	}
}

func TestBuildStructDestructorCallOnScopeExit(t *testing.T) {
	mod := build(t, `
struct Resource {
	handle: int
	@destructor func deinit(): void {}
}
func use(): void {
	var r: Resource = Resource{handle: 1};
}
`)
	fn := findFunc(mod, "use")
	if fn == nil {
		t.Fatalf("expected function use")
	}
	var sawDestructorCall bool
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if call, ok := instr.(*Call); ok && call.Function.Name == "Resource_deinit" {
				sawDestructorCall = true
			}
		}
	}
	if !sawDestructorCall {
		t.Fatalf("expected a call to Resource_deinit on scope exit")
	}
}

func TestModuleVerifyCatchesUnterminatedBlock(t *testing.T) {
	mod := NewModule("t")
	fn := NewFunction("f", nil, ast.Void)
	mod.AddFunction(fn)
	errs := mod.Verify()
	if len(errs) == 0 {
		t.Fatalf("expected Verify to flag the unterminated entry block")
	}
}
