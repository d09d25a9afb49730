package destruct

import (
	"testing"

	"github.com/hassan/chemc/internal/ast"
)

func newStructType(arena *ast.Arena, decl *ast.Struct) *ast.StructType {
	ref := arena.AddNode(decl)
	st := &ast.StructType{Name: decl.Name, Linked: ref}
	for _, f := range decl.Fields {
		st.Fields = append(st.Fields, ast.StructField{Name: f.Name, Type: f.Type})
	}
	return st
}

func TestHasDestructor_UserDeclared(t *testing.T) {
	arena := ast.NewArena()
	decl := &ast.Struct{
		Name: "File",
		Functions: []*ast.Function{
			{Name: "deinit", ActiveIteration: -1, RequiresDestructor: true},
		},
	}
	st := newStructType(arena, decl)

	fn, ok := HasDestructor(st, arena)
	if !ok || fn.Name != "deinit" {
		t.Fatalf("expected the annotated deinit to be found, got %v %v", fn, ok)
	}
}

func TestRequires_TransitiveField(t *testing.T) {
	arena := ast.NewArena()
	inner := &ast.Struct{
		Name: "Handle",
		Functions: []*ast.Function{
			{Name: "deinit", ActiveIteration: -1, RequiresDestructor: true},
		},
	}
	innerType := newStructType(arena, inner)

	outer := &ast.Struct{
		Name:   "File",
		Fields: []ast.Field{{Name: "handle", Type: innerType}},
	}
	outerType := newStructType(arena, outer)

	if !Requires(outerType, arena) {
		t.Fatalf("expected File to require destruction via its handle field")
	}
	if _, ok := HasDestructor(outerType, arena); ok {
		t.Fatalf("File declares no destructor of its own yet")
	}
}

func TestEnsureDestructors_SynthesizesForTransitiveField(t *testing.T) {
	arena := ast.NewArena()
	handle := &ast.Struct{
		Name: "Handle",
		Functions: []*ast.Function{
			{Name: "close", ActiveIteration: -1, RequiresDestructor: true},
		},
	}
	handleRef := arena.AddNode(handle)
	handleType := &ast.StructType{Name: "Handle", Linked: handleRef}

	file := &ast.Struct{
		Name:   "File",
		Fields: []ast.Field{{Name: "handle", Type: handleType}},
	}

	EnsureDestructors(arena, []*ast.Struct{handle, file})

	var synthesized *ast.Function
	for _, fn := range file.Functions {
		if fn.RequiresDestructor {
			synthesized = fn
		}
	}
	if synthesized == nil {
		t.Fatalf("expected a destructor to be synthesised on File")
	}
	if synthesized.Body == nil || len(synthesized.Body.Nodes) != 1 {
		t.Fatalf("expected one field cleanup statement, got %+v", synthesized.Body)
	}
	stmt, ok := arena.Node(synthesized.Body.Nodes[0]).(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected *ast.ExprStmt, got %T", arena.Node(synthesized.Body.Nodes[0]))
	}
	chain, ok := arena.Value(stmt.Value).(*ast.AccessChain)
	if !ok {
		t.Fatalf("expected *ast.AccessChain, got %T", arena.Value(stmt.Value))
	}
	if len(chain.Segments) != 2 || chain.Segments[0].Member != "handle" || chain.Segments[1].Member != "close" {
		t.Fatalf("expected self.handle.close(), got %+v", chain.Segments)
	}
}

func TestEnsureDestructors_SkipsStructsWithNoDestructibleFields(t *testing.T) {
	arena := ast.NewArena()
	plain := &ast.Struct{
		Name:   "Point",
		Fields: []ast.Field{{Name: "x", Type: ast.Int}, {Name: "y", Type: ast.Int}},
	}
	EnsureDestructors(arena, []*ast.Struct{plain})
	if len(plain.Functions) != 0 {
		t.Fatalf("expected no destructor synthesised for a plain struct, got %+v", plain.Functions)
	}
}

func TestPlanner_CommitReversesOrder(t *testing.T) {
	arena := ast.NewArena()
	decl := &ast.Struct{
		Name:      "Res",
		Functions: []*ast.Function{{Name: "deinit", ActiveIteration: -1, RequiresDestructor: true}},
	}
	st := newStructType(arena, decl)

	p := NewPlanner()
	mark := p.Mark()
	p.QueueLocal("a", st, arena, false)
	p.QueueLocal("b", st, arena, false)
	p.QueueLocal("c", st, arena, false)

	jobs := p.Commit(mark)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	order := []string{jobs[0].Name, jobs[1].Name, jobs[2].Name}
	want := []string{"c", "b", "a"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected reverse declaration order %v, got %v", want, order)
		}
	}
	if p.Mark() != mark {
		t.Fatalf("expected Commit to pop the stack back to the mark")
	}
}

func TestPlanner_PendingDoesNotPop(t *testing.T) {
	arena := ast.NewArena()
	decl := &ast.Struct{
		Name:      "Res",
		Functions: []*ast.Function{{Name: "deinit", ActiveIteration: -1, RequiresDestructor: true}},
	}
	st := newStructType(arena, decl)

	p := NewPlanner()
	mark := p.Mark()
	p.QueueLocal("a", st, arena, false)

	jobs := p.Pending(mark)
	if len(jobs) != 1 || jobs[0].Name != "a" {
		t.Fatalf("expected pending job for a, got %+v", jobs)
	}
	if p.Mark() == mark {
		t.Fatalf("expected the stack to still hold the queued job after Pending")
	}
	// A later Commit at the same mark must still see and pop the job.
	committed := p.Commit(mark)
	if len(committed) != 1 || committed[0].Name != "a" {
		t.Fatalf("expected Commit to still find the job after an earlier Pending, got %+v", committed)
	}
}

func TestPlanner_QueueLocalIgnoresNonDestructibleTypes(t *testing.T) {
	p := NewPlanner()
	arena := ast.NewArena()
	mark := p.Mark()
	if p.QueueLocal("n", ast.Int, arena, false) {
		t.Fatalf("expected no job queued for a plain int")
	}
	if len(p.Commit(mark)) != 0 {
		t.Fatalf("expected no jobs committed")
	}
}

func TestPlanner_QueueParamsSkipsPointers(t *testing.T) {
	arena := ast.NewArena()
	decl := &ast.Struct{
		Name:      "Res",
		Functions: []*ast.Function{{Name: "deinit", ActiveIteration: -1, RequiresDestructor: true}},
	}
	st := newStructType(arena, decl)

	fn := &ast.Function{
		Name: "use",
		Params: []ast.Param{
			{Name: "byValue", Type: st},
			{Name: "byRef", Type: &ast.PointerType{Pointee: st}},
		},
	}

	p := NewPlanner()
	mark := p.Mark()
	p.QueueParams(fn, arena)
	jobs := p.Commit(mark)
	if len(jobs) != 1 || jobs[0].Name != "byValue" {
		t.Fatalf("expected only the by-value param queued, got %+v", jobs)
	}
}

func TestIsAggregate(t *testing.T) {
	if IsAggregate(ast.Int) {
		t.Fatalf("int is not an aggregate")
	}
	if !IsAggregate(&ast.StructType{Name: "S"}) {
		t.Fatalf("a struct type is an aggregate")
	}
	if !IsAggregate(&ast.ArrayType{}) {
		t.Fatalf("an array type is an aggregate")
	}
}
