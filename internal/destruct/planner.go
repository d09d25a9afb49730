// Package destruct implements the §4.9 destructor planner: a per-function
// stack of destruction jobs, pushed as locals and by-value struct
// parameters come into scope and emitted in reverse order at every point
// control leaves a scope — natural fall-through, break, continue, or
// return.
//
// There is no teacher equivalent (the teacher's language has no
// destructors); this package is new, grounded on original_source/compiler/
// Codegen.h's destruct()/ensure_destructor() shape (a job queue consulted
// at scope exit and ahead of every return) translated from the codegen
// object itself into a standalone planner the two back-ends (§4.10, §4.11)
// both drive.
package destruct

import "github.com/hassan/chemc/internal/ast"

// DestructorAnnotation marks the one method on a struct that is its
// destructor, e.g. `@destructor func deinit(): void { ... }`.
const DestructorAnnotation = "destructor"

type JobKind int

const (
	// JobDefault calls one struct's destructor on a single named location.
	JobDefault JobKind = iota
	// JobArray iterates [size-1..0] calling the element destructor on
	// each slot.
	JobArray
)

// Job is one queued cleanup call.
type Job struct {
	Kind           JobKind
	Name           string // the local/parameter/temporary holding the value
	Struct         *ast.Struct
	DestructorName string // resolved name of the @destructor method
	ByPointer      bool   // true when Name holds a pointer, not a value
	ArraySize      int    // meaningful only for JobArray
}

// resolveStructDecl follows a type down to the ast.Struct it names, the
// way a named field's type survives resolution: astconv always produces a
// *ast.ReferencedType for `field: Name`, and the link pass (internal/
// resolver/link.go's resolveType) sets its Linked back to the declaration.
// *ast.StructType is accepted too, for callers building a structural type
// directly (anonymous structs, or tests constructing fixtures by hand).
func resolveStructDecl(t ast.Type, arena *ast.Arena) (*ast.Struct, bool) {
	var ref ast.NodeRef
	switch v := t.(type) {
	case *ast.ReferencedType:
		if v == nil {
			return nil, false
		}
		ref = v.Linked
	case *ast.StructType:
		if v == nil {
			return nil, false
		}
		ref = v.Linked
	default:
		return nil, false
	}
	if ref == ast.NoNode {
		return nil, false
	}
	decl, ok := arena.Node(ref).(*ast.Struct)
	return decl, ok
}

// HasDestructor reports whether t names a struct that already has a
// function marked by @destructor (astconv sets ast.Function.
// RequiresDestructor for it), returning that function.
func HasDestructor(t ast.Type, arena *ast.Arena) (*ast.Function, bool) {
	decl, ok := resolveStructDecl(t, arena)
	if !ok {
		return nil, false
	}
	for _, fn := range decl.Functions {
		if fn.RequiresDestructor {
			return fn, true
		}
	}
	return nil, false
}

// Requires reports whether a value of type t needs destruction: either its
// struct declares its own destructor, or one of its fields transitively
// does. ast.RequiresDestruction (internal/ast/types.go) only walks
// StructField.Type and so can never reach a true base case — no Type
// variant alone carries "this struct declares a destructor"; that fact
// lives on the ast.Struct node reachable only through Linked and an
// *ast.Arena. Requires supersedes it for every caller that has an arena.
func Requires(t ast.Type, arena *ast.Arena) bool {
	decl, ok := resolveStructDecl(t, arena)
	if !ok {
		return false
	}
	if _, ok := HasDestructor(t, arena); ok {
		return true
	}
	for _, f := range decl.Fields {
		if Requires(f.Type, arena) {
			return true
		}
	}
	return false
}

// IsAggregate reports whether t is a struct, union, or array type — the
// "non-primitive" test §4.9 uses to decide whether an early return needs a
// named temporary ahead of pending destruction jobs.
func IsAggregate(t ast.Type) bool {
	switch v := t.(type) {
	case *ast.StructType, *ast.UnionType, *ast.ArrayType:
		return true
	case *ast.ReferencedType:
		return v != nil
	}
	return false
}

// EnsureDestructors is the Go analogue of original_source's
// ensure_destructor(StructDefinition*): for every struct in decls that
// requires destruction and has no user-declared @destructor, it appends a
// synthesised one — named "deinit", calling each destructible field's own
// destructor in reverse declaration order, matching the emission order
// Planner.Commit produces for locals. A struct's field-type dependencies
// are ensured first (via each field's own Linked reference, regardless of
// whether the dependency is itself present in decls), since a field's
// destructor must already exist before an enclosing struct's synthesised
// one can call it.
func EnsureDestructors(arena *ast.Arena, decls []*ast.Struct) {
	done := make(map[*ast.Struct]bool, len(decls))
	for _, decl := range decls {
		ensureOne(arena, decl, done)
	}
}

func ensureOne(arena *ast.Arena, decl *ast.Struct, done map[*ast.Struct]bool) {
	if done[decl] {
		return
	}
	done[decl] = true // guards against a struct that (directly or indirectly) contains itself by pointer
	for _, field := range decl.Fields {
		if dep, ok := resolveStructDecl(field.Type, arena); ok {
			ensureOne(arena, dep, done)
		}
	}
	for _, fn := range decl.Functions {
		if fn.RequiresDestructor {
			return
		}
	}
	needsDestruction := false
	for _, field := range decl.Fields {
		if Requires(field.Type, arena) {
			needsDestruction = true
			break
		}
	}
	if !needsDestruction {
		return
	}
	decl.Functions = append(decl.Functions, synthesizeDestructor(arena, decl))
}

// synthesizeDestructor builds `func deinit(): void { <field cleanup>... }`,
// one call per destructible field in reverse declaration order, each
// resolved against the field's own struct the way HasDestructor resolves
// any other destructor call.
func synthesizeDestructor(arena *ast.Arena, decl *ast.Struct) *ast.Function {
	fn := &ast.Function{
		Name:               "deinit",
		ReturnType:         ast.Void,
		ActiveIteration:    -1,
		RequiresDestructor: true,
	}
	var nodes []ast.NodeRef
	for i := len(decl.Fields) - 1; i >= 0; i-- {
		field := decl.Fields[i]
		destructorFn, ok := HasDestructor(field.Type, arena)
		if !ok {
			continue
		}
		self := arena.AddValue(&ast.VariableIdentifier{Name: "this"})
		call := arena.AddValue(&ast.AccessChain{
			Base: self,
			Segments: []ast.AccessChainSegment{
				{Member: field.Name, Linked: ast.NoNode},
				{Member: destructorFn.Name, IsCall: true, Linked: ast.NoNode},
			},
		})
		nodes = append(nodes, arena.AddNode(&ast.ExprStmt{Value: call}))
	}
	fn.Body = &ast.Scope{Nodes: nodes}
	return fn
}

// Planner accumulates jobs across one function body. Scopes push a mark
// with Mark, queue jobs as locals/parameters are declared, and either
// Commit (the scope ended normally, jobs are popped for good) or Pending
// (an early exit needs the same jobs without popping, since normal control
// flow continues past the exit point).
type Planner struct {
	jobs []Job
}

func NewPlanner() *Planner { return &Planner{} }

// Mark returns a stack position to later pass to Pending or Commit.
func (p *Planner) Mark() int { return len(p.jobs) }

// QueueLocal pushes a Default job for name if t requires destruction.
// Reports whether a job was queued.
func (p *Planner) QueueLocal(name string, t ast.Type, arena *ast.Arena, byPointer bool) bool {
	decl, ok := resolveStructDecl(t, arena)
	if !ok || !Requires(t, arena) {
		return false
	}
	fn, _ := HasDestructor(t, arena)
	p.jobs = append(p.jobs, Job{
		Kind:           JobDefault,
		Name:           name,
		Struct:         decl,
		DestructorName: destructorName(fn),
		ByPointer:      byPointer,
	})
	return true
}

// QueueArray pushes an Array job for name (an array of size elements of
// elemType) if elemType requires destruction.
func (p *Planner) QueueArray(name string, elemType ast.Type, size int, arena *ast.Arena) bool {
	decl, ok := resolveStructDecl(elemType, arena)
	if !ok || !Requires(elemType, arena) {
		return false
	}
	fn, _ := HasDestructor(elemType, arena)
	p.jobs = append(p.jobs, Job{
		Kind:           JobArray,
		Name:           name,
		Struct:         decl,
		DestructorName: destructorName(fn),
		ArraySize:      size,
	})
	return true
}

// QueueParams queues a Default job for every by-value parameter of fn
// whose struct type declares a destructor, run once on function entry.
func (p *Planner) QueueParams(fn *ast.Function, arena *ast.Arena) {
	for _, param := range fn.Params {
		if _, isPointer := param.Type.(*ast.PointerType); isPointer {
			continue
		}
		p.QueueLocal(param.Name, param.Type, arena, false)
	}
}

// Pending returns the jobs from mark to the top of the stack, in reverse
// (last-declared-first) order, without popping them — used at break,
// continue, and return, where control leaves the scope but the planner
// must still track it for subsequent statements or sibling branches.
func (p *Planner) Pending(mark int) []Job {
	return reversed(p.jobs[mark:])
}

// Commit pops the jobs from mark to the top and returns them reversed —
// used once a scope's own block actually ends.
func (p *Planner) Commit(mark int) []Job {
	out := reversed(p.jobs[mark:])
	p.jobs = p.jobs[:mark]
	return out
}

func reversed(jobs []Job) []Job {
	out := make([]Job, len(jobs))
	for i, j := range jobs {
		out[len(jobs)-1-i] = j
	}
	return out
}

func destructorName(fn *ast.Function) string {
	if fn == nil {
		return ""
	}
	return fn.Name
}
