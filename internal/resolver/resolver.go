// Package resolver implements two-pass symbol resolution over a converted
// AST (§4.7): a declare pass registers every top-level name before any name
// is looked up (so forward references within one file resolve), followed by
// a link pass that walks function/struct bodies binding
// VariableIdentifier/AccessChain/ReferencedType nodes to the Symbol (and
// arena NodeRef) that declared them.
//
// DESIGN PHILOSOPHY (matching the teacher's semantic.Analyzer):
// - Collect all errors, don't stop at the first one.
// - Use the visitor pattern to traverse the AST.
// - Build the symbol table while checking.
// - Resolution results (Symbol bindings) live in the resolver, not mutated
//   onto the AST directly — except for the arena-indexed back-references
//   (ReferencedType.Linked, VariableIdentifier.Linked,
//   AccessChainSegment.Linked) the AST already carries, and the destructors
//   destruct.EnsureDestructors appends to Struct.Functions.
package resolver

import (
	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/destruct"
	"github.com/hassan/chemc/internal/diagnostics"
	"github.com/hassan/chemc/internal/generics"
	"github.com/hassan/chemc/internal/source"
	"github.com/hassan/chemc/internal/symtab"
)

// Resolver performs symbol resolution on one compilation unit's AST.
type Resolver struct {
	ast.BaseVisitor

	arena *ast.Arena

	globalScope  *symtab.Scope
	currentScope *symtab.Scope

	diags diagnostics.Bag

	// extensions maps a receiver type name to the extension functions
	// declared against it, so AccessChain member lookups on a value of that
	// type also search here (original_source/ast/structures/
	// ExtensionFunction.cpp).
	extensions map[string][]*ast.ExtensionFunction

	// namespaces maps a namespace name to its merged Scope (S11).
	namespaces map[string]*symtab.Scope

	// impls maps a struct name to every Impl block declared against it (S8),
	// so an AccessChain call segment can find a method the struct itself
	// never defines directly.
	impls map[string][]*ast.Impl

	currentFunction *symtab.Symbol
}

// New creates a Resolver with a fresh global scope.
func New(arena *ast.Arena) *Resolver {
	global := symtab.NewScope(symtab.ScopeGlobal, nil)
	return &Resolver{
		arena:        arena,
		globalScope:  global,
		currentScope: global,
		extensions:   make(map[string][]*ast.ExtensionFunction),
		namespaces:   make(map[string]*symtab.Scope),
		impls:        make(map[string][]*ast.Impl),
	}
}

// Diagnostics returns the Bag accumulated across Resolve calls.
func (r *Resolver) Diagnostics() *diagnostics.Bag { return &r.diags }

// GlobalScope exposes the root scope, e.g. for a later compile-time
// evaluation pass that needs to look up top-level functions by name.
func (r *Resolver) GlobalScope() *symtab.Scope { return r.globalScope }

// Resolve runs the declare pass then the link pass over one File.
func (r *Resolver) Resolve(file *ast.File) {
	r.currentScope = r.globalScope

	for _, decl := range file.Decls {
		r.declare(decl)
	}
	r.checkExtensionCollisions()

	for _, decl := range file.Decls {
		decl.Accept(r)
	}

	// Field types only finish linking (ReferencedType.Linked) during the
	// pass above, so destructor declaration/synthesis — which needs to see
	// a field's own destructor — must come after it, per SPEC_FULL.md §4.9:
	// "a destructor Function exists on the struct after resolution".
	destruct.EnsureDestructors(r.arena, collectStructs(file.Decls))
}

// collectStructs gathers every struct declaration reachable from decls,
// descending into namespaces (S11) since those merge into one scope but
// keep their own Decls slice.
func collectStructs(decls []ast.Node) []*ast.Struct {
	var out []*ast.Struct
	for _, d := range decls {
		switch v := d.(type) {
		case *ast.Struct:
			out = append(out, v)
		case *ast.Namespace:
			out = append(out, collectStructs(v.Decls)...)
		}
	}
	return out
}

func (r *Resolver) error(pos source.Position, format string, args ...interface{}) {
	r.diags.Errorf(pos, "", format, args...)
}

// declare registers one top-level declaration's name into the current
// scope without yet resolving its body — the forward-reference pass.
func (r *Resolver) declare(n ast.Node) {
	switch d := n.(type) {
	case *ast.Function:
		r.declareFunction(d)
	case *ast.ExtensionFunction:
		r.extensions[typeName(d.Receiver)] = append(r.extensions[typeName(d.Receiver)], d)
	case *ast.Struct:
		r.declareScope(d.Name, symtab.SymbolStruct, d)
	case *ast.Union:
		r.declareScope(d.Name, symtab.SymbolUnion, d)
	case *ast.Interface:
		r.declareScope(d.Name, symtab.SymbolInterface, d)
	case *ast.Enum:
		r.declareScope(d.Name, symtab.SymbolEnum, d)
	case *ast.Typealias:
		sym := &symtab.Symbol{Name: d.Name, Kind: symtab.SymbolType, Type: ast.Owned(d.Type), Pos: d.Pos(), Declaration: ast.NoNode}
		if err := r.currentScope.Define(sym); err != nil {
			r.error(d.Pos(), "%s", err)
		}
	case *ast.VarInit:
		sym := &symtab.Symbol{Name: d.Name, Kind: symtab.SymbolVariable, Constant: d.IsConst, Pos: d.Pos(), Declaration: r.arena.AddNode(d)}
		if d.DeclaredType != nil {
			sym.Type = ast.Owned(d.DeclaredType)
		}
		if err := r.currentScope.Define(sym); err != nil {
			r.error(d.Pos(), "%s", err)
		}
	case *ast.Namespace:
		ns := symtab.MergeNamespace(r.currentScope, d.Name)
		r.namespaces[d.Name] = ns
		saved := r.currentScope
		r.currentScope = ns
		for _, inner := range d.Decls {
			r.declare(inner)
		}
		r.currentScope = saved
	case *ast.Impl:
		// The method bodies themselves are resolved against the struct's own
		// scope during the link pass (VisitImpl), once the struct symbol is
		// known to exist (S8) — but the Impl itself has to be registered here,
		// in the declare pass, so a call site anywhere in the file (including
		// one that textually precedes this impl block) can find it.
		r.impls[d.StructName] = append(r.impls[d.StructName], d)
	}
}

// checkExtensionCollisions reports an extension function that collides with
// a field or method its receiver struct already declares directly — S9's
// "direct members always win, an extension never silently shadows one"
// rule (original_source/ast/structures/ExtensionFunction.cpp's
// is_not_overriding check), run once the whole file's declarations (struct
// fields/methods and every extension) are registered.
func (r *Resolver) checkExtensionCollisions() {
	for receiver, exts := range r.extensions {
		sym := r.globalScope.Lookup(receiver)
		if sym == nil {
			continue
		}
		decl, hasMethods := r.arena.Node(sym.Declaration).(*ast.Struct)
		for _, ext := range exts {
			name := ext.Fn.Name
			if _, isField := sym.Fields[name]; isField {
				r.error(ext.Fn.Pos(), "extension function %q collides with field %q already declared on %q", name, name, receiver)
				continue
			}
			if !hasMethods {
				continue
			}
			for _, fn := range decl.Functions {
				if fn.Name == name {
					r.error(ext.Fn.Pos(), "extension function %q collides with a method %q already declared on %q", name, name, receiver)
					break
				}
			}
		}
	}
}

func (r *Resolver) declareFunction(fn *ast.Function) {
	sym := &symtab.Symbol{Name: fn.Name, Kind: symtab.SymbolFunction, Pos: fn.Pos(), Declaration: r.arena.AddNode(fn)}
	if fn.ReturnType != nil {
		params := make([]ast.Type, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		sym.Type = ast.Owned(&ast.FunctionType{Params: params, Return: fn.ReturnType})
	}
	if err := r.currentScope.Define(sym); err != nil {
		r.error(fn.Pos(), "%s", err)
	}
}

func (r *Resolver) declareScope(name string, kind symtab.SymbolKind, n ast.Node) {
	// n isn't placed in the arena at conversion time (only statements inside
	// a body are — see astconv/expr.go's convertBlock), so a type-level
	// declaration's own NodeRef doesn't exist until the declare pass makes
	// one here. resolveType later copies this into ReferencedType.Linked,
	// which is how destruct.resolveStructDecl (and any other pass) finds the
	// declaring *ast.Struct/*ast.Union/etc. from a field or variable's type.
	ref := r.arena.AddNode(n)
	sym := &symtab.Symbol{Name: name, Kind: kind, Pos: n.Pos(), Fields: map[string]*symtab.Symbol{}, Declaration: ref}
	if err := r.currentScope.Define(sym); err != nil {
		r.error(n.Pos(), "%s", err)
		return
	}
	switch d := n.(type) {
	case *ast.Struct:
		for _, f := range d.Fields {
			sym.Fields[f.Name] = &symtab.Symbol{Name: f.Name, Kind: symtab.SymbolField, Type: ast.Owned(f.Type), Declaration: ast.NoNode}
		}
	case *ast.Union:
		for _, f := range d.Fields {
			sym.Fields[f.Name] = &symtab.Symbol{Name: f.Name, Kind: symtab.SymbolField, Type: ast.Owned(f.Type), Declaration: ast.NoNode}
		}
	}
}

func typeName(t ast.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// LookupExtension finds extension functions registered against a receiver
// type name (used by the AccessChain link pass when a plain member lookup
// on the struct's own Fields/Functions misses).
func (r *Resolver) LookupExtension(receiver, method string) *ast.ExtensionFunction {
	for _, ext := range r.extensions[receiver] {
		if ext.Fn.Name == method {
			return ext
		}
	}
	return nil
}

// RegisterGenericUsage records one concrete type-argument list against a
// generic Function or Struct declaration, appending a GenericIteration
// (never reordering existing ones, per §4.5) and running fn with that
// iteration active via generics.WithIteration so nested resolution sees the
// right ActiveIteration without a manual save/restore at every call site.
func RegisterGenericUsage(decl generics.IterationHolder, iterations *[]ast.GenericIteration, args []ast.Type, fn func(index int)) {
	index := -1
	for i, it := range *iterations {
		if sameArgs(it.Args, args) {
			index = i
			break
		}
	}
	if index == -1 {
		*iterations = append(*iterations, ast.GenericIteration{Args: args})
		index = len(*iterations) - 1
	}
	generics.WithIteration(decl, index, func() { fn(index) })
}

func sameArgs(a, b []ast.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].IsSame(b[i]) {
			return false
		}
	}
	return true
}
