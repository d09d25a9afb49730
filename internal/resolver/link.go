package resolver

import (
	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/source"
	"github.com/hassan/chemc/internal/symtab"
)

// The methods in this file are the link pass: Resolver embeds
// ast.BaseVisitor so every Visit* method not overridden here is a no-op,
// and only the nodes that introduce scope, bind names, or reference types
// need an explicit implementation — the rest of the traversal recurses
// through these.

func (r *Resolver) withScope(kind symtab.ScopeKind, fn func()) {
	saved := r.currentScope
	r.currentScope = symtab.NewScope(kind, saved)
	fn()
	r.currentScope = saved
}

func (r *Resolver) visitValue(ref ast.ValueRef) {
	if v := r.arena.Value(ref); v != nil {
		v.Accept(r)
	}
}

func (r *Resolver) visitScope(s *ast.Scope) {
	if s == nil {
		return
	}
	r.withScope(symtab.ScopeBlock, func() {
		for _, ref := range s.Nodes {
			if n := r.arena.Node(ref); n != nil {
				n.Accept(r)
			}
		}
	})
}

func (r *Resolver) resolveType(t ast.Type) {
	rt, ok := t.(*ast.ReferencedType)
	if !ok {
		return
	}
	sym := r.currentScope.Lookup(rt.Name)
	if sym == nil {
		r.error(source.Position{}, "undefined type %q", rt.Name)
		return
	}
	rt.Linked = sym.Declaration
}

func (r *Resolver) VisitFunction(fn *ast.Function) {
	savedFn := r.currentFunction
	sym := r.currentScope.Lookup(fn.Name)
	r.currentFunction = sym

	r.withScope(symtab.ScopeFunction, func() {
		for _, p := range fn.Params {
			r.resolveType(p.Type)
			r.currentScope.Define(&symtab.Symbol{Name: p.Name, Kind: symtab.SymbolParameter, Type: ast.Owned(p.Type), Pos: fn.Pos(), Declaration: ast.NoNode})
		}
		if fn.ReturnType != nil {
			r.resolveType(fn.ReturnType)
		}
		if fn.Body != nil {
			for _, ref := range fn.Body.Nodes {
				if n := r.arena.Node(ref); n != nil {
					n.Accept(r)
				}
			}
		}
	})

	r.currentFunction = savedFn
}

func (r *Resolver) VisitExtensionFunction(ext *ast.ExtensionFunction) {
	r.withScope(symtab.ScopeFunction, func() {
		r.currentScope.Define(&symtab.Symbol{Name: "this", Kind: symtab.SymbolParameter, Type: ast.Owned(ext.Receiver), Declaration: ast.NoNode})
		ext.Fn.Accept(r)
	})
}

func (r *Resolver) VisitStruct(s *ast.Struct) {
	for _, f := range s.Fields {
		r.resolveType(f.Type)
	}
	for _, fn := range s.Functions {
		r.withScope(symtab.ScopeFunction, func() {
			r.currentScope.Define(&symtab.Symbol{Name: "this", Kind: symtab.SymbolParameter, Type: ast.Owned(&ast.PointerType{Pointee: &ast.ReferencedType{Name: s.Name}}), Declaration: ast.NoNode})
			fn.Accept(r)
		})
	}
}

func (r *Resolver) VisitUnion(u *ast.Union) {
	for _, f := range u.Fields {
		r.resolveType(f.Type)
	}
}

func (r *Resolver) VisitImpl(impl *ast.Impl) {
	structSym := r.globalScope.Lookup(impl.StructName)
	ifaceSym := r.globalScope.Lookup(impl.InterfaceName)
	if structSym == nil {
		r.error(impl.Pos(), "impl of undefined struct %q", impl.StructName)
	}
	if ifaceSym == nil {
		r.error(impl.Pos(), "impl of undefined interface %q", impl.InterfaceName)
	}
	for _, fn := range impl.Functions {
		r.withScope(symtab.ScopeFunction, func() {
			r.currentScope.Define(&symtab.Symbol{Name: "this", Kind: symtab.SymbolParameter, Type: ast.Owned(&ast.PointerType{Pointee: &ast.ReferencedType{Name: impl.StructName}}), Declaration: ast.NoNode})
			fn.Accept(r)
		})
	}
}

func (r *Resolver) VisitNamespace(ns *ast.Namespace) {
	scope := symtab.MergeNamespace(r.currentScope, ns.Name)
	saved := r.currentScope
	r.currentScope = scope
	for _, inner := range ns.Decls {
		inner.Accept(r)
	}
	r.currentScope = saved
}

func (r *Resolver) VisitVarInit(v *ast.VarInit) {
	if v.DeclaredType != nil {
		r.resolveType(v.DeclaredType)
	}
	if v.Initializer != ast.NoValue {
		r.visitValue(v.Initializer)
	}
	// Top-level VarInits are declared ahead of time by declare(), so only a
	// local one (reached solely through this link-pass walk) still needs
	// registering — otherwise every reference to a local variable would
	// report "undefined identifier" despite being valid.
	if !r.currentScope.IsGlobal() && r.currentScope.LookupLocal(v.Name) == nil {
		sym := &symtab.Symbol{Name: v.Name, Kind: symtab.SymbolVariable, Constant: v.IsConst, Pos: v.Pos(), Declaration: ast.NoNode}
		if v.DeclaredType != nil {
			sym.Type = ast.Owned(v.DeclaredType)
		}
		if err := r.currentScope.Define(sym); err != nil {
			r.error(v.Pos(), "%s", err)
		}
	}
}

func (r *Resolver) VisitExprStmt(n *ast.ExprStmt) { r.visitValue(n.Value) }

func (r *Resolver) VisitAssign(a *ast.Assign) {
	r.visitValue(a.Target)
	r.visitValue(a.Value)
}

func (r *Resolver) VisitIf(n *ast.If) {
	r.visitValue(n.Cond)
	r.visitScope(n.Then)
	for _, ei := range n.ElseIfs {
		r.visitValue(ei.Cond)
		r.visitScope(ei.Body)
	}
	r.visitScope(n.Else)
}

func (r *Resolver) VisitWhile(n *ast.While) {
	r.visitValue(n.Cond)
	r.withScope(symtab.ScopeLoop, func() { r.visitScope(n.Body) })
}

func (r *Resolver) VisitDoWhile(n *ast.DoWhile) {
	r.visitValue(n.Cond)
	r.withScope(symtab.ScopeLoop, func() { r.visitScope(n.Body) })
}

func (r *Resolver) VisitFor(n *ast.For) {
	r.withScope(symtab.ScopeLoop, func() {
		if n.Init != nil {
			n.Init.Accept(r)
		}
		r.visitValue(n.Cond)
		if n.Post != nil {
			n.Post.Accept(r)
		}
		r.visitScope(n.Body)
	})
}

func (r *Resolver) VisitSwitch(n *ast.Switch) {
	r.visitValue(n.Subject)
	r.withScope(symtab.ScopeSwitch, func() {
		for _, c := range n.Cases {
			for _, v := range c.Values {
				r.visitValue(v)
			}
			r.visitScope(c.Body)
		}
	})
}

func (r *Resolver) VisitReturn(n *ast.Return) {
	if n.Value != ast.NoValue {
		r.visitValue(n.Value)
	}
}

func (r *Resolver) VisitThrow(n *ast.Throw) { r.visitValue(n.Value) }

func (r *Resolver) VisitDelete(n *ast.Delete) { r.visitValue(n.Target) }

func (r *Resolver) VisitScope(n *ast.Scope) { r.visitScope(n) }

// Values.

func (r *Resolver) VisitVariableIdentifier(v *ast.VariableIdentifier) {
	sym := r.currentScope.Lookup(v.Name)
	if sym == nil {
		r.error(v.Pos(), "undefined identifier %q", v.Name)
		return
	}
	v.Linked = sym.Declaration
}

// VisitAccessChain walks a.b[c].d(e...) left to right, tracking the static
// type the chain currently holds so each member/call segment can be bound
// to the struct field or method (direct, Impl, or extension) it names —
// the same left-to-right resolution original_source/ast/values/
// AccessChain.cpp's find_link_in_parent performs, generalized to Go's
// single flattened Segments slice.
func (r *Resolver) VisitAccessChain(v *ast.AccessChain) {
	r.visitValue(v.Base)
	curType := r.valueType(r.arena.Value(v.Base))

	for i := range v.Segments {
		seg := &v.Segments[i]
		if seg.Index != ast.NoValue {
			r.visitValue(seg.Index)
		}
		for _, arg := range seg.Call {
			r.visitValue(arg)
		}

		switch {
		case seg.Member == "" && seg.IsCall:
			// A plain function call: the callee is Base itself, already bound
			// by VisitVariableIdentifier — its FunctionType.Return carries the
			// result type onward.
			if ft, ok := curType.(*ast.FunctionType); ok {
				curType = ft.Return
			} else {
				curType = nil
			}
		case seg.Member == "":
			// Index segment: element type unknown without a fuller type
			// system, so indexing into an array of structs doesn't chain any
			// further member/method resolution. Good enough for §4.11's
			// scalar-element arrays.
			curType = nil
		default:
			curType = r.resolveSegment(seg, curType)
		}
	}
}

// valueType approximates the static type of a value enough to resolve the
// AccessChain segment that follows it — not full type inference, only what
// member/method lookup needs.
func (r *Resolver) valueType(v ast.Value) ast.Type {
	switch e := v.(type) {
	case *ast.VariableIdentifier:
		sym := r.currentScope.Lookup(e.Name)
		if sym == nil {
			return nil
		}
		return sym.Type.Get()
	case *ast.Cast:
		return e.Target
	case *ast.StructValue:
		return &ast.ReferencedType{Name: e.StructName}
	case *ast.Dereference:
		if pt, ok := r.valueType(r.arena.Value(e.Operand)).(*ast.PointerType); ok {
			return pt.Pointee
		}
		return nil
	default:
		return nil
	}
}

// resolveSegment binds a member/call segment against curType's struct
// declaration: a field (member access), or a method found directly on the
// struct, on one of its Impl blocks, or on an extension (call). Returns the
// result type the chain should carry into the next segment.
func (r *Resolver) resolveSegment(seg *ast.AccessChainSegment, curType ast.Type) ast.Type {
	receiver := underlyingStructName(curType)
	if receiver == "" {
		return nil
	}
	sym := r.globalScope.Lookup(receiver)
	if sym == nil {
		return nil
	}

	// Dynamic dispatch through an interface-typed value needs a vtable
	// representation (§4.10/§4.11 leave it to a later pass — see
	// cbackend's referencedTypeName and DESIGN.md's S8 entry). Reject it
	// here with a clear diagnostic rather than let the mangled call name
	// fall back to "InterfaceName_method", which would silently reference a
	// function that was never emitted.
	if sym.Kind == symtab.SymbolInterface {
		r.error(source.Position{}, "dynamic dispatch through interface %q is unsupported; call through the concrete struct type instead", receiver)
		return nil
	}

	if !seg.IsCall {
		field, ok := sym.Fields[seg.Member]
		if !ok {
			r.error(source.Position{}, "undefined field %q on %q", seg.Member, receiver)
			return nil
		}
		return field.Type.Get()
	}

	if fn := r.lookupMethod(sym, receiver, seg.Member); fn != nil {
		seg.Linked = r.arena.AddNode(fn)
		return fn.ReturnType
	}
	if ext := r.LookupExtension(receiver, seg.Member); ext != nil {
		seg.Linked = r.arena.AddNode(ext.Fn)
		return ext.Fn.ReturnType
	}
	r.error(source.Position{}, "undefined method %q on %q", seg.Member, receiver)
	return nil
}

// lookupMethod finds method among the struct's own directly-declared
// functions first, falling back to its Impl blocks (S8) — a struct method
// always wins over an Impl-provided one, the same "direct beats indirect"
// precedence checkExtensionCollisions enforces for extensions.
func (r *Resolver) lookupMethod(sym *symtab.Symbol, structName, method string) *ast.Function {
	if decl, ok := r.arena.Node(sym.Declaration).(*ast.Struct); ok {
		for _, fn := range decl.Functions {
			if fn.Name == method {
				return fn
			}
		}
	}

	var found *ast.Function
	matches := 0
	for _, impl := range r.impls[structName] {
		for _, fn := range impl.Functions {
			if fn.Name == method {
				found = fn
				matches++
			}
		}
	}
	if matches > 1 {
		r.error(source.Position{}, "ambiguous call to %q: %d impls of %q provide it", method, matches, structName)
		return nil
	}
	return found
}

// underlyingStructName strips pointer indirection to find the bare type
// name an AccessChain segment can look a struct symbol up by.
func underlyingStructName(t ast.Type) string {
	for {
		switch v := t.(type) {
		case *ast.PointerType:
			t = v.Pointee
		case *ast.ReferencedType:
			return v.Name
		default:
			return ""
		}
	}
}

func (r *Resolver) VisitExpression(v *ast.Expression) {
	r.visitValue(v.Left)
	if v.Right != ast.NoValue {
		r.visitValue(v.Right)
	}
}

func (r *Resolver) VisitNegativeValue(v *ast.NegativeValue) { r.visitValue(v.Operand) }
func (r *Resolver) VisitNotValue(v *ast.NotValue)           { r.visitValue(v.Operand) }
func (r *Resolver) VisitAddrOf(v *ast.AddrOf)               { r.visitValue(v.Operand) }
func (r *Resolver) VisitDereference(v *ast.Dereference)     { r.visitValue(v.Operand) }

func (r *Resolver) VisitCast(v *ast.Cast) {
	r.visitValue(v.Operand)
	r.resolveType(v.Target)
}

func (r *Resolver) VisitSizeof(v *ast.Sizeof) { r.resolveType(v.Operand) }

func (r *Resolver) VisitLambda(v *ast.Lambda) {
	r.withScope(symtab.ScopeFunction, func() {
		for _, p := range v.Params {
			r.currentScope.Define(&symtab.Symbol{Name: p.Name, Kind: symtab.SymbolParameter, Type: ast.Owned(p.Type), Declaration: ast.NoNode})
		}
		r.visitScope(v.Body)
	})
}

func (r *Resolver) VisitStructValue(v *ast.StructValue) {
	for _, f := range v.Fields {
		r.visitValue(f.Value)
	}
}

func (r *Resolver) VisitArrayValue(v *ast.ArrayValue) {
	for _, e := range v.Elements {
		r.visitValue(e)
	}
}

func (r *Resolver) VisitTernaryValue(v *ast.TernaryValue) {
	r.visitValue(v.Cond)
	r.visitValue(v.Then)
	r.visitValue(v.Else)
}
