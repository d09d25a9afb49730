package ir

import (
	"fmt"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/destruct"
	"github.com/hassan/chemc/internal/diagnostics"
	"github.com/hassan/chemc/internal/generics"
	"github.com/hassan/chemc/internal/source"
	"github.com/hassan/chemc/internal/symtab"
)

// Builder lowers a resolved *ast.File (§4.7's output) to an *ir.Module
// (§4.10), walking the arena-backed Node/Value trees directly via type
// switches rather than the ast.Visitor interface — the same shape
// internal/compiletime's Evaluator uses, since lowering needs a return value
// threaded back out of every recursive call the way a void-returning
// Visitor can't express.
type Builder struct {
	arena  *ast.Arena
	global *symtab.Scope
	diags  diagnostics.Bag
	is64   bool

	module *Module

	fn      *Function
	block   *BasicBlock
	planner *destruct.Planner

	// locals maps a name to the Value that currently holds it: a bare
	// register for a scalar (Copy on reassignment), or the pointer an
	// Alloca returned for an aggregate (GetFieldPtr/Load/Store against it).
	// Nested scopes push a child map and pop it on exit so shadowing works
	// without disturbing the enclosing scope's bindings.
	locals []map[string]*Value

	loops []loopContext

	lambdaCount int
}

type loopContext struct {
	continueTarget *BasicBlock
	breakTarget    *BasicBlock
	mark           int
}

// NewBuilder creates a Builder over an already-resolved file's arena and
// global scope (resolver.Resolver.GlobalScope).
func NewBuilder(arena *ast.Arena, global *symtab.Scope, is64 bool) *Builder {
	return &Builder{arena: arena, global: global, is64: is64}
}

func (b *Builder) Diagnostics() *diagnostics.Bag { return &b.diags }

// Build lowers every top-level declaration in file to IR, returning the
// assembled Module.
func (b *Builder) Build(file *ast.File, name string) *Module {
	b.module = NewModule(name)
	for _, decl := range file.Decls {
		b.buildDecl(decl)
	}
	return b.module
}

func (b *Builder) buildDecl(n ast.Node) {
	switch d := n.(type) {
	case *ast.Function:
		b.buildFunction(d)
	case *ast.Struct:
		for _, fn := range d.Functions {
			b.buildMethod(d, fn)
		}
	case *ast.Impl:
		for _, fn := range d.Functions {
			b.buildImplMethod(d, fn)
		}
	case *ast.ExtensionFunction:
		b.buildExtension(d)
	case *ast.VarInit:
		b.buildGlobalVar(d)
	case *ast.Namespace:
		for _, inner := range d.Decls {
			b.buildDecl(inner)
		}
	case *ast.Union, *ast.Interface, *ast.Enum, *ast.Typealias:
		// Carry no executable code of their own. The C emitter reads the
		// Union/Enum AST directly for type declarations; interfaces get no
		// member dispatch in the IR or the C output.
	}
}

func (b *Builder) buildGlobalVar(v *ast.VarInit) {
	typ := v.DeclaredType
	if typ == nil {
		typ = ast.Int
	}
	val := &Value{Name: v.Name, Type: typ, Kind: ValueGlobal}
	b.module.Globals = append(b.module.Globals, val)
}

// buildFunction lowers one top-level function, one IR Function per
// monomorphic iteration when fn is generic (§4.5's GenericIteration list is
// appended-to, never reordered, so iteration index i is a stable mangled
// suffix).
func (b *Builder) buildFunction(fn *ast.Function) {
	if fn.Body == nil {
		return // declaration only, e.g. an extern signature
	}
	if len(fn.GenericParams) == 0 {
		b.buildFunctionIteration(fn, fn.Name, nil)
		return
	}
	for i := range fn.Iterations {
		iteration := fn.Iterations[i]
		generics.WithIteration(fn, i, func() {
			b.buildFunctionIteration(fn, mangle(fn.Name, i), iteration.Args)
		})
	}
}

func (b *Builder) buildMethod(s *ast.Struct, fn *ast.Function) {
	if fn.Body == nil {
		return
	}
	thisType := &ast.PointerType{Pointee: &ast.ReferencedType{Name: s.Name, Linked: ast.NoNode}}
	b.buildFunctionIteration(fn, s.Name+"_"+fn.Name, nil, methodReceiver{"this", thisType})
}

func (b *Builder) buildImplMethod(impl *ast.Impl, fn *ast.Function) {
	if fn.Body == nil {
		return
	}
	thisType := &ast.PointerType{Pointee: &ast.ReferencedType{Name: impl.StructName, Linked: ast.NoNode}}
	b.buildFunctionIteration(fn, impl.StructName+"_"+fn.Name, nil, methodReceiver{"this", thisType})
}

func (b *Builder) buildExtension(ext *ast.ExtensionFunction) {
	if ext.Fn.Body == nil {
		return
	}
	b.buildFunctionIteration(ext.Fn, typeBaseName(ext.Receiver)+"_"+ext.Fn.Name, nil, methodReceiver{"this", ext.Receiver})
}

type methodReceiver struct {
	name string
	typ  ast.Type
}

func typeBaseName(t ast.Type) string {
	switch v := t.(type) {
	case *ast.ReferencedType:
		return v.Name
	case *ast.PointerType:
		return typeBaseName(v.Pointee)
	default:
		return t.String()
	}
}

func mangle(name string, iteration int) string { return fmt.Sprintf("%s$%d", name, iteration) }

// buildFunctionIteration builds one concrete IR Function body for fn under
// the given mangled name. recv, if given, is prepended as the function's
// first parameter (struct method / extension function "this").
func (b *Builder) buildFunctionIteration(fn *ast.Function, name string, typeArgs []ast.Type, recv ...methodReceiver) {
	returnType := fn.ReturnType
	if returnType == nil {
		returnType = ast.Void
	}
	aggregate := returnType.Kind() != ast.KindVoid && destruct.IsAggregate(returnType)

	var params []*Value
	entry := NewBasicBlock("entry")
	irFn := &Function{Name: name, ReturnType: returnType, Entry: entry, Blocks: []*BasicBlock{entry}}
	for _, r := range recv {
		p := irFn.NewValue(r.name, r.typ, ValueParameter)
		params = append(params, p)
	}
	if aggregate {
		sretType := &ast.PointerType{Pointee: returnType}
		irFn.SRet = irFn.NewValue("$sret", sretType, ValueParameter)
		params = append(params, irFn.SRet)
	}
	for _, p := range fn.Params {
		// A by-value aggregate parameter is passed through a hidden pointer
		// (the ABI original_source/compiler/llvmbackend/LLVM.cpp assumes for
		// any non-scalar argument) — its IR Value.Type is the pointer, so it
		// joins the same representation as an Alloca'd local.
		paramType := p.Type
		if destruct.IsAggregate(paramType) {
			paramType = &ast.PointerType{Pointee: p.Type}
		}
		params = append(params, irFn.NewValue(p.Name, paramType, ValueParameter))
	}
	irFn.Parameters = params

	savedFn, savedBlock, savedPlanner, savedLoops := b.fn, b.block, b.planner, b.loops
	b.fn, b.block = irFn, irFn.Entry
	b.planner = destruct.NewPlanner()
	b.loops = nil
	b.pushScope()

	env := b.currentScope()
	paramOffset := len(recv)
	if aggregate {
		paramOffset++
	}
	for _, r := range recv {
		env[r.name] = irFn.Parameters[0]
	}
	for i, p := range fn.Params {
		env[p.Name] = irFn.Parameters[paramOffset+i]
	}
	b.planner.QueueParams(fn, b.arena)

	b.buildScopeBody(fn.Body)
	if !b.block.IsTerminated() {
		b.emitDestructors(b.planner.Pending(0))
		b.block.AddInstruction(&Return{})
	}
	b.popScope()

	b.fn, b.block, b.planner, b.loops = savedFn, savedBlock, savedPlanner, savedLoops
	b.module.AddFunction(irFn)
}

func (b *Builder) pushScope()                      { b.locals = append(b.locals, map[string]*Value{}) }
func (b *Builder) popScope()                       { b.locals = b.locals[:len(b.locals)-1] }
func (b *Builder) currentScope() map[string]*Value { return b.locals[len(b.locals)-1] }

func (b *Builder) lookupLocal(name string) *Value {
	for i := len(b.locals) - 1; i >= 0; i-- {
		if v, ok := b.locals[i][name]; ok {
			return v
		}
	}
	return nil
}

func (b *Builder) defineLocal(name string, v *Value) { b.currentScope()[name] = v }

// emitDestructors appends one Call per queued job to the current block, in
// the order the Planner already reversed (most-recently-declared first).
func (b *Builder) emitDestructors(jobs []destruct.Job) {
	for _, job := range jobs {
		addr := b.lookupLocal(job.Name)
		if addr == nil || job.DestructorName == "" {
			continue
		}
		fnVal := &Value{Name: job.Struct.Name + "_" + job.DestructorName, Kind: ValueGlobal, Type: ast.Any}
		switch job.Kind {
		case destruct.JobDefault:
			b.block.AddInstruction(&Call{Function: fnVal, Args: []*Value{addr}})
		case destruct.JobArray:
			for i := 0; i < job.ArraySize; i++ {
				idx := &Value{Kind: ValueConstant, Constant: int64(i), Type: &ast.IntNType{Width: 64, Signed: true}}
				elemPtr := b.fn.NewTemp(&ast.PointerType{Pointee: &ast.ReferencedType{Name: job.Struct.Name, Linked: ast.NoNode}})
				b.block.AddInstruction(&GetElementPtr{Dest: elemPtr, Base: addr, Index: idx})
				b.block.AddInstruction(&Call{Function: fnVal, Args: []*Value{elemPtr}})
			}
		}
	}
}

// buildScopeBody walks a Scope's arena-backed statement list into the
// current block. Used both for a function's top-level body (where the
// caller owns the Planner mark) and, via buildScope, for nested block
// scopes (If/While/For bodies).
func (b *Builder) buildScopeBody(s *ast.Scope) {
	if s == nil {
		return
	}
	for _, ref := range s.Nodes {
		if b.block.IsTerminated() {
			break
		}
		n := b.arena.Node(ref)
		if n == nil {
			continue
		}
		b.buildStmt(n)
	}
}

// buildScope runs s in its own nested lexical + destructor scope, committing
// (and, if control still falls through, emitting) its locals' destructors
// at the end.
func (b *Builder) buildScope(s *ast.Scope) {
	b.pushScope()
	mark := b.planner.Mark()
	b.buildScopeBody(s)
	terminated := b.block.IsTerminated()
	jobs := b.planner.Commit(mark)
	if !terminated {
		b.emitDestructors(jobs)
	}
	b.popScope()
}

func (b *Builder) buildStmt(n ast.Node) {
	switch s := n.(type) {
	case *ast.VarInit:
		b.buildVarInit(s)
	case *ast.Assign:
		b.buildAssignStmt(s)
	case *ast.ExprStmt:
		b.buildExpr(b.arena.Value(s.Value))
	case *ast.If:
		b.buildIf(s)
	case *ast.While:
		b.buildWhile(s)
	case *ast.DoWhile:
		b.buildDoWhile(s)
	case *ast.For:
		b.buildForStmt(s)
	case *ast.Switch:
		b.buildSwitch(s)
	case *ast.Break:
		b.buildBreak()
	case *ast.Continue:
		b.buildContinue()
	case *ast.Return:
		b.buildReturn(s)
	case *ast.Scope:
		b.buildScope(s)
	case *ast.Throw, *ast.Delete, *ast.Using:
		// No runtime representation in this IR, and no back-end lowers
		// them from the AST either: throw, delete and using statements
		// are dropped here (§4.10 Non-goals).
	}
}

func (b *Builder) buildVarInit(v *ast.VarInit) {
	typ := v.DeclaredType
	var initVal *Value
	if v.Initializer != ast.NoValue {
		initVal = b.buildExpr(b.arena.Value(v.Initializer))
		if typ == nil && initVal != nil {
			typ = initVal.Type
		}
	}
	if typ == nil {
		typ = ast.Int
	}

	if destruct.IsAggregate(typ) {
		addr := b.fn.NewValue(v.Name, &ast.PointerType{Pointee: typ}, ValueVariable)
		b.block.AddInstruction(&Alloca{Dest: addr, Type: typ})
		if initVal != nil {
			b.copyAggregate(addr, initVal, typ)
		}
		b.defineLocal(v.Name, addr)
		b.fn.Locals = append(b.fn.Locals, addr)
	} else {
		reg := b.fn.NewValue(v.Name, typ, ValueVariable)
		if initVal != nil {
			b.block.AddInstruction(&Copy{Dest: reg, Value: initVal})
		}
		b.defineLocal(v.Name, reg)
	}
	b.planner.QueueLocal(v.Name, typ, b.arena, destruct.IsAggregate(typ))
}

// copyAggregate writes src's fields into the memory dest points at,
// field-by-field — src may be the address of an existing aggregate (a
// plain assignment) or the Alloca a *ast.StructValue literal was just
// written into.
func (b *Builder) copyAggregate(dest *Value, src *Value, typ ast.Type) {
	fields, ok := b.aggregateFields(typ)
	if !ok {
		b.block.AddInstruction(&Copy{Dest: dest, Value: src})
		return
	}
	for i, f := range fields {
		destField := b.fn.NewTemp(&ast.PointerType{Pointee: f.Type})
		b.block.AddInstruction(&GetFieldPtr{Dest: destField, Base: dest, FieldName: f.Name, FieldIndex: i})
		srcField := b.fn.NewTemp(&ast.PointerType{Pointee: f.Type})
		b.block.AddInstruction(&GetFieldPtr{Dest: srcField, Base: src, FieldName: f.Name, FieldIndex: i})
		if destruct.IsAggregate(f.Type) {
			b.copyAggregate(destField, srcField, f.Type)
			continue
		}
		loaded := b.fn.NewTemp(f.Type)
		b.block.AddInstruction(&Load{Dest: loaded, Address: srcField})
		b.block.AddInstruction(&Store{Address: destField, Value: loaded})
	}
}

// aggregateFields finds a type's field layout: directly, for an anonymous
// *ast.StructType, or by following a named type's Linked declaration back
// to its *ast.Struct (populated by the resolver's link pass — see
// internal/resolver/link.go's resolveType).
func (b *Builder) aggregateFields(t ast.Type) ([]ast.Field, bool) {
	switch v := t.(type) {
	case *ast.StructType:
		fields := make([]ast.Field, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = ast.Field{Name: f.Name, Type: f.Type}
		}
		return fields, true
	case *ast.ReferencedType:
		if v.Linked == ast.NoNode {
			return nil, false
		}
		decl, ok := b.arena.Node(v.Linked).(*ast.Struct)
		if !ok {
			return nil, false
		}
		return decl.Fields, true
	default:
		return nil, false
	}
}

func (b *Builder) buildAssignStmt(a *ast.Assign) {
	rhs := b.buildExpr(b.arena.Value(a.Value))
	target := b.arena.Value(a.Target)
	addr, scalarReg := b.buildLValue(target)

	if a.Op != "=" {
		op := compoundOp(a.Op)
		cur := b.loadLValue(addr, scalarReg)
		dest := b.fn.NewTemp(cur.Type)
		b.block.AddInstruction(&BinaryOp{Op: op, Dest: dest, Left: cur, Right: rhs})
		rhs = dest
	}

	if addr != nil {
		b.block.AddInstruction(&Store{Address: addr, Value: rhs})
		return
	}
	if scalarReg != nil {
		b.block.AddInstruction(&Copy{Dest: scalarReg, Value: rhs})
		if id, ok := target.(*ast.VariableIdentifier); ok {
			b.defineLocal(id.Name, scalarReg)
		}
	}
}

func (b *Builder) loadLValue(addr, scalarReg *Value) *Value {
	if scalarReg != nil {
		return scalarReg
	}
	loaded := b.fn.NewTemp(addr.Type.(*ast.PointerType).Pointee)
	b.block.AddInstruction(&Load{Dest: loaded, Address: addr})
	return loaded
}

// buildLValue resolves an assignment target to either a pointer to store
// through (addr) or the scalar register to overwrite directly with Copy
// (reg) — exactly one is non-nil.
func (b *Builder) buildLValue(target ast.Value) (addr *Value, reg *Value) {
	switch v := target.(type) {
	case *ast.VariableIdentifier:
		cur := b.lookupLocal(v.Name)
		if cur == nil {
			return nil, nil
		}
		// A pointer-typed register only stands for an address slot when it
		// came from our own Alloca for an aggregate local/param — a plain
		// scalar variable of pointer type (var p: *int) is reassigned with
		// Copy like any other scalar, not Store.
		if pt, ok := cur.Type.(*ast.PointerType); ok && destruct.IsAggregate(pt.Pointee) {
			return cur, nil
		}
		return nil, cur
	case *ast.Dereference:
		return b.buildExpr(b.arena.Value(v.Operand)), nil
	case *ast.AccessChain:
		return b.buildAccessChainAddr(v), nil
	default:
		b.errorf("unsupported assignment target %T", target)
		return nil, nil
	}
}

func compoundOp(op string) BinaryOperator {
	switch op {
	case "+=":
		return OpAdd
	case "-=":
		return OpSub
	case "*=":
		return OpMul
	case "/=":
		return OpDiv
	case "%=":
		return OpMod
	case "&=":
		return OpBitAnd
	case "|=":
		return OpBitOr
	case "^=":
		return OpBitXor
	case "<<=":
		return OpShl
	case ">>=":
		return OpShr
	default:
		return OpAdd
	}
}

func (b *Builder) buildIf(n *ast.If) {
	thenBlock := b.fn.NewBasicBlockInFunc("if.then")
	mergeBlock := b.fn.NewBasicBlockInFunc("if.end")

	cond := b.buildExpr(b.arena.Value(n.Cond))
	next := b.fn.NewBasicBlockInFunc("if.else")
	b.block.AddInstruction(&Branch{Condition: cond, TrueBlock: thenBlock, FalseBlock: next})
	b.block.AddSuccessor(thenBlock)
	b.block.AddSuccessor(next)

	b.block = thenBlock
	b.buildScope(n.Then)
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: mergeBlock})
		b.block.AddSuccessor(mergeBlock)
	}

	b.block = next
	for _, ei := range n.ElseIfs {
		eiThen := b.fn.NewBasicBlockInFunc("elseif.then")
		eiNext := b.fn.NewBasicBlockInFunc("elseif.next")
		eiCond := b.buildExpr(b.arena.Value(ei.Cond))
		b.block.AddInstruction(&Branch{Condition: eiCond, TrueBlock: eiThen, FalseBlock: eiNext})
		b.block.AddSuccessor(eiThen)
		b.block.AddSuccessor(eiNext)

		b.block = eiThen
		b.buildScope(ei.Body)
		if !b.block.IsTerminated() {
			b.block.AddInstruction(&Jump{Target: mergeBlock})
			b.block.AddSuccessor(mergeBlock)
		}
		b.block = eiNext
	}

	if n.Else != nil {
		b.buildScope(n.Else)
	}
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: mergeBlock})
		b.block.AddSuccessor(mergeBlock)
	}

	b.block = mergeBlock
}

func (b *Builder) buildWhile(n *ast.While) {
	condBlock := b.fn.NewBasicBlockInFunc("while.cond")
	bodyBlock := b.fn.NewBasicBlockInFunc("while.body")
	endBlock := b.fn.NewBasicBlockInFunc("while.end")

	b.block.AddInstruction(&Jump{Target: condBlock})
	b.block.AddSuccessor(condBlock)

	b.block = condBlock
	cond := b.buildExpr(b.arena.Value(n.Cond))
	b.block.AddInstruction(&Branch{Condition: cond, TrueBlock: bodyBlock, FalseBlock: endBlock})
	b.block.AddSuccessor(bodyBlock)
	b.block.AddSuccessor(endBlock)

	b.loops = append(b.loops, loopContext{continueTarget: condBlock, breakTarget: endBlock, mark: b.planner.Mark()})
	b.block = bodyBlock
	b.buildScope(n.Body)
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: condBlock})
		b.block.AddSuccessor(condBlock)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.block = endBlock
}

func (b *Builder) buildDoWhile(n *ast.DoWhile) {
	bodyBlock := b.fn.NewBasicBlockInFunc("dowhile.body")
	condBlock := b.fn.NewBasicBlockInFunc("dowhile.cond")
	endBlock := b.fn.NewBasicBlockInFunc("dowhile.end")

	b.block.AddInstruction(&Jump{Target: bodyBlock})
	b.block.AddSuccessor(bodyBlock)

	b.loops = append(b.loops, loopContext{continueTarget: condBlock, breakTarget: endBlock, mark: b.planner.Mark()})
	b.block = bodyBlock
	b.buildScope(n.Body)
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: condBlock})
		b.block.AddSuccessor(condBlock)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.block = condBlock
	cond := b.buildExpr(b.arena.Value(n.Cond))
	b.block.AddInstruction(&Branch{Condition: cond, TrueBlock: bodyBlock, FalseBlock: endBlock})
	b.block.AddSuccessor(bodyBlock)
	b.block.AddSuccessor(endBlock)

	b.block = endBlock
}

func (b *Builder) buildForStmt(n *ast.For) {
	b.pushScope()
	initMark := b.planner.Mark()
	if n.Init != nil {
		b.buildStmt(n.Init)
	}

	condBlock := b.fn.NewBasicBlockInFunc("for.cond")
	bodyBlock := b.fn.NewBasicBlockInFunc("for.body")
	postBlock := b.fn.NewBasicBlockInFunc("for.post")
	endBlock := b.fn.NewBasicBlockInFunc("for.end")

	b.block.AddInstruction(&Jump{Target: condBlock})
	b.block.AddSuccessor(condBlock)

	b.block = condBlock
	if n.Cond != ast.NoValue {
		cond := b.buildExpr(b.arena.Value(n.Cond))
		b.block.AddInstruction(&Branch{Condition: cond, TrueBlock: bodyBlock, FalseBlock: endBlock})
		b.block.AddSuccessor(bodyBlock)
		b.block.AddSuccessor(endBlock)
	} else {
		b.block.AddInstruction(&Jump{Target: bodyBlock})
		b.block.AddSuccessor(bodyBlock)
	}

	b.loops = append(b.loops, loopContext{continueTarget: postBlock, breakTarget: endBlock, mark: initMark})
	b.block = bodyBlock
	b.buildScope(n.Body)
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: postBlock})
		b.block.AddSuccessor(postBlock)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.block = postBlock
	if n.Post != nil {
		b.buildStmt(n.Post)
	}
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: condBlock})
		b.block.AddSuccessor(condBlock)
	}

	b.block = endBlock
	jobs := b.planner.Commit(initMark)
	b.emitDestructors(jobs) // end block is always reachable (the loop may run zero times)
	b.popScope()
}

// buildSwitch lowers to a cascade of equality branches rather than a jump
// table — dense jump-table lowering is a back-end-specific optimization,
// not something the shared IR commits to (§4.10 Non-goals).
func (b *Builder) buildSwitch(n *ast.Switch) {
	subject := b.buildExpr(b.arena.Value(n.Subject))
	endBlock := b.fn.NewBasicBlockInFunc("switch.end")

	for _, c := range n.Cases {
		bodyBlock := b.fn.NewBasicBlockInFunc("case.body")
		nextBlock := b.fn.NewBasicBlockInFunc("case.next")
		if len(c.Values) == 0 {
			b.block.AddInstruction(&Jump{Target: bodyBlock})
			b.block.AddSuccessor(bodyBlock)
		} else {
			var matched *Value
			for _, vr := range c.Values {
				cv := b.buildExpr(b.arena.Value(vr))
				eq := b.fn.NewTemp(ast.Bool)
				b.block.AddInstruction(&BinaryOp{Op: OpEq, Dest: eq, Left: subject, Right: cv})
				if matched == nil {
					matched = eq
					continue
				}
				combined := b.fn.NewTemp(ast.Bool)
				b.block.AddInstruction(&BinaryOp{Op: OpOr, Dest: combined, Left: matched, Right: eq})
				matched = combined
			}
			b.block.AddInstruction(&Branch{Condition: matched, TrueBlock: bodyBlock, FalseBlock: nextBlock})
			b.block.AddSuccessor(bodyBlock)
			b.block.AddSuccessor(nextBlock)
		}

		b.loops = append(b.loops, loopContext{breakTarget: endBlock, mark: b.planner.Mark()})
		b.block = bodyBlock
		b.buildScope(c.Body)
		if !b.block.IsTerminated() {
			b.block.AddInstruction(&Jump{Target: endBlock})
			b.block.AddSuccessor(endBlock)
		}
		b.loops = b.loops[:len(b.loops)-1]

		b.block = nextBlock
	}
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: endBlock})
		b.block.AddSuccessor(endBlock)
	}
	b.block = endBlock
}

func (b *Builder) buildBreak() {
	if len(b.loops) == 0 {
		b.errorf("break outside a loop or switch")
		return
	}
	top := b.loops[len(b.loops)-1]
	b.emitDestructors(b.planner.Pending(top.mark))
	b.block.AddInstruction(&Jump{Target: top.breakTarget})
	b.block.AddSuccessor(top.breakTarget)
}

func (b *Builder) buildContinue() {
	if len(b.loops) == 0 || b.loops[len(b.loops)-1].continueTarget == nil {
		b.errorf("continue outside a loop")
		return
	}
	top := b.loops[len(b.loops)-1]
	b.emitDestructors(b.planner.Pending(top.mark))
	b.block.AddInstruction(&Jump{Target: top.continueTarget})
	b.block.AddSuccessor(top.continueTarget)
}

func (b *Builder) buildReturn(n *ast.Return) {
	if n.Value == ast.NoValue {
		b.emitDestructors(b.planner.Pending(0))
		b.block.AddInstruction(&Return{})
		return
	}
	val := b.arena.Value(n.Value)
	if b.fn.SRet != nil {
		result := b.buildExpr(val)
		b.copyAggregate(b.fn.SRet, result, b.fn.SRet.Type.(*ast.PointerType).Pointee)
		b.emitDestructors(b.planner.Pending(0))
		b.block.AddInstruction(&Return{})
		return
	}
	result := b.buildExpr(val)
	b.emitDestructors(b.planner.Pending(0))
	b.block.AddInstruction(&Return{Value: result})
}

// buildExpr lowers one Value node, returning the register (or, for an
// aggregate-typed sub-expression, the pointer) holding its result.
func (b *Builder) buildExpr(v ast.Value) *Value {
	switch e := v.(type) {
	case *ast.BoolLiteral:
		return &Value{Kind: ValueConstant, Constant: e.IsConst, Type: ast.Bool}
	case *ast.CharLiteral:
		return &Value{Kind: ValueConstant, Constant: e.Value, Type: ast.Char}
	case *ast.IntLiteral:
		typ := ast.Type(ast.Int)
		if e.Width != 0 {
			typ = &ast.IntNType{Width: e.Width, Signed: !e.Unsigned}
		}
		return &Value{Kind: ValueConstant, Constant: e.Value, Type: typ}
	case *ast.FloatLiteral:
		return &Value{Kind: ValueConstant, Constant: e.Value, Type: ast.Float}
	case *ast.DoubleLiteral:
		return &Value{Kind: ValueConstant, Constant: e.Value, Type: ast.Double}
	case *ast.StringLiteral:
		return &Value{Kind: ValueConstant, Constant: e.Value, Type: &ast.PointerType{Pointee: ast.Char}}
	case *ast.NullLiteral:
		return &Value{Kind: ValueConstant, Constant: nil, Type: &ast.PointerType{Pointee: ast.Void}}
	case *ast.VariableIdentifier:
		return b.buildIdentifier(e)
	case *ast.Expression:
		return b.buildBinary(e)
	case *ast.NegativeValue:
		operand := b.buildExpr(b.arena.Value(e.Operand))
		dest := b.fn.NewTemp(operand.Type)
		b.block.AddInstruction(&UnaryOp{Op: OpNeg, Dest: dest, Operand: operand})
		return dest
	case *ast.NotValue:
		operand := b.buildExpr(b.arena.Value(e.Operand))
		dest := b.fn.NewTemp(ast.Bool)
		b.block.AddInstruction(&UnaryOp{Op: OpNot, Dest: dest, Operand: operand})
		return dest
	case *ast.AddrOf:
		return b.buildAddrOf(e)
	case *ast.Dereference:
		ptr := b.buildExpr(b.arena.Value(e.Operand))
		pointee := ast.Type(ast.Int)
		if pt, ok := ptr.Type.(*ast.PointerType); ok {
			pointee = pt.Pointee
		}
		dest := b.fn.NewTemp(pointee)
		b.block.AddInstruction(&Load{Dest: dest, Address: ptr})
		return dest
	case *ast.Cast:
		operand := b.buildExpr(b.arena.Value(e.Operand))
		dest := b.fn.NewTemp(e.Target)
		b.block.AddInstruction(&Copy{Dest: dest, Value: operand})
		return dest
	case *ast.Sizeof:
		return &Value{Kind: ValueConstant, Constant: int64(e.Operand.ByteSize(b.is64)), Type: &ast.IntNType{Width: 64, Signed: false}}
	case *ast.StructValue:
		return b.buildStructValue(e)
	case *ast.ArrayValue:
		return b.buildArrayValue(e)
	case *ast.TernaryValue:
		return b.buildTernary(e)
	case *ast.AccessChain:
		return b.buildAccessChain(e)
	case *ast.Lambda:
		return b.buildLambda(e)
	case *ast.RetStructParamValue:
		if b.fn.SRet != nil {
			return b.fn.SRet
		}
		return b.fn.NewTemp(e.StructType)
	default:
		b.errorf("unsupported expression %T", v)
		return b.fn.NewTemp(ast.Any)
	}
}

func (b *Builder) buildIdentifier(v *ast.VariableIdentifier) *Value {
	if local := b.lookupLocal(v.Name); local != nil {
		return local
	}
	if sym := b.global.Lookup(v.Name); sym != nil {
		typ := sym.Type.Get()
		if typ == nil {
			typ = ast.Int
		}
		return &Value{Name: v.Name, Kind: ValueGlobal, Type: typ}
	}
	b.errorf("undefined identifier %q reached IR builder", v.Name)
	return &Value{Name: v.Name, Kind: ValueGlobal, Type: ast.Any}
}

func (b *Builder) buildAddrOf(v *ast.AddrOf) *Value {
	operand := b.arena.Value(v.Operand)
	if id, ok := operand.(*ast.VariableIdentifier); ok {
		if local := b.lookupLocal(id.Name); local != nil {
			if pt, ok := local.Type.(*ast.PointerType); ok && destruct.IsAggregate(pt.Pointee) {
				return local
			}
			// A scalar local lives in a register, not memory: materialise an
			// Alloca on demand so &x still produces an addressable slot.
			addr := b.fn.NewTemp(&ast.PointerType{Pointee: local.Type})
			b.block.AddInstruction(&Alloca{Dest: addr, Type: local.Type})
			b.block.AddInstruction(&Store{Address: addr, Value: local})
			return addr
		}
	}
	val := b.buildExpr(operand)
	addr := b.fn.NewTemp(&ast.PointerType{Pointee: val.Type})
	b.block.AddInstruction(&Alloca{Dest: addr, Type: val.Type})
	b.block.AddInstruction(&Store{Address: addr, Value: val})
	return addr
}

func (b *Builder) buildBinary(e *ast.Expression) *Value {
	left := b.buildExpr(b.arena.Value(e.Left))
	if e.Right == ast.NoValue {
		return left
	}
	right := b.buildExpr(b.arena.Value(e.Right))
	op, resultBool := binaryOperator(e.Op)
	resultType := left.Type
	if resultBool {
		resultType = ast.Bool
	}
	dest := b.fn.NewTemp(resultType)
	b.block.AddInstruction(&BinaryOp{Op: op, Dest: dest, Left: left, Right: right})
	return dest
}

func binaryOperator(op string) (BinaryOperator, bool) {
	switch op {
	case "+":
		return OpAdd, false
	case "-":
		return OpSub, false
	case "*":
		return OpMul, false
	case "/":
		return OpDiv, false
	case "%":
		return OpMod, false
	case "==":
		return OpEq, true
	case "!=":
		return OpNeq, true
	case "<":
		return OpLt, true
	case "<=":
		return OpLe, true
	case ">":
		return OpGt, true
	case ">=":
		return OpGe, true
	case "&&":
		return OpAnd, true
	case "||":
		return OpOr, true
	case "&":
		return OpBitAnd, false
	case "|":
		return OpBitOr, false
	case "^":
		return OpBitXor, false
	case "<<":
		return OpShl, false
	case ">>":
		return OpShr, false
	default:
		return OpAdd, false
	}
}

func (b *Builder) buildStructValue(e *ast.StructValue) *Value {
	typ := ast.Type(&ast.ReferencedType{Name: e.StructName, Linked: ast.NoNode})
	addr := b.fn.NewTemp(&ast.PointerType{Pointee: typ})
	b.block.AddInstruction(&Alloca{Dest: addr, Type: typ})
	for i, f := range e.Fields {
		val := b.buildExpr(b.arena.Value(f.Value))
		fieldPtr := b.fn.NewTemp(&ast.PointerType{Pointee: val.Type})
		b.block.AddInstruction(&GetFieldPtr{Dest: fieldPtr, Base: addr, FieldName: f.Name, FieldIndex: i})
		b.block.AddInstruction(&Store{Address: fieldPtr, Value: val})
	}
	return addr
}

func (b *Builder) buildArrayValue(e *ast.ArrayValue) *Value {
	elemType := e.ElementType
	if elemType == nil {
		elemType = ast.Int
	}
	arrType := &ast.ArrayType{Element: elemType, Size: len(e.Elements)}
	addr := b.fn.NewTemp(&ast.PointerType{Pointee: arrType})
	b.block.AddInstruction(&Alloca{Dest: addr, Type: arrType})
	for i, elemRef := range e.Elements {
		val := b.buildExpr(b.arena.Value(elemRef))
		idx := &Value{Kind: ValueConstant, Constant: int64(i), Type: &ast.IntNType{Width: 64, Signed: true}}
		elemPtr := b.fn.NewTemp(&ast.PointerType{Pointee: elemType})
		b.block.AddInstruction(&GetElementPtr{Dest: elemPtr, Base: addr, Index: idx})
		b.block.AddInstruction(&Store{Address: elemPtr, Value: val})
	}
	return addr
}

func (b *Builder) buildTernary(e *ast.TernaryValue) *Value {
	cond := b.buildExpr(b.arena.Value(e.Cond))
	thenBlock := b.fn.NewBasicBlockInFunc("ternary.then")
	elseBlock := b.fn.NewBasicBlockInFunc("ternary.else")
	mergeBlock := b.fn.NewBasicBlockInFunc("ternary.end")

	b.block.AddInstruction(&Branch{Condition: cond, TrueBlock: thenBlock, FalseBlock: elseBlock})
	b.block.AddSuccessor(thenBlock)
	b.block.AddSuccessor(elseBlock)

	b.block = thenBlock
	thenVal := b.buildExpr(b.arena.Value(e.Then))
	thenEnd := b.block
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: mergeBlock})
		b.block.AddSuccessor(mergeBlock)
	}

	b.block = elseBlock
	elseVal := b.buildExpr(b.arena.Value(e.Else))
	elseEnd := b.block
	if !b.block.IsTerminated() {
		b.block.AddInstruction(&Jump{Target: mergeBlock})
		b.block.AddSuccessor(mergeBlock)
	}

	b.block = mergeBlock
	dest := b.fn.NewTemp(thenVal.Type)
	b.block.AddInstruction(&Phi{Dest: dest, Incoming: []PhiIncoming{
		{Value: thenVal, Block: thenEnd},
		{Value: elseVal, Block: elseEnd},
	}})
	return dest
}

// buildAccessChain lowers a.b[c].d(e...) left to right, tracking a running
// value (loaded contents, for member/index segments, or a call result).
func (b *Builder) buildAccessChain(v *ast.AccessChain) *Value {
	cur := b.buildExpr(b.arena.Value(v.Base))
	for _, seg := range v.Segments {
		cur = b.buildAccessSegment(cur, seg)
	}
	return cur
}

// buildAccessChainAddr lowers the chain but returns the address of its
// final member/index segment instead of loading through it — used as an
// assignment target.
func (b *Builder) buildAccessChainAddr(v *ast.AccessChain) *Value {
	cur := b.buildExpr(b.arena.Value(v.Base))
	for i, seg := range v.Segments {
		last := i == len(v.Segments)-1
		if last && !seg.IsCall {
			return b.fieldOrIndexAddr(cur, seg)
		}
		cur = b.buildAccessSegment(cur, seg)
	}
	return cur
}

func (b *Builder) fieldOrIndexAddr(base *Value, seg ast.AccessChainSegment) *Value {
	if seg.Index != ast.NoValue {
		idx := b.buildExpr(b.arena.Value(seg.Index))
		elemType := ast.Type(ast.Int)
		if pt, ok := base.Type.(*ast.PointerType); ok {
			if at, ok := pt.Pointee.(*ast.ArrayType); ok {
				elemType = at.Element
			}
		}
		dest := b.fn.NewTemp(&ast.PointerType{Pointee: elemType})
		b.block.AddInstruction(&GetElementPtr{Dest: dest, Base: base, Index: idx})
		return dest
	}
	dest := b.fn.NewTemp(&ast.PointerType{Pointee: ast.Any})
	b.block.AddInstruction(&GetFieldPtr{Dest: dest, Base: base, FieldName: seg.Member})
	return dest
}

func (b *Builder) buildAccessSegment(cur *Value, seg ast.AccessChainSegment) *Value {
	if seg.IsCall {
		return b.buildCall(cur, seg)
	}
	addr := b.fieldOrIndexAddr(cur, seg)
	dest := b.fn.NewTemp(addr.Type.(*ast.PointerType).Pointee)
	b.block.AddInstruction(&Load{Dest: dest, Address: addr})
	return dest
}

// buildCall lowers a plain function call (seg.Member == "") or a
// method/extension call, consulting seg.Linked — the *ast.Function the
// resolver's link pass bound this call to — for the callee's real return
// type. An aggregate return gets the hidden sret treatment at the call
// site: an Alloca'd destination whose address is passed as the hidden
// final-before-arguments parameter (matching the parameter order
// buildFunctionIteration assembles: receiver, then $sret, then the
// declared parameters), mirroring original_source/preprocess/
// 2cASTVisitor.cpp's struct-return call rewrite.
func (b *Builder) buildCall(cur *Value, seg ast.AccessChainSegment) *Value {
	var fnVal *Value
	var args []*Value
	var returnType ast.Type

	if seg.Member != "" {
		fnVal = &Value{Name: typeBaseName(cur.Type) + "_" + seg.Member, Kind: ValueGlobal, Type: ast.Any}
		args = append(args, cur)
	} else {
		fnVal = cur
		if ft, ok := cur.Type.(*ast.FunctionType); ok {
			returnType = ft.Return
		}
	}
	if seg.Linked != ast.NoNode {
		if fn, ok := b.arena.Node(seg.Linked).(*ast.Function); ok {
			returnType = fn.ReturnType
		}
	}

	aggregate := returnType != nil && returnType.Kind() != ast.KindVoid && destruct.IsAggregate(returnType)
	var sretAddr *Value
	if aggregate {
		sretAddr = b.fn.NewTemp(&ast.PointerType{Pointee: returnType})
		b.block.AddInstruction(&Alloca{Dest: sretAddr, Type: returnType})
		args = append(args, sretAddr)
	}

	for _, argRef := range seg.Call {
		args = append(args, b.buildExpr(b.arena.Value(argRef)))
	}

	if aggregate {
		b.block.AddInstruction(&Call{Function: fnVal, Args: args})
		return sretAddr
	}

	destType := ast.Type(ast.Any)
	if returnType != nil {
		destType = returnType
	}
	dest := b.fn.NewTemp(destType)
	b.block.AddInstruction(&Call{Dest: dest, Function: fnVal, Args: args})
	return dest
}

// buildLambda lowers a lambda literal to a MakeClosure fat pointer: a
// non-capturing lambda is lifted to an ordinary top-level Function and
// closes over nothing (Env == nil); a capturing one gets an Alloca'd
// environment struct with one field per captured name, typed as the captured
// local's Value, each Store'd from the enclosing scope before the closure is
// built.
func (b *Builder) buildLambda(l *ast.Lambda) *Value {
	b.lambdaCount++
	name := fmt.Sprintf("lambda$%d", b.lambdaCount)

	fn := &ast.Function{Name: name, Params: l.Params, ReturnType: l.ReturnType, Body: l.Body, ActiveIteration: -1}
	b.buildFunctionIteration(fn, name, nil)

	var env *Value
	if l.IsCapturing && len(l.Captures) > 0 {
		fields := make([]ast.StructField, len(l.Captures))
		for i, c := range l.Captures {
			typ := ast.Type(ast.Any)
			if captured := b.lookupLocal(c); captured != nil {
				typ = captured.Type
			}
			fields[i] = ast.StructField{Name: c, Type: typ}
		}
		envType := &ast.StructType{Fields: fields}
		env = b.fn.NewTemp(&ast.PointerType{Pointee: envType})
		b.block.AddInstruction(&Alloca{Dest: env, Type: envType})
		for i, c := range l.Captures {
			fieldPtr := b.fn.NewTemp(&ast.PointerType{Pointee: fields[i].Type})
			b.block.AddInstruction(&GetFieldPtr{Dest: fieldPtr, Base: env, FieldName: c, FieldIndex: i})
			if captured := b.lookupLocal(c); captured != nil {
				b.block.AddInstruction(&Store{Address: fieldPtr, Value: captured})
			}
		}
	}

	dest := b.fn.NewTemp(&ast.FunctionType{Capturing: l.IsCapturing})
	b.block.AddInstruction(&MakeClosure{Dest: dest, FuncName: name, Env: env})
	return dest
}

func (b *Builder) errorf(format string, args ...interface{}) {
	b.diags.Errorf(source.Position{}, "", format, args...)
}
