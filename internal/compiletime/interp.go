// Package compiletime implements the §4.8 compile-time evaluator: a small
// tree-walking interpreter over resolved AST that executes functions
// annotated compile-time and produces a residual Value, memoised per
// call-site so repeated uses of the same call expression evaluate once.
//
// Grounded on the teacher's internal/optimizer/constant.go constant-folding
// pass for the operator-evaluation switch shape (one case per ir.Op,
// division/modulo-by-zero guarded), adapted from IR instructions to AST
// expressions since this evaluator runs ahead of lowering, directly over
// internal/ast.
package compiletime

import (
	"fmt"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/diagnostics"
	"github.com/hassan/chemc/internal/source"
)

type signal int

const (
	sigNone signal = iota
	sigBreak
	sigContinue
	sigReturn
)

// Evaluator holds the state threaded through one compilation's worth of
// compile-time calls: the arena new literal nodes are appended to, the
// per-call-site memo table, and a recursion guard against self-referential
// compile-time calls.
type Evaluator struct {
	arena *ast.Arena
	diags diagnostics.Bag

	memo    map[ast.ValueRef]ast.ValueRef
	calling map[*ast.Function]bool
}

// New builds an Evaluator over the given arena; new residual literal nodes
// it produces are appended to this same arena so downstream passes can
// reference them with ordinary ValueRefs.
func New(arena *ast.Arena) *Evaluator {
	return &Evaluator{
		arena:   arena,
		memo:    make(map[ast.ValueRef]ast.ValueRef),
		calling: make(map[*ast.Function]bool),
	}
}

func (e *Evaluator) Diagnostics() *diagnostics.Bag { return &e.diags }

func (e *Evaluator) errorf(pos source.Position, format string, args ...interface{}) {
	e.diags.Errorf(pos, "", format, args...)
}

// Eval runs fn (which must be IsCompileTime) with args already evaluated to
// residual values, memoised by callSite's own ValueRef — the identity of
// the call expression, not of fn or args, per §4.8's "a given call-site
// expression evaluates at most once" rule.
func (e *Evaluator) Eval(callSite ast.ValueRef, fn *ast.Function, args []ast.ValueRef) (ast.ValueRef, error) {
	if cached, ok := e.memo[callSite]; ok {
		return cached, nil
	}
	if e.calling[fn] {
		return ast.NoValue, fmt.Errorf("compiletime: recursive compile-time call to %q", fn.Name)
	}
	if fn.Body == nil {
		return ast.NoValue, fmt.Errorf("compiletime: %q has no body to evaluate", fn.Name)
	}

	e.calling[fn] = true
	defer delete(e.calling, fn)

	scope := newEnv(nil)
	for i, p := range fn.Params {
		if i >= len(args) {
			return ast.NoValue, fmt.Errorf("compiletime: %q called with too few arguments", fn.Name)
		}
		scope.define(p.Name, args[i])
	}

	sig, ret, err := e.execScope(fn.Body, scope)
	if err != nil {
		return ast.NoValue, err
	}
	if sig != sigReturn {
		ret = e.arena.AddValue(&ast.NullLiteral{})
	}
	e.memo[callSite] = ret
	return ret, nil
}

func (e *Evaluator) execScope(s *ast.Scope, parent *env) (signal, ast.ValueRef, error) {
	if s == nil {
		return sigNone, ast.NoValue, nil
	}
	local := newEnv(parent)
	for _, ref := range s.Nodes {
		n := e.arena.Node(ref)
		if n == nil {
			continue
		}
		sig, ret, err := e.execNode(n, local)
		if err != nil || sig != sigNone {
			return sig, ret, err
		}
	}
	return sigNone, ast.NoValue, nil
}

func (e *Evaluator) execNode(n ast.Node, scope *env) (signal, ast.ValueRef, error) {
	switch v := n.(type) {
	case *ast.VarInit:
		val := ast.ValueRef(ast.NoValue)
		if v.Initializer != ast.NoValue {
			resolved, err := e.evalExpr(v.Initializer, scope)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			val = resolved
		}
		scope.define(v.Name, val)
		return sigNone, ast.NoValue, nil

	case *ast.Assign:
		val, err := e.evalExpr(v.Value, scope)
		if err != nil {
			return sigNone, ast.NoValue, err
		}
		if v.Op != "=" {
			cur, err := e.evalExpr(v.Target, scope)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			val, err = e.applyBinary(v.Op[:len(v.Op)-1], cur, val)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
		}
		ident, ok := e.arena.Value(v.Target).(*ast.VariableIdentifier)
		if !ok {
			return sigNone, ast.NoValue, fmt.Errorf("compiletime: assignment target must be a plain identifier")
		}
		scope.set(ident.Name, val)
		return sigNone, ast.NoValue, nil

	case *ast.ExprStmt:
		_, err := e.evalExpr(v.Value, scope)
		return sigNone, ast.NoValue, err

	case *ast.If:
		cond, err := e.evalExpr(v.Cond, scope)
		if err != nil {
			return sigNone, ast.NoValue, err
		}
		b, err := e.asBool(cond)
		if err != nil {
			return sigNone, ast.NoValue, err
		}
		if b {
			return e.execScope(v.Then, scope)
		}
		for _, ei := range v.ElseIfs {
			c, err := e.evalExpr(ei.Cond, scope)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			cb, err := e.asBool(c)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			if cb {
				return e.execScope(ei.Body, scope)
			}
		}
		return e.execScope(v.Else, scope)

	case *ast.While:
		for {
			cond, err := e.evalExpr(v.Cond, scope)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			b, err := e.asBool(cond)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			if !b {
				return sigNone, ast.NoValue, nil
			}
			sig, ret, err := e.execScope(v.Body, scope)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			if sig == sigBreak {
				return sigNone, ast.NoValue, nil
			}
			if sig == sigReturn {
				return sig, ret, nil
			}
		}

	case *ast.DoWhile:
		for {
			sig, ret, err := e.execScope(v.Body, scope)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			if sig == sigBreak {
				return sigNone, ast.NoValue, nil
			}
			if sig == sigReturn {
				return sig, ret, nil
			}
			cond, err := e.evalExpr(v.Cond, scope)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			b, err := e.asBool(cond)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			if !b {
				return sigNone, ast.NoValue, nil
			}
		}

	case *ast.For:
		loopScope := newEnv(scope)
		if v.Init != nil {
			if _, _, err := e.execNode(v.Init, loopScope); err != nil {
				return sigNone, ast.NoValue, err
			}
		}
		for {
			if v.Cond != ast.NoValue {
				cond, err := e.evalExpr(v.Cond, loopScope)
				if err != nil {
					return sigNone, ast.NoValue, err
				}
				b, err := e.asBool(cond)
				if err != nil {
					return sigNone, ast.NoValue, err
				}
				if !b {
					return sigNone, ast.NoValue, nil
				}
			}
			sig, ret, err := e.execScope(v.Body, loopScope)
			if err != nil {
				return sigNone, ast.NoValue, err
			}
			if sig == sigBreak {
				return sigNone, ast.NoValue, nil
			}
			if sig == sigReturn {
				return sig, ret, nil
			}
			if v.Post != nil {
				if _, _, err := e.execNode(v.Post, loopScope); err != nil {
					return sigNone, ast.NoValue, err
				}
			}
		}

	case *ast.Return:
		if v.Value == ast.NoValue {
			return sigReturn, ast.NoValue, nil
		}
		ret, err := e.evalExpr(v.Value, scope)
		return sigReturn, ret, err

	case *ast.Break:
		return sigBreak, ast.NoValue, nil

	case *ast.Continue:
		return sigContinue, ast.NoValue, nil

	case *ast.Scope:
		return e.execScope(v, scope)

	default:
		return sigNone, ast.NoValue, fmt.Errorf("compiletime: unsupported statement %T in compile-time function body", n)
	}
}

// evalExpr reduces a ValueRef to a residual literal/struct/array ValueRef,
// reusing the arena so the result can be referenced like any other value.
func (e *Evaluator) evalExpr(ref ast.ValueRef, scope *env) (ast.ValueRef, error) {
	val := e.arena.Value(ref)
	if val == nil {
		return ast.NoValue, fmt.Errorf("compiletime: nil value reference")
	}
	switch v := val.(type) {
	case *ast.BoolLiteral, *ast.CharLiteral, *ast.IntLiteral, *ast.FloatLiteral,
		*ast.DoubleLiteral, *ast.StringLiteral, *ast.NullLiteral:
		return ref, nil

	case *ast.VariableIdentifier:
		if bound, ok := scope.get(v.Name); ok {
			return bound, nil
		}
		return ast.NoValue, fmt.Errorf("compiletime: unbound identifier %q in compile-time context", v.Name)

	case *ast.NegativeValue:
		operand, err := e.evalExpr(v.Operand, scope)
		if err != nil {
			return ast.NoValue, err
		}
		return e.applyUnary("-", operand)

	case *ast.NotValue:
		operand, err := e.evalExpr(v.Operand, scope)
		if err != nil {
			return ast.NoValue, err
		}
		return e.applyUnary("!", operand)

	case *ast.TernaryValue:
		cond, err := e.evalExpr(v.Cond, scope)
		if err != nil {
			return ast.NoValue, err
		}
		b, err := e.asBool(cond)
		if err != nil {
			return ast.NoValue, err
		}
		if b {
			return e.evalExpr(v.Then, scope)
		}
		return e.evalExpr(v.Else, scope)

	case *ast.Expression:
		left, err := e.evalExpr(v.Left, scope)
		if err != nil {
			return ast.NoValue, err
		}
		if v.Right == ast.NoValue {
			return left, nil
		}
		right, err := e.evalExpr(v.Right, scope)
		if err != nil {
			return ast.NoValue, err
		}
		return e.applyBinary(v.Op, left, right)

	case *ast.StructValue:
		sv := &ast.StructValue{StructName: v.StructName}
		for _, f := range v.Fields {
			resolved, err := e.evalExpr(f.Value, scope)
			if err != nil {
				return ast.NoValue, err
			}
			sv.Fields = append(sv.Fields, ast.StructValueField{Name: f.Name, Value: resolved})
		}
		return e.arena.AddValue(sv), nil

	case *ast.ArrayValue:
		av := &ast.ArrayValue{ElementType: v.ElementType}
		for _, elemRef := range v.Elements {
			resolved, err := e.evalExpr(elemRef, scope)
			if err != nil {
				return ast.NoValue, err
			}
			av.Elements = append(av.Elements, resolved)
		}
		return e.arena.AddValue(av), nil

	case *ast.AccessChain:
		return e.evalAccessChain(v, scope)

	default:
		return ast.NoValue, fmt.Errorf("compiletime: %T is not allowed in a compile-time expression", v)
	}
}

// evalAccessChain supports the one shape compile-time code actually needs:
// field reads off an already-evaluated StructValue. Calls into other
// functions are not evaluated here; only the arithmetic/struct body of the
// compile-time function itself is.
func (e *Evaluator) evalAccessChain(chain *ast.AccessChain, scope *env) (ast.ValueRef, error) {
	cur, err := e.evalExpr(chain.Base, scope)
	if err != nil {
		return ast.NoValue, err
	}
	for _, seg := range chain.Segments {
		if seg.IsCall {
			return ast.NoValue, fmt.Errorf("compiletime: calls are not supported inside compile-time expressions")
		}
		if seg.Index != ast.NoValue {
			return ast.NoValue, fmt.Errorf("compiletime: indexing is not supported inside compile-time expressions")
		}
		sv, ok := e.arena.Value(cur).(*ast.StructValue)
		if !ok {
			return ast.NoValue, fmt.Errorf("compiletime: cannot access field %q of a non-struct residual", seg.Member)
		}
		found := false
		for _, f := range sv.Fields {
			if f.Name == seg.Member {
				cur = f.Value
				found = true
				break
			}
		}
		if !found {
			return ast.NoValue, fmt.Errorf("compiletime: struct %q has no field %q", sv.StructName, seg.Member)
		}
	}
	return cur, nil
}
