package compiletime

import (
	"fmt"

	"github.com/hassan/chemc/internal/ast"
)

// native unwraps a residual literal ValueRef into a plain Go value for
// arithmetic, the same shape the teacher's ConstantFoldingPass keeps in its
// constants map (interface{} holding int64/float64/bool).
func (e *Evaluator) native(ref ast.ValueRef) (interface{}, bool) {
	switch v := e.arena.Value(ref).(type) {
	case *ast.IntLiteral:
		return v.Value, true
	case *ast.FloatLiteral:
		return float64(v.Value), true
	case *ast.DoubleLiteral:
		return v.Value, true
	case *ast.BoolLiteral:
		return v.IsConst, true
	case *ast.CharLiteral:
		return int64(v.Value), true
	case *ast.StringLiteral:
		return v.Value, true
	default:
		return nil, false
	}
}

func (e *Evaluator) fromNative(x interface{}) ast.Value {
	switch n := x.(type) {
	case int64:
		return &ast.IntLiteral{Value: n, Width: 32}
	case float64:
		return &ast.DoubleLiteral{Value: n}
	case bool:
		return &ast.BoolLiteral{IsConst: n}
	case string:
		return &ast.StringLiteral{Value: n}
	default:
		return &ast.NullLiteral{}
	}
}

func (e *Evaluator) asBool(ref ast.ValueRef) (bool, error) {
	n, ok := e.native(ref)
	if !ok {
		return false, fmt.Errorf("compiletime: expected a boolean condition")
	}
	b, ok := n.(bool)
	if !ok {
		return false, fmt.Errorf("compiletime: expected a boolean condition, got %T", n)
	}
	return b, nil
}

func (e *Evaluator) applyUnary(op string, operand ast.ValueRef) (ast.ValueRef, error) {
	n, ok := e.native(operand)
	if !ok {
		return ast.NoValue, fmt.Errorf("compiletime: unary %q on a non-scalar residual", op)
	}
	switch op {
	case "-":
		switch v := n.(type) {
		case int64:
			return e.arena.AddValue(e.fromNative(-v)), nil
		case float64:
			return e.arena.AddValue(e.fromNative(-v)), nil
		}
	case "!":
		if b, ok := n.(bool); ok {
			return e.arena.AddValue(e.fromNative(!b)), nil
		}
	}
	return ast.NoValue, fmt.Errorf("compiletime: cannot apply %q to %T", op, n)
}

// applyBinary evaluates one binary operator over two already-reduced
// residuals, the AST-level analogue of the teacher's
// foldBinaryOpWithConstants — same op-by-op switch, division/modulo by zero
// refused rather than silently folded.
func (e *Evaluator) applyBinary(op string, leftRef, rightRef ast.ValueRef) (ast.ValueRef, error) {
	left, ok := e.native(leftRef)
	if !ok {
		return ast.NoValue, fmt.Errorf("compiletime: left operand of %q is not a scalar residual", op)
	}
	right, ok := e.native(rightRef)
	if !ok {
		return ast.NoValue, fmt.Errorf("compiletime: right operand of %q is not a scalar residual", op)
	}

	if lb, ok := left.(bool); ok {
		rb, ok := right.(bool)
		if !ok {
			return ast.NoValue, fmt.Errorf("compiletime: mismatched operand types for %q", op)
		}
		switch op {
		case "&&":
			return e.arena.AddValue(e.fromNative(lb && rb)), nil
		case "||":
			return e.arena.AddValue(e.fromNative(lb || rb)), nil
		case "==":
			return e.arena.AddValue(e.fromNative(lb == rb)), nil
		case "!=":
			return e.arena.AddValue(e.fromNative(lb != rb)), nil
		}
		return ast.NoValue, fmt.Errorf("compiletime: operator %q not defined for bool", op)
	}

	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			return ast.NoValue, fmt.Errorf("compiletime: mismatched operand types for %q", op)
		}
		switch op {
		case "+":
			return e.arena.AddValue(e.fromNative(ls + rs)), nil
		case "==":
			return e.arena.AddValue(e.fromNative(ls == rs)), nil
		case "!=":
			return e.arena.AddValue(e.fromNative(ls != rs)), nil
		}
		return ast.NoValue, fmt.Errorf("compiletime: operator %q not defined for string", op)
	}

	lf, lIsFloat := left.(float64)
	rf, rIsFloat := right.(float64)
	if lIsFloat || rIsFloat {
		if !lIsFloat {
			lf = float64(left.(int64))
		}
		if !rIsFloat {
			rf = float64(right.(int64))
		}
		return e.applyFloatBinary(op, lf, rf)
	}

	li, ok := left.(int64)
	if !ok {
		return ast.NoValue, fmt.Errorf("compiletime: unsupported operand type for %q", op)
	}
	ri, ok := right.(int64)
	if !ok {
		return ast.NoValue, fmt.Errorf("compiletime: unsupported operand type for %q", op)
	}
	return e.applyIntBinary(op, li, ri)
}

func (e *Evaluator) applyIntBinary(op string, l, r int64) (ast.ValueRef, error) {
	switch op {
	case "+":
		return e.arena.AddValue(e.fromNative(l + r)), nil
	case "-":
		return e.arena.AddValue(e.fromNative(l - r)), nil
	case "*":
		return e.arena.AddValue(e.fromNative(l * r)), nil
	case "/":
		if r == 0 {
			return ast.NoValue, fmt.Errorf("compiletime: division by zero")
		}
		return e.arena.AddValue(e.fromNative(l / r)), nil
	case "%":
		if r == 0 {
			return ast.NoValue, fmt.Errorf("compiletime: modulo by zero")
		}
		return e.arena.AddValue(e.fromNative(l % r)), nil
	case "&":
		return e.arena.AddValue(e.fromNative(l & r)), nil
	case "|":
		return e.arena.AddValue(e.fromNative(l | r)), nil
	case "^":
		return e.arena.AddValue(e.fromNative(l ^ r)), nil
	case "<<":
		return e.arena.AddValue(e.fromNative(l << uint(r))), nil
	case ">>":
		return e.arena.AddValue(e.fromNative(l >> uint(r))), nil
	case "==":
		return e.arena.AddValue(e.fromNative(l == r)), nil
	case "!=":
		return e.arena.AddValue(e.fromNative(l != r)), nil
	case "<":
		return e.arena.AddValue(e.fromNative(l < r)), nil
	case "<=":
		return e.arena.AddValue(e.fromNative(l <= r)), nil
	case ">":
		return e.arena.AddValue(e.fromNative(l > r)), nil
	case ">=":
		return e.arena.AddValue(e.fromNative(l >= r)), nil
	default:
		return ast.NoValue, fmt.Errorf("compiletime: unsupported integer operator %q", op)
	}
}

func (e *Evaluator) applyFloatBinary(op string, l, r float64) (ast.ValueRef, error) {
	switch op {
	case "+":
		return e.arena.AddValue(e.fromNative(l + r)), nil
	case "-":
		return e.arena.AddValue(e.fromNative(l - r)), nil
	case "*":
		return e.arena.AddValue(e.fromNative(l * r)), nil
	case "/":
		if r == 0 {
			return ast.NoValue, fmt.Errorf("compiletime: division by zero")
		}
		return e.arena.AddValue(e.fromNative(l / r)), nil
	case "==":
		return e.arena.AddValue(e.fromNative(l == r)), nil
	case "!=":
		return e.arena.AddValue(e.fromNative(l != r)), nil
	case "<":
		return e.arena.AddValue(e.fromNative(l < r)), nil
	case "<=":
		return e.arena.AddValue(e.fromNative(l <= r)), nil
	case ">":
		return e.arena.AddValue(e.fromNative(l > r)), nil
	case ">=":
		return e.arena.AddValue(e.fromNative(l >= r)), nil
	default:
		return ast.NoValue, fmt.Errorf("compiletime: unsupported floating-point operator %q", op)
	}
}
