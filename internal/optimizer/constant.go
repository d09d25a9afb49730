package optimizer

import (
	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/ir"
)

// ConstantFoldingPass evaluates constant binary/unary expressions at compile
// time, replacing them with a Copy of the computed constant.
type ConstantFoldingPass struct{}

func (c *ConstantFoldingPass) Name() string { return "ConstantFolding" }

// Run folds instructions in block order, propagating through a constants map
// so that a chain like t1 = 2 + 3; t2 = t1 * 4 folds in a single pass.
func (c *ConstantFoldingPass) Run(fn *ir.Function) error {
	constants := make(map[*ir.Value]interface{})

	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if cp, ok := instr.(*ir.Copy); ok {
				if cp.Value.IsConstant() {
					constants[cp.Dest] = cp.Value.Constant
				}
			}
		}
	}

	for _, block := range fn.Blocks {
		for i, instr := range block.Instructions {
			folded := c.foldInstructionWithConstants(instr, constants)
			if folded == nil {
				continue
			}
			block.Instructions[i] = folded
			if cp, ok := folded.(*ir.Copy); ok {
				if cp.Value.IsConstant() {
					constants[cp.Dest] = cp.Value.Constant
				}
			}
		}
	}

	return nil
}

func (c *ConstantFoldingPass) foldInstructionWithConstants(instr ir.Instruction, constants map[*ir.Value]interface{}) ir.Instruction {
	switch i := instr.(type) {
	case *ir.BinaryOp:
		return c.foldBinaryOpWithConstants(i, constants)
	case *ir.UnaryOp:
		return c.foldUnaryOpWithConstants(i, constants)
	default:
		return nil
	}
}

func (c *ConstantFoldingPass) getConstantValue(v *ir.Value, constants map[*ir.Value]interface{}) (interface{}, bool) {
	if v.IsConstant() {
		return v.Constant, true
	}
	if constVal, ok := constants[v]; ok {
		return constVal, true
	}
	return nil, false
}

// foldBinaryOpWithConstants folds integer arithmetic, bitwise, and comparison
// operators. Floating-point folding is skipped (rounding-mode sensitive,
// not worth the risk of diverging from the runtime's own arithmetic).
func (c *ConstantFoldingPass) foldBinaryOpWithConstants(op *ir.BinaryOp, constants map[*ir.Value]interface{}) ir.Instruction {
	leftConst, leftOk := c.getConstantValue(op.Left, constants)
	rightConst, rightOk := c.getConstantValue(op.Right, constants)
	if !leftOk || !rightOk {
		return nil
	}

	leftVal, leftOk := leftConst.(int64)
	rightVal, rightOk := rightConst.(int64)
	if !leftOk || !rightOk {
		return nil
	}

	var result int64
	switch op.Op {
	case ir.OpAdd:
		result = leftVal + rightVal
	case ir.OpSub:
		result = leftVal - rightVal
	case ir.OpMul:
		result = leftVal * rightVal
	case ir.OpDiv:
		if rightVal == 0 {
			return nil
		}
		result = leftVal / rightVal
	case ir.OpMod:
		if rightVal == 0 {
			return nil
		}
		result = leftVal % rightVal
	case ir.OpEq:
		return c.createBoolCopy(op.Dest, leftVal == rightVal)
	case ir.OpNeq:
		return c.createBoolCopy(op.Dest, leftVal != rightVal)
	case ir.OpLt:
		return c.createBoolCopy(op.Dest, leftVal < rightVal)
	case ir.OpLe:
		return c.createBoolCopy(op.Dest, leftVal <= rightVal)
	case ir.OpGt:
		return c.createBoolCopy(op.Dest, leftVal > rightVal)
	case ir.OpGe:
		return c.createBoolCopy(op.Dest, leftVal >= rightVal)
	case ir.OpBitAnd:
		result = leftVal & rightVal
	case ir.OpBitOr:
		result = leftVal | rightVal
	case ir.OpBitXor:
		result = leftVal ^ rightVal
	case ir.OpShl:
		result = leftVal << uint(rightVal)
	case ir.OpShr:
		result = leftVal >> uint(rightVal)
	default:
		return nil
	}

	// A sized operand (int8, uint32, ...) folds to a result of that same
	// size, wrapped the way the runtime's own arithmetic would wrap it —
	// op.Dest.Type carries that width/signedness (§3's IntNType), unlike the
	// teacher's single untyped int, so a naive ast.Int here would silently
	// widen a narrower computation's declared C type.
	result = truncateToIntType(result, op.Dest.Type)
	return &ir.Copy{
		Dest:  op.Dest,
		Value: &ir.Value{ID: -1, Type: op.Dest.Type, Kind: ir.ValueConstant, Constant: result},
	}
}

// truncateToIntType wraps v to fit t's declared width/signedness, matching
// two's-complement overflow the way the generated C arithmetic would behave.
// Non-IntNType destinations (the comparison/bool-result cases never reach
// here) and the width-0 "plain int" case pass v through unchanged.
func truncateToIntType(v int64, t ast.Type) int64 {
	it, ok := t.(*ast.IntNType)
	if !ok || it.Width <= 0 || it.Width >= 64 {
		return v
	}
	mask := int64(1)<<uint(it.Width) - 1
	v &= mask
	if it.Signed && v&(int64(1)<<uint(it.Width-1)) != 0 {
		v -= int64(1) << uint(it.Width)
	}
	return v
}

func (c *ConstantFoldingPass) foldUnaryOpWithConstants(op *ir.UnaryOp, constants map[*ir.Value]interface{}) ir.Instruction {
	operandConst, ok := c.getConstantValue(op.Operand, constants)
	if !ok {
		return nil
	}

	if intVal, ok := operandConst.(int64); ok {
		var result int64
		switch op.Op {
		case ir.OpNeg:
			result = -intVal
		case ir.OpBitNot:
			result = ^intVal
		default:
			return nil
		}
		result = truncateToIntType(result, op.Dest.Type)
		return &ir.Copy{
			Dest:  op.Dest,
			Value: &ir.Value{ID: -1, Type: op.Dest.Type, Kind: ir.ValueConstant, Constant: result},
		}
	}

	if boolVal, ok := operandConst.(bool); ok && op.Op == ir.OpNot {
		return c.createBoolCopy(op.Dest, !boolVal)
	}

	return nil
}

func (c *ConstantFoldingPass) createBoolCopy(dest *ir.Value, value bool) ir.Instruction {
	return &ir.Copy{
		Dest:  dest,
		Value: &ir.Value{ID: -1, Type: ast.Bool, Kind: ir.ValueConstant, Constant: value},
	}
}
