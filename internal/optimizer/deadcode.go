package optimizer

import (
	"github.com/hassan/chemc/internal/ir"
)

// DeadCodeEliminationPass removes instructions whose results are never used
// and basic blocks no control-flow edge can reach.
type DeadCodeEliminationPass struct{}

func (d *DeadCodeEliminationPass) Name() string { return "DeadCodeElimination" }

// Run iterates mark-and-sweep to a fixed point: removing one dead instruction
// or unreachable block can make another one dead in turn.
func (d *DeadCodeEliminationPass) Run(fn *ir.Function) error {
	modified := true
	for modified {
		modified = false
		used := d.markUsedValues(fn)
		if d.removeUnusedInstructions(fn, used) {
			modified = true
		}
		if d.removeUnreachableBlocks(fn) {
			modified = true
		}
	}
	return nil
}

// markUsedValues marks every value reachable, via def-use chains, from an
// instruction with side effects.
func (d *DeadCodeEliminationPass) markUsedValues(fn *ir.Function) map[*ir.Value]bool {
	used := make(map[*ir.Value]bool)
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if d.isCritical(instr) {
				for _, operand := range instr.Operands() {
					d.markValue(operand, used, fn)
				}
			}
		}
	}
	return used
}

// isCritical reports whether instr has a side effect and must survive
// regardless of whether its result is used.
func (d *DeadCodeEliminationPass) isCritical(instr ir.Instruction) bool {
	switch instr.(type) {
	case *ir.Store, *ir.Call, *ir.Return, *ir.Branch, *ir.Jump:
		return true
	default:
		return false
	}
}

func (d *DeadCodeEliminationPass) markValue(v *ir.Value, used map[*ir.Value]bool, fn *ir.Function) {
	if v == nil || used[v] {
		return
	}
	if v.IsConstant() {
		return
	}
	used[v] = true

	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if instr.Result() == v {
				for _, operand := range instr.Operands() {
					d.markValue(operand, used, fn)
				}
				return
			}
		}
	}
}

func (d *DeadCodeEliminationPass) removeUnusedInstructions(fn *ir.Function, used map[*ir.Value]bool) bool {
	modified := false
	for _, block := range fn.Blocks {
		newInstructions := make([]ir.Instruction, 0, len(block.Instructions))
		for _, instr := range block.Instructions {
			if d.isCritical(instr) {
				newInstructions = append(newInstructions, instr)
				continue
			}
			if result := instr.Result(); result != nil && used[result] {
				newInstructions = append(newInstructions, instr)
				continue
			}
			modified = true
		}
		block.Instructions = newInstructions
	}
	return modified
}

// removeUnreachableBlocks drops every block not reached by a DFS from the
// entry block along Successors edges.
func (d *DeadCodeEliminationPass) removeUnreachableBlocks(fn *ir.Function) bool {
	reachable := make(map[*ir.BasicBlock]bool)
	stack := []*ir.BasicBlock{fn.Entry}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[current] {
			continue
		}
		reachable[current] = true
		for _, succ := range current.Successors {
			if !reachable[succ] {
				stack = append(stack, succ)
			}
		}
	}

	newBlocks := make([]*ir.BasicBlock, 0, len(fn.Blocks))
	modified := false
	for _, block := range fn.Blocks {
		if reachable[block] {
			newBlocks = append(newBlocks, block)
		} else {
			modified = true
		}
	}

	if modified {
		fn.Blocks = newBlocks
		for i, block := range fn.Blocks {
			block.Index = i
		}
	}

	return modified
}
