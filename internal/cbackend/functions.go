package cbackend

import (
	"fmt"

	"github.com/hassan/chemc/internal/ir"
)

// writeFunction emits one ir.Function's full C definition: the signature,
// every Alloca/instruction-result local declared up front (so a goto can
// jump forward over an assignment without ever jumping over an
// initializer), then one label per BasicBlock with its instructions as
// plain statements and its terminator as goto/if-goto/return.
func (e *Emitter) writeFunction(fn *ir.Function) {
	e.sb.WriteString(e.functionSignature(fn))
	e.sb.WriteString(" {\n")

	allocaOf := collectAllocas(fn)
	phiAssigns := e.collectPhiAssigns(fn)

	for _, v := range collectLocals(fn) {
		if a, ok := allocaOf[v]; ok {
			fmt.Fprintf(&e.sb, "  %s;\n", e.declareVar(e.nameOf(v)+"__buf", a.Type))
			fmt.Fprintf(&e.sb, "  %s;\n", e.declareVar(e.nameOf(v), v.Type))
			continue
		}
		fmt.Fprintf(&e.sb, "  %s;\n", e.declareVar(e.nameOf(v), v.Type))
	}

	for _, block := range fn.Blocks {
		fmt.Fprintf(&e.sb, "%s:;\n", cLabel(block.Label))
		for _, instr := range block.Instructions {
			e.writeInstruction(instr, block, phiAssigns)
		}
	}

	e.sb.WriteString("}\n\n")
}

func (e *Emitter) writeInstruction(instr ir.Instruction, block *ir.BasicBlock, phiAssigns map[*ir.BasicBlock][]string) {
	switch n := instr.(type) {
	case *ir.Jump:
		for _, assign := range phiAssigns[block] {
			fmt.Fprintf(&e.sb, "  %s\n", assign)
		}
		fmt.Fprintf(&e.sb, "  goto %s;\n", cLabel(n.Target.Label))
	case *ir.Branch:
		fmt.Fprintf(&e.sb, "  if (%s) goto %s; else goto %s;\n",
			e.valueExpr(n.Condition), cLabel(n.TrueBlock.Label), cLabel(n.FalseBlock.Label))
	case *ir.Return:
		if n.Value != nil {
			fmt.Fprintf(&e.sb, "  return %s;\n", e.valueExpr(n.Value))
		} else {
			e.sb.WriteString("  return;\n")
		}
	default:
		if s := e.statement(instr); s != "" {
			fmt.Fprintf(&e.sb, "  %s\n", s)
		}
	}
}

// collectLocals returns every instruction result in fn, in first-appearance
// order, skipping parameters (already declared by the signature).
func collectLocals(fn *ir.Function) []*ir.Value {
	seen := make(map[*ir.Value]bool, len(fn.Parameters))
	for _, p := range fn.Parameters {
		seen[p] = true
	}
	var out []*ir.Value
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if dest := instr.Result(); dest != nil && !seen[dest] {
				seen[dest] = true
				out = append(out, dest)
			}
		}
	}
	return out
}

func collectAllocas(fn *ir.Function) map[*ir.Value]*ir.Alloca {
	out := map[*ir.Value]*ir.Alloca{}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if a, ok := instr.(*ir.Alloca); ok {
				out[a.Dest] = a
			}
		}
	}
	return out
}

// collectPhiAssigns maps each predecessor block to the "dest = value;"
// assignment(s) it must run immediately before its own terminator jump —
// plain C has no phi instruction, so a Phi at the top of a merge block is
// lowered by pushing the assignment back into whichever block actually
// computed the incoming value (§4.10's buildTernary is the only producer of
// Phi today, and it only ever reaches its merge block via a plain Jump).
func (e *Emitter) collectPhiAssigns(fn *ir.Function) map[*ir.BasicBlock][]string {
	out := map[*ir.BasicBlock][]string{}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			phi, ok := instr.(*ir.Phi)
			if !ok {
				continue
			}
			destName := e.nameOf(phi.Dest)
			for _, inc := range phi.Incoming {
				out[inc.Block] = append(out[inc.Block], fmt.Sprintf("%s = %s;", destName, e.valueExpr(inc.Value)))
			}
		}
	}
	return out
}
