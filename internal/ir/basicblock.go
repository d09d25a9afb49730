package ir

import (
	"fmt"
	"strings"

	"github.com/hassan/chemc/internal/ast"
)

// BasicBlock represents a sequence of instructions with single entry and
// exit.
type BasicBlock struct {
	Label        string
	Instructions []Instruction
	Successors   []*BasicBlock
	Predecessors []*BasicBlock
	Dominated    []*BasicBlock
	Index        int
}

func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{Label: label}
}

func (bb *BasicBlock) AddInstruction(instr Instruction) {
	bb.Instructions = append(bb.Instructions, instr)
}

// AddSuccessor adds a successor block and updates its predecessor list.
func (bb *BasicBlock) AddSuccessor(succ *BasicBlock) {
	for _, s := range bb.Successors {
		if s == succ {
			return
		}
	}
	bb.Successors = append(bb.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, bb)
}

// Terminator returns the block's last instruction if it is a Jump, Branch,
// or Return — nil otherwise (including an empty block).
func (bb *BasicBlock) Terminator() Instruction {
	if len(bb.Instructions) == 0 {
		return nil
	}
	last := bb.Instructions[len(bb.Instructions)-1]
	switch last.(type) {
	case *Jump, *Branch, *Return:
		return last
	default:
		return nil
	}
}

func (bb *BasicBlock) IsTerminated() bool { return bb.Terminator() != nil }

func (bb *BasicBlock) String() string {
	var sb strings.Builder
	sb.WriteString(bb.Label)
	sb.WriteString(":\n")
	if len(bb.Predecessors) > 0 {
		sb.WriteString("  ; predecessors: ")
		for i, pred := range bb.Predecessors {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(pred.Label)
		}
		sb.WriteString("\n")
	}
	for _, instr := range bb.Instructions {
		sb.WriteString("  ")
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Function represents one function in IR.
type Function struct {
	Name       string
	Parameters []*Value
	ReturnType ast.Type

	// SRet is set when ReturnType is an aggregate (struct/union/array)
	// passed back through a hidden pointer parameter rather than in a
	// register — the aggregate-return ABI original_source/compiler/
	// llvmbackend/LLVM.cpp's codegen assumes.
	SRet *Value

	Blocks []*BasicBlock
	Entry  *BasicBlock
	Locals []*Value

	nextValueID int
}

func NewFunction(name string, params []*Value, returnType ast.Type) *Function {
	entry := NewBasicBlock("entry")
	return &Function{
		Name:        name,
		Parameters:  params,
		ReturnType:  returnType,
		Blocks:      []*BasicBlock{entry},
		Entry:       entry,
		nextValueID: len(params),
	}
}

func (f *Function) NewBasicBlockInFunc(label string) *BasicBlock {
	bb := NewBasicBlock(label)
	bb.Index = len(f.Blocks)
	f.Blocks = append(f.Blocks, bb)
	return bb
}

func (f *Function) NewValue(name string, typ ast.Type, kind ValueKind) *Value {
	v := &Value{ID: f.nextValueID, Name: name, Type: typ, Kind: kind}
	f.nextValueID++
	return v
}

func (f *Function) NewTemp(typ ast.Type) *Value { return f.NewValue("", typ, ValueTemporary) }

func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString("func ")
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, param := range f.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(param.String())
		sb.WriteString(": ")
		sb.WriteString(param.Type.String())
	}
	sb.WriteString(") ")
	sb.WriteString(f.ReturnType.String())
	sb.WriteString(" {\n")
	for _, block := range f.Blocks {
		sb.WriteString(block.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Module represents a compilation unit (collection of functions and
// globals).
type Module struct {
	Name      string
	Functions []*Function
	Globals   []*Value
}

func NewModule(name string) *Module { return &Module{Name: name} }

func (m *Module) AddFunction(fn *Function) { m.Functions = append(m.Functions, fn) }

func (m *Module) String() string {
	var sb strings.Builder
	sb.WriteString("; Module: ")
	sb.WriteString(m.Name)
	sb.WriteString("\n\n")
	if len(m.Globals) > 0 {
		sb.WriteString("; Globals\n")
		for _, global := range m.Globals {
			sb.WriteString("global ")
			sb.WriteString(global.String())
			sb.WriteString(": ")
			sb.WriteString(global.Type.String())
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	for _, fn := range m.Functions {
		sb.WriteString(fn.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Verify checks that the IR is well-formed, returning every problem found
// rather than stopping at the first.
func (m *Module) Verify() []error {
	var errs []error
	for _, fn := range m.Functions {
		for _, block := range fn.Blocks {
			if !block.IsTerminated() {
				errs = append(errs, fmt.Errorf("block %s in function %s has no terminator", block.Label, fn.Name))
			}
		}
		if len(fn.Entry.Predecessors) > 0 {
			errs = append(errs, fmt.Errorf("entry block of function %s has predecessors", fn.Name))
		}
	}
	return errs
}
