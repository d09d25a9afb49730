// Package ir implements the Intermediate Representation for the compiler
// (§4.10): a Three-Address-Code style IR in SSA-ish form, generalizing the
// teacher's internal/ir almost unchanged in shape — Value/Instruction/
// BasicBlock/Function/Module/Verify all carry over — but now built from
// internal/ast's arena-backed, resolved AST instead of the teacher's own
// parser/ast + semantic.Analyzer, and extended for this target's aggregate
// return ABI, fat-pointer capturing lambdas, generic mangling, and
// destructor emission (§4.9).
//
// WHAT IS IR?
// IR is a low-level representation of the program that sits between the
// AST and machine code. It's designed to be:
// 1. Easy to analyze and optimize
// 2. Independent of source language and target machine
// 3. Explicit about control flow and operations
//
// DESIGN PHILOSOPHY:
// Three-Address Code, LLVM-flavored:
// - Each instruction has at most 3 operands
// - Control flow is represented with basic blocks
// - We use Static Single Assignment (SSA) form where practical
package ir

import (
	"fmt"

	"github.com/hassan/chemc/internal/ast"
)

// Value represents a value in the IR (variable, constant, or temporary).
type Value struct {
	ID       int
	Name     string
	Type     ast.Type
	Kind     ValueKind
	Constant interface{}
}

type ValueKind int

const (
	ValueVariable  ValueKind = iota // Regular variable
	ValueTemporary                  // Compiler-generated temporary
	ValueConstant                   // Compile-time constant
	ValueParameter                  // Function parameter
	ValueGlobal                     // Module-level global
)

func (v *Value) String() string {
	switch v.Kind {
	case ValueConstant:
		return fmt.Sprintf("const(%v)", v.Constant)
	case ValueParameter:
		if v.Name != "" {
			return fmt.Sprintf("param(%s.%d)", v.Name, v.ID)
		}
		return fmt.Sprintf("param(%d)", v.ID)
	case ValueTemporary:
		return fmt.Sprintf("t%d", v.ID)
	case ValueGlobal:
		return fmt.Sprintf("@%s", v.Name)
	default:
		if v.Name != "" {
			return fmt.Sprintf("%s.%d", v.Name, v.ID)
		}
		return fmt.Sprintf("v%d", v.ID)
	}
}

func (v *Value) IsConstant() bool { return v.Kind == ValueConstant }

// Instruction represents a single IR instruction.
type Instruction interface {
	String() string
	Operands() []*Value
	Result() *Value
}

type BinaryOp struct {
	Op    BinaryOperator
	Dest  *Value
	Left  *Value
	Right *Value
}

func (b *BinaryOp) String() string      { return fmt.Sprintf("%s = %s %s %s", b.Dest, b.Left, b.Op, b.Right) }
func (b *BinaryOp) Operands() []*Value  { return []*Value{b.Left, b.Right} }
func (b *BinaryOp) Result() *Value      { return b.Dest }

type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

func (op BinaryOperator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	default:
		return "?"
	}
}

type UnaryOp struct {
	Op      UnaryOperator
	Dest    *Value
	Operand *Value
}

func (u *UnaryOp) String() string     { return fmt.Sprintf("%s = %s%s", u.Dest, u.Op, u.Operand) }
func (u *UnaryOp) Operands() []*Value { return []*Value{u.Operand} }
func (u *UnaryOp) Result() *Value     { return u.Dest }

type UnaryOperator int

const (
	OpNeg UnaryOperator = iota
	OpNot
	OpBitNot
)

func (op UnaryOperator) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	case OpBitNot:
		return "~"
	default:
		return "?"
	}
}

// Copy: result = value
type Copy struct {
	Dest  *Value
	Value *Value
}

func (c *Copy) String() string     { return fmt.Sprintf("%s = %s", c.Dest, c.Value) }
func (c *Copy) Operands() []*Value { return []*Value{c.Value} }
func (c *Copy) Result() *Value     { return c.Dest }

// Load: result = *address
type Load struct {
	Dest    *Value
	Address *Value
}

func (l *Load) String() string     { return fmt.Sprintf("%s = load %s", l.Dest, l.Address) }
func (l *Load) Operands() []*Value { return []*Value{l.Address} }
func (l *Load) Result() *Value     { return l.Dest }

// Store: *address = value
type Store struct {
	Address *Value
	Value   *Value
}

func (s *Store) String() string     { return fmt.Sprintf("store %s, %s", s.Value, s.Address) }
func (s *Store) Operands() []*Value { return []*Value{s.Address, s.Value} }
func (s *Store) Result() *Value     { return nil }

// GetElementPtr: result = &base[index]
type GetElementPtr struct {
	Dest  *Value
	Base  *Value
	Index *Value
}

func (g *GetElementPtr) String() string     { return fmt.Sprintf("%s = &%s[%s]", g.Dest, g.Base, g.Index) }
func (g *GetElementPtr) Operands() []*Value { return []*Value{g.Base, g.Index} }
func (g *GetElementPtr) Result() *Value     { return g.Dest }

// GetFieldPtr: result = &base.field
type GetFieldPtr struct {
	Dest       *Value
	Base       *Value
	FieldName  string
	FieldIndex int
}

func (g *GetFieldPtr) String() string     { return fmt.Sprintf("%s = &%s.%s", g.Dest, g.Base, g.FieldName) }
func (g *GetFieldPtr) Operands() []*Value { return []*Value{g.Base} }
func (g *GetFieldPtr) Result() *Value     { return g.Dest }

// Jump unconditionally to a basic block.
type Jump struct{ Target *BasicBlock }

func (j *Jump) String() string     { return fmt.Sprintf("jump %s", j.Target.Label) }
func (j *Jump) Operands() []*Value { return nil }
func (j *Jump) Result() *Value     { return nil }

// Branch: if condition then trueBlock else falseBlock
type Branch struct {
	Condition  *Value
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock
}

func (b *Branch) String() string {
	return fmt.Sprintf("branch %s, %s, %s", b.Condition, b.TrueBlock.Label, b.FalseBlock.Label)
}
func (b *Branch) Operands() []*Value { return []*Value{b.Condition} }
func (b *Branch) Result() *Value     { return nil }

// Call: result = call function(args...)
type Call struct {
	Dest     *Value
	Function *Value
	Args     []*Value
}

func (c *Call) String() string {
	if c.Dest != nil {
		return fmt.Sprintf("%s = call %s(%v)", c.Dest, c.Function, c.Args)
	}
	return fmt.Sprintf("call %s(%v)", c.Function, c.Args)
}
func (c *Call) Operands() []*Value {
	operands := make([]*Value, 0, len(c.Args)+1)
	operands = append(operands, c.Function)
	operands = append(operands, c.Args...)
	return operands
}
func (c *Call) Result() *Value { return c.Dest }

// Return from function. Value is nil for void returns and for aggregate
// returns (those are written through Function.SRet before the Return).
type Return struct{ Value *Value }

func (r *Return) String() string {
	if r.Value != nil {
		return fmt.Sprintf("return %s", r.Value)
	}
	return "return"
}
func (r *Return) Operands() []*Value {
	if r.Value != nil {
		return []*Value{r.Value}
	}
	return nil
}
func (r *Return) Result() *Value { return nil }

// Phi node for SSA form: result = phi [value1, block1], [value2, block2], ...
type Phi struct {
	Dest     *Value
	Incoming []PhiIncoming
}

type PhiIncoming struct {
	Value *Value
	Block *BasicBlock
}

func (p *Phi) String() string { return fmt.Sprintf("%s = phi %v", p.Dest, p.Incoming) }
func (p *Phi) Operands() []*Value {
	operands := make([]*Value, len(p.Incoming))
	for i, inc := range p.Incoming {
		operands[i] = inc.Value
	}
	return operands
}
func (p *Phi) Result() *Value { return p.Dest }

// Alloca allocates stack space: result = alloca type
type Alloca struct {
	Dest *Value
	Type ast.Type
}

func (a *Alloca) String() string     { return fmt.Sprintf("%s = alloca %s", a.Dest, a.Type) }
func (a *Alloca) Operands() []*Value { return nil }
func (a *Alloca) Result() *Value     { return a.Dest }

// MakeClosure builds the fat pointer pair {code, env} a capturing lambda
// lowers to (§9's "capturing lambda" extension; original_source/ast/values/
// LambdaFunction.cpp's capture list, generalized to two words instead of a
// heap-boxed capture struct pointer plus vtable).
type MakeClosure struct {
	Dest     *Value
	FuncName string
	Env      *Value // pointer to the captured-variable struct, or nil
}

func (m *MakeClosure) String() string {
	return fmt.Sprintf("%s = closure %s, %s", m.Dest, m.FuncName, m.Env)
}
func (m *MakeClosure) Operands() []*Value {
	if m.Env != nil {
		return []*Value{m.Env}
	}
	return nil
}
func (m *MakeClosure) Result() *Value { return m.Dest }
