package ast

// Concrete Value variants — the expression half of the sum type (§3),
// grounded on the teacher's internal/parser/ast/expr.go literal/identifier
// shapes, extended per original_source/ast/values/** for pointer, sizeof,
// lambda, and aggregate-literal values the teacher never had.

type BoolLiteral struct {
	BaseValue
	IsConst bool
}

func (v *BoolLiteral) Primitive() bool     { return true }
func (v *BoolLiteral) Accept(vi Visitor)   { vi.VisitBoolLiteral(v) }

type CharLiteral struct {
	BaseValue
	Value byte
}

func (v *CharLiteral) Primitive() bool   { return true }
func (v *CharLiteral) Accept(vi Visitor) { vi.VisitCharLiteral(v) }

// IntLiteral — grounded on original_source/ast/values/{IntValue.h,BigIntValue.h,
// UIntValue.h,ULongValue.h}: one literal node carries its width/signedness
// rather than one Go struct per original integer-literal subclass.
type IntLiteral struct {
	BaseValue
	Text     string // original lexeme, for values.BigIntValue-sized literals
	Value    int64
	Unsigned bool
	Width    int // 0 == platform int
}

func (v *IntLiteral) Primitive() bool   { return true }
func (v *IntLiteral) Accept(vi Visitor) { vi.VisitIntLiteral(v) }

type FloatLiteral struct {
	BaseValue
	Value float32
}

func (v *FloatLiteral) Primitive() bool   { return true }
func (v *FloatLiteral) Accept(vi Visitor) { vi.VisitFloatLiteral(v) }

type DoubleLiteral struct {
	BaseValue
	Value float64
}

func (v *DoubleLiteral) Primitive() bool   { return true }
func (v *DoubleLiteral) Accept(vi Visitor) { vi.VisitDoubleLiteral(v) }

type StringLiteral struct {
	BaseValue
	Value string
}

func (v *StringLiteral) Accept(vi Visitor) { vi.VisitStringLiteral(v) }

type NullLiteral struct {
	BaseValue
}

func (v *NullLiteral) Primitive() bool   { return true }
func (v *NullLiteral) Accept(vi Visitor) { vi.VisitNullLiteral(v) }

// VariableIdentifier names a declaration to resolve against; Linked is set
// by the resolver once the name binds (§4.7).
type VariableIdentifier struct {
	BaseValue
	Name string
}

func (v *VariableIdentifier) Accept(vi Visitor) { vi.VisitVariableIdentifier(v) }

// AccessChainSegment is one `.member`, `[index]`, or `(args)` link.
type AccessChainSegment struct {
	Member string   // set for member access
	Index  ValueRef // set for index access, else NoValue
	Call   []ValueRef
	IsCall bool

	// Linked is the *Function a call segment resolved to (a struct method,
	// an Impl method, or an extension function) — set by the resolver's
	// link pass the same way VariableIdentifier.Linked is, so later passes
	// never have to re-derive a callee's signature from the receiver's
	// runtime type name alone. NoNode for a plain member/index segment.
	Linked NodeRef
}

// AccessChain is a flattened `a.b[c].d(e)`-style chain, grounded on
// original_source/lexer/AccessChain.cpp, rather than a right-nested tree,
// so the resolver can walk it left-to-right without recursion.
type AccessChain struct {
	BaseValue
	Base     ValueRef
	Segments []AccessChainSegment
}

func (v *AccessChain) Accept(vi Visitor) { vi.VisitAccessChain(v) }

// Expression is a binary or unary operator expression (the teacher's
// BinaryExpr/UnaryExpr collapsed into one node with an explicit operator
// field, per §9's "collapse into closed sum types" note).
type Expression struct {
	BaseValue
	Left  ValueRef
	Op    string
	Right ValueRef // NoValue for unary operators
}

func (v *Expression) Accept(vi Visitor) { vi.VisitExpression(v) }

// NegativeValue — original_source/ast/values/Negative.{cpp,h}.
type NegativeValue struct {
	BaseValue
	Operand ValueRef
}

func (v *NegativeValue) Accept(vi Visitor) { vi.VisitNegativeValue(v) }

// NotValue — original_source/ast/values/NotValue.cpp.
type NotValue struct {
	BaseValue
	Operand ValueRef
}

func (v *NotValue) Accept(vi Visitor) { vi.VisitNotValue(v) }

// AddrOf — original_source/ast/values/AddrOfValue.h.
type AddrOf struct {
	BaseValue
	Operand ValueRef
}

func (v *AddrOf) Accept(vi Visitor) { vi.VisitAddrOf(v) }

// Dereference — original_source/ast/values/DerferenceValue.cpp.
type Dereference struct {
	BaseValue
	Operand ValueRef
}

func (v *Dereference) Accept(vi Visitor) { vi.VisitDereference(v) }

// Cast is an explicit `cast<T>(v)`/`v as T` conversion.
type Cast struct {
	BaseValue
	Operand  ValueRef
	Target   Type
}

func (v *Cast) Accept(vi Visitor) { vi.VisitCast(v) }

// Sizeof evaluates to a compile-time constant once the type is resolved.
type Sizeof struct {
	BaseValue
	Operand Type
}

func (v *Sizeof) Accept(vi Visitor) { vi.VisitSizeof(v) }

// Lambda is a function value; IsCapturing/Captures drive the fat-pointer
// lowering the C back-end performs (§4.11).
type Lambda struct {
	BaseValue
	Params      []Param
	ReturnType  Type
	Body        *Scope
	IsCapturing bool
	Captures    []string
}

func (v *Lambda) Accept(vi Visitor) { vi.VisitLambda(v) }

// StructValue is a `StructName{field: value, ...}` literal.
type StructValueField struct {
	Name  string
	Value ValueRef
}

type StructValue struct {
	BaseValue
	StructName string
	Fields     []StructValueField
}

func (v *StructValue) Accept(vi Visitor) { vi.VisitStructValue(v) }

// ArrayValue — original_source/ast/values/ArrayValue.h.
type ArrayValue struct {
	BaseValue
	Elements    []ValueRef
	ElementType Type
}

func (v *ArrayValue) Accept(vi Visitor) { vi.VisitArrayValue(v) }

// TernaryValue is `cond ? then : else`.
type TernaryValue struct {
	BaseValue
	Cond ValueRef
	Then ValueRef
	Else ValueRef
}

func (v *TernaryValue) Accept(vi Visitor) { vi.VisitTernaryValue(v) }

// RetStructParamValue stands for the hidden return-struct pointer parameter
// synthesised for aggregate-returning functions (§4.10 ABI lowering); it is
// a Value so IR building can treat "return this aggregate" uniformly with
// any other value-producing expression.
type RetStructParamValue struct {
	BaseValue
	StructType Type
}

func (v *RetStructParamValue) Accept(vi Visitor) { vi.VisitRetStructParamValue(v) }
