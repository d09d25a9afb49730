package ast

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the closed set of type variants §3 requires, extending
// the teacher's types.TypeKind with pointers, arrays-of-generics, functions,
// referenced/generic named types, and anonymous struct/union types absent
// from the teacher's zero-dependency type system.
type TypeKind int

const (
	KindInvalid TypeKind = iota
	KindAny
	KindVoid
	KindBool
	KindChar
	KindIntN
	KindFloat
	KindDouble
	KindString
	KindPointer
	KindArray
	KindFunction
	KindReferenced
	KindGeneric
	KindStruct
	KindUnion
	KindLiteral
)

// --- primitive / builtin types -------------------------------------------------

type AnyType struct{}

func (*AnyType) Kind() TypeKind               { return KindAny }
func (*AnyType) String() string               { return "any" }
func (*AnyType) IsSame(o Type) bool            { _, ok := o.(*AnyType); return ok }
func (*AnyType) ByteSize(is64 bool) int        { return 0 }
func (*AnyType) LinkedNode() NodeRef           { return NoNode }
func (t *AnyType) Accept(v Visitor)            { v.VisitAnyType(t) }
func (*AnyType) typeMarker()                   {}

type VoidType struct{}

func (*VoidType) Kind() TypeKind        { return KindVoid }
func (*VoidType) String() string        { return "void" }
func (*VoidType) IsSame(o Type) bool     { _, ok := o.(*VoidType); return ok }
func (*VoidType) ByteSize(is64 bool) int { return 0 }
func (*VoidType) LinkedNode() NodeRef    { return NoNode }
func (t *VoidType) Accept(v Visitor)     { v.VisitVoidType(t) }
func (*VoidType) typeMarker()            {}

type BoolType struct{}

func (*BoolType) Kind() TypeKind        { return KindBool }
func (*BoolType) String() string        { return "bool" }
func (*BoolType) IsSame(o Type) bool    { _, ok := o.(*BoolType); return ok }
func (*BoolType) ByteSize(is64 bool) int { return 1 }
func (*BoolType) LinkedNode() NodeRef   { return NoNode }
func (t *BoolType) Accept(v Visitor)    { v.VisitBoolType(t) }
func (*BoolType) typeMarker()           {}

type CharType struct{}

func (*CharType) Kind() TypeKind        { return KindChar }
func (*CharType) String() string        { return "char" }
func (*CharType) IsSame(o Type) bool    { _, ok := o.(*CharType); return ok }
func (*CharType) ByteSize(is64 bool) int { return 1 }
func (*CharType) LinkedNode() NodeRef   { return NoNode }
func (t *CharType) Accept(v Visitor)    { v.VisitCharType(t) }
func (*CharType) typeMarker()           {}

// IntNType is a sized, signed-or-unsigned integer type (int8..int64, uintN).
type IntNType struct {
	Width  int
	Signed bool
}

func (t *IntNType) Kind() TypeKind { return KindIntN }
func (t *IntNType) String() string {
	prefix := "int"
	if !t.Signed {
		prefix = "uint"
	}
	if t.Width == 0 {
		return prefix
	}
	return fmt.Sprintf("%s%d", prefix, t.Width)
}
func (t *IntNType) IsSame(o Type) bool {
	ot, ok := o.(*IntNType)
	return ok && ot.Width == t.Width && ot.Signed == t.Signed
}
func (t *IntNType) ByteSize(is64 bool) int {
	if t.Width == 0 {
		if is64 {
			return 8
		}
		return 4
	}
	return t.Width / 8
}
func (t *IntNType) LinkedNode() NodeRef { return NoNode }
func (t *IntNType) Accept(v Visitor)    { v.VisitIntNType(t) }
func (t *IntNType) typeMarker()         {}

type FloatType struct{}

func (*FloatType) Kind() TypeKind        { return KindFloat }
func (*FloatType) String() string        { return "float" }
func (*FloatType) IsSame(o Type) bool    { _, ok := o.(*FloatType); return ok }
func (*FloatType) ByteSize(is64 bool) int { return 4 }
func (*FloatType) LinkedNode() NodeRef   { return NoNode }
func (t *FloatType) Accept(v Visitor)    { v.VisitFloatType(t) }
func (*FloatType) typeMarker()           {}

type DoubleType struct{}

func (*DoubleType) Kind() TypeKind        { return KindDouble }
func (*DoubleType) String() string        { return "double" }
func (*DoubleType) IsSame(o Type) bool    { _, ok := o.(*DoubleType); return ok }
func (*DoubleType) ByteSize(is64 bool) int { return 8 }
func (*DoubleType) LinkedNode() NodeRef   { return NoNode }
func (t *DoubleType) Accept(v Visitor)    { v.VisitDoubleType(t) }
func (*DoubleType) typeMarker()           {}

type StringType struct{}

func (*StringType) Kind() TypeKind        { return KindString }
func (*StringType) String() string        { return "string" }
func (*StringType) IsSame(o Type) bool    { _, ok := o.(*StringType); return ok }
func (*StringType) ByteSize(is64 bool) int {
	if is64 {
		return 8
	}
	return 4
}
func (*StringType) LinkedNode() NodeRef { return NoNode }
func (t *StringType) Accept(v Visitor)  { v.VisitStringType(t) }
func (*StringType) typeMarker()         {}

// --- composite types ------------------------------------------------------

type PointerType struct {
	Pointee Type
}

func (t *PointerType) Kind() TypeKind { return KindPointer }
func (t *PointerType) String() string { return "*" + t.Pointee.String() }
func (t *PointerType) IsSame(o Type) bool {
	ot, ok := o.(*PointerType)
	return ok && t.Pointee.IsSame(ot.Pointee)
}
func (t *PointerType) ByteSize(is64 bool) int {
	if is64 {
		return 8
	}
	return 4
}
func (t *PointerType) LinkedNode() NodeRef { return NoNode }
func (t *PointerType) Accept(v Visitor)    { v.VisitPointerType(t) }
func (t *PointerType) typeMarker()         {}

// ArrayType represents [N]T or []T (UnknownSize == true for the latter).
type ArrayType struct {
	Element     Type
	Size        int
	UnknownSize bool
}

func (t *ArrayType) Kind() TypeKind { return KindArray }
func (t *ArrayType) String() string {
	if t.UnknownSize {
		return "[]" + t.Element.String()
	}
	return fmt.Sprintf("[%d]%s", t.Size, t.Element.String())
}
func (t *ArrayType) IsSame(o Type) bool {
	ot, ok := o.(*ArrayType)
	return ok && t.Size == ot.Size && t.UnknownSize == ot.UnknownSize && t.Element.IsSame(ot.Element)
}
func (t *ArrayType) ByteSize(is64 bool) int {
	if t.UnknownSize {
		if is64 {
			return 16
		}
		return 8
	}
	return t.Size * t.Element.ByteSize(is64)
}
func (t *ArrayType) LinkedNode() NodeRef { return NoNode }
func (t *ArrayType) Accept(v Visitor)    { v.VisitArrayType(t) }
func (t *ArrayType) typeMarker()         {}

// FunctionType is structurally typed (§9 of the distilled spec: function
// types compare by signature, not by name).
type FunctionType struct {
	Params     []Type
	Return     Type
	Variadic   bool
	Capturing  bool
}

func (t *FunctionType) Kind() TypeKind { return KindFunction }
func (t *FunctionType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("func(%s) %s", strings.Join(parts, ", "), t.Return.String())
}
func (t *FunctionType) IsSame(o Type) bool {
	ot, ok := o.(*FunctionType)
	if !ok || len(t.Params) != len(ot.Params) || t.Variadic != ot.Variadic {
		return false
	}
	if !t.Return.IsSame(ot.Return) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].IsSame(ot.Params[i]) {
			return false
		}
	}
	return true
}
func (t *FunctionType) ByteSize(is64 bool) int {
	if t.Capturing {
		if is64 {
			return 16 // fat pointer {code, env}
		}
		return 8
	}
	if is64 {
		return 8
	}
	return 4
}
func (t *FunctionType) LinkedNode() NodeRef { return NoNode }
func (t *FunctionType) Accept(v Visitor)    { v.VisitFunctionType(t) }
func (t *FunctionType) typeMarker()         {}

// ReferencedType names a declaration by identifier; Linked is non-owning and
// is NoNode until resolution populates it (invariant 1, §3).
type ReferencedType struct {
	Name   string
	Linked NodeRef
}

func (t *ReferencedType) Kind() TypeKind      { return KindReferenced }
func (t *ReferencedType) String() string      { return t.Name }
func (t *ReferencedType) IsSame(o Type) bool {
	ot, ok := o.(*ReferencedType)
	return ok && ot.Name == t.Name
}
func (t *ReferencedType) ByteSize(is64 bool) int { return 0 } // resolved via linked declaration
func (t *ReferencedType) LinkedNode() NodeRef    { return t.Linked }
func (t *ReferencedType) Accept(v Visitor)       { v.VisitReferencedType(t) }
func (t *ReferencedType) typeMarker()            {}

// GenericType is a named type used with concrete type arguments, e.g.
// Vec<int>. Iteration is filled in by the resolver's RegisterGenericUsage.
type GenericType struct {
	Base      *ReferencedType
	Args      []Type
	Iteration int
}

func (t *GenericType) Kind() TypeKind { return KindGeneric }
func (t *GenericType) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Base.Name, strings.Join(parts, ", "))
}
func (t *GenericType) IsSame(o Type) bool {
	ot, ok := o.(*GenericType)
	if !ok || t.Base.Name != ot.Base.Name || len(t.Args) != len(ot.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].IsSame(ot.Args[i]) {
			return false
		}
	}
	return true
}
func (t *GenericType) ByteSize(is64 bool) int { return 0 } // resolved via the active iteration
func (t *GenericType) LinkedNode() NodeRef    { return t.Base.Linked }
func (t *GenericType) Accept(v Visitor)       { v.VisitGenericType(t) }
func (t *GenericType) typeMarker()            {}

// StructField is a field name/type pair (order-preserving, for layout).
type StructField struct {
	Name string
	Type Type
}

// StructType is nominally typed when Name != "" (anonymous structs compare
// structurally), matching the teacher's types.StructType design.
type StructType struct {
	Name   string
	Fields []StructField
	Linked NodeRef
}

func (t *StructType) Kind() TypeKind { return KindStruct }
func (t *StructType) String() string {
	if t.Name != "" {
		return "struct " + t.Name
	}
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.Name + " " + f.Type.String()
	}
	return "struct {" + strings.Join(parts, "; ") + "}"
}
func (t *StructType) IsSame(o Type) bool {
	ot, ok := o.(*StructType)
	if !ok {
		return false
	}
	if t.Name != "" && ot.Name != "" {
		return t.Name == ot.Name
	}
	if len(t.Fields) != len(ot.Fields) {
		return false
	}
	for i, f := range t.Fields {
		if f.Name != ot.Fields[i].Name || !f.Type.IsSame(ot.Fields[i].Type) {
			return false
		}
	}
	return true
}
func (t *StructType) ByteSize(is64 bool) int {
	size := 0
	for _, f := range t.Fields {
		size += f.Type.ByteSize(is64)
	}
	return size
}
func (t *StructType) LinkedNode() NodeRef { return t.Linked }
func (t *StructType) Accept(v Visitor)    { v.VisitStructType(t) }
func (t *StructType) typeMarker()         {}

func (t *StructType) LookupField(name string) *StructField {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// UnionType: fields overlap in storage; byte size is the max member size
// (grounded on original_source/ast/structures/UnionDef.cpp, S10).
type UnionType struct {
	Name   string
	Fields []StructField
	Linked NodeRef
}

func (t *UnionType) Kind() TypeKind { return KindUnion }
func (t *UnionType) String() string {
	if t.Name != "" {
		return "union " + t.Name
	}
	return "union {...}"
}
func (t *UnionType) IsSame(o Type) bool {
	ot, ok := o.(*UnionType)
	return ok && t.Name == ot.Name
}
func (t *UnionType) ByteSize(is64 bool) int {
	max := 0
	for _, f := range t.Fields {
		if sz := f.Type.ByteSize(is64); sz > max {
			max = sz
		}
	}
	return max
}
func (t *UnionType) LinkedNode() NodeRef { return t.Linked }
func (t *UnionType) Accept(v Visitor)    { v.VisitUnionType(t) }
func (t *UnionType) typeMarker()         {}

// LiteralType wraps a type coming directly from a literal value (used before
// widening/coercion decisions during conversion).
type LiteralType struct {
	Underlying Type
}

func (t *LiteralType) Kind() TypeKind           { return KindLiteral }
func (t *LiteralType) String() string           { return t.Underlying.String() }
func (t *LiteralType) IsSame(o Type) bool       { return t.Underlying.IsSame(o) }
func (t *LiteralType) ByteSize(is64 bool) int    { return t.Underlying.ByteSize(is64) }
func (t *LiteralType) LinkedNode() NodeRef      { return NoNode }
func (t *LiteralType) Accept(v Visitor)         { v.VisitLiteralType(t) }
func (t *LiteralType) typeMarker()              {}

// Singletons, mirroring the teacher's predefined type instances.
var (
	Any    = &AnyType{}
	Void   = &VoidType{}
	Bool   = &BoolType{}
	Char   = &CharType{}
	Int    = &IntNType{Width: 0, Signed: true}
	Float  = &FloatType{}
	Double = &DoubleType{}
	String = &StringType{}
)

func IsNumeric(t Type) bool {
	switch t.(type) {
	case *IntNType, *FloatType, *DoubleType:
		return true
	}
	return false
}

func RequiresDestruction(t Type) bool {
	st, ok := t.(*StructType)
	if !ok {
		return false
	}
	for _, f := range st.Fields {
		if RequiresDestruction(f.Type) {
			return true
		}
	}
	return false
}
