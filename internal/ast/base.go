package ast

import "github.com/hassan/chemc/internal/source"

// Node is the sum type for statements and declarations (§3). Every Node
// implements the position/parent/visitor methods below; the Node interface
// has no accessor for a wrapped Value (ExprStmt, VarInit and the like expose
// theirs as fields).
type Node interface {
	Pos() source.Position
	End() source.Position
	Parent() NodeRef
	SetParent(NodeRef)
	Accept(v Visitor)
	nodeMarker()
}

// Value is the sum type for expressions (§3).
type Value interface {
	Pos() source.Position
	End() source.Position
	LinkedNode() NodeRef
	Primitive() bool
	Accept(v Visitor)
	valueMarker()
}

// Type is the sum type for types (§3).
type Type interface {
	Kind() TypeKind
	String() string
	IsSame(other Type) bool
	ByteSize(is64Bit bool) int
	LinkedNode() NodeRef
	Accept(v Visitor)
	typeMarker()
}

// BaseNode factors the position/parent bookkeeping shared by every concrete
// Node, matching the teacher's BaseNode embedding pattern generalized to
// arena-relative parent references.
type BaseNode struct {
	Position source.Position
	EndPos   source.Position
	ParentRef NodeRef
}

func (b *BaseNode) Pos() source.Position  { return b.Position }
func (b *BaseNode) End() source.Position  { return b.EndPos }
func (b *BaseNode) Parent() NodeRef       { return b.ParentRef }
func (b *BaseNode) SetParent(p NodeRef)   { b.ParentRef = p }
func (b *BaseNode) nodeMarker()           {}

// BaseValue factors position/linked-node bookkeeping shared by every
// concrete Value.
type BaseValue struct {
	Position source.Position
	EndPos   source.Position
	Linked   NodeRef
}

func (b *BaseValue) Pos() source.Position { return b.Position }
func (b *BaseValue) End() source.Position { return b.EndPos }
func (b *BaseValue) LinkedNode() NodeRef  { return b.Linked }
func (b *BaseValue) Primitive() bool      { return false }
func (b *BaseValue) valueMarker()         {}
