package ast

// File is the root Node of one compilation unit, generalizing the teacher's
// ast.File (PackageDecl/Imports/Decls/Comments) with an Arena and import-path
// identifier.
type File struct {
	BaseNode
	Path    string
	Imports []*Import
	Decls   []Node
	Arena   *Arena
}

func (n *File) Accept(v Visitor) { v.VisitFile(n) }

// Import names a dependency; AsIdentifier is the local alias it's bound to.
type Import struct {
	BaseNode
	Path         string
	AsIdentifier string
}

func (n *Import) Accept(v Visitor) { v.VisitImport(n) }

// VarInit is `var`/`val`/`const` local or global declaration. This unions
// the fields needed by both divergent original_source copies of VarInit.h
// per SPEC_FULL.md §9 (the richer copy is the one kept).
type VarInit struct {
	BaseNode
	Name        string
	DeclaredType Type
	Initializer ValueRef
	IsConst     bool
	IsGlobal    bool
}

func (n *VarInit) Accept(v Visitor) { v.VisitVarInit(n) }

type Assign struct {
	BaseNode
	Target ValueRef
	Op     string // "=", "+=", ...
	Value  ValueRef
}

func (n *Assign) Accept(v Visitor) { v.VisitAssign(n) }

// ExprStmt wraps a Value evaluated for its side effect alone, e.g. a bare
// call or access chain used as a statement.
type ExprStmt struct {
	BaseNode
	Value ValueRef
}

func (n *ExprStmt) Accept(v Visitor) { v.VisitExprStmt(n) }

type If struct {
	BaseNode
	Cond      ValueRef
	Then      *Scope
	ElseIfs   []ElseIf
	Else      *Scope
}

type ElseIf struct {
	Cond ValueRef
	Body *Scope
}

func (n *If) Accept(v Visitor) { v.VisitIf(n) }

type While struct {
	BaseNode
	Cond ValueRef
	Body *Scope
}

func (n *While) Accept(v Visitor) { v.VisitWhile(n) }

type DoWhile struct {
	BaseNode
	Cond ValueRef
	Body *Scope
}

func (n *DoWhile) Accept(v Visitor) { v.VisitDoWhile(n) }

type For struct {
	BaseNode
	Init Node
	Cond ValueRef
	Post Node
	Body *Scope
}

func (n *For) Accept(v Visitor) { v.VisitFor(n) }

type CaseClause struct {
	Values []ValueRef // empty => default
	Body   *Scope
}

type Switch struct {
	BaseNode
	Subject ValueRef
	Cases   []CaseClause
}

func (n *Switch) Accept(v Visitor) { v.VisitSwitch(n) }

type Break struct{ BaseNode }

func (n *Break) Accept(v Visitor) { v.VisitBreak(n) }

type Continue struct{ BaseNode }

func (n *Continue) Accept(v Visitor) { v.VisitContinue(n) }

type Return struct {
	BaseNode
	Value ValueRef // NoValue for bare `return;`
}

func (n *Return) Accept(v Visitor) { v.VisitReturn(n) }

type Throw struct {
	BaseNode
	Value ValueRef
}

func (n *Throw) Accept(v Visitor) { v.VisitThrow(n) }

type Typealias struct {
	BaseNode
	Name string
	Type Type
}

func (n *Typealias) Accept(v Visitor) { v.VisitTypealias(n) }

type Param struct {
	Name string
	Type Type
}

// Function unions the fields needed by both divergent original_source
// copies of FunctionDecl.{cpp,h} (§9): annotations, generic iterations, and
// back-end metadata (RequiresDestructor, IsCapturingLambda) all live here.
type Function struct {
	BaseNode
	Name              string
	Params            []Param
	ReturnType        Type
	Body              *Scope // nil for declarations without a body
	Annotations       []string
	GenericParams     []string
	Iterations        []GenericIteration
	ActiveIteration   int // -1 == "not set — access is a bug"
	IsCompileTime     bool
	IsExtension       bool
	ReceiverType      Type // set when IsExtension
	IsCapturingLambda bool
	Captures          []string
	RequiresDestructor bool
}

// GenericIteration is one monomorphic specialisation of a generic
// declaration: a snapshot of concrete type arguments, appended — never
// reordered — as §4.5 requires.
type GenericIteration struct {
	Args []Type
}

func (n *Function) Accept(v Visitor) { v.VisitFunction(n) }

// ActiveIterationIndex and SetActiveIterationIndex implement
// generics.IterationHolder.
func (n *Function) ActiveIterationIndex() int     { return n.ActiveIteration }
func (n *Function) SetActiveIterationIndex(i int) { n.ActiveIteration = i }

// ExtensionFunction is a free function whose receiver type is looked up to
// attach the function as if it were a member (grounded on
// original_source/ast/structures/ExtensionFunction.cpp).
type ExtensionFunction struct {
	BaseNode
	Receiver Type
	Fn       *Function
}

func (n *ExtensionFunction) Accept(v Visitor) { v.VisitExtensionFunction(n) }

// MultiFunctionNode stands in for a set of overloaded functions sharing one
// name in one scope (invariant 5, §3); resolution, not declaration order,
// decides which overload a call links to.
type MultiFunctionNode struct {
	BaseNode
	Name      string
	Functions []*Function
}

func (n *MultiFunctionNode) Accept(v Visitor) { v.VisitMultiFunctionNode(n) }

type Field struct {
	Name        string
	Type        Type
	Annotations []string
}

type Struct struct {
	BaseNode
	Name            string
	Fields          []Field
	Functions       []*Function // includes a synthesised destructor when required
	GenericParams   []string
	Iterations      []GenericIteration
	ActiveIteration int
	Implements      []string // interface names
}

func (n *Struct) Accept(v Visitor) { v.VisitStruct(n) }

// ActiveIterationIndex and SetActiveIterationIndex implement
// generics.IterationHolder.
func (n *Struct) ActiveIterationIndex() int     { return n.ActiveIteration }
func (n *Struct) SetActiveIterationIndex(i int) { n.ActiveIteration = i }

// Union — grounded on original_source/ast/structures/UnionDef.cpp and
// UnnamedUnion.h (S10).
type Union struct {
	BaseNode
	Name   string
	Fields []Field
}

func (n *Union) Accept(v Visitor) { v.VisitUnion(n) }

type InterfaceMethod struct {
	Name       string
	Params     []Param
	ReturnType Type
}

type Interface struct {
	BaseNode
	Name    string
	Methods []InterfaceMethod
}

func (n *Interface) Accept(v Visitor) { v.VisitInterface(n) }

// Impl binds a Struct to an Interface (S8), grounded on
// original_source/ast/structures/ImplDefinition.{h,cpp}.
type Impl struct {
	BaseNode
	InterfaceName string
	StructName    string
	Functions     []*Function
}

func (n *Impl) Accept(v Visitor) { v.VisitImpl(n) }

type EnumMember struct {
	Name  string
	Value ValueRef // NoValue when implicit (previous + 1)
}

type Enum struct {
	BaseNode
	Name    string
	Members []EnumMember
}

func (n *Enum) Accept(v Visitor) { v.VisitEnum(n) }

// Namespace merges across files by name (S11), grounded on
// original_source/ast/structures/Namespace.cpp.
type Namespace struct {
	BaseNode
	Name  string
	Decls []Node
}

func (n *Namespace) Accept(v Visitor) { v.VisitNamespace(n) }

// Scope is an owned sequence of Nodes — a Scope exclusively owns its Nodes
// (§3 ownership rules).
type Scope struct {
	BaseNode
	Nodes []NodeRef
}

func (n *Scope) Accept(v Visitor) { v.VisitScope(n) }

type Delete struct {
	BaseNode
	Target ValueRef
}

func (n *Delete) Accept(v Visitor) { v.VisitDelete(n) }

type Using struct {
	BaseNode
	Path string
}

func (n *Using) Accept(v Visitor) { v.VisitUsing(n) }
