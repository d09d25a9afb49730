// Package cst builds the immutable concrete syntax tree from a lexer token
// stream. The CST is lossless: every byte of the source is covered by
// exactly one leaf token (§8 property 2), and compound nodes are view-like —
// iterating their children yields the original token order.
package cst

import (
	"github.com/hassan/chemc/internal/lexer"
	"github.com/hassan/chemc/internal/source"
)

// Kind is a closed set of CST node kinds, mirroring AST concepts so the
// converter's dispatch (internal/astconv) is a near-direct mapping.
type Kind int

const (
	KindLeaf Kind = iota
	KindFile
	KindImportDecl
	KindFuncDecl
	KindVarDecl
	KindStructDecl
	KindUnionDecl
	KindInterfaceDecl
	KindImplDecl
	KindEnumDecl
	KindNamespaceDecl
	KindTypealiasDecl
	KindExtensionDecl
	KindBlockStmt
	KindIfStmt
	KindWhileStmt
	KindForStmt
	KindSwitchStmt
	KindReturnStmt
	KindParenExpr
	KindCallExpr
	KindIndexExpr
	KindAccessChain
	KindArrayLiteral
	KindStructLiteral
	KindLambda
	KindTypeRef
	KindParamList
	KindAnnotationGroup
)

var kindNames = [...]string{
	KindLeaf:            "Leaf",
	KindFile:            "File",
	KindImportDecl:      "ImportDecl",
	KindFuncDecl:        "FuncDecl",
	KindVarDecl:         "VarDecl",
	KindStructDecl:      "StructDecl",
	KindUnionDecl:       "UnionDecl",
	KindInterfaceDecl:   "InterfaceDecl",
	KindImplDecl:        "ImplDecl",
	KindEnumDecl:        "EnumDecl",
	KindNamespaceDecl:   "NamespaceDecl",
	KindTypealiasDecl:   "TypealiasDecl",
	KindExtensionDecl:   "ExtensionDecl",
	KindBlockStmt:       "BlockStmt",
	KindIfStmt:          "IfStmt",
	KindWhileStmt:       "WhileStmt",
	KindForStmt:         "ForStmt",
	KindSwitchStmt:      "SwitchStmt",
	KindReturnStmt:      "ReturnStmt",
	KindParenExpr:       "ParenExpr",
	KindCallExpr:        "CallExpr",
	KindIndexExpr:       "IndexExpr",
	KindAccessChain:     "AccessChain",
	KindArrayLiteral:    "ArrayLiteral",
	KindStructLiteral:   "StructLiteral",
	KindLambda:          "Lambda",
	KindTypeRef:         "TypeRef",
	KindParamList:       "ParamList",
	KindAnnotationGroup: "AnnotationGroup",
}

// String renders a Kind's name, used by --print-cst and test failure
// messages rather than a bare integer.
func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Node is either a leaf wrapping a single token, or a compound with an
// ordered list of children. A visitor protocol (see Visitor) lets a consumer
// dispatch on Kind in its single Visit method and recurse with WalkChildren,
// adapting the teacher's ast.Visitor design to the lossless layer below the
// AST.
type Node struct {
	Kind     Kind
	Token    lexer.Token // only meaningful when Kind == KindLeaf
	Children []*Node
	Start    source.Position
	End      source.Position
}

func Leaf(tok lexer.Token) *Node {
	return &Node{Kind: KindLeaf, Token: tok, Start: tok.Pos, End: tok.EndPos}
}

func Compound(kind Kind, children ...*Node) *Node {
	n := &Node{Kind: kind, Children: children}
	if len(children) > 0 {
		n.Start = children[0].Start
		n.End = children[len(children)-1].End
	}
	return n
}

// Tokens yields the original token order by walking leaves depth-first,
// witnessing the lossless/view-like invariant described in the package doc.
func (n *Node) Tokens() []lexer.Token {
	var out []lexer.Token
	n.walkLeaves(&out)
	return out
}

func (n *Node) walkLeaves(out *[]lexer.Token) {
	if n.Kind == KindLeaf {
		*out = append(*out, n.Token)
		return
	}
	for _, c := range n.Children {
		c.walkLeaves(out)
	}
}

// Visitor has one method, Visit, which receives every node and dispatches on
// its Kind itself.
type Visitor interface {
	Visit(n *Node)
}

// Walk visits n only; it does not descend. CST consumers implement Visitor
// and call WalkChildren from their Visit method to recurse further.
func Walk(n *Node, v Visitor) {
	v.Visit(n)
}

// WalkChildren recurses into every child — the "default visitor method
// recurses" behavior §4.3 requires.
func WalkChildren(n *Node, v Visitor) {
	for _, c := range n.Children {
		Walk(c, v)
	}
}
