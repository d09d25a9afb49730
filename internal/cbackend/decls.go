package cbackend

import (
	"fmt"

	"github.com/hassan/chemc/internal/ast"
)

// writeTypeDecls emits a "struct Name { ... };" / "union Name { ... };" /
// "enum Name { ... };" for every struct/union/enum declaration reachable
// from decls, descending into namespaces the way resolver.collectStructs
// does. Interfaces and typealiases carry no storage of their own in C, and
// no interface dispatch (vtable or otherwise) is emitted.
func (e *Emitter) writeTypeDecls(decls []ast.Node) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.Struct:
			e.writeStructDecl(n)
		case *ast.Union:
			e.writeUnionDecl(n)
		case *ast.Enum:
			e.writeEnumDecl(n)
		case *ast.Namespace:
			e.writeTypeDecls(n.Decls)
		}
	}
}

func (e *Emitter) writeStructDecl(s *ast.Struct) {
	fmt.Fprintf(&e.sb, "struct %s {\n", cName(s.Name))
	for _, f := range s.Fields {
		fmt.Fprintf(&e.sb, "  %s;\n", e.declareVar(cName(f.Name), f.Type))
	}
	e.sb.WriteString("};\n\n")
}

func (e *Emitter) writeUnionDecl(u *ast.Union) {
	fmt.Fprintf(&e.sb, "union %s {\n", cName(u.Name))
	for _, f := range u.Fields {
		fmt.Fprintf(&e.sb, "  %s;\n", e.declareVar(cName(f.Name), f.Type))
	}
	e.sb.WriteString("};\n\n")
}

// writeEnumDecl emits a plain C enum — EnumMember.Value (when set) carries
// an explicit discriminant the way `enum Color { Red = 1, Green, Blue }`
// does; NoValue leaves a member to C's own previous-plus-one default, which
// matches §4.7's "NoValue when implicit (previous + 1)" exactly.
func (e *Emitter) writeEnumDecl(en *ast.Enum) {
	fmt.Fprintf(&e.sb, "enum %s {\n", cName(en.Name))
	for _, m := range en.Members {
		if m.Value == ast.NoValue {
			fmt.Fprintf(&e.sb, "  %s,\n", cName(m.Name))
			continue
		}
		lit := e.arena.Value(m.Value)
		fmt.Fprintf(&e.sb, "  %s = %s,\n", cName(m.Name), e.constLiteral(lit))
	}
	e.sb.WriteString("};\n\n")
}

// constLiteral renders a compile-time-constant ast.Value (an enum member's
// explicit discriminant) directly as a C literal — these are always
// IntLiteral per the grammar, but fall back to 0 defensively rather than
// panicking on a malformed AST.
func (e *Emitter) constLiteral(v ast.Value) string {
	if lit, ok := v.(*ast.IntLiteral); ok {
		return fmt.Sprintf("%d", lit.Value)
	}
	return "0"
}
