package cbackend

import (
	"fmt"
	"strings"

	"github.com/hassan/chemc/internal/ast"
)

// cType renders t as a standalone C type name — everything except array
// types, whose element count has to trail the variable name rather than the
// type (declareVar handles that case).
func (e *Emitter) cType(t ast.Type) string {
	if t == nil {
		return "void"
	}
	switch v := t.(type) {
	case *ast.AnyType:
		return "void*"
	case *ast.VoidType:
		return "void"
	case *ast.BoolType:
		return "bool"
	case *ast.CharType:
		return "char"
	case *ast.IntNType:
		return intNName(v)
	case *ast.FloatType:
		return "float"
	case *ast.DoubleType:
		return "double"
	case *ast.StringType:
		return "const char*"
	case *ast.PointerType:
		// A pointer to an array decays to a pointer to its element type, the
		// same representation GetElementPtr/an Alloca'd array buffer already
		// assume throughout this package — a pointer-to-array double
		// indirection never appears on the wire here.
		if at, ok := v.Pointee.(*ast.ArrayType); ok {
			return e.cType(at.Element) + "*"
		}
		return e.cType(v.Pointee) + "*"
	case *ast.ArrayType:
		return e.cType(v.Element) + "*"
	case *ast.FunctionType:
		if v.Capturing {
			return "chem_closure_t"
		}
		return "void*" // plain function pointer, cast at the call site
	case *ast.ReferencedType:
		return e.referencedTypeName(v)
	case *ast.GenericType:
		return "struct " + cName(v.Base.Name) + genericSuffix(v.Iteration)
	case *ast.StructType:
		if v.Name != "" {
			return "struct " + cName(v.Name)
		}
		return e.anonymousStructType(v.Fields)
	case *ast.UnionType:
		if v.Name != "" {
			return "union " + cName(v.Name)
		}
		return e.anonymousUnionType(v.Fields)
	case *ast.LiteralType:
		return e.cType(v.Underlying)
	default:
		return "void*"
	}
}

func intNName(t *ast.IntNType) string {
	width := t.Width
	if width == 0 {
		width = 32
	}
	if t.Signed {
		return fmt.Sprintf("int%d_t", width)
	}
	return fmt.Sprintf("uint%d_t", width)
}

func genericSuffix(iteration int) string {
	if iteration == 0 {
		return ""
	}
	return fmt.Sprintf("__cgf_%d", iteration)
}

// referencedTypeName resolves a named type to its C spelling by following
// Linked to the declaring node, the way 2cASTVisitor.cpp's struct_name
// resolves a PointerType's linked_node() before deciding "struct "/"union "/
// plain prefixing.
func (e *Emitter) referencedTypeName(t *ast.ReferencedType) string {
	if t.Linked == ast.NoNode {
		return cName(t.Name)
	}
	switch decl := e.arena.Node(t.Linked).(type) {
	case *ast.Struct:
		return "struct " + cName(decl.Name)
	case *ast.Union:
		return "union " + cName(decl.Name)
	case *ast.Enum:
		return "enum " + cName(decl.Name)
	case *ast.Interface:
		return "void" // interfaces carry no storage of their own in C; no dispatch is emitted
	case *ast.Typealias:
		return e.cType(decl.Type)
	default:
		return cName(t.Name)
	}
}

func (e *Emitter) anonymousStructType(fields []ast.StructField) string {
	var sb strings.Builder
	sb.WriteString("struct { ")
	for _, f := range fields {
		sb.WriteString(e.declareVar(f.Name, f.Type))
		sb.WriteString("; ")
	}
	sb.WriteString("}")
	return sb.String()
}

func (e *Emitter) anonymousUnionType(fields []ast.StructField) string {
	var sb strings.Builder
	sb.WriteString("union { ")
	for _, f := range fields {
		sb.WriteString(e.declareVar(f.Name, f.Type))
		sb.WriteString("; ")
	}
	sb.WriteString("}")
	return sb.String()
}

// declareVar renders "<type> name", putting an array's element count after
// the name ("int field[4]") instead of before it, the way every C
// declaration (not just ir-derived ones) has to.
func (e *Emitter) declareVar(name string, t ast.Type) string {
	if at, ok := t.(*ast.ArrayType); ok {
		size := ""
		if !at.UnknownSize {
			size = fmt.Sprintf("%d", at.Size)
		}
		return fmt.Sprintf("%s %s[%s]", e.cType(at.Element), name, size)
	}
	return fmt.Sprintf("%s %s", e.cType(t), name)
}
