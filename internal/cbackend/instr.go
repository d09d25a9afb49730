package cbackend

import (
	"fmt"
	"strconv"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/ir"
)

// nameOf assigns (and remembers) the C identifier for one SSA value. A
// ValueGlobal always uses its own declared name directly — it was emitted
// once, at module scope, by writeGlobals or as a function definition, so
// every reference has to agree on the same spelling regardless of which
// *ir.Value instance the builder happened to allocate for it.
func (e *Emitter) nameOf(v *ir.Value) string {
	if v == nil {
		return ""
	}
	if v.Kind == ir.ValueGlobal {
		return cName(v.Name)
	}
	if n, ok := e.tempNames[v]; ok {
		return n
	}
	var n string
	if v.Name != "" {
		n = fmt.Sprintf("%s_%d", cName(v.Name), v.ID)
	} else {
		n = fmt.Sprintf("t%d", v.ID)
	}
	e.tempNames[v] = n
	return n
}

// valueExpr renders v as it appears on the right-hand side of a C
// expression: a constant is inlined, everything else is a name reference.
func (e *Emitter) valueExpr(v *ir.Value) string {
	if v == nil {
		return ""
	}
	if v.Kind == ir.ValueConstant {
		return e.constExpr(v)
	}
	return e.nameOf(v)
}

func (e *Emitter) constExpr(v *ir.Value) string {
	switch c := v.Constant.(type) {
	case nil:
		return "NULL"
	case bool:
		if c {
			return "true"
		}
		return "false"
	case byte:
		return fmt.Sprintf("'\\x%02x'", c)
	case int64:
		return fmt.Sprintf("%d", c)
	case float32:
		return fmt.Sprintf("%gf", c)
	case float64:
		return fmt.Sprintf("%g", c)
	case string:
		return strconv.Quote(c)
	default:
		return fmt.Sprintf("%v", c)
	}
}

// statement renders one non-control-flow instruction as a single C
// statement (without the trailing newline). Jump/Branch/Return are handled
// directly by writeInstruction since Jump needs the phi-assignment injection and
// Branch/Return need their own multi-line shape.
func (e *Emitter) statement(instr ir.Instruction) string {
	switch n := instr.(type) {
	case *ir.BinaryOp:
		return fmt.Sprintf("%s = %s %s %s;", e.nameOf(n.Dest), e.valueExpr(n.Left), n.Op, e.valueExpr(n.Right))
	case *ir.UnaryOp:
		return fmt.Sprintf("%s = %s%s;", e.nameOf(n.Dest), n.Op, e.valueExpr(n.Operand))
	case *ir.Copy:
		return fmt.Sprintf("%s = %s;", e.nameOf(n.Dest), e.valueExpr(n.Value))
	case *ir.Load:
		return fmt.Sprintf("%s = *%s;", e.nameOf(n.Dest), e.valueExpr(n.Address))
	case *ir.Store:
		return fmt.Sprintf("*%s = %s;", e.valueExpr(n.Address), e.valueExpr(n.Value))
	case *ir.GetElementPtr:
		return fmt.Sprintf("%s = &%s[%s];", e.nameOf(n.Dest), e.valueExpr(n.Base), e.valueExpr(n.Index))
	case *ir.GetFieldPtr:
		return fmt.Sprintf("%s = &%s->%s;", e.nameOf(n.Dest), e.valueExpr(n.Base), cName(n.FieldName))
	case *ir.Call:
		return e.callStatement(n)
	case *ir.MakeClosure:
		return e.closureStatement(n)
	case *ir.Alloca:
		return e.allocaStatement(n)
	case *ir.Phi:
		return "" // absorbed into predecessor-block assignments, see writeFunction
	default:
		return fmt.Sprintf("/* unsupported instruction %T */", instr)
	}
}

func (e *Emitter) callStatement(c *ir.Call) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = e.valueExpr(a)
	}
	call := e.callExpr(c, args)
	if c.Dest != nil {
		return fmt.Sprintf("%s = %s;", e.nameOf(c.Dest), call)
	}
	return call + ";"
}

// callExpr renders a direct call by name when Function is a plain
// ValueGlobal (the common case: every top-level/method/extension function
// our own builder emits is named exactly this way), and falls back to an
// untyped function-pointer invocation through a closure's code pointer
// otherwise — a deliberately loose cast (§4.11 Non-goals defer verifying
// the callee's real C signature matches at this call site to the type
// checker that already ran during resolution).
func (e *Emitter) callExpr(c *ir.Call, args []string) string {
	joined := ""
	for i, a := range args {
		if i > 0 {
			joined += ", "
		}
		joined += a
	}
	if c.Function != nil && c.Function.Kind == ir.ValueGlobal {
		return fmt.Sprintf("%s(%s)", cName(c.Function.Name), joined)
	}
	fnExpr := e.valueExpr(c.Function)
	return fmt.Sprintf("((chem_fnptr_t)%s.fn)(%s%s)", fnExpr, envArg(fnExpr, len(args) > 0), joined)
}

func envArg(fnExpr string, hasMoreArgs bool) string {
	if hasMoreArgs {
		return fmt.Sprintf("%s.env, ", fnExpr)
	}
	return fmt.Sprintf("%s.env", fnExpr)
}

func (e *Emitter) closureStatement(m *ir.MakeClosure) string {
	env := "NULL"
	if m.Env != nil {
		env = "(void*)" + e.valueExpr(m.Env)
	}
	return fmt.Sprintf("%s = (chem_closure_t){ .fn = (void*)&%s, .env = %s };", e.nameOf(m.Dest), cName(m.FuncName), env)
}

// allocaStatement points dest at the hidden storage buffer declared for it
// by writeFunction's local-declaration loop — an array's buffer already
// decays to its element pointer, everything else needs an explicit
// address-of.
func (e *Emitter) allocaStatement(a *ir.Alloca) string {
	buf := e.nameOf(a.Dest) + "__buf"
	if _, isArray := a.Type.(*ast.ArrayType); isArray {
		return fmt.Sprintf("%s = %s;", e.nameOf(a.Dest), buf)
	}
	return fmt.Sprintf("%s = &%s;", e.nameOf(a.Dest), buf)
}
