// Package cbackend implements the portable C emitter (§4.11): the second of
// the two code-gen back-ends, consuming the same *ir.Module the LLVM-style
// IR back-end (§4.10) produces rather than walking the AST a second time, so
// both back-ends agree on instruction ordering, destructor placement, and
// the aggregate-return ABI.
//
// There is no teacher equivalent — the teacher's target never emits C —
// so this package is grounded on original_source/preprocess/2cASTVisitor.cpp
// (struct-return rewriting via a hidden pointer parameter, the
// "__cgf_N"/"__cmf_N" name-mangling suffixes, and the destructor
// cleanup-block/goto discipline) and written in the teacher's
// strings.Builder-based String() idiom (internal/ir/basicblock.go).
//
// DESIGN: *ir.Module is already a control-flow graph of basic blocks, so the
// natural C shape is one function body per ir.Function with one goto label
// per BasicBlock and Jump/Branch lowered to goto/if-goto — the same
// block-to-label strategy 2cASTVisitor.cpp uses for loops and early returns,
// generalized to every block instead of just loop exits.
package cbackend

import (
	"fmt"
	"strings"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/ir"
)

// Emitter lowers a *ast.File (for struct/union/enum field layout) and the
// *ir.Module built from it (for executable code) to one C translation unit.
type Emitter struct {
	arena *ast.Arena
	mod   *ir.Module
	sb    strings.Builder

	// tempNames maps an ir.Value by identity to the C identifier already
	// assigned to it — every *ir.Value is a pointer, so this both dedups
	// emitted declarations and keeps one SSA value's name stable across the
	// several places an instruction's operand can reference it.
	tempNames map[*ir.Value]string
}

// NewEmitter creates an Emitter over a resolved file's arena and the Module
// built from it (ir.Builder.Build's output).
func NewEmitter(arena *ast.Arena, mod *ir.Module) *Emitter {
	return &Emitter{arena: arena, mod: mod, tempNames: map[*ir.Value]string{}}
}

// Emit renders the whole translation unit: preamble, type declarations,
// globals, function prototypes, then function bodies.
func (e *Emitter) Emit(file *ast.File) string {
	e.writePreamble()
	e.writeTypeDecls(file.Decls)
	e.writeGlobals()
	e.writePrototypes()
	for _, fn := range e.mod.Functions {
		e.writeFunction(fn)
	}
	return e.sb.String()
}

func (e *Emitter) writePreamble() {
	e.sb.WriteString("#include <stdint.h>\n")
	e.sb.WriteString("#include <stdbool.h>\n")
	e.sb.WriteString("#include <stddef.h>\n")
	e.sb.WriteString("#include <stdlib.h>\n")
	e.sb.WriteString("#include <string.h>\n\n")
	// packed_lambda_type (Codegen.h): a capturing lambda is two pointers —
	// the lifted function and its captured-variable environment.
	e.sb.WriteString("typedef struct { void* fn; void* env; } chem_closure_t;\n")
	// Unspecified-parameter function pointer, used only for an indirect call
	// through a closure's code pointer (callExpr's fallback path).
	e.sb.WriteString("typedef void* (*chem_fnptr_t)();\n\n")
}

func (e *Emitter) writeGlobals() {
	if len(e.mod.Globals) == 0 {
		return
	}
	for _, g := range e.mod.Globals {
		fmt.Fprintf(&e.sb, "%s;\n", e.declareVar(cName(g.Name), g.Type))
	}
	e.sb.WriteString("\n")
}

func (e *Emitter) writePrototypes() {
	for _, fn := range e.mod.Functions {
		e.sb.WriteString(e.functionSignature(fn))
		e.sb.WriteString(";\n")
	}
	e.sb.WriteString("\n")
}

func (e *Emitter) functionSignature(fn *ir.Function) string {
	var sb strings.Builder
	retType := "void"
	if fn.SRet == nil && fn.ReturnType != nil {
		retType = e.cType(fn.ReturnType)
	}
	fmt.Fprintf(&sb, "%s %s(", retType, cName(fn.Name))
	for i, p := range fn.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.declareVar(e.nameOf(p), p.Type))
	}
	if len(fn.Parameters) == 0 {
		sb.WriteString("void")
	}
	sb.WriteString(")")
	return sb.String()
}
