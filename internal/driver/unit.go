package driver

import (
	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/diagnostics"
	"github.com/hassan/chemc/internal/ir"
)

// Unit is one compiled source file, carried through every pipeline stage so
// later stages (emission, --print-ast/--print-ig reporting) can still reach
// an earlier stage's output without recomputing it.
type Unit struct {
	AbsPath string
	Hash    string

	Arena *ast.Arena
	File  *ast.File

	Module *ir.Module
	C      string

	Diags diagnostics.Bag
}

// HasErrors reports whether any stage recorded an error-severity diagnostic
// for this unit.
func (u *Unit) HasErrors() bool { return u.Diags.HasErrors() }
