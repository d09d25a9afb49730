package driver

import (
	"fmt"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/astconv"
	"github.com/hassan/chemc/internal/cst"
	"github.com/hassan/chemc/internal/diagnostics"
	"github.com/hassan/chemc/internal/lexer"
)

// convertFile runs the lex -> CST -> AST stage of the pipeline for one file
// for ImportLoader, which only needs the resulting File.Imports.
// Driver.convertWithDiskCache runs the same stages itself so it can reuse a
// cached token stream.
func convertFile(src []byte, absPath string) (*ast.Arena, *ast.File, *diagnostics.Bag, error) {
	toks := lexer.New(string(src), absPath).Lex()
	root := cst.NewBuilder(toks, absPath).Build()
	c := astconv.New(root, absPath)
	file := c.ConvertFile()
	diags := c.Diagnostics()
	if diags.HasErrors() {
		return nil, nil, diags, fmt.Errorf("driver: %s: %d conversion error(s)", absPath, len(diags.Items()))
	}
	return c.Arena(), file, diags, nil
}
