package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/astconv"
	"github.com/hassan/chemc/internal/cst"
	"github.com/hassan/chemc/internal/driver"
	"github.com/hassan/chemc/internal/importgraph"
	"github.com/hassan/chemc/internal/lexer"

	"github.com/sirupsen/logrus"
)

func printCSTFiles(sources []string) error {
	for _, path := range sources {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("chemc: reading %s: %w", path, err)
		}
		toks := lexer.New(string(src), path).Lex()
		root := cst.NewBuilder(toks, path).Build()
		fmt.Printf("%s:\n", path)
		dumpCST(root, 0)
	}
	return nil
}

func dumpCST(n *cst.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.Kind == cst.KindLeaf {
		fmt.Printf("%s%s %q\n", indent, n.Kind, n.Token.Literal)
		return
	}
	fmt.Printf("%s%s\n", indent, n.Kind)
	for _, c := range n.Children {
		dumpCST(c, depth+1)
	}
}

func printASTFiles(sources []string) error {
	for _, path := range sources {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("chemc: reading %s: %w", path, err)
		}
		toks := lexer.New(string(src), path).Lex()
		root := cst.NewBuilder(toks, path).Build()
		c := astconv.New(root, path)
		file := c.ConvertFile()
		fmt.Printf("%s:\n", path)
		fmt.Printf("  imports: %d\n", len(file.Imports))
		fmt.Printf("  declarations: %d\n", len(file.Decls))
		for _, decl := range file.Decls {
			describeDecl(decl, 1)
		}
		if c.Diagnostics().HasErrors() {
			for _, item := range c.Diagnostics().Items() {
				fmt.Fprintln(os.Stderr, item.String())
			}
			return fmt.Errorf("chemc: %s: conversion errors", path)
		}
	}
	return nil
}

// describeDecl prints one declaration's kind and name, the same summary
// shape cmd/compiler/main.go's Declarations loop used for the teacher's
// flatter AST — generalized here over the full declaration catalog.
func describeDecl(n ast.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch d := n.(type) {
	case *ast.Function:
		fmt.Printf("%sfunc %s (%d params)\n", indent, d.Name, len(d.Params))
	case *ast.ExtensionFunction:
		fmt.Printf("%sextension function %s\n", indent, d.Fn.Name)
	case *ast.Struct:
		fmt.Printf("%sstruct %s (%d fields, %d methods)\n", indent, d.Name, len(d.Fields), len(d.Functions))
	case *ast.Union:
		fmt.Printf("%sunion %s (%d fields)\n", indent, d.Name, len(d.Fields))
	case *ast.Interface:
		fmt.Printf("%sinterface %s (%d methods)\n", indent, d.Name, len(d.Methods))
	case *ast.Impl:
		fmt.Printf("%simpl %s for %s (%d methods)\n", indent, d.InterfaceName, d.StructName, len(d.Functions))
	case *ast.Enum:
		fmt.Printf("%senum %s (%d members)\n", indent, d.Name, len(d.Members))
	case *ast.Typealias:
		fmt.Printf("%stypealias %s\n", indent, d.Name)
	case *ast.Namespace:
		fmt.Printf("%snamespace %s\n", indent, d.Name)
		for _, inner := range d.Decls {
			describeDecl(inner, depth+1)
		}
	case *ast.VarInit:
		fmt.Printf("%svar %s\n", indent, d.Name)
	default:
		fmt.Printf("%s%T\n", indent, n)
	}
}

func printImportGraph(sources []string, roots []string, log logrus.FieldLogger) error {
	loader := driver.NewImportLoader(nil)
	resolver := &importgraph.PathResolver{Roots: roots}
	graph := importgraph.New(loader, resolver)

	flat, err := graph.Build(sources)
	if err != nil {
		return fmt.Errorf("chemc: building import graph: %w", err)
	}
	for _, ff := range flat {
		marker := ""
		if ff.Forward {
			marker = " (forward)"
		}
		fmt.Printf("%s <- %q as %s%s\n", ff.AbsPath, ff.ImportPath, ff.AsIdentifier, marker)
	}
	log.WithField("files", len(flat)).Debug("import graph printed")
	return nil
}
