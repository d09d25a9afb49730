// Package astconv implements the single forward walk that turns the
// lossless CST (internal/cst) into the resolved-AST shapes of internal/ast
// (§4.4). It is a recursive-descent + Pratt/precedence-climbing parser in
// the same style as the teacher's internal/parser/{parser.go,precedence.go},
// generalized to consume a CST node's token span instead of a raw lexer,
// and to build ast.Arena-backed nodes instead of plain pointers.
//
// ERROR HANDLING STRATEGY (same as the teacher):
// - Report errors but continue parsing (find multiple errors in one pass).
// - Use synchronize() for error recovery at statement/declaration boundaries.
package astconv

import (
	"strconv"
	"strings"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/cst"
	"github.com/hassan/chemc/internal/destruct"
	"github.com/hassan/chemc/internal/diagnostics"
	"github.com/hassan/chemc/internal/lexer"
)

// Converter walks one file's CST and produces its AST.
type Converter struct {
	tokens   []lexer.Token
	pos      int
	filename string

	arena *ast.Arena
	diags diagnostics.Bag

	panicMode bool
}

// New builds a Converter over a File-kind CST node's significant tokens
// (trivia is dropped here — the CST already proved losslessness over the
// raw lexer output, so the AST stage is free to discard it).
func New(root *cst.Node, filename string) *Converter {
	all := root.Tokens()
	significant := make([]lexer.Token, 0, len(all))
	for _, t := range all {
		if t.Type.IsTrivia() {
			continue
		}
		significant = append(significant, t)
	}
	return &Converter{
		tokens:   significant,
		filename: filename,
		arena:    ast.NewArena(),
	}
}

// Diagnostics returns the errors collected while converting.
func (c *Converter) Diagnostics() *diagnostics.Bag { return &c.diags }

// Arena returns the arena every produced Node/Value/Type back-reference
// indexes into.
func (c *Converter) Arena() *ast.Arena { return c.arena }

func (c *Converter) cur() lexer.Token {
	if c.pos >= len(c.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return c.tokens[c.pos]
}

func (c *Converter) peekAt(offset int) lexer.Token {
	i := c.pos + offset
	if i >= len(c.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return c.tokens[i]
}

func (c *Converter) advance() lexer.Token {
	t := c.cur()
	if c.pos < len(c.tokens) {
		c.pos++
	}
	return t
}

func (c *Converter) check(tt lexer.TokenType) bool { return c.cur().Type == tt }

func (c *Converter) checkKeyword(lit string) bool {
	t := c.cur()
	return t.Type == lexer.TokenKeyword && t.Literal == lit
}

func (c *Converter) match(tt lexer.TokenType) bool {
	if c.check(tt) {
		c.advance()
		return true
	}
	return false
}

func (c *Converter) matchKeyword(lit string) bool {
	if c.checkKeyword(lit) {
		c.advance()
		return true
	}
	return false
}

func (c *Converter) expect(tt lexer.TokenType, what string) lexer.Token {
	if c.check(tt) {
		return c.advance()
	}
	tok := c.cur()
	c.errorf(tok, "expected %s, got %s", what, tok.Type)
	return tok
}

func (c *Converter) errorf(tok lexer.Token, format string, args ...interface{}) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.diags.Errorf(tok.Pos, c.filename, format, args...)
}

// synchronize skips tokens until a likely declaration/statement boundary,
// the same recovery strategy as the teacher's Parser.synchronize.
func (c *Converter) synchronize() {
	c.panicMode = false
	for !c.check(lexer.TokenEOF) {
		if c.peekAt(-1).Type == lexer.TokenSemicolon {
			return
		}
		switch {
		case c.checkKeyword("func"), c.checkKeyword("var"), c.checkKeyword("val"),
			c.checkKeyword("const"), c.checkKeyword("struct"), c.checkKeyword("if"),
			c.checkKeyword("while"), c.checkKeyword("for"), c.checkKeyword("return"):
			return
		}
		c.advance()
	}
}

// convertAnnotations consumes zero or more leading `@name` markers, as they
// precede a function/struct/field declaration (e.g. `@compiletime func ...`).
func (c *Converter) convertAnnotations() []string {
	var out []string
	for c.check(lexer.TokenAnnotationMarker) {
		tok := c.advance()
		out = append(out, strings.TrimPrefix(tok.Literal, "@"))
	}
	return out
}

// ConvertFile runs the whole forward walk and returns the file-level AST.
func (c *Converter) ConvertFile() *ast.File {
	file := &ast.File{Path: c.filename, Arena: c.arena}

	for !c.check(lexer.TokenEOF) {
		if c.matchKeyword("import") {
			file.Imports = append(file.Imports, c.convertImport())
			continue
		}
		annotations := c.convertAnnotations()
		if decl := c.convertDecl(annotations); decl != nil {
			file.Decls = append(file.Decls, decl)
		}
	}
	return file
}

func (c *Converter) convertImport() *ast.Import {
	start := c.peekAt(-1).Pos
	pathTok := c.expect(lexer.TokenStringLiteral, "import path")
	imp := &ast.Import{Path: strings.Trim(pathTok.Literal, `"`)}
	imp.Position = start
	if c.matchKeyword("as") {
		imp.AsIdentifier = c.expect(lexer.TokenIdentifier, "identifier").Literal
	}
	imp.EndPos = c.peekAt(-1).EndPos
	c.match(lexer.TokenSemicolon)
	return imp
}

// convertDecl dispatches on the next keyword to the matching declaration
// converter, mirroring the teacher's Parser.parseDecl switch. Each case
// consumes its leading keyword with matchKeyword before handing off, so the
// sub-converter can read its own name/params starting from the cursor; the
// var/val/const case only checks the keyword, and convertVarInit consumes it.
func (c *Converter) convertDecl(annotations []string) ast.Node {
	switch {
	case c.matchKeyword("func"):
		return c.convertFunction(annotations)
	case c.matchKeyword("extension"):
		return c.convertExtensionFunction()
	case c.checkKeyword("var"), c.checkKeyword("val"), c.checkKeyword("const"):
		return c.convertVarInit(true)
	case c.matchKeyword("struct"):
		return c.convertStruct()
	case c.matchKeyword("union"):
		return c.convertUnion()
	case c.matchKeyword("interface"):
		return c.convertInterface()
	case c.matchKeyword("impl"):
		return c.convertImpl()
	case c.matchKeyword("enum"):
		return c.convertEnum()
	case c.matchKeyword("namespace"):
		return c.convertNamespace()
	case c.matchKeyword("typealias"):
		return c.convertTypealias()
	case c.matchKeyword("using"):
		return c.convertUsing()
	default:
		tok := c.cur()
		c.errorf(tok, "expected declaration, got %s", tok.Type)
		c.advance()
		c.synchronize()
		return nil
	}
}

// consumeGenericClose reads the '>' that ends a generic argument/parameter
// list. The lexer has no notion of type position (see internal/lexer's doc
// comment and DESIGN.md): '<'/'>' arrive as plain TokenLt/TokenGt, and a
// closing run of two or three (Vec<Vec<int>>) lexes greedily as
// TokenShr/TokenGe via the multi-char operator table. This splits such a
// token in place instead of requiring a space between nested closes.
func (c *Converter) consumeGenericClose() {
	tok := c.cur()
	switch tok.Type {
	case lexer.TokenGt:
		c.advance()
	case lexer.TokenShr:
		mid := tok.Pos
		mid.Column++
		mid.Offset++
		c.tokens[c.pos] = lexer.Token{Type: lexer.TokenGt, Literal: ">", Pos: mid, EndPos: tok.EndPos}
	case lexer.TokenGe:
		mid := tok.Pos
		mid.Column++
		mid.Offset++
		c.tokens[c.pos] = lexer.Token{Type: lexer.TokenAssign, Literal: "=", Pos: mid, EndPos: tok.EndPos}
	default:
		c.errorf(tok, "expected '>', got %s", tok.Type)
	}
}

func (c *Converter) convertGenericParams() []string {
	if !c.match(lexer.TokenLt) {
		return nil
	}
	var params []string
	for !c.check(lexer.TokenGt) && !c.check(lexer.TokenShr) && !c.check(lexer.TokenEOF) {
		params = append(params, c.expect(lexer.TokenIdentifier, "type parameter").Literal)
		if !c.match(lexer.TokenComma) {
			break
		}
	}
	c.consumeGenericClose()
	return params
}

func (c *Converter) convertParams() []ast.Param {
	c.expect(lexer.TokenLParen, "'('")
	var params []ast.Param
	for !c.check(lexer.TokenRParen) && !c.check(lexer.TokenEOF) {
		name := c.expect(lexer.TokenIdentifier, "parameter name").Literal
		c.expect(lexer.TokenColon, "':'")
		typ := c.convertType()
		params = append(params, ast.Param{Name: name, Type: typ})
		if !c.match(lexer.TokenComma) {
			break
		}
	}
	c.expect(lexer.TokenRParen, "')'")
	return params
}

func (c *Converter) convertFunction(annotations []string) *ast.Function {
	start := c.peekAt(-1).Pos
	fn := &ast.Function{Annotations: annotations, ActiveIteration: -1}
	fn.Position = start
	fn.Name = c.expect(lexer.TokenIdentifier, "function name").Literal
	fn.GenericParams = c.convertGenericParams()
	fn.Params = c.convertParams()
	if c.match(lexer.TokenColon) {
		fn.ReturnType = c.convertType()
	} else {
		fn.ReturnType = ast.Void
	}
	for _, a := range annotations {
		if a == "comptime" || a == "compiletime" {
			fn.IsCompileTime = true
		}
		if a == destruct.DestructorAnnotation {
			fn.RequiresDestructor = true
		}
	}
	if c.check(lexer.TokenLBrace) {
		fn.Body = c.convertBlock()
	} else {
		c.match(lexer.TokenSemicolon)
	}
	fn.EndPos = c.peekAt(-1).EndPos
	return fn
}

func (c *Converter) convertExtensionFunction() *ast.ExtensionFunction {
	start := c.peekAt(-1).Pos
	if !c.matchKeyword("func") {
		c.errorf(c.cur(), "expected 'func' in extension declaration")
	}
	receiver := c.convertType()
	c.expect(lexer.TokenDot, "'.'")
	fn := c.convertFunction(nil)
	fn.IsExtension = true
	fn.ReceiverType = receiver
	ext := &ast.ExtensionFunction{Receiver: receiver, Fn: fn}
	ext.Position = start
	ext.EndPos = fn.EndPos
	return ext
}

func (c *Converter) convertVarInit(topLevel bool) *ast.VarInit {
	kwTok := c.advance() // var|val|const
	v := &ast.VarInit{IsConst: kwTok.Literal != "var", IsGlobal: topLevel, Initializer: ast.NoValue}
	v.Position = kwTok.Pos
	v.Name = c.expect(lexer.TokenIdentifier, "variable name").Literal
	if c.match(lexer.TokenColon) {
		v.DeclaredType = c.convertType()
	}
	if c.match(lexer.TokenAssign) {
		v.Initializer = c.arena.AddValue(c.convertExpr(PrecAssignment))
	}
	v.EndPos = c.peekAt(-1).EndPos
	c.match(lexer.TokenSemicolon)
	return v
}

func (c *Converter) convertFieldList(closer lexer.TokenType) []ast.Field {
	var fields []ast.Field
	for !c.check(closer) && !c.check(lexer.TokenEOF) {
		name := c.expect(lexer.TokenIdentifier, "field name").Literal
		c.expect(lexer.TokenColon, "':'")
		typ := c.convertType()
		fields = append(fields, ast.Field{Name: name, Type: typ})
		c.match(lexer.TokenSemicolon)
		c.match(lexer.TokenComma)
	}
	return fields
}

func (c *Converter) convertStruct() *ast.Struct {
	start := c.peekAt(-1).Pos
	s := &ast.Struct{ActiveIteration: -1}
	s.Position = start
	s.Name = c.expect(lexer.TokenIdentifier, "struct name").Literal
	s.GenericParams = c.convertGenericParams()
	if c.matchKeyword("impl") { // `struct Foo impl Bar {` inline interface list
		s.Implements = append(s.Implements, c.expect(lexer.TokenIdentifier, "interface name").Literal)
		for c.match(lexer.TokenComma) {
			s.Implements = append(s.Implements, c.expect(lexer.TokenIdentifier, "interface name").Literal)
		}
	}
	c.expect(lexer.TokenLBrace, "'{'")
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		annotations := c.convertAnnotations()
		if c.matchKeyword("func") {
			s.Functions = append(s.Functions, c.convertFunction(annotations))
			continue
		}
		name := c.expect(lexer.TokenIdentifier, "field name").Literal
		c.expect(lexer.TokenColon, "':'")
		typ := c.convertType()
		s.Fields = append(s.Fields, ast.Field{Name: name, Type: typ})
		c.match(lexer.TokenSemicolon)
		c.match(lexer.TokenComma)
	}
	c.expect(lexer.TokenRBrace, "'}'")
	s.EndPos = c.peekAt(-1).EndPos
	return s
}

// convertUnion — grounded on original_source/ast/structures/UnionDef.cpp:
// same field-list grammar as struct, no methods (S10).
func (c *Converter) convertUnion() *ast.Union {
	start := c.peekAt(-1).Pos
	u := &ast.Union{}
	u.Position = start
	u.Name = c.expect(lexer.TokenIdentifier, "union name").Literal
	c.expect(lexer.TokenLBrace, "'{'")
	u.Fields = c.convertFieldList(lexer.TokenRBrace)
	c.expect(lexer.TokenRBrace, "'}'")
	u.EndPos = c.peekAt(-1).EndPos
	return u
}

func (c *Converter) convertInterface() *ast.Interface {
	start := c.peekAt(-1).Pos
	iface := &ast.Interface{}
	iface.Position = start
	iface.Name = c.expect(lexer.TokenIdentifier, "interface name").Literal
	c.expect(lexer.TokenLBrace, "'{'")
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		c.matchKeyword("func")
		m := ast.InterfaceMethod{Name: c.expect(lexer.TokenIdentifier, "method name").Literal}
		m.Params = c.convertParams()
		if c.match(lexer.TokenColon) {
			m.ReturnType = c.convertType()
		} else {
			m.ReturnType = ast.Void
		}
		c.match(lexer.TokenSemicolon)
		iface.Methods = append(iface.Methods, m)
	}
	c.expect(lexer.TokenRBrace, "'}'")
	iface.EndPos = c.peekAt(-1).EndPos
	return iface
}

// convertImpl — grounded on original_source/ast/structures/
// ImplDefinition.{h,cpp} (S8): `impl Interface for Struct { ... }`.
func (c *Converter) convertImpl() *ast.Impl {
	start := c.peekAt(-1).Pos
	impl := &ast.Impl{}
	impl.Position = start
	impl.InterfaceName = c.expect(lexer.TokenIdentifier, "interface name").Literal
	c.matchKeyword("for")
	impl.StructName = c.expect(lexer.TokenIdentifier, "struct name").Literal
	c.expect(lexer.TokenLBrace, "'{'")
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		c.matchKeyword("func")
		impl.Functions = append(impl.Functions, c.convertFunction(nil))
	}
	c.expect(lexer.TokenRBrace, "'}'")
	impl.EndPos = c.peekAt(-1).EndPos
	return impl
}

func (c *Converter) convertEnum() *ast.Enum {
	start := c.peekAt(-1).Pos
	e := &ast.Enum{}
	e.Position = start
	e.Name = c.expect(lexer.TokenIdentifier, "enum name").Literal
	c.expect(lexer.TokenLBrace, "'{'")
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		name := c.expect(lexer.TokenIdentifier, "member name").Literal
		member := ast.EnumMember{Name: name, Value: ast.NoValue}
		if c.match(lexer.TokenAssign) {
			member.Value = c.arena.AddValue(c.convertExpr(PrecAssignment))
		}
		e.Members = append(e.Members, member)
		if !c.match(lexer.TokenComma) {
			break
		}
	}
	c.expect(lexer.TokenRBrace, "'}'")
	e.EndPos = c.peekAt(-1).EndPos
	return e
}

// convertNamespace — grounded on original_source/ast/structures/Namespace.cpp
// (S11): nested declarations, merged by name at resolution time.
func (c *Converter) convertNamespace() *ast.Namespace {
	start := c.peekAt(-1).Pos
	ns := &ast.Namespace{}
	ns.Position = start
	ns.Name = c.expect(lexer.TokenIdentifier, "namespace name").Literal
	c.expect(lexer.TokenLBrace, "'{'")
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		annotations := c.convertAnnotations()
		if d := c.convertDecl(annotations); d != nil {
			ns.Decls = append(ns.Decls, d)
		}
	}
	c.expect(lexer.TokenRBrace, "'}'")
	ns.EndPos = c.peekAt(-1).EndPos
	return ns
}

func (c *Converter) convertTypealias() *ast.Typealias {
	start := c.peekAt(-1).Pos
	t := &ast.Typealias{}
	t.Position = start
	t.Name = c.expect(lexer.TokenIdentifier, "alias name").Literal
	c.expect(lexer.TokenAssign, "'='")
	t.Type = c.convertType()
	t.EndPos = c.peekAt(-1).EndPos
	c.match(lexer.TokenSemicolon)
	return t
}

func (c *Converter) convertUsing() *ast.Using {
	start := c.peekAt(-1).Pos
	u := &ast.Using{}
	u.Position = start
	parts := []string{c.expect(lexer.TokenIdentifier, "namespace path").Literal}
	for c.match(lexer.TokenDoubleColon) {
		parts = append(parts, c.expect(lexer.TokenIdentifier, "namespace path").Literal)
	}
	u.Path = joinPath(parts)
	u.EndPos = c.peekAt(-1).EndPos
	c.match(lexer.TokenSemicolon)
	return u
}

func joinPath(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "::" + p
	}
	return out
}

// convertType parses a type expression: pointers, arrays, generics,
// primitives, and named references.
func (c *Converter) convertType() ast.Type {
	if c.match(lexer.TokenStar) {
		return &ast.PointerType{Pointee: c.convertType()}
	}
	if c.match(lexer.TokenLBracket) {
		size := -1
		unknown := true
		if c.check(lexer.TokenIntLiteral) {
			n, _ := strconv.Atoi(c.advance().Literal)
			size = n
			unknown = false
		}
		c.expect(lexer.TokenRBracket, "']'")
		return &ast.ArrayType{Element: c.convertType(), Size: size, UnknownSize: unknown}
	}
	if c.check(lexer.TokenTypeKeyword) {
		return c.primitiveType(c.advance().Literal)
	}
	name := c.expect(lexer.TokenIdentifier, "type name").Literal
	ref := &ast.ReferencedType{Name: name, Linked: ast.NoNode}
	if c.check(lexer.TokenLt) {
		c.advance()
		var args []ast.Type
		for !c.check(lexer.TokenGt) && !c.check(lexer.TokenShr) && !c.check(lexer.TokenEOF) {
			args = append(args, c.convertType())
			if !c.match(lexer.TokenComma) {
				break
			}
		}
		c.consumeGenericClose()
		return &ast.GenericType{Base: ref, Args: args, Iteration: -1}
	}
	return ref
}

func (c *Converter) primitiveType(name string) ast.Type {
	switch name {
	case "any":
		return ast.Any
	case "void":
		return ast.Void
	case "bool":
		return ast.Bool
	case "char":
		return ast.Char
	case "string":
		return ast.String
	case "float":
		return ast.Float
	case "double":
		return ast.Double
	case "int":
		return ast.Int
	case "int8":
		return &ast.IntNType{Width: 8, Signed: true}
	case "int16":
		return &ast.IntNType{Width: 16, Signed: true}
	case "int32":
		return &ast.IntNType{Width: 32, Signed: true}
	case "int64":
		return &ast.IntNType{Width: 64, Signed: true}
	case "uint":
		return &ast.IntNType{Width: 0, Signed: false}
	case "uint8":
		return &ast.IntNType{Width: 8, Signed: false}
	case "uint16":
		return &ast.IntNType{Width: 16, Signed: false}
	case "uint32":
		return &ast.IntNType{Width: 32, Signed: false}
	case "uint64":
		return &ast.IntNType{Width: 64, Signed: false}
	default:
		return ast.Any
	}
}
