package astconv

import (
	"strconv"
	"strings"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/lexer"
)

// convertBlock parses `{ stmt* }` into an ast.Scope whose Nodes are arena
// back-references, matching the teacher's Parser.parseBlock shape.
func (c *Converter) convertBlock() *ast.Scope {
	start := c.expect(lexer.TokenLBrace, "'{'").Pos
	scope := &ast.Scope{}
	scope.Position = start
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		if n := c.convertStmt(); n != nil {
			scope.Nodes = append(scope.Nodes, c.arena.AddNode(n))
		}
		if c.panicMode {
			c.synchronize()
		}
	}
	scope.EndPos = c.expect(lexer.TokenRBrace, "'}'").Pos
	return scope
}

// convertStmt parses one statement, dispatching to the declarations that are
// also legal inside a function body (var/val/const) before falling back to
// control flow and expression statements.
func (c *Converter) convertStmt() ast.Node {
	switch {
	case c.checkKeyword("var"), c.checkKeyword("val"), c.checkKeyword("const"):
		return c.convertVarInit(false)
	case c.checkKeyword("if"):
		return c.convertIf()
	case c.checkKeyword("while"):
		return c.convertWhile()
	case c.checkKeyword("do"):
		return c.convertDoWhile()
	case c.checkKeyword("for"):
		return c.convertFor()
	case c.checkKeyword("switch"):
		return c.convertSwitch()
	case c.checkKeyword("return"):
		return c.convertReturn()
	case c.checkKeyword("break"):
		n := &ast.Break{}
		n.Position = c.advance().Pos
		c.match(lexer.TokenSemicolon)
		return n
	case c.checkKeyword("continue"):
		n := &ast.Continue{}
		n.Position = c.advance().Pos
		c.match(lexer.TokenSemicolon)
		return n
	case c.checkKeyword("throw"):
		start := c.advance().Pos
		v := c.convertExpr(PrecAssignment)
		n := &ast.Throw{Value: c.arena.AddValue(v)}
		n.Position = start
		c.match(lexer.TokenSemicolon)
		return n
	case c.checkKeyword("delete"):
		start := c.advance().Pos
		v := c.convertExpr(PrecUnary)
		n := &ast.Delete{Target: c.arena.AddValue(v)}
		n.Position = start
		c.match(lexer.TokenSemicolon)
		return n
	case c.check(lexer.TokenLBrace):
		return c.convertBlock()
	default:
		return c.convertExprOrAssignStmt()
	}
}

func (c *Converter) convertExprOrAssignStmt() ast.Node {
	start := c.cur().Pos
	left := c.convertExpr(PrecAssignment + 1) // stop before '=' so we can see it

	if c.check(lexer.TokenAssign) {
		c.advance()
		right := c.convertExpr(PrecAssignment)
		n := &ast.Assign{Target: c.arena.AddValue(left), Op: "=", Value: c.arena.AddValue(right)}
		n.Position = start
		c.match(lexer.TokenSemicolon)
		return n
	}

	// compound assignment: '+' '=' as two adjacent tokens (no TokenPlusEq in
	// this lexer's token set — see precedence.go).
	if op, ok := compoundOp(c.cur().Type); ok && c.peekAt(1).Type == lexer.TokenAssign {
		c.advance()
		c.advance()
		right := c.convertExpr(PrecAssignment)
		n := &ast.Assign{Target: c.arena.AddValue(left), Op: op + "=", Value: c.arena.AddValue(right)}
		n.Position = start
		c.match(lexer.TokenSemicolon)
		return n
	}

	v := &ast.ExprStmt{Value: c.arena.AddValue(left)}
	v.Position = start
	c.match(lexer.TokenSemicolon)
	return v
}

func compoundOp(tt lexer.TokenType) (string, bool) {
	switch tt {
	case lexer.TokenPlus:
		return "+", true
	case lexer.TokenMinus:
		return "-", true
	case lexer.TokenStar:
		return "*", true
	case lexer.TokenSlash:
		return "/", true
	case lexer.TokenPercent:
		return "%", true
	case lexer.TokenAmp:
		return "&", true
	case lexer.TokenPipe:
		return "|", true
	case lexer.TokenCaret:
		return "^", true
	}
	return "", false
}

func (c *Converter) convertIf() *ast.If {
	start := c.advance().Pos // 'if'
	c.expect(lexer.TokenLParen, "'('")
	cond := c.convertExpr(PrecAssignment)
	c.expect(lexer.TokenRParen, "')'")
	n := &ast.If{Cond: c.arena.AddValue(cond), Then: c.convertBlock()}
	n.Position = start
	for c.checkKeyword("else") {
		c.advance()
		if c.matchKeyword("if") {
			c.expect(lexer.TokenLParen, "'('")
			ec := c.convertExpr(PrecAssignment)
			c.expect(lexer.TokenRParen, "')'")
			n.ElseIfs = append(n.ElseIfs, ast.ElseIf{Cond: c.arena.AddValue(ec), Body: c.convertBlock()})
			continue
		}
		n.Else = c.convertBlock()
		break
	}
	return n
}

func (c *Converter) convertWhile() *ast.While {
	start := c.advance().Pos
	c.expect(lexer.TokenLParen, "'('")
	cond := c.convertExpr(PrecAssignment)
	c.expect(lexer.TokenRParen, "')'")
	n := &ast.While{Cond: c.arena.AddValue(cond), Body: c.convertBlock()}
	n.Position = start
	return n
}

func (c *Converter) convertDoWhile() *ast.DoWhile {
	start := c.advance().Pos // 'do'
	body := c.convertBlock()
	c.expect(lexer.TokenKeyword, "'while'")
	c.expect(lexer.TokenLParen, "'('")
	cond := c.convertExpr(PrecAssignment)
	c.expect(lexer.TokenRParen, "')'")
	c.match(lexer.TokenSemicolon)
	n := &ast.DoWhile{Cond: c.arena.AddValue(cond), Body: body}
	n.Position = start
	return n
}

func (c *Converter) convertFor() *ast.For {
	start := c.advance().Pos
	c.expect(lexer.TokenLParen, "'('")
	n := &ast.For{}
	n.Position = start
	n.Cond = ast.NoValue
	if !c.check(lexer.TokenSemicolon) {
		n.Init = c.convertStmt()
	} else {
		c.advance()
	}
	if !c.check(lexer.TokenSemicolon) {
		n.Cond = c.arena.AddValue(c.convertExpr(PrecAssignment))
	}
	c.expect(lexer.TokenSemicolon, "';'")
	if !c.check(lexer.TokenRParen) {
		n.Post = c.convertExprOrAssignStmt()
	}
	c.expect(lexer.TokenRParen, "')'")
	n.Body = c.convertBlock()
	return n
}

func (c *Converter) convertSwitch() *ast.Switch {
	start := c.advance().Pos
	c.expect(lexer.TokenLParen, "'('")
	subject := c.convertExpr(PrecAssignment)
	c.expect(lexer.TokenRParen, "')'")
	n := &ast.Switch{Subject: c.arena.AddValue(subject)}
	n.Position = start
	c.expect(lexer.TokenLBrace, "'{'")
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		var clause ast.CaseClause
		if c.matchKeyword("case") {
			clause.Values = append(clause.Values, c.arena.AddValue(c.convertExpr(PrecAssignment)))
			for c.match(lexer.TokenComma) {
				clause.Values = append(clause.Values, c.arena.AddValue(c.convertExpr(PrecAssignment)))
			}
		} else {
			c.matchKeyword("default")
		}
		c.expect(lexer.TokenColon, "':'")
		body := &ast.Scope{}
		for !c.checkKeyword("case") && !c.checkKeyword("default") && !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
			if s := c.convertStmt(); s != nil {
				body.Nodes = append(body.Nodes, c.arena.AddNode(s))
			}
		}
		clause.Body = body
		n.Cases = append(n.Cases, clause)
	}
	c.expect(lexer.TokenRBrace, "'}'")
	return n
}

func (c *Converter) convertReturn() *ast.Return {
	start := c.advance().Pos
	n := &ast.Return{Value: ast.NoValue}
	n.Position = start
	if !c.check(lexer.TokenSemicolon) && !c.check(lexer.TokenRBrace) {
		n.Value = c.arena.AddValue(c.convertExpr(PrecAssignment))
	}
	c.match(lexer.TokenSemicolon)
	return n
}

// --- expressions: Pratt / precedence climbing -----------------------------

func (c *Converter) convertExpr(min Precedence) ast.Value {
	left := c.convertUnary()

	for {
		tt := c.cur().Type
		prec := getPrecedence(tt)
		if prec == PrecNone || prec < min {
			break
		}
		if _, ok := compoundOp(tt); ok && c.peekAt(1).Type == lexer.TokenAssign {
			break // compound assignment: convertExprOrAssignStmt consumes "op ="
		}
		if tt == lexer.TokenQuestion {
			left = c.convertTernary(left)
			continue
		}
		op := c.advance()
		nextMin := prec + 1
		if isRightAssociative(op.Type) {
			nextMin = prec
		}
		right := c.convertExpr(nextMin)
		e := &ast.Expression{Left: c.arena.AddValue(left), Op: opText(op), Right: c.arena.AddValue(right)}
		e.Position = left.Pos()
		left = e
	}
	return left
}

func opText(t lexer.Token) string {
	if t.Literal != "" {
		return t.Literal
	}
	return t.Type.String()
}

func (c *Converter) convertTernary(cond ast.Value) ast.Value {
	c.advance() // '?'
	then := c.convertExpr(PrecAssignment)
	c.expect(lexer.TokenColon, "':'")
	els := c.convertExpr(PrecTernary)
	t := &ast.TernaryValue{Cond: c.arena.AddValue(cond), Then: c.arena.AddValue(then), Else: c.arena.AddValue(els)}
	t.Position = cond.Pos()
	return t
}

func (c *Converter) convertUnary() ast.Value {
	tok := c.cur()
	switch tok.Type {
	case lexer.TokenMinus:
		c.advance()
		v := &ast.NegativeValue{Operand: c.arena.AddValue(c.convertUnary())}
		v.Position = tok.Pos
		return v
	case lexer.TokenNot:
		c.advance()
		v := &ast.NotValue{Operand: c.arena.AddValue(c.convertUnary())}
		v.Position = tok.Pos
		return v
	case lexer.TokenAmp:
		c.advance()
		v := &ast.AddrOf{Operand: c.arena.AddValue(c.convertUnary())}
		v.Position = tok.Pos
		return v
	case lexer.TokenStar:
		c.advance()
		v := &ast.Dereference{Operand: c.arena.AddValue(c.convertUnary())}
		v.Position = tok.Pos
		return v
	}
	if tok.Type == lexer.TokenKeyword && tok.Literal == "sizeof" {
		c.advance()
		c.expect(lexer.TokenLParen, "'('")
		t := c.convertType()
		c.expect(lexer.TokenRParen, "')'")
		v := &ast.Sizeof{Operand: t}
		v.Position = tok.Pos
		return v
	}
	return c.convertPostfix(c.convertPrimary())
}

// convertPostfix folds member access, indexing and calls into a single
// flattened AccessChain (grounded on original_source/lexer/AccessChain.cpp,
// which also flattens rather than nests), rather than the teacher's
// right-nested MemberExpr/IndexExpr/CallExpr trees.
func (c *Converter) convertPostfix(base ast.Value) ast.Value {
	if !c.check(lexer.TokenDot) && !c.check(lexer.TokenLParen) && !c.check(lexer.TokenLBracket) {
		return base
	}
	chain := &ast.AccessChain{Base: c.arena.AddValue(base)}
	chain.Position = base.Pos()
	for {
		switch {
		case c.match(lexer.TokenDot):
			name := c.expect(lexer.TokenIdentifier, "member name").Literal
			seg := ast.AccessChainSegment{Member: name, Index: ast.NoValue, Linked: ast.NoNode}
			if c.check(lexer.TokenLParen) {
				seg.Call = c.convertCallArgs()
				seg.IsCall = true
			}
			chain.Segments = append(chain.Segments, seg)
		case c.match(lexer.TokenLBracket):
			idx := c.convertExpr(PrecAssignment)
			c.expect(lexer.TokenRBracket, "']'")
			chain.Segments = append(chain.Segments, ast.AccessChainSegment{Index: c.arena.AddValue(idx), Linked: ast.NoNode})
		case c.check(lexer.TokenLParen):
			args := c.convertCallArgs()
			chain.Segments = append(chain.Segments, ast.AccessChainSegment{IsCall: true, Call: args, Index: ast.NoValue, Linked: ast.NoNode})
		default:
			return chain
		}
	}
}

func (c *Converter) convertCallArgs() []ast.ValueRef {
	c.expect(lexer.TokenLParen, "'('")
	var args []ast.ValueRef
	for !c.check(lexer.TokenRParen) && !c.check(lexer.TokenEOF) {
		args = append(args, c.arena.AddValue(c.convertExpr(PrecAssignment)))
		if !c.match(lexer.TokenComma) {
			break
		}
	}
	c.expect(lexer.TokenRParen, "')'")
	return args
}

func (c *Converter) convertPrimary() ast.Value {
	tok := c.cur()
	switch tok.Type {
	case lexer.TokenIntLiteral:
		c.advance()
		return c.convertIntLiteral(tok)
	case lexer.TokenFloatLiteral:
		c.advance()
		if strings.HasSuffix(tok.Literal, "f") || strings.HasSuffix(tok.Literal, "F") {
			f, _ := strconv.ParseFloat(strings.TrimRight(tok.Literal, "fF"), 32)
			v := &ast.FloatLiteral{Value: float32(f)}
			v.Position = tok.Pos
			return v
		}
		d, _ := strconv.ParseFloat(tok.Literal, 64)
		v := &ast.DoubleLiteral{Value: d}
		v.Position = tok.Pos
		return v
	case lexer.TokenStringLiteral:
		c.advance()
		v := &ast.StringLiteral{Value: decodeEscapes(strings.Trim(tok.Literal, `"`))}
		v.Position = tok.Pos
		return v
	case lexer.TokenCharLiteral:
		c.advance()
		v := &ast.CharLiteral{Value: decodeCharLiteral(strings.Trim(tok.Literal, "'"))}
		v.Position = tok.Pos
		return v
	case lexer.TokenBoolLiteral:
		c.advance()
		v := &ast.BoolLiteral{IsConst: tok.Literal == "true"}
		v.Position = tok.Pos
		return v
	case lexer.TokenNullLiteral:
		c.advance()
		v := &ast.NullLiteral{}
		v.Position = tok.Pos
		return v
	case lexer.TokenLParen:
		c.advance()
		v := c.convertExpr(PrecAssignment)
		c.expect(lexer.TokenRParen, "')'")
		return v
	case lexer.TokenLBracket:
		if c.isLambdaCapture() {
			return c.convertLambda()
		}
		return c.convertArrayLiteral()
	case lexer.TokenIdentifier:
		return c.convertIdentifierPrimary()
	}
	if tok.Type == lexer.TokenKeyword {
		switch tok.Literal {
		case "cast":
			return c.convertCast()
		case "new":
			c.advance()
			return c.convertPrimary()
		}
	}
	c.errorf(tok, "expected expression, got %s", tok.Type)
	c.advance()
	v := &ast.NullLiteral{}
	v.Position = tok.Pos
	return v
}

// decodeEscapes resolves the handful of escapes Reader.ReadEscaping leaves
// untouched in a string literal's body.
func decodeEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// decodeCharLiteral resolves the handful of escapes the lexer's
// Reader.ReadEscaping leaves untouched in a char literal's body.
func decodeCharLiteral(inner string) byte {
	if len(inner) == 0 {
		return 0
	}
	if inner[0] != '\\' || len(inner) < 2 {
		return inner[0]
	}
	switch inner[1] {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\':
		return '\\'
	case '\'':
		return '\''
	default:
		return inner[1]
	}
}

func (c *Converter) convertIntLiteral(tok lexer.Token) ast.Value {
	text := strings.TrimRight(tok.Literal, "uUlL")
	unsigned := strings.ContainsAny(tok.Literal, "uU")
	width := 32
	if strings.Count(tok.Literal, "l") > 0 || strings.Count(tok.Literal, "L") > 0 {
		width = 64
	}
	n, _ := strconv.ParseInt(text, 0, 64)
	v := &ast.IntLiteral{Text: tok.Literal, Value: n, Unsigned: unsigned, Width: width}
	v.Position = tok.Pos
	return v
}

// convertIdentifierPrimary handles bare identifiers and struct literals
// `Name { field: value }`; capture-list lambdas `[x, y]() ...` start with '['
// and are handled by convertPrimary.
func (c *Converter) convertIdentifierPrimary() ast.Value {
	name := c.advance().Literal
	if c.check(lexer.TokenLBrace) && c.lastWasTypeLike() {
		return c.convertStructLiteral(name)
	}
	v := &ast.VariableIdentifier{Name: name}
	v.Position = c.peekAt(-1).Pos
	v.Linked = ast.NoNode
	return v
}

// isLambdaCapture peeks past a leading '[' capture list for ']' then '('.
func (c *Converter) isLambdaCapture() bool {
	depth := 0
	for i := 0; ; i++ {
		t := c.peekAt(i)
		if t.Type == lexer.TokenEOF {
			return false
		}
		if t.Type == lexer.TokenLBracket {
			depth++
		} else if t.Type == lexer.TokenRBracket {
			depth--
			if depth == 0 {
				return c.peekAt(i + 1).Type == lexer.TokenLParen
			}
		}
	}
}

// lastWasTypeLike is a conservative check: an identifier immediately
// followed by '{' is a struct literal unless we're inside a condition/paren
// context, which convertExpr callers already guard by precedence (an 'if'
// condition is parsed at PrecAssignment and its '(' ')' wrapper prevents the
// ambiguity from ever reaching here for control-flow heads).
func (c *Converter) lastWasTypeLike() bool { return true }

func (c *Converter) convertLambda() ast.Value {
	start := c.cur().Pos
	c.expect(lexer.TokenLBracket, "'['")
	lam := &ast.Lambda{IsCapturing: true}
	lam.Position = start
	for !c.check(lexer.TokenRBracket) && !c.check(lexer.TokenEOF) {
		lam.Captures = append(lam.Captures, c.expect(lexer.TokenIdentifier, "capture name").Literal)
		if !c.match(lexer.TokenComma) {
			break
		}
	}
	c.expect(lexer.TokenRBracket, "']'")
	lam.Params = c.convertParams()
	if c.match(lexer.TokenColon) {
		lam.ReturnType = c.convertType()
	} else {
		lam.ReturnType = ast.Void
	}
	lam.Body = c.convertBlock()
	return lam
}

func (c *Converter) convertStructLiteral(name string) ast.Value {
	start := c.peekAt(-1).Pos
	c.expect(lexer.TokenLBrace, "'{'")
	sv := &ast.StructValue{StructName: name}
	sv.Position = start
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		fname := c.expect(lexer.TokenIdentifier, "field name").Literal
		c.expect(lexer.TokenColon, "':'")
		val := c.convertExpr(PrecAssignment)
		sv.Fields = append(sv.Fields, ast.StructValueField{Name: fname, Value: c.arena.AddValue(val)})
		if !c.match(lexer.TokenComma) {
			break
		}
	}
	sv.EndPos = c.expect(lexer.TokenRBrace, "'}'").Pos
	return sv
}

func (c *Converter) convertArrayLiteral() ast.Value {
	start := c.advance().Pos // '['
	av := &ast.ArrayValue{}
	av.Position = start
	for !c.check(lexer.TokenRBracket) && !c.check(lexer.TokenEOF) {
		av.Elements = append(av.Elements, c.arena.AddValue(c.convertExpr(PrecAssignment)))
		if !c.match(lexer.TokenComma) {
			break
		}
	}
	av.EndPos = c.expect(lexer.TokenRBracket, "']'").Pos
	return av
}

func (c *Converter) convertCast() ast.Value {
	start := c.advance().Pos // 'cast'
	c.expect(lexer.TokenLt, "'<'")
	target := c.convertType()
	c.consumeGenericClose()
	c.expect(lexer.TokenLParen, "'('")
	operand := c.convertExpr(PrecAssignment)
	c.expect(lexer.TokenRParen, "')'")
	v := &ast.Cast{Operand: c.arena.AddValue(operand), Target: target}
	v.Position = start
	return v
}
