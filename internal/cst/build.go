package cst

import (
	"github.com/hassan/chemc/internal/diagnostics"
	"github.com/hassan/chemc/internal/lexer"
)

// groupKindFor maps a span opener's token type to the CST kind its compound
// group receives. The CST→AST converter refines this further (e.g. a
// KindBlockStmt immediately following `if (...)` becomes the then-branch of
// an IfStmt) — the CST layer only commits to the generic bracket shape.
func groupKindFor(opener lexer.TokenType) Kind {
	switch opener {
	case lexer.TokenLParen:
		return KindParenExpr
	case lexer.TokenLBrace:
		return KindBlockStmt
	case lexer.TokenLBracket:
		return KindArrayLiteral
	default:
		return KindFile
	}
}

// Builder folds a flat, lossless token stream into a CST by matching span
// openers/closers (§4.2/§4.3). Trivia tokens are kept as leaves so no byte of
// the source is ever dropped.
type Builder struct {
	tokens []lexer.Token
	pos    int
	diags  diagnostics.Bag
	file   string
}

func NewBuilder(tokens []lexer.Token, file string) *Builder {
	return &Builder{tokens: tokens, file: file}
}

func (b *Builder) Diagnostics() *diagnostics.Bag { return &b.diags }

// Build consumes the whole token stream into one KindFile root.
func (b *Builder) Build() *Node {
	var children []*Node
	for !b.atEnd() {
		if b.peek().Type == lexer.TokenEOF {
			break
		}
		children = append(children, b.buildOne())
	}
	return &Node{Kind: KindFile, Children: children}
}

func (b *Builder) atEnd() bool { return b.pos >= len(b.tokens) }
func (b *Builder) peek() lexer.Token {
	if b.atEnd() {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return b.tokens[b.pos]
}

// buildOne consumes one leaf, or — if the next token is a span opener — the
// whole matching compound span, recursively.
func (b *Builder) buildOne() *Node {
	tok := b.peek()
	if !tok.Type.IsSpanOpener() {
		b.pos++
		return Leaf(tok)
	}
	return b.buildSpan()
}

func (b *Builder) buildSpan() *Node {
	opener := b.tokens[b.pos]
	b.pos++
	closer := lexer.MatchingCloser(opener.Type)
	kind := groupKindFor(opener.Type)

	children := []*Node{Leaf(opener)}
	for {
		if b.atEnd() || b.peek().Type == lexer.TokenEOF {
			// Unexpected EOF inside a compound: close spans and report
			// (§4.2 failure model).
			b.diags.Errorf(opener.Pos, b.file, "unterminated %s starting here", opener.Type)
			break
		}
		if b.peek().Type == closer {
			children = append(children, Leaf(b.tokens[b.pos]))
			b.pos++
			break
		}
		if b.peek().Type.IsSpanCloser() {
			// Mismatch: recovered at statement scope by closing to the
			// nearest enclosing statement span, per §4.2.
			b.diags.Errorf(b.peek().Pos, b.file, "mismatched closer %s, expected %s", b.peek().Type, closer)
			break
		}
		children = append(children, b.buildOne())
	}
	n := Compound(kind, children...)
	return n
}
