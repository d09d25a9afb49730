package cst

import (
	"testing"

	"github.com/hassan/chemc/internal/lexer"
)

func significant(tokens []lexer.Token) []lexer.Token {
	var out []lexer.Token
	for _, tok := range tokens {
		if tok.Type.IsTrivia() || tok.Type == lexer.TokenEOF {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func TestBuildIsLosslessOverTokens(t *testing.T) {
	lex := lexer.New("func main() : int { return 0; }", "hello.ch")
	toks := lex.Lex()

	root := NewBuilder(toks, "hello.ch").Build()
	rebuilt := root.Tokens()

	if len(rebuilt) != len(toks)-1 { // -1 for the trailing EOF token
		t.Fatalf("expected %d tokens in tree, got %d", len(toks)-1, len(rebuilt))
	}
	for i, tok := range rebuilt {
		if tok.Literal != toks[i].Literal {
			t.Errorf("token %d mismatch: got %q want %q", i, tok.Literal, toks[i].Literal)
		}
	}
}

func TestBuildNestsBraceSpan(t *testing.T) {
	lex := lexer.New("{ 1 }", "block.ch")
	root := NewBuilder(significant(lex.Lex()), "block.ch").Build()
	if len(root.Children) != 1 {
		t.Fatalf("expected a single top-level group, got %d", len(root.Children))
	}
	group := root.Children[0]
	if group.Kind != KindBlockStmt {
		t.Fatalf("expected KindBlockStmt, got %v", group.Kind)
	}
	if len(group.Children) != 3 { // '{', '1', '}'
		t.Fatalf("expected 3 children (open, body, close), got %d", len(group.Children))
	}
}

func TestBuildReportsUnterminatedSpan(t *testing.T) {
	lex := lexer.New("{ 1", "bad.ch")
	b := NewBuilder(significant(lex.Lex()), "bad.ch")
	b.Build()
	if !b.Diagnostics().HasErrors() {
		t.Fatalf("expected a diagnostic for the unterminated brace")
	}
}
