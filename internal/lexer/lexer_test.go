package lexer

import "testing"

func significant(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if tok.Type.IsTrivia() || tok.Type == TokenEOF {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func TestLexHelloFunction(t *testing.T) {
	lex := New("func main() : int { return 0; }", "hello.ch")
	toks := significant(lex.Lex())

	want := []TokenType{
		TokenKeyword, TokenIdentifier, TokenLParen, TokenRParen,
		TokenColon, TokenTypeKeyword, TokenLBrace, TokenKeyword,
		TokenIntLiteral, TokenSemicolon, TokenRBrace,
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(toks), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: expected %s, got %s (%q)", i, w, toks[i].Type, toks[i].Literal)
		}
	}
}

func TestLexRoundTripIsLossless(t *testing.T) {
	src := "var x = 1 + 2 // trailing\n"
	lex := New(src, "rt.ch")
	var rebuilt string
	for _, tok := range lex.Lex() {
		if tok.Type == TokenEOF {
			continue
		}
		rebuilt += tok.Literal
	}
	if rebuilt != src {
		t.Fatalf("lex round-trip mismatch:\n got: %q\nwant: %q", rebuilt, src)
	}
}

func TestLexStringEscapeStaysSingleToken(t *testing.T) {
	lex := New(`"a\"b"`, "str.ch")
	toks := significant(lex.Lex())
	if len(toks) != 1 || toks[0].Type != TokenStringLiteral {
		t.Fatalf("expected a single string token, got %v", toks)
	}
	if toks[0].Literal != `"a\"b"` {
		t.Fatalf("expected escape preserved unescaped, got %q", toks[0].Literal)
	}
}

func TestLexNestedBlockComment(t *testing.T) {
	lex := New("/* outer /* inner */ still outer */", "comment.ch")
	toks := lex.Lex()
	if len(toks) != 2 { // comment + EOF
		t.Fatalf("expected a single block comment token, got %d tokens: %v", len(toks), toks)
	}
	if toks[0].Type != TokenBlockComment {
		t.Fatalf("expected block comment, got %s", toks[0].Type)
	}
}

func TestLexUnterminatedStringReportsDiagnostic(t *testing.T) {
	lex := New(`"unterminated`, "bad.ch")
	lex.Lex()
	if !lex.Diagnostics().HasErrors() {
		t.Fatalf("expected a diagnostic for unterminated string")
	}
}

func TestLexNumberForms(t *testing.T) {
	cases := map[string]TokenType{
		"42":     TokenIntLiteral,
		"3.14":   TokenFloatLiteral,
		"1e10":   TokenFloatLiteral,
		"1.5e-3": TokenFloatLiteral,
	}
	for lit, want := range cases {
		toks := significant(New(lit, "num.ch").Lex())
		if len(toks) != 1 || toks[0].Type != want {
			t.Errorf("lexing %q: expected %s, got %v", lit, want, toks)
		}
	}
}

func TestLexAnnotationMarker(t *testing.T) {
	toks := significant(New("@comptime", "ann.ch").Lex())
	if len(toks) != 1 || toks[0].Type != TokenAnnotationMarker || toks[0].Literal != "@comptime" {
		t.Fatalf("expected annotation marker, got %v", toks)
	}
}
