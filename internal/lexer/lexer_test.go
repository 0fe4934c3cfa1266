package lexer

import (
	"testing"

	"ember-lang/internal/token"
)

func expectKinds(t *testing.T, source string, expected []token.Kind) {
	t.Helper()
	l := New(source, "test.em")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}

	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s (%q)", i, exp, tokens[i].Kind, tokens[i].Lexeme)
		}
	}
}

func TestTokenizeSimple(t *testing.T) {
	expectKinds(t, `var x = 1 + 2;`, []token.Kind{
		token.KW_VAR, token.IDENT, token.ASSIGN,
		token.INT, token.PLUS, token.INT, token.SEMICOLON, token.EOF,
	})
}

func TestTokenizeKeywords(t *testing.T) {
	source := `var func object on if elif else while for do then end return break continue true false nil and or not`
	expectKinds(t, source, []token.Kind{
		token.KW_VAR, token.KW_FUNC, token.KW_OBJECT, token.KW_ON,
		token.KW_IF, token.KW_ELIF, token.KW_ELSE,
		token.KW_WHILE, token.KW_FOR, token.KW_DO, token.KW_THEN, token.KW_END,
		token.KW_RETURN, token.KW_BREAK, token.KW_CONTINUE,
		token.KW_TRUE, token.KW_FALSE, token.KW_NIL,
		token.KW_AND, token.KW_OR, token.KW_NOT,
		token.EOF,
	})
}

func TestTokenizeOperators(t *testing.T) {
	expectKinds(t, `= == != < <= > >= + - * / % += -= *= /=`, []token.Kind{
		token.ASSIGN, token.EQ, token.NEQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.EOF,
	})
}

func TestTokenizeBangIsNot(t *testing.T) {
	expectKinds(t, `!x != y`, []token.Kind{
		token.KW_NOT, token.IDENT, token.NEQ, token.IDENT, token.EOF,
	})
}

func TestTokenizeDelimiters(t *testing.T) {
	expectKinds(t, `( ) { } [ ] , . ; :`, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.DOT,
		token.SEMICOLON, token.COLON,
		token.EOF,
	})
}

func TestTokenizeString(t *testing.T) {
	source := `"hello" "line1\nline2" "tab\there"`
	l := New(source, "test.em")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	if tokens[0].Kind != token.STRING || tokens[0].Lexeme != "hello" {
		t.Errorf("expected STRING 'hello', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != token.STRING || tokens[1].Lexeme != "line1\nline2" {
		t.Errorf("expected STRING with newline, got %s %q", tokens[1].Kind, tokens[1].Lexeme)
	}
	if tokens[2].Kind != token.STRING || tokens[2].Lexeme != "tab\there" {
		t.Errorf("expected STRING with tab, got %s %q", tokens[2].Kind, tokens[2].Lexeme)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	l := New(`"oops`, "test.em")
	tokens, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1001" {
		t.Fatalf("expected one E1001 diagnostic, got %v", diags)
	}
	// The partial string is still produced so parsing can continue.
	if tokens[0].Kind != token.STRING || tokens[0].Lexeme != "oops" {
		t.Errorf("expected partial STRING 'oops', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
}

func TestTokenizeUnknownEscape(t *testing.T) {
	l := New(`"a\qb"`, "test.em")
	tokens, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1002" {
		t.Fatalf("expected one E1002 diagnostic, got %v", diags)
	}
	if tokens[0].Lexeme != "aqb" {
		t.Errorf("expected escaped char passed through, got %q", tokens[0].Lexeme)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	source := `123 3.14 0 42`
	l := New(source, "test.em")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	if tokens[0].Kind != token.INT || tokens[0].Lexeme != "123" {
		t.Errorf("token[0]: expected INT '123', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != token.FLOAT || tokens[1].Lexeme != "3.14" {
		t.Errorf("token[1]: expected FLOAT '3.14', got %s %q", tokens[1].Kind, tokens[1].Lexeme)
	}
}

func TestTokenizeNumberTrailingDot(t *testing.T) {
	// "1." is a float; the second '.' in "1.2.3" ends the number.
	l := New(`1. 1.2.3`, "test.em")
	tokens, _ := l.Tokenize()

	expected := []struct {
		kind   token.Kind
		lexeme string
	}{
		{token.FLOAT, "1."},
		{token.FLOAT, "1.2"},
		{token.DOT, "."},
		{token.INT, "3"},
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp.kind || tokens[i].Lexeme != exp.lexeme {
			t.Errorf("token[%d]: expected %s %q, got %s %q", i, exp.kind, exp.lexeme, tokens[i].Kind, tokens[i].Lexeme)
		}
	}
}

func TestTokenizeIllegalChar(t *testing.T) {
	l := New(`var x = 1 @ 2`, "test.em")
	tokens, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1003" {
		t.Fatalf("expected one E1003 diagnostic, got %v", diags)
	}
	found := false
	for _, tok := range tokens {
		if tok.Kind == token.ILLEGAL && tok.Lexeme == "@" {
			found = true
		}
	}
	if !found {
		t.Error("expected an ILLEGAL token for '@'")
	}
}

func TestTokenizeNewlinesAreWhitespace(t *testing.T) {
	expectKinds(t, "a\nb\n", []token.Kind{
		token.IDENT, token.IDENT, token.EOF,
	})
}

func TestTokenizeComments(t *testing.T) {
	expectKinds(t, "x // line comment\ny /* block\ncomment */ z", []token.Kind{
		token.IDENT, token.IDENT, token.IDENT, token.EOF,
	})
}

func TestTokenizePositions(t *testing.T) {
	source := "var x = 1"
	l := New(source, "test.em")
	tokens, _ := l.Tokenize()

	// "var" starts at line 1, col 1
	if tokens[0].Span.Start.Line != 1 || tokens[0].Span.Start.Column != 1 {
		t.Errorf("'var' position: expected 1:1, got %d:%d", tokens[0].Span.Start.Line, tokens[0].Span.Start.Column)
	}
	// "x" starts at line 1, col 5
	if tokens[1].Span.Start.Line != 1 || tokens[1].Span.Start.Column != 5 {
		t.Errorf("'x' position: expected 1:5, got %d:%d", tokens[1].Span.Start.Line, tokens[1].Span.Start.Column)
	}
}

func TestTokenizeMultilinePositions(t *testing.T) {
	source := "var a = 1\nvar b = 2"
	l := New(source, "test.em")
	tokens, _ := l.Tokenize()

	// second "var" starts at line 2, col 1
	if tokens[4].Span.Start.Line != 2 || tokens[4].Span.Start.Column != 1 {
		t.Errorf("second 'var' position: expected 2:1, got %d:%d", tokens[4].Span.Start.Line, tokens[4].Span.Start.Column)
	}
}
