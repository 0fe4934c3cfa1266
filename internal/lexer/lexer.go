// Package lexer implements the lexical analysis (tokenization) for ember-lang.
package lexer

import (
	"fmt"

	"ember-lang/internal/diag"
	"ember-lang/internal/span"
	"ember-lang/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// The token slice always ends with an EOF token.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

// skipWhitespaceAndComments skips spaces, tabs, newlines, and both comment
// forms. An unterminated block comment consumes to end of input silently.
func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.source) {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for l.pos < len(l.source) && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekNext() == '*':
			l.advance() // '/'
			l.advance() // '*'
			for l.pos < len(l.source) {
				if l.peek() == '*' && l.peekNext() == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

// addError records a diagnostic error.
func (l *Lexer) addError(code string, s span.Span, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, s, "%s", msg))
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.source) {
		return token.Token{Kind: token.EOF, Lexeme: "", Span: span.At(l.curPos())}
	}

	start := l.curPos()
	ch := l.peek()

	if ch == '"' {
		return l.readString(start)
	}
	if isDigit(ch) {
		return l.readNumber(start)
	}
	if isIdentStart(ch) {
		return l.readIdentifier(start)
	}
	return l.readOperator(start)
}

// readString reads a double-quoted string literal. Escapes \n \t \r \\ \"
// are decoded; an unknown escape passes the character through and reports a
// diagnostic. An unterminated string consumes to end of input and reports a
// diagnostic.
func (l *Lexer) readString(start span.Position) token.Token {
	l.advance() // skip opening "
	var value []byte

	for l.pos < len(l.source) {
		ch := l.advance()
		if ch == '"' {
			return token.Token{
				Kind:   token.STRING,
				Lexeme: string(value),
				Span:   l.makeSpan(start),
			}
		}
		if ch == '\\' {
			if l.pos >= len(l.source) {
				break
			}
			esc := l.advance()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case 'r':
				value = append(value, '\r')
			case '\\':
				value = append(value, '\\')
			case '"':
				value = append(value, '"')
			default:
				l.addError("E1002", l.makeSpan(start), fmt.Sprintf("unknown escape sequence: \\%c", esc))
				value = append(value, esc)
			}
			continue
		}
		value = append(value, ch)
	}

	l.addError("E1001", l.makeSpan(start), "unterminated string literal")
	return token.Token{Kind: token.STRING, Lexeme: string(value), Span: l.makeSpan(start)}
}

// readNumber reads an integer or float literal. A single '.' starts the
// fractional part; a second '.' terminates the number. No exponents.
func (l *Lexer) readNumber(start span.Position) token.Token {
	isFloat := false
	numStart := l.pos

	for l.pos < len(l.source) {
		ch := l.peek()
		if isDigit(ch) {
			l.advance()
		} else if ch == '.' && !isFloat {
			isFloat = true
			l.advance()
		} else {
			break
		}
	}

	lexeme := l.source[numStart:l.pos]
	kind := token.INT
	if isFloat {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos

	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}

	lexeme := l.source[identStart:l.pos]
	kind := token.LookupIdent(lexeme)
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// readOperator reads an operator or delimiter token. Two-character forms are
// matched greedily before one-character forms.
func (l *Lexer) readOperator(start span.Position) token.Token {
	ch := l.advance()

	switch ch {
	case '(':
		return l.tok(token.LPAREN, "(", start)
	case ')':
		return l.tok(token.RPAREN, ")", start)
	case '{':
		return l.tok(token.LBRACE, "{", start)
	case '}':
		return l.tok(token.RBRACE, "}", start)
	case '[':
		return l.tok(token.LBRACKET, "[", start)
	case ']':
		return l.tok(token.RBRACKET, "]", start)
	case ',':
		return l.tok(token.COMMA, ",", start)
	case '.':
		return l.tok(token.DOT, ".", start)
	case ':':
		return l.tok(token.COLON, ":", start)
	case ';':
		return l.tok(token.SEMICOLON, ";", start)
	case '%':
		return l.tok(token.PERCENT, "%", start)
	case '+':
		if l.peek() == '=' {
			l.advance()
			return l.tok(token.PLUS_ASSIGN, "+=", start)
		}
		return l.tok(token.PLUS, "+", start)
	case '-':
		if l.peek() == '=' {
			l.advance()
			return l.tok(token.MINUS_ASSIGN, "-=", start)
		}
		return l.tok(token.MINUS, "-", start)
	case '*':
		if l.peek() == '=' {
			l.advance()
			return l.tok(token.STAR_ASSIGN, "*=", start)
		}
		return l.tok(token.STAR, "*", start)
	case '/':
		if l.peek() == '=' {
			l.advance()
			return l.tok(token.SLASH_ASSIGN, "/=", start)
		}
		return l.tok(token.SLASH, "/", start)
	case '=':
		if l.peek() == '=' {
			l.advance()
			return l.tok(token.EQ, "==", start)
		}
		return l.tok(token.ASSIGN, "=", start)
	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.tok(token.NEQ, "!=", start)
		}
		// Bare '!' is logical-not, same kind as the 'not' keyword.
		return l.tok(token.KW_NOT, "!", start)
	case '<':
		if l.peek() == '=' {
			l.advance()
			return l.tok(token.LTE, "<=", start)
		}
		return l.tok(token.LT, "<", start)
	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.tok(token.GTE, ">=", start)
		}
		return l.tok(token.GT, ">", start)
	default:
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: '%c'", ch))
		return l.tok(token.ILLEGAL, string(ch), start)
	}
}

func (l *Lexer) tok(kind token.Kind, lexeme string, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
