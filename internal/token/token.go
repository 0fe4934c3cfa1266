// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"

	"ember-lang/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT  // identifiers: x, foo, myVar
	INT    // integer literals: 123
	FLOAT  // float literals: 3.14
	STRING // string literals: "hello"

	// Operators
	ASSIGN  // =
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	// Compound assignment
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	STAR_ASSIGN  // *=
	SLASH_ASSIGN // /=

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	COLON     // :
	SEMICOLON // ;

	// Keywords
	KW_VAR
	KW_FUNC
	KW_OBJECT
	KW_ON
	KW_IF
	KW_ELIF
	KW_ELSE
	KW_WHILE
	KW_FOR
	KW_DO
	KW_THEN
	KW_END
	KW_RETURN
	KW_BREAK
	KW_CONTINUE
	KW_TRUE
	KW_FALSE
	KW_NIL
	KW_AND
	KW_OR
	KW_NOT
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	ASSIGN:  "=",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	EQ:      "==",
	NEQ:     "!=",
	LT:      "<",
	LTE:     "<=",
	GT:      ">",
	GTE:     ">=",

	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",
	STAR_ASSIGN:  "*=",
	SLASH_ASSIGN: "/=",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	DOT:       ".",
	COLON:     ":",
	SEMICOLON: ";",

	KW_VAR:      "var",
	KW_FUNC:     "func",
	KW_OBJECT:   "object",
	KW_ON:       "on",
	KW_IF:       "if",
	KW_ELIF:     "elif",
	KW_ELSE:     "else",
	KW_WHILE:    "while",
	KW_FOR:      "for",
	KW_DO:       "do",
	KW_THEN:     "then",
	KW_END:      "end",
	KW_RETURN:   "return",
	KW_BREAK:    "break",
	KW_CONTINUE: "continue",
	KW_TRUE:     "true",
	KW_FALSE:    "false",
	KW_NIL:      "nil",
	KW_AND:      "and",
	KW_OR:       "or",
	KW_NOT:      "not",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_VAR && k <= KW_NOT
}

// IsLiteral returns true if the kind is a literal (ident/int/float/string).
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= STRING
}

var keywords = map[string]Kind{
	"var":      KW_VAR,
	"func":     KW_FUNC,
	"object":   KW_OBJECT,
	"on":       KW_ON,
	"if":       KW_IF,
	"elif":     KW_ELIF,
	"else":     KW_ELSE,
	"while":    KW_WHILE,
	"for":      KW_FOR,
	"do":       KW_DO,
	"then":     KW_THEN,
	"end":      KW_END,
	"return":   KW_RETURN,
	"break":    KW_BREAK,
	"continue": KW_CONTINUE,
	"true":     KW_TRUE,
	"false":    KW_FALSE,
	"nil":      KW_NIL,
	"and":      KW_AND,
	"or":       KW_OR,
	"not":      KW_NOT,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token represents a lexical token with its kind, text, and source location.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
