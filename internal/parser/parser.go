// Package parser implements the syntax analysis for ember-lang.
// It uses Pratt parsing for expressions and recursive descent for
// statements/declarations, with per-statement error recovery so one pass
// reports every syntax error it can find.
package parser

import (
	"fmt"
	"strconv"

	"ember-lang/internal/ast"
	"ember-lang/internal/diag"
	"ember-lang/internal/lexer"
	"ember-lang/internal/span"
	"ember-lang/internal/token"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpOr         = 10 // or
	bpAnd        = 20 // and
	bpEquality   = 30 // == !=
	bpComparison = 40 // < <= > >=
	bpAdditive   = 50 // + -
	bpMultiply   = 60 // * / %
	bpPrefix     = 70 // - not
	bpPostfix    = 80 // () [] .
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.KW_OR:
		return bpOr
	case token.KW_AND:
		return bpAnd
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.LPAREN, token.LBRACKET, token.DOT:
		return bpPostfix
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse lexes and parses source text in one call. It returns the Program
// and every lex and parse diagnostic; the Program is nil when any
// error diagnostics exist.
func Parse(source, filename string) (*ast.Program, []diag.Diagnostic) {
	l := lexer.New(source, filename)
	tokens, lexDiags := l.Tokenize()
	p := New(tokens)
	program, parseDiags := p.ParseProgram()
	all := append(lexDiags, parseDiags...)
	if diag.HasErrors(all) {
		return nil, all
	}
	return program, nil
}

// ParseProgram parses the entire token stream and returns the AST root and
// diagnostics. The returned Program is non-nil even when diagnostics exist;
// callers that need the no-partial-AST contract use Parse.
func (p *Parser) ParseProgram() (*ast.Program, []diag.Diagnostic) {
	program := &ast.Program{}
	startPos := p.peek().Span.Start

	p.skipSep()
	for !p.isAtEnd() {
		before := p.pos
		stmt := p.parseStmt()
		if stmt != nil {
			program.Body = append(program.Body, stmt)
		}
		if p.pos == before {
			// Recovery stopped on a token no statement can start, such as
			// a stray '}' or 'end'. Consume it so the loop always advances.
			p.advance()
		}
		p.skipSep()
	}

	endPos := p.peek().Span.End
	program.Span = span.Span{Start: startPos, End: endPos}
	return program, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

// peekNextKind returns the kind of the token after the current one.
func (p *Parser) peekNextKind() token.Kind {
	if p.pos+1 >= len(p.tokens) {
		return token.EOF
	}
	return p.tokens[p.pos+1].Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected '%s', got '%s'", kind, tok.Kind))
	return tok, false
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// skipSep skips semicolon statement terminators.
func (p *Parser) skipSep() {
	for p.check(token.SEMICOLON) {
		p.advance()
	}
}

func (p *Parser) error(code string, s span.Span, msg string) {
	p.diags = append(p.diags, diag.Errorf(code, s, "%s", msg))
}

// ============================================================
// Error recovery
// ============================================================

// synchronize skips tokens until a likely statement boundary: a consumed
// semicolon, a statement-starting keyword, or a closing brace.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.check(token.SEMICOLON) {
			p.advance()
			return
		}
		if p.match(token.RBRACE, token.KW_END) {
			return
		}
		if p.match(token.KW_VAR, token.KW_FUNC, token.KW_OBJECT, token.KW_IF,
			token.KW_WHILE, token.KW_FOR, token.KW_RETURN, token.KW_BREAK, token.KW_CONTINUE) {
			return
		}
		p.advance()
	}
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.KW_VAR:
		return p.parseVarDecl()
	case token.KW_FUNC:
		return p.parseFuncDecl()
	case token.KW_OBJECT:
		return p.parseObjectDecl()
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_FOR:
		return p.parseForStmt()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.KW_BREAK:
		return p.parseBreakStmt()
	case token.KW_CONTINUE:
		return p.parseContinueStmt()
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseSimpleStmt()
	}
}

// parseVarDecl parses: var NAME [: TYPE] = expr [;]
// The type annotation is consumed and discarded.
func (p *Parser) parseVarDecl() *ast.VarDeclStmt {
	start := p.advance() // consume 'var'
	stmt := &ast.VarDeclStmt{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Name = nameTok.Lexeme

	if p.check(token.COLON) {
		p.advance()
		p.expect(token.IDENT)
	}

	if _, ok := p.expect(token.ASSIGN); !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Init = p.parseExpr(bpNone)
	p.terminator()

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseIfStmt parses: if expr then { } {elif expr then { }} [else { }] end
func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.advance() // consume 'if'
	stmt := &ast.IfStmt{}

	stmt.Condition = p.parseExpr(bpNone)
	if stmt.Condition == nil {
		p.errorAtCurrent()
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	p.expect(token.KW_THEN)
	stmt.Body = p.parseBlock()

	for p.check(token.KW_ELIF) {
		elifStart := p.advance() // consume 'elif'
		clause := ast.ElifClause{}
		clause.Condition = p.parseExpr(bpNone)
		if clause.Condition == nil {
			p.errorAtCurrent()
			p.synchronize()
			break
		}
		p.expect(token.KW_THEN)
		clause.Body = p.parseBlock()
		clause.Span = p.makeSpan(elifStart.Span.Start)
		stmt.Elifs = append(stmt.Elifs, clause)
	}

	if p.check(token.KW_ELSE) {
		p.advance()
		stmt.ElseBody = p.parseBlock()
	}

	p.expect(token.KW_END)
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseWhileStmt parses: while expr do { } end
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	stmt := &ast.WhileStmt{}

	stmt.Condition = p.parseExpr(bpNone)
	if stmt.Condition == nil {
		p.errorAtCurrent()
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	p.expect(token.KW_DO)
	stmt.Body = p.parseBlock()
	p.expect(token.KW_END)
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseForStmt parses: for NAME = start, stop [, step] do { } end
func (p *Parser) parseForStmt() ast.Stmt {
	start := p.advance() // consume 'for'
	stmt := &ast.ForStmt{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.VarName = nameTok.Lexeme

	if _, ok := p.expect(token.ASSIGN); !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Start = p.parseExpr(bpNone)
	if _, ok := p.expect(token.COMMA); !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Stop = p.parseExpr(bpNone)
	if p.check(token.COMMA) {
		p.advance()
		stmt.Step = p.parseExpr(bpNone)
	}

	p.expect(token.KW_DO)
	stmt.Body = p.parseBlock()
	p.expect(token.KW_END)
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseReturnStmt parses: return [expr] [;]
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	stmt := &ast.ReturnStmt{}

	if !p.match(token.SEMICOLON, token.RBRACE, token.KW_END, token.EOF) {
		stmt.Value = p.parseExpr(bpNone)
	}
	p.terminator()

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

func (p *Parser) parseBreakStmt() *ast.BreakStmt {
	start := p.advance()
	p.terminator()
	return &ast.BreakStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd())}
}

func (p *Parser) parseContinueStmt() *ast.ContinueStmt {
	start := p.advance()
	p.terminator()
	return &ast.ContinueStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd())}
}

// parseSimpleStmt parses an expression statement or assignment.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	expr := p.parseExpr(bpNone)
	if expr == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
		p.synchronize()
		return nil
	}

	// Check for assignment: lvalue = value
	if p.check(token.ASSIGN) {
		p.advance()
		value := p.parseExpr(bpNone)
		if value == nil {
			p.errorAtCurrent()
			p.synchronize()
			return nil
		}
		p.terminator()
		return p.makeAssign(expr, value)
	}

	// Compound assignment: lvalue += / -= / *= / /= value
	if p.match(token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN) {
		opTok := p.advance()
		rhs := p.parseExpr(bpNone)
		p.terminator()
		if rhs == nil {
			p.errorAtCurrent()
			p.synchronize()
			return nil
		}
		// Desugar: target op= rhs → target = target op rhs
		value := &ast.BinaryExpr{
			ExprBase: makeExprBase(expr.GetSpan().Start, rhs.GetSpan().End),
			Op:       compoundToOp(opTok.Kind),
			Left:     expr,
			Right:    rhs,
		}
		return p.makeAssign(expr, value)
	}

	p.terminator()
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, expr.GetSpan().End),
		Expr:     expr,
	}
}

// makeAssign validates the assignment target and builds an AssignStmt.
func (p *Parser) makeAssign(target ast.Expr, value ast.Expr) ast.Stmt {
	switch target.(type) {
	case *ast.IdentExpr, *ast.MemberExpr, *ast.IndexExpr:
	default:
		p.error("E2004", target.GetSpan(), "invalid assignment target")
		return nil
	}
	return &ast.AssignStmt{
		StmtBase: makeStmtBase(target.GetSpan().Start, p.prevEnd()),
		Target:   target,
		Value:    value,
	}
}

// terminator consumes an optional trailing semicolon.
func (p *Parser) terminator() {
	if p.check(token.SEMICOLON) {
		p.advance()
	}
}

// errorAtCurrent reports a generic unexpected-token error at the current token.
func (p *Parser) errorAtCurrent() {
	tok := p.peek()
	p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Kind))
}

// parseBlock parses: { stmts }
// Inner statements recover individually, so one bad statement does not
// poison the rest of the block.
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.peek()
	block := &ast.BlockStmt{}

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		block.Span = p.makeSpan(start.Span.Start)
		return block
	}

	p.skipSep()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		before := p.pos
		stmt := p.parseStmt()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.pos == before {
			// Stray 'end' or other token recovery cannot place. Consume it
			// so the loop always advances.
			p.advance()
		}
		p.skipSep()
	}

	p.expect(token.RBRACE)
	block.Span = p.makeSpan(start.Span.Start)
	return block
}

// ============================================================
// Declaration parsing
// ============================================================

// parseFuncDecl parses: func NAME ( params ) [: TYPE] : { } end
// The return type annotation is consumed and discarded.
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.advance() // consume 'func'
	decl := &ast.FuncDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	decl.Params = p.parseParamList()
	if !p.parseFuncHeaderColon() {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Body = p.parseBlock()
	p.expect(token.KW_END)
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseFuncHeaderColon consumes the ':' that introduces a function or event
// body, allowing an optional ': TYPE' annotation first.
func (p *Parser) parseFuncHeaderColon() bool {
	if _, ok := p.expect(token.COLON); !ok {
		return false
	}
	// ': TYPE :' form: the annotation is an identifier followed by the
	// real body colon.
	if p.check(token.IDENT) && p.peekNextKind() == token.COLON {
		p.advance() // type name
		p.advance() // ':'
	}
	return true
}

// parseObjectDecl parses: object NAME : { members } end
// Members are var declarations, func methods, or 'on' event handlers.
func (p *Parser) parseObjectDecl() *ast.ObjectDecl {
	start := p.advance() // consume 'object'
	decl := &ast.ObjectDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	if _, ok := p.expect(token.COLON); !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}

	p.skipSep()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		before := p.pos
		switch p.peekKind() {
		case token.KW_VAR:
			v := p.parseVarDecl()
			decl.Members = append(decl.Members, ast.ObjectMember{Kind: ast.MemberVar, Var: v})
		case token.KW_FUNC:
			f := p.parseFuncDecl()
			decl.Members = append(decl.Members, ast.ObjectMember{Kind: ast.MemberMethod, Method: f})
		case token.KW_ON:
			e := p.parseEventDecl()
			decl.Members = append(decl.Members, ast.ObjectMember{Kind: ast.MemberEvent, Event: e})
		default:
			tok := p.peek()
			p.error("E2003", tok.Span, fmt.Sprintf("expected 'var', 'func', or 'on' in object body, got '%s'", tok.Lexeme))
			p.synchronize()
		}
		if p.pos == before {
			// synchronize stops at 'end' and statement keywords that are
			// not object members. Consume so the loop always advances.
			p.advance()
		}
		p.skipSep()
	}

	p.expect(token.RBRACE)
	p.expect(token.KW_END)
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseEventDecl parses: on NAME ( params ) : { } end
func (p *Parser) parseEventDecl() *ast.EventDecl {
	start := p.advance() // consume 'on'
	decl := &ast.EventDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	decl.Params = p.parseParamList()
	if !p.parseFuncHeaderColon() {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Body = p.parseBlock()
	p.expect(token.KW_END)
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseParamList parses: ( ident, ident, ... )
func (p *Parser) parseParamList() []string {
	var params []string

	if _, ok := p.expect(token.LPAREN); !ok {
		return params
	}

	if !p.check(token.RPAREN) {
		nameTok, ok := p.expect(token.IDENT)
		if ok {
			params = append(params, nameTok.Lexeme)
		}
		for p.check(token.COMMA) {
			p.advance() // consume ','
			nameTok, ok = p.expect(token.IDENT)
			if ok {
				params = append(params, nameTok.Lexeme)
			}
		}
	}

	p.expect(token.RPAREN)
	return params
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseExpr parses an expression with the given minimum binding power.
func (p *Parser) parseExpr(minBP int) ast.Expr {
	left := p.nud()
	if left == nil {
		return nil
	}

	for {
		kind := p.peekKind()
		bp := infixBP(kind)
		if bp <= minBP {
			break
		}
		left = p.led(left)
		if left == nil {
			return nil
		}
	}

	return left
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.INT:
		p.advance()
		val, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.IntLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    val,
		}

	case token.FLOAT:
		p.advance()
		val, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.FloatLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    val,
		}

	case token.STRING:
		p.advance()
		return &ast.StringLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    tok.Lexeme,
		}

	case token.KW_TRUE:
		p.advance()
		return &ast.BoolLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    true,
		}

	case token.KW_FALSE:
		p.advance()
		return &ast.BoolLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    false,
		}

	case token.KW_NIL:
		p.advance()
		return &ast.NilLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
		}

	case token.IDENT:
		p.advance()
		return &ast.IdentExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Name:     tok.Lexeme,
		}

	case token.LPAREN:
		// Grouped expression: ( expr )
		p.advance()
		expr := p.parseExpr(bpNone)
		p.expect(token.RPAREN)
		return expr

	case token.MINUS, token.KW_NOT:
		// Unary: -expr, not expr, !expr
		p.advance()
		operand := p.parseExpr(bpPrefix)
		if operand == nil {
			p.errorAtCurrent()
			return nil
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       tok.Kind,
			Operand:  operand,
		}

	case token.LBRACE:
		return p.parseTableLiteral()

	default:
		return nil
	}
}

// led handles infix/postfix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE,
		token.KW_AND, token.KW_OR:
		// Binary infix operator (left-associative)
		bp := infixBP(tok.Kind)
		p.advance()
		right := p.parseExpr(bp)
		if right == nil {
			p.errorAtCurrent()
			return nil
		}
		return &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}

	case token.LPAREN:
		// Call expression: callee(args)
		return p.parseCallExpr(left)

	case token.LBRACKET:
		// Index expression: object[index]
		p.advance()
		index := p.parseExpr(bpNone)
		end, _ := p.expect(token.RBRACKET)
		return &ast.IndexExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, end.Span.End),
			Object:   left,
			Index:    index,
		}

	case token.DOT:
		// Member access: object.field
		p.advance()
		fieldTok, _ := p.expect(token.IDENT)
		return &ast.MemberExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, fieldTok.Span.End),
			Object:   left,
			Field:    fieldTok.Lexeme,
		}

	default:
		return left
	}
}

// parseCallExpr parses: callee ( args )
func (p *Parser) parseCallExpr(callee ast.Expr) *ast.CallExpr {
	p.advance() // consume '('
	var args []ast.Expr

	if !p.check(token.RPAREN) {
		args = append(args, p.parseExpr(bpNone))
		for p.check(token.COMMA) {
			p.advance()
			args = append(args, p.parseExpr(bpNone))
		}
	}
	end, _ := p.expect(token.RPAREN)

	return &ast.CallExpr{
		ExprBase: makeExprBase(callee.GetSpan().Start, end.Span.End),
		Callee:   callee,
		Args:     args,
	}
}

// parseTableLiteral parses: { ident: expr, expr, ... }
// Keyed entries require an identifier key; bare entries are keyed at
// evaluation time by their stringified position in the literal.
func (p *Parser) parseTableLiteral() *ast.TableLiteral {
	start := p.advance() // consume '{'
	lit := &ast.TableLiteral{}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		var field ast.TableField
		if p.check(token.IDENT) && p.peekNextKind() == token.COLON {
			keyTok := p.advance()
			p.advance() // ':'
			field.Key = keyTok.Lexeme
			field.Value = p.parseExpr(bpNone)
		} else {
			field.Value = p.parseExpr(bpNone)
		}
		if field.Value == nil {
			p.errorAtCurrent()
			break
		}
		lit.Fields = append(lit.Fields, field)

		if p.check(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}

	p.expect(token.RBRACE)
	lit.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return lit
}

// compoundToOp maps a compound assignment token to its binary operator.
func compoundToOp(kind token.Kind) token.Kind {
	switch kind {
	case token.PLUS_ASSIGN:
		return token.PLUS
	case token.MINUS_ASSIGN:
		return token.MINUS
	case token.STAR_ASSIGN:
		return token.STAR
	case token.SLASH_ASSIGN:
		return token.SLASH
	default:
		return token.PLUS
	}
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
