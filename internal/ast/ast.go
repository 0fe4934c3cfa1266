// Package ast defines the abstract syntax tree for ember-lang.
//
// Nodes are immutable once parsed and owned by the Program; function values
// in the runtime reference FuncDecl nodes rather than copying them.
package ast

import (
	"ember-lang/internal/span"
	"ember-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (top-level AST root)
// ============================================================

// Program represents an entire source file: its ordered top-level statements.
type Program struct {
	NodeBase
	Body []Stmt
}

// ============================================================
// Expressions
// ============================================================

// IdentExpr represents an identifier reference.
type IdentExpr struct {
	ExprBase
	Name string
}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	ExprBase
	Value int64
}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	ExprBase
	Value float64
}

// StringLiteral represents a string literal.
type StringLiteral struct {
	ExprBase
	Value string
}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	ExprBase
	Value bool
}

// NilLiteral represents nil.
type NilLiteral struct {
	ExprBase
}

// UnaryExpr represents a unary operation: -x, not x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr represents a binary operation: a + b, x == y, p and q.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// CallExpr represents a function call: f(a, b).
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// MemberExpr represents member access: t.field.
type MemberExpr struct {
	ExprBase
	Object Expr
	Field  string
}

// IndexExpr represents indexing: t["key"].
type IndexExpr struct {
	ExprBase
	Object Expr
	Index  Expr
}

// TableField is one entry of a table literal: either an identifier key with
// a value, or a bare expression keyed by its stringified position.
type TableField struct {
	Key   string // empty for bare (positional) entries
	Value Expr
}

// TableLiteral represents a table literal: {x: 10, y: 20} or {1, 2, 3}.
type TableLiteral struct {
	ExprBase
	Fields []TableField
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// VarDeclStmt represents a variable declaration: var x = expr.
// An optional type annotation is consumed at parse time and discarded.
type VarDeclStmt struct {
	StmtBase
	Name string
	Init Expr
}

// AssignStmt represents an assignment: target = value.
type AssignStmt struct {
	StmtBase
	Target Expr // must be a valid lvalue (ident, member, index)
	Value  Expr
}

// BlockStmt represents a block of statements: { ... }.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents an if/elif/else chain.
type IfStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
	Elifs     []ElifClause
	ElseBody  *BlockStmt // may be nil
}

// ElifClause represents a single "elif" branch.
type ElifClause struct {
	Span      span.Span
	Condition Expr
	Body      *BlockStmt
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
}

// ForStmt represents a numeric stepped loop:
// for i = start, stop [, step] do { body } end.
type ForStmt struct {
	StmtBase
	VarName string
	Start   Expr
	Stop    Expr
	Step    Expr // may be nil (defaults to 1)
	Body    *BlockStmt
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	StmtBase
	Value Expr // may be nil
}

// BreakStmt represents a break statement.
type BreakStmt struct {
	StmtBase
}

// ContinueStmt represents a continue statement.
type ContinueStmt struct {
	StmtBase
}

// ============================================================
// Declarations (also implement Stmt)
// ============================================================

// FuncDecl represents a function declaration:
// func name(params) [: type] : { body } end.
type FuncDecl struct {
	StmtBase
	Name   string
	Params []string
	Body   *BlockStmt
}

// ObjectDecl represents an object declaration:
// object Name : { members } end.
type ObjectDecl struct {
	StmtBase
	Name    string
	Members []ObjectMember
}

// MemberKind discriminates the three object member forms.
type MemberKind int

const (
	MemberVar MemberKind = iota
	MemberMethod
	MemberEvent
)

// ObjectMember is one member of an object declaration. Exactly one of
// Var/Method/Event is set, according to Kind.
type ObjectMember struct {
	Kind   MemberKind
	Var    *VarDeclStmt
	Method *FuncDecl
	Event  *EventDecl
}

// EventDecl represents an event handler declaration inside an object:
// on name(params) : { body } end.
type EventDecl struct {
	StmtBase
	Name   string
	Params []string
	Body   *BlockStmt
}
