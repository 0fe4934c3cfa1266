package parser

import (
	"encoding/json"
	"testing"
	"time"

	"ember-lang/internal/ast"
	"ember-lang/internal/diag"
	"ember-lang/internal/lexer"
	"ember-lang/internal/token"
)

// helper: parse source and return AST + check for no errors
func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	l := lexer.New(source, "test.em")
	tokens, lexDiags := l.Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("lex errors: %v", lexDiags)
	}
	p := New(tokens)
	program, parseDiags := p.ParseProgram()
	if len(parseDiags) > 0 {
		t.Fatalf("parse errors: %v", parseDiags)
	}
	return program
}

// helper: parse and return JSON string (for golden-test style checks)
func parseToJSON(t *testing.T, source string) string {
	t.Helper()
	program := parseOK(t, source)
	m := ast.NodeToMap(program)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		t.Fatalf("json error: %v", err)
	}
	return string(data)
}

func TestParseVarDecl(t *testing.T) {
	program := parseOK(t, `var x = 42;`)
	if len(program.Body) != 1 {
		t.Fatalf("expected 1 node, got %d", len(program.Body))
	}
	decl, ok := program.Body[0].(*ast.VarDeclStmt)
	if !ok {
		t.Fatalf("expected VarDeclStmt, got %T", program.Body[0])
	}
	if decl.Name != "x" {
		t.Errorf("expected name 'x', got %q", decl.Name)
	}
}

func TestParseVarDeclTypeAnnotation(t *testing.T) {
	// The annotation is accepted and discarded.
	program := parseOK(t, `var count: int = 0;`)
	decl, ok := program.Body[0].(*ast.VarDeclStmt)
	if !ok {
		t.Fatalf("expected VarDeclStmt, got %T", program.Body[0])
	}
	if decl.Name != "count" {
		t.Errorf("expected name 'count', got %q", decl.Name)
	}
	if _, ok := decl.Init.(*ast.IntLiteral); !ok {
		t.Errorf("expected IntLiteral init, got %T", decl.Init)
	}
}

func TestParseBinaryExprPrecedence(t *testing.T) {
	program := parseOK(t, `var z = 1 + 2 * 3;`)
	decl := program.Body[0].(*ast.VarDeclStmt)
	// init should be BinaryExpr: 1 + (2 * 3)
	binExpr, ok := decl.Init.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", decl.Init)
	}
	if binExpr.Op != token.PLUS {
		t.Errorf("expected '+', got %q", binExpr.Op.String())
	}
	rightBin, ok := binExpr.Right.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected right BinaryExpr, got %T", binExpr.Right)
	}
	if rightBin.Op != token.STAR {
		t.Errorf("expected '*', got %q", rightBin.Op.String())
	}
}

func TestParseLogicalPrecedence(t *testing.T) {
	// or binds looser than and: a or (b and c)
	program := parseOK(t, `var z = a or b and c;`)
	decl := program.Body[0].(*ast.VarDeclStmt)
	orExpr := decl.Init.(*ast.BinaryExpr)
	if orExpr.Op != token.KW_OR {
		t.Fatalf("expected 'or' at root, got %q", orExpr.Op.String())
	}
	andExpr, ok := orExpr.Right.(*ast.BinaryExpr)
	if !ok || andExpr.Op != token.KW_AND {
		t.Errorf("expected 'and' on the right, got %T", orExpr.Right)
	}
}

func TestParseUnaryPrecedence(t *testing.T) {
	// -a * b parses as (-a) * b
	program := parseOK(t, `var z = -a * b;`)
	decl := program.Body[0].(*ast.VarDeclStmt)
	mul := decl.Init.(*ast.BinaryExpr)
	if mul.Op != token.STAR {
		t.Fatalf("expected '*' at root, got %q", mul.Op.String())
	}
	if _, ok := mul.Left.(*ast.UnaryExpr); !ok {
		t.Errorf("expected UnaryExpr on the left, got %T", mul.Left)
	}
}

func TestParseIfStmt(t *testing.T) {
	source := `
if x > 0 then {
  println(x);
} elif x == 0 then {
  println(0);
} else {
  println(-1);
} end
`
	program := parseOK(t, source)
	ifStmt, ok := program.Body[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", program.Body[0])
	}
	if ifStmt.Condition == nil {
		t.Fatal("condition is nil")
	}
	if len(ifStmt.Elifs) != 1 {
		t.Errorf("expected 1 elif, got %d", len(ifStmt.Elifs))
	}
	if ifStmt.ElseBody == nil {
		t.Error("else body is nil")
	}
}

func TestParseWhileStmt(t *testing.T) {
	source := `
while i < 10 do {
  i = i + 1;
} end
`
	program := parseOK(t, source)
	whileStmt, ok := program.Body[0].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected WhileStmt, got %T", program.Body[0])
	}
	if whileStmt.Condition == nil {
		t.Fatal("condition is nil")
	}
	if whileStmt.Body == nil {
		t.Fatal("body is nil")
	}
}

func TestParseForStmt(t *testing.T) {
	program := parseOK(t, `for i = 1, 10, 2 do { println(i); } end`)
	forStmt, ok := program.Body[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected ForStmt, got %T", program.Body[0])
	}
	if forStmt.VarName != "i" {
		t.Errorf("expected var 'i', got %q", forStmt.VarName)
	}
	if forStmt.Start == nil || forStmt.Stop == nil || forStmt.Step == nil {
		t.Error("expected start, stop and step expressions")
	}
}

func TestParseForStmtDefaultStep(t *testing.T) {
	program := parseOK(t, `for i = 1, 10 do { } end`)
	forStmt := program.Body[0].(*ast.ForStmt)
	if forStmt.Step != nil {
		t.Error("expected nil step when omitted")
	}
}

func TestParseFuncDecl(t *testing.T) {
	source := `
func add(a, b) : {
  return a + b;
} end
`
	program := parseOK(t, source)
	fn, ok := program.Body[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected FuncDecl, got %T", program.Body[0])
	}
	if fn.Name != "add" {
		t.Errorf("expected name 'add', got %q", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Errorf("expected 2 params, got %d", len(fn.Params))
	}
}

func TestParseFuncDeclReturnType(t *testing.T) {
	// The return type annotation is accepted and discarded.
	source := `
func add(a, b) : int : {
  return a + b;
} end
`
	program := parseOK(t, source)
	fn, ok := program.Body[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected FuncDecl, got %T", program.Body[0])
	}
	if fn.Body == nil || len(fn.Body.Stmts) != 1 {
		t.Error("expected 1 body statement")
	}
}

func TestParseObjectDecl(t *testing.T) {
	source := `
object Player : {
  var hp = 100
  func heal(amount) : {
    Player.hp = Player.hp + amount;
  } end
  on damaged(amount) : {
    Player.hp = Player.hp - amount;
  } end
} end
`
	program := parseOK(t, source)
	obj, ok := program.Body[0].(*ast.ObjectDecl)
	if !ok {
		t.Fatalf("expected ObjectDecl, got %T", program.Body[0])
	}
	if obj.Name != "Player" {
		t.Errorf("expected name 'Player', got %q", obj.Name)
	}
	if len(obj.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(obj.Members))
	}
	if obj.Members[0].Kind != ast.MemberVar || obj.Members[0].Var.Name != "hp" {
		t.Error("expected first member to be var 'hp'")
	}
	if obj.Members[1].Kind != ast.MemberMethod || obj.Members[1].Method.Name != "heal" {
		t.Error("expected second member to be func 'heal'")
	}
	if obj.Members[2].Kind != ast.MemberEvent || obj.Members[2].Event.Name != "damaged" {
		t.Error("expected third member to be event 'damaged'")
	}
	if len(obj.Members[2].Event.Params) != 1 {
		t.Error("expected 1 event param")
	}
}

func TestParseCallExpr(t *testing.T) {
	program := parseOK(t, `println(1, 2, 3);`)
	stmt, ok := program.Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", program.Body[0])
	}
	call, ok := stmt.Expr.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr, got %T", stmt.Expr)
	}
	if len(call.Args) != 3 {
		t.Errorf("expected 3 args, got %d", len(call.Args))
	}
}

func TestParseMemberChain(t *testing.T) {
	program := parseOK(t, `obj.method(1).field;`)
	stmt := program.Body[0].(*ast.ExprStmt)
	member, ok := stmt.Expr.(*ast.MemberExpr)
	if !ok {
		t.Fatalf("expected MemberExpr, got %T", stmt.Expr)
	}
	if member.Field != "field" {
		t.Errorf("expected field 'field', got %q", member.Field)
	}
	if _, ok := member.Object.(*ast.CallExpr); !ok {
		t.Errorf("expected CallExpr object, got %T", member.Object)
	}
}

func TestParseTableLiteral(t *testing.T) {
	program := parseOK(t, `var t = {x: 1, 2, y: f(3)};`)
	decl := program.Body[0].(*ast.VarDeclStmt)
	lit, ok := decl.Init.(*ast.TableLiteral)
	if !ok {
		t.Fatalf("expected TableLiteral, got %T", decl.Init)
	}
	if len(lit.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(lit.Fields))
	}
	if lit.Fields[0].Key != "x" || lit.Fields[1].Key != "" || lit.Fields[2].Key != "y" {
		t.Errorf("unexpected keys: %q %q %q", lit.Fields[0].Key, lit.Fields[1].Key, lit.Fields[2].Key)
	}
}

func TestParseAssignment(t *testing.T) {
	program := parseOK(t, `x = 42;`)
	assign, ok := program.Body[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", program.Body[0])
	}
	ident, ok := assign.Target.(*ast.IdentExpr)
	if !ok {
		t.Fatalf("expected IdentExpr target, got %T", assign.Target)
	}
	if ident.Name != "x" {
		t.Errorf("expected 'x', got %q", ident.Name)
	}
}

func TestParseIndexAssignment(t *testing.T) {
	program := parseOK(t, `t["key"] = 1;`)
	assign := program.Body[0].(*ast.AssignStmt)
	if _, ok := assign.Target.(*ast.IndexExpr); !ok {
		t.Fatalf("expected IndexExpr target, got %T", assign.Target)
	}
}

func TestParseCompoundAssignDesugar(t *testing.T) {
	program := parseOK(t, `x += 2;`)
	assign, ok := program.Body[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", program.Body[0])
	}
	bin, ok := assign.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr value, got %T", assign.Value)
	}
	if bin.Op != token.PLUS {
		t.Errorf("expected '+', got %q", bin.Op.String())
	}
	if _, ok := bin.Left.(*ast.IdentExpr); !ok {
		t.Errorf("expected IdentExpr left, got %T", bin.Left)
	}
}

func TestParseInvalidAssignTarget(t *testing.T) {
	l := lexer.New(`1 = 2;`, "test.em")
	tokens, _ := l.Tokenize()
	p := New(tokens)
	_, diags := p.ParseProgram()

	if len(diags) == 0 {
		t.Fatal("expected parse errors")
	}
	if diags[0].Code != "E2004" {
		t.Errorf("expected E2004, got %s", diags[0].Code)
	}
}

func TestParseJSONOutput(t *testing.T) {
	jsonStr := parseToJSON(t, `var x = 1;`)
	// Just make sure it's valid JSON and has the right structure
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["kind"] != "Program" {
		t.Errorf("expected kind 'Program', got %v", m["kind"])
	}
}

func TestReparseStable(t *testing.T) {
	source := `
func greet(name) : {
  return "hello, " + name;
} end
var t = { x: 1, y: greet("ember") };
for i = 1, 3 do {
  println(t.x + i);
} end
`
	first := parseToJSON(t, source)
	second := parseToJSON(t, source)
	if first != second {
		t.Error("parsing the same source twice produced different ASTs")
	}
}

func TestParseNilOnError(t *testing.T) {
	program, diags := Parse(`var = 1;`, "test.em")
	if program != nil {
		t.Error("expected nil program when diagnostics exist")
	}
	if len(diags) == 0 {
		t.Error("expected diagnostics")
	}
}

func TestParseErrorRecovery(t *testing.T) {
	// A malformed function header should not poison later statements.
	source := `
func bad( {
var b = 2;
var c = 3;
`
	l := lexer.New(source, "test.em")
	tokens, _ := l.Tokenize()
	p := New(tokens)
	program, diags := p.ParseProgram()

	if len(diags) == 0 {
		t.Error("expected parse errors")
	}
	if program == nil {
		t.Fatal("program is nil")
	}
	var varDecls int
	for _, stmt := range program.Body {
		if _, ok := stmt.(*ast.VarDeclStmt); ok {
			varDecls++
		}
	}
	if varDecls != 2 {
		t.Errorf("expected 2 recovered var declarations, got %d", varDecls)
	}
}

// parseWithin parses source and fails the test if parsing does not finish
// within the timeout. Recovery must consume at least one token per pass,
// so every input terminates; these helpers guard that invariant.
func parseWithin(t *testing.T, source string) (*ast.Program, []diag.Diagnostic) {
	t.Helper()
	type result struct {
		program *ast.Program
		diags   []diag.Diagnostic
	}
	ch := make(chan result, 1)
	go func() {
		l := lexer.New(source, "test.em")
		tokens, _ := l.Tokenize()
		p := New(tokens)
		program, diags := p.ParseProgram()
		ch <- result{program, diags}
	}()
	select {
	case r := <-ch:
		return r.program, r.diags
	case <-time.After(2 * time.Second):
		t.Fatalf("parser did not terminate on %q", source)
		return nil, nil
	}
}

func TestParseStrayCloserTerminates(t *testing.T) {
	sources := []string{
		`}`,
		`end`,
		`} end`,
		`object O : { end`,
	}
	for _, src := range sources {
		program, diags := parseWithin(t, src)
		if len(diags) == 0 {
			t.Errorf("expected diagnostics for %q", src)
		}
		if program == nil {
			t.Errorf("program is nil for %q", src)
		}
	}
}

func TestParseRecoveryAfterStrayCloser(t *testing.T) {
	source := `
}
var x = 1;
end
var y = 2;
`
	program, diags := parseWithin(t, source)
	if len(diags) == 0 {
		t.Error("expected parse errors")
	}
	var varDecls int
	for _, stmt := range program.Body {
		if _, ok := stmt.(*ast.VarDeclStmt); ok {
			varDecls++
		}
	}
	if varDecls != 2 {
		t.Errorf("expected 2 recovered var declarations, got %d", varDecls)
	}
}

func TestParseObjectBodyRecovery(t *testing.T) {
	// A stray 'end' inside the body must not stall member recovery.
	source := `object Door : { var locked = false; end`
	program, diags := parseWithin(t, source)
	if len(diags) == 0 {
		t.Error("expected parse errors")
	}
	decl, ok := program.Body[0].(*ast.ObjectDecl)
	if !ok {
		t.Fatalf("expected ObjectDecl, got %T", program.Body[0])
	}
	if len(decl.Members) != 1 {
		t.Errorf("expected 1 recovered member, got %d", len(decl.Members))
	}
}

func TestParseMissingParen(t *testing.T) {
	source := `
var x = add(1, 2
var y = 3;
`
	l := lexer.New(source, "test.em")
	tokens, _ := l.Tokenize()
	p := New(tokens)
	program, diags := p.ParseProgram()

	if len(diags) == 0 {
		t.Error("expected parse errors")
	}
	if program == nil {
		t.Fatal("program is nil")
	}
}
