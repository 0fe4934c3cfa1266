package runtime

import (
	"fmt"
	"io"
	"math"

	"ember-lang/internal/ast"
	"ember-lang/internal/span"
	"ember-lang/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone     ExecSignal = iota
	SigReturn              // return from function
	SigBreak               // break from loop
	SigContinue            // continue in loop
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime error
// ============================================================

// ErrKind classifies a runtime error. The set is closed so hosts can
// switch on it without parsing the message.
type ErrKind int

const (
	ErrType    ErrKind = iota // operand or operator type mismatch
	ErrArity                  // wrong number of builtin arguments
	ErrName                   // undefined identifier
	ErrDivZero                // division or modulo by zero
	ErrConv                   // failed value conversion
	ErrCall                   // calling a non-callable, unknown event
)

// RuntimeError represents an error during interpretation.
type RuntimeError struct {
	Kind    ErrKind
	Message string
	Span    span.Span
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

func runtimeErr(kind ErrKind, s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: s}
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it.
type Interpreter struct {
	global *Environment
	env    *Environment
	output io.Writer
	events map[string]map[string]*eventHandler
}

// eventHandler is a registered "on" member: its declaration, the
// environment it closed over, and the table of the declaring object.
type eventHandler struct {
	decl    *ast.EventDecl
	closure *Environment
	object  *TableVal
}

// NewInterpreter creates a new interpreter with built-in functions registered.
func NewInterpreter(output io.Writer) *Interpreter {
	global := NewEnvironment(nil)
	RegisterBuiltins(global, output)
	return &Interpreter{
		global: global,
		env:    global,
		output: output,
		events: make(map[string]map[string]*eventHandler),
	}
}

// Run executes a whole program.
func (i *Interpreter) Run(program *ast.Program) error {
	for _, stmt := range program.Body {
		result, err := i.execStmt(stmt)
		if err != nil {
			return err
		}
		switch result.Signal {
		case SigReturn:
			return runtimeErr(ErrCall, stmt.GetSpan(), "return outside of function")
		case SigBreak:
			return runtimeErr(ErrCall, stmt.GetSpan(), "break outside of loop")
		case SigContinue:
			return runtimeErr(ErrCall, stmt.GetSpan(), "continue outside of loop")
		}
	}
	return nil
}

// Eval executes a program and returns the value of its final statement
// when that statement is a bare expression, nil otherwise. The REPL uses
// it to echo results.
func (i *Interpreter) Eval(program *ast.Program) (Value, error) {
	var last Value
	for _, stmt := range program.Body {
		if es, ok := stmt.(*ast.ExprStmt); ok {
			val, err := i.evalExpr(es.Expr)
			if err != nil {
				return nil, err
			}
			last = val
			continue
		}
		last = nil
		result, err := i.execStmt(stmt)
		if err != nil {
			return nil, err
		}
		switch result.Signal {
		case SigReturn:
			return nil, runtimeErr(ErrCall, stmt.GetSpan(), "return outside of function")
		case SigBreak:
			return nil, runtimeErr(ErrCall, stmt.GetSpan(), "break outside of loop")
		case SigContinue:
			return nil, runtimeErr(ErrCall, stmt.GetSpan(), "continue outside of loop")
		}
	}
	return last, nil
}

// Env returns the current environment (useful for the REPL).
func (i *Interpreter) Env() *Environment {
	return i.env
}

// Lookup resolves a global binding by name. Hosts use it to pull
// values out of a finished program.
func (i *Interpreter) Lookup(name string) (Value, bool) {
	return i.global.Get(name)
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.VarDeclStmt:
		return i.execVarDecl(s)

	case *ast.AssignStmt:
		return i.execAssign(s)

	case *ast.ReturnStmt:
		var val Value = NilVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.BreakStmt:
		return ExecResult{Signal: SigBreak}, nil

	case *ast.ContinueStmt:
		return ExecResult{Signal: SigContinue}, nil

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.ForStmt:
		return i.execFor(s)

	case *ast.BlockStmt:
		return i.execBlock(s, NewEnvironment(i.env))

	case *ast.FuncDecl:
		return i.execFuncDecl(s)

	case *ast.ObjectDecl:
		return i.execObjectDecl(s)

	default:
		return resultNone, runtimeErr(ErrType, stmt.GetSpan(), "unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execVarDecl(s *ast.VarDeclStmt) (ExecResult, error) {
	var val Value = NilVal{}
	if s.Init != nil {
		v, err := i.evalExpr(s.Init)
		if err != nil {
			return resultNone, err
		}
		val = v
	}
	i.env.Define(s.Name, val)
	return resultNone, nil
}

func (i *Interpreter) execAssign(s *ast.AssignStmt) (ExecResult, error) {
	val, err := i.evalExpr(s.Value)
	if err != nil {
		return resultNone, err
	}

	switch target := s.Target.(type) {
	case *ast.IdentExpr:
		if err := i.env.Set(target.Name, val); err != nil {
			return resultNone, runtimeErr(ErrName, s.GetSpan(), "%s", err)
		}
	case *ast.MemberExpr:
		obj, err := i.evalExpr(target.Object)
		if err != nil {
			return resultNone, err
		}
		tbl, ok := obj.(*TableVal)
		if !ok {
			return resultNone, runtimeErr(ErrType, s.GetSpan(), "cannot set field on value of type '%s'", obj.TypeName())
		}
		tbl.Entries[target.Field] = val
	case *ast.IndexExpr:
		obj, err := i.evalExpr(target.Object)
		if err != nil {
			return resultNone, err
		}
		idx, err := i.evalExpr(target.Index)
		if err != nil {
			return resultNone, err
		}
		tbl, ok := obj.(*TableVal)
		if !ok {
			return resultNone, runtimeErr(ErrType, s.GetSpan(), "cannot index value of type '%s'", obj.TypeName())
		}
		key, ok := idx.(StringVal)
		if !ok {
			return resultNone, runtimeErr(ErrType, s.GetSpan(), "table index must be a string, got '%s'", idx.TypeName())
		}
		tbl.Entries[string(key)] = val
	default:
		return resultNone, runtimeErr(ErrType, s.GetSpan(), "invalid assignment target")
	}
	return resultNone, nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return resultNone, err
	}

	if IsTruthy(cond) {
		return i.execBlock(s.Body, NewEnvironment(i.env))
	}

	for _, elif := range s.Elifs {
		cond, err := i.evalExpr(elif.Condition)
		if err != nil {
			return resultNone, err
		}
		if IsTruthy(cond) {
			return i.execBlock(elif.Body, NewEnvironment(i.env))
		}
	}

	if s.ElseBody != nil {
		return i.execBlock(s.ElseBody, NewEnvironment(i.env))
	}

	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			break
		}

		result, err := i.execBlock(s.Body, NewEnvironment(i.env))
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break
		}
		if result.Signal == SigReturn {
			return result, nil // propagate return
		}
		// SigContinue: just continue the loop
	}
	return resultNone, nil
}

// execFor runs the numeric stepped loop. Start, stop and step are
// evaluated once, before the first iteration.
func (i *Interpreter) execFor(s *ast.ForStmt) (ExecResult, error) {
	start, err := i.evalExpr(s.Start)
	if err != nil {
		return resultNone, err
	}
	stop, err := i.evalExpr(s.Stop)
	if err != nil {
		return resultNone, err
	}
	var step Value = IntVal(1)
	if s.Step != nil {
		step, err = i.evalExpr(s.Step)
		if err != nil {
			return resultNone, err
		}
	}

	startF, ok1 := ToFloat64(start)
	stopF, ok2 := ToFloat64(stop)
	stepF, ok3 := ToFloat64(step)
	if !ok1 || !ok2 || !ok3 {
		return resultNone, runtimeErr(ErrType, s.GetSpan(), "for loop bounds must be numeric")
	}
	if stepF == 0 {
		return resultNone, runtimeErr(ErrType, s.GetSpan(), "for loop step must not be zero")
	}

	startI, startIsInt := start.(IntVal)
	stopI, stopIsInt := stop.(IntVal)
	stepI, stepIsInt := step.(IntVal)
	if startIsInt && stopIsInt && stepIsInt {
		// All-int loops stay on int64 so large bounds keep exact counters.
		return i.execForInt(s, int64(startI), int64(stopI), int64(stepI))
	}
	return i.execForFloat(s, startF, stopF, stepF)
}

func (i *Interpreter) execForInt(s *ast.ForStmt, start, stop, step int64) (ExecResult, error) {
	for cur := start; (step > 0 && cur <= stop) || (step < 0 && cur >= stop); cur += step {
		result, done, err := i.execForBody(s, IntVal(cur))
		if err != nil || done {
			return result, err
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execForFloat(s *ast.ForStmt, start, stop, step float64) (ExecResult, error) {
	for cur := start; (step > 0 && cur <= stop) || (step < 0 && cur >= stop); cur += step {
		result, done, err := i.execForBody(s, FloatVal(cur))
		if err != nil || done {
			return result, err
		}
	}
	return resultNone, nil
}

// execForBody runs one iteration with the loop variable bound in a fresh
// child environment. done reports that the loop should stop instead of
// advancing: a Break absorbed here or a Return propagating out.
func (i *Interpreter) execForBody(s *ast.ForStmt, v Value) (ExecResult, bool, error) {
	loopEnv := NewEnvironment(i.env)
	loopEnv.Define(s.VarName, v)

	result, err := i.execBlock(s.Body, loopEnv)
	if err != nil {
		return resultNone, true, err
	}
	switch result.Signal {
	case SigBreak:
		return resultNone, true, nil
	case SigReturn:
		return result, true, nil
	}
	// SigContinue: advance
	return resultNone, false, nil
}

func (i *Interpreter) execBlock(block *ast.BlockStmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range block.Stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execFuncDecl(s *ast.FuncDecl) (ExecResult, error) {
	fn := &FuncVal{
		Name:    s.Name,
		Params:  s.Params,
		Body:    s.Body,
		Closure: i.env,
	}
	i.env.Define(s.Name, fn)
	return resultNone, nil
}

// execObjectDecl builds the object's table. Var members are evaluated
// eagerly in the enclosing scope, method members become closures over
// it, and event members register handlers without a table entry.
func (i *Interpreter) execObjectDecl(s *ast.ObjectDecl) (ExecResult, error) {
	table := NewTable()
	for _, member := range s.Members {
		switch member.Kind {
		case ast.MemberVar:
			var val Value = NilVal{}
			if member.Var.Init != nil {
				v, err := i.evalExpr(member.Var.Init)
				if err != nil {
					return resultNone, err
				}
				val = v
			}
			table.Entries[member.Var.Name] = val
		case ast.MemberMethod:
			table.Entries[member.Method.Name] = &FuncVal{
				Name:    member.Method.Name,
				Params:  member.Method.Params,
				Body:    member.Method.Body,
				Closure: i.env,
			}
		case ast.MemberEvent:
			i.registerHandler(s.Name, member.Event, table)
		}
	}
	i.env.Define(s.Name, table)
	return resultNone, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return IntVal(e.Value), nil
	case *ast.FloatLiteral:
		return FloatVal(e.Value), nil
	case *ast.StringLiteral:
		return StringVal(e.Value), nil
	case *ast.BoolLiteral:
		return BoolVal(e.Value), nil
	case *ast.NilLiteral:
		return NilVal{}, nil
	case *ast.IdentExpr:
		return i.evalIdent(e)
	case *ast.UnaryExpr:
		return i.evalUnary(e)
	case *ast.BinaryExpr:
		return i.evalBinary(e)
	case *ast.CallExpr:
		return i.evalCall(e)
	case *ast.MemberExpr:
		return i.evalMember(e)
	case *ast.IndexExpr:
		return i.evalIndex(e)
	case *ast.TableLiteral:
		return i.evalTableLiteral(e)
	default:
		return nil, runtimeErr(ErrType, expr.GetSpan(), "unhandled expression type: %T", expr)
	}
}

func (i *Interpreter) evalIdent(e *ast.IdentExpr) (Value, error) {
	val, ok := i.env.Get(e.Name)
	if !ok {
		return nil, runtimeErr(ErrName, e.GetSpan(), "undefined identifier '%s'", e.Name)
	}
	return val, nil
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.KW_NOT:
		return BoolVal(!IsTruthy(operand)), nil
	case token.MINUS:
		switch v := operand.(type) {
		case IntVal:
			return IntVal(-int64(v)), nil
		case FloatVal:
			return FloatVal(-float64(v)), nil
		default:
			return nil, runtimeErr(ErrType, e.GetSpan(), "cannot negate value of type '%s'", operand.TypeName())
		}
	default:
		return nil, runtimeErr(ErrType, e.GetSpan(), "unknown unary operator: %s", e.Op)
	}
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	// Short-circuit for logical operators
	if e.Op == token.KW_AND || e.Op == token.KW_OR {
		return i.evalLogical(e)
	}

	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	// Equality works for all types; cross-variant compares are false.
	if e.Op == token.EQ {
		return BoolVal(valuesEqual(left, right)), nil
	}
	if e.Op == token.NEQ {
		return BoolVal(!valuesEqual(left, right)), nil
	}

	// String concatenation requires strings on both sides.
	if e.Op == token.PLUS {
		ls, leftIsStr := left.(StringVal)
		rs, rightIsStr := right.(StringVal)
		if leftIsStr && rightIsStr {
			return StringVal(string(ls) + string(rs)), nil
		}
		if leftIsStr || rightIsStr {
			return nil, runtimeErr(ErrType, e.GetSpan(), "cannot apply '%s' to '%s' and '%s'", e.Op, left.TypeName(), right.TypeName())
		}
	}

	li, leftIsInt := left.(IntVal)
	ri, rightIsInt := right.(IntVal)
	if leftIsInt && rightIsInt {
		return i.evalIntBinary(e, int64(li), int64(ri))
	}

	leftF, leftOk := ToFloat64(left)
	rightF, rightOk := ToFloat64(right)
	if !leftOk || !rightOk {
		return nil, runtimeErr(ErrType, e.GetSpan(), "cannot apply '%s' to '%s' and '%s'", e.Op, left.TypeName(), right.TypeName())
	}
	return i.evalFloatBinary(e, leftF, rightF)
}

// evalIntBinary performs integer arithmetic. Overflow wraps in two's
// complement, matching int64.
func (i *Interpreter) evalIntBinary(e *ast.BinaryExpr, l, r int64) (Value, error) {
	switch e.Op {
	case token.PLUS:
		return IntVal(l + r), nil
	case token.MINUS:
		return IntVal(l - r), nil
	case token.STAR:
		return IntVal(l * r), nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(ErrDivZero, e.GetSpan(), "division by zero")
		}
		return IntVal(l / r), nil
	case token.PERCENT:
		if r == 0 {
			return nil, runtimeErr(ErrDivZero, e.GetSpan(), "modulo by zero")
		}
		return IntVal(l % r), nil
	case token.LT:
		return BoolVal(l < r), nil
	case token.LTE:
		return BoolVal(l <= r), nil
	case token.GT:
		return BoolVal(l > r), nil
	case token.GTE:
		return BoolVal(l >= r), nil
	default:
		return nil, runtimeErr(ErrType, e.GetSpan(), "unknown binary operator: %s", e.Op)
	}
}

func (i *Interpreter) evalFloatBinary(e *ast.BinaryExpr, l, r float64) (Value, error) {
	switch e.Op {
	case token.PLUS:
		return FloatVal(l + r), nil
	case token.MINUS:
		return FloatVal(l - r), nil
	case token.STAR:
		return FloatVal(l * r), nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(ErrDivZero, e.GetSpan(), "division by zero")
		}
		return FloatVal(l / r), nil
	case token.PERCENT:
		if r == 0 {
			return nil, runtimeErr(ErrDivZero, e.GetSpan(), "modulo by zero")
		}
		return FloatVal(math.Mod(l, r)), nil
	case token.LT:
		return BoolVal(l < r), nil
	case token.LTE:
		return BoolVal(l <= r), nil
	case token.GT:
		return BoolVal(l > r), nil
	case token.GTE:
		return BoolVal(l >= r), nil
	default:
		return nil, runtimeErr(ErrType, e.GetSpan(), "unknown binary operator: %s", e.Op)
	}
}

// evalLogical short-circuits and always yields a bool.
func (i *Interpreter) evalLogical(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == token.KW_OR {
		if IsTruthy(left) {
			return BoolVal(true), nil
		}
		right, err := i.evalExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return BoolVal(IsTruthy(right)), nil
	}
	// and
	if !IsTruthy(left) {
		return BoolVal(false), nil
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}
	return BoolVal(IsTruthy(right)), nil
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	return i.callValue(callee, args, e.GetSpan())
}

func (i *Interpreter) callValue(callee Value, args []Value, s span.Span) (Value, error) {
	switch fn := callee.(type) {
	case *FuncVal:
		return i.callFunc(fn, args)
	case *BuiltinVal:
		val, err := fn.Fn(args)
		if err != nil {
			// Builtins report errors without location; attach the call site.
			if re, ok := err.(*RuntimeError); ok {
				if re.Span.Start.Line == 0 {
					re.Span = s
				}
				return nil, re
			}
			return nil, runtimeErr(ErrCall, s, "%s", err)
		}
		return val, nil
	default:
		return nil, runtimeErr(ErrCall, s, "cannot call value of type '%s'", callee.TypeName())
	}
}

// callFunc binds arguments positionally: missing parameters get nil,
// extra arguments are discarded.
func (i *Interpreter) callFunc(fn *FuncVal, args []Value) (Value, error) {
	funcEnv := NewEnvironment(fn.Closure)
	for idx, param := range fn.Params {
		if idx < len(args) {
			funcEnv.Define(param, args[idx])
		} else {
			funcEnv.Define(param, NilVal{})
		}
	}

	result, err := i.execBlock(fn.Body, funcEnv)
	if err != nil {
		return nil, err
	}

	switch result.Signal {
	case SigReturn:
		return result.Value, nil
	case SigBreak:
		return nil, runtimeErr(ErrCall, fn.Body.GetSpan(), "break outside of loop")
	case SigContinue:
		return nil, runtimeErr(ErrCall, fn.Body.GetSpan(), "continue outside of loop")
	}
	return NilVal{}, nil
}

func (i *Interpreter) evalMember(e *ast.MemberExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}

	tbl, ok := obj.(*TableVal)
	if !ok {
		return nil, runtimeErr(ErrType, e.GetSpan(), "cannot access field '%s' on value of type '%s'", e.Field, obj.TypeName())
	}
	if val, exists := tbl.Entries[e.Field]; exists {
		return val, nil
	}
	return NilVal{}, nil
}

func (i *Interpreter) evalIndex(e *ast.IndexExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	idx, err := i.evalExpr(e.Index)
	if err != nil {
		return nil, err
	}

	tbl, ok := obj.(*TableVal)
	if !ok {
		return nil, runtimeErr(ErrType, e.GetSpan(), "cannot index value of type '%s'", obj.TypeName())
	}
	key, ok := idx.(StringVal)
	if !ok {
		return nil, runtimeErr(ErrType, e.GetSpan(), "table index must be a string, got '%s'", idx.TypeName())
	}
	if val, exists := tbl.Entries[string(key)]; exists {
		return val, nil
	}
	return NilVal{}, nil
}

// evalTableLiteral builds a table. Bare entries are keyed by their
// field position rendered as a decimal string.
func (i *Interpreter) evalTableLiteral(e *ast.TableLiteral) (Value, error) {
	table := NewTable()
	for idx, field := range e.Fields {
		val, err := i.evalExpr(field.Value)
		if err != nil {
			return nil, err
		}
		key := field.Key
		if key == "" {
			key = fmt.Sprintf("%d", idx)
		}
		table.Entries[key] = val
	}
	return table, nil
}
