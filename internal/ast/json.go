package ast

import (
	"ember-lang/internal/span"
	"ember-lang/internal/token"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		return m("Program", n.Span, "body", stmtSlice(n.Body))

	// ---- Expressions ----
	case *IdentExpr:
		return m("IdentExpr", n.Span, "name", n.Name)
	case *IntLiteral:
		return m("IntLiteral", n.Span, "value", n.Value)
	case *FloatLiteral:
		return m("FloatLiteral", n.Span, "value", n.Value)
	case *StringLiteral:
		return m("StringLiteral", n.Span, "value", n.Value)
	case *BoolLiteral:
		return m("BoolLiteral", n.Span, "value", n.Value)
	case *NilLiteral:
		return m("NilLiteral", n.Span)
	case *UnaryExpr:
		return m("UnaryExpr", n.Span, "op", opStr(n.Op), "operand", NodeToMap(n.Operand))
	case *BinaryExpr:
		return m("BinaryExpr", n.Span,
			"op", opStr(n.Op),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *CallExpr:
		return m("CallExpr", n.Span,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))
	case *MemberExpr:
		return m("MemberExpr", n.Span,
			"object", NodeToMap(n.Object),
			"field", n.Field)
	case *IndexExpr:
		return m("IndexExpr", n.Span,
			"object", NodeToMap(n.Object),
			"index", NodeToMap(n.Index))
	case *TableLiteral:
		fields := make([]interface{}, len(n.Fields))
		for i, f := range n.Fields {
			entry := map[string]interface{}{"value": NodeToMap(f.Value)}
			if f.Key != "" {
				entry["key"] = f.Key
			}
			fields[i] = entry
		}
		return m("TableLiteral", n.Span, "fields", fields)

	// ---- Statements ----
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *VarDeclStmt:
		return m("VarDeclStmt", n.Span, "name", n.Name, "init", NodeToMap(n.Init))
	case *AssignStmt:
		return m("AssignStmt", n.Span,
			"target", NodeToMap(n.Target),
			"value", NodeToMap(n.Value))
	case *BlockStmt:
		return m("BlockStmt", n.Span, "stmts", stmtSlice(n.Stmts))
	case *IfStmt:
		result := m("IfStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
		if len(n.Elifs) > 0 {
			elifs := make([]interface{}, len(n.Elifs))
			for i, e := range n.Elifs {
				elifs[i] = map[string]interface{}{
					"kind":      "ElifClause",
					"span":      spanToMap(e.Span),
					"condition": NodeToMap(e.Condition),
					"body":      NodeToMap(e.Body),
				}
			}
			result["elifs"] = elifs
		}
		if n.ElseBody != nil {
			result["elseBody"] = NodeToMap(n.ElseBody)
		}
		return result
	case *WhileStmt:
		return m("WhileStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
	case *ForStmt:
		result := m("ForStmt", n.Span,
			"varName", n.VarName,
			"start", NodeToMap(n.Start),
			"stop", NodeToMap(n.Stop),
			"body", NodeToMap(n.Body))
		if n.Step != nil {
			result["step"] = NodeToMap(n.Step)
		}
		return result
	case *ReturnStmt:
		result := m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *BreakStmt:
		return m("BreakStmt", n.Span)
	case *ContinueStmt:
		return m("ContinueStmt", n.Span)

	// ---- Declarations ----
	case *FuncDecl:
		return m("FuncDecl", n.Span,
			"name", n.Name,
			"params", n.Params,
			"body", NodeToMap(n.Body))
	case *ObjectDecl:
		members := make([]interface{}, len(n.Members))
		for i, mem := range n.Members {
			switch mem.Kind {
			case MemberVar:
				members[i] = map[string]interface{}{"kind": "MemberVar", "decl": NodeToMap(mem.Var)}
			case MemberMethod:
				members[i] = map[string]interface{}{"kind": "MemberMethod", "decl": NodeToMap(mem.Method)}
			case MemberEvent:
				members[i] = map[string]interface{}{
					"kind": "MemberEvent",
					"decl": map[string]interface{}{
						"kind":   "EventDecl",
						"span":   spanToMap(mem.Event.Span),
						"name":   mem.Event.Name,
						"params": mem.Event.Params,
						"body":   NodeToMap(mem.Event.Body),
					},
				}
			}
		}
		return m("ObjectDecl", n.Span, "name", n.Name, "members", members)

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]interface{}{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func stmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

func opStr(kind token.Kind) string {
	return kind.String()
}
