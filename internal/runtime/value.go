// Package runtime implements the tree-walking interpreter and runtime value system for ember.
package runtime

import (
	"fmt"
	"sort"
	"strings"

	"ember-lang/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// IntVal represents an integer value.
type IntVal int64

func (v IntVal) TypeName() string { return "int" }
func (v IntVal) String() string   { return fmt.Sprintf("%d", int64(v)) }

// FloatVal represents a floating-point value.
type FloatVal float64

func (v FloatVal) TypeName() string { return "float" }
func (v FloatVal) String() string   { return fmt.Sprintf("%g", float64(v)) }

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string   { return fmt.Sprintf("%t", bool(v)) }

// NilVal represents nil.
type NilVal struct{}

func (v NilVal) TypeName() string { return "nil" }
func (v NilVal) String() string   { return "nil" }

// ---- Callable values ----

// FuncVal represents a user-defined function (closure).
type FuncVal struct {
	Name    string
	Params  []string
	Body    *ast.BlockStmt
	Closure *Environment
}

func (v *FuncVal) TypeName() string { return "function" }
func (v *FuncVal) String() string   { return fmt.Sprintf("<function %s>", v.Name) }

// BuiltinFn is the Go signature for built-in functions.
type BuiltinFn func(args []Value) (Value, error)

// BuiltinVal represents a built-in (native) function.
type BuiltinVal struct {
	Name string
	Fn   BuiltinFn
}

func (v *BuiltinVal) TypeName() string { return "builtin" }
func (v *BuiltinVal) String() string   { return fmt.Sprintf("<builtin %s>", v.Name) }

// ---- Table value ----

// TableVal represents a mutable string-keyed table. Tables have
// reference semantics: binding one to a second name aliases the
// same entries.
type TableVal struct {
	Entries map[string]Value
}

// NewTable returns an empty table.
func NewTable() *TableVal {
	return &TableVal{Entries: make(map[string]Value)}
}

func (v *TableVal) TypeName() string { return "table" }
func (v *TableVal) String() string   { return "<table>" }

// Dump renders the table contents with keys in sorted order. Used by
// the REPL; String stays opaque so print output is deterministic.
func (v *TableVal) Dump() string {
	keys := make([]string, 0, len(v.Entries))
	for k := range v.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		val := v.Entries[k]
		if s, ok := val.(StringVal); ok {
			parts[i] = fmt.Sprintf("%s: \"%s\"", k, string(s))
		} else {
			parts[i] = fmt.Sprintf("%s: %s", k, val.String())
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ---- Truthiness ----

// IsTruthy returns the truthiness of a value: false and nil are falsy,
// everything else (including 0, "" and empty tables) is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NilVal:
		return false
	case BoolVal:
		return bool(val)
	default:
		return true
	}
}

// ---- Helpers ----

// ValuesString formats a slice of values with a separator.
func ValuesString(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// ToFloat64 attempts to convert a numeric value to float64.
func ToFloat64(v Value) (float64, bool) {
	switch val := v.(type) {
	case IntVal:
		return float64(int64(val)), true
	case FloatVal:
		return float64(val), true
	default:
		return 0, false
	}
}

// valuesEqual implements ==. Equality is defined only within a variant;
// an int never equals a float and a table only equals itself.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case IntVal:
		bv, ok := b.(IntVal)
		return ok && av == bv
	case FloatVal:
		bv, ok := b.(FloatVal)
		return ok && av == bv
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	case NilVal:
		_, ok := b.(NilVal)
		return ok
	case *TableVal:
		bv, ok := b.(*TableVal)
		return ok && av == bv
	case *FuncVal:
		bv, ok := b.(*FuncVal)
		return ok && av == bv
	case *BuiltinVal:
		bv, ok := b.(*BuiltinVal)
		return ok && av == bv
	default:
		return false
	}
}
