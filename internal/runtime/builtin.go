package runtime

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// builtinErr constructs a runtime error with no location. The call site
// span is attached by the evaluator.
func builtinErr(kind ErrKind, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func arityErr(name string, want, got int) *RuntimeError {
	return builtinErr(ErrArity, "%s() expects %d arguments, got %d", name, want, got)
}

// RegisterBuiltins adds built-in functions to the given environment.
func RegisterBuiltins(env *Environment, w io.Writer) {
	env.Define("print", &BuiltinVal{
		Name: "print",
		Fn: func(args []Value) (Value, error) {
			fmt.Fprint(w, ValuesString(args, " "))
			return NilVal{}, nil
		},
	})

	env.Define("println", &BuiltinVal{
		Name: "println",
		Fn: func(args []Value) (Value, error) {
			fmt.Fprintln(w, ValuesString(args, " "))
			return NilVal{}, nil
		},
	})

	env.Define("type", &BuiltinVal{
		Name: "type",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, arityErr("type", 1, len(args))
			}
			return StringVal(args[0].TypeName()), nil
		},
	})

	env.Define("len", &BuiltinVal{
		Name: "len",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, arityErr("len", 1, len(args))
			}
			switch v := args[0].(type) {
			case StringVal:
				return IntVal(len(string(v))), nil
			case *TableVal:
				return IntVal(len(v.Entries)), nil
			default:
				return nil, builtinErr(ErrType, "len() not supported for type '%s'", args[0].TypeName())
			}
		},
	})

	env.Define("str", &BuiltinVal{
		Name: "str",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, arityErr("str", 1, len(args))
			}
			return StringVal(args[0].String()), nil
		},
	})

	env.Define("int", &BuiltinVal{
		Name: "int",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, arityErr("int", 1, len(args))
			}
			switch v := args[0].(type) {
			case IntVal:
				return v, nil
			case FloatVal:
				return IntVal(int64(float64(v))), nil // truncates toward zero
			case BoolVal:
				if bool(v) {
					return IntVal(1), nil
				}
				return IntVal(0), nil
			case StringVal:
				n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
				if err != nil {
					return nil, builtinErr(ErrConv, "cannot convert '%s' to int", string(v))
				}
				return IntVal(n), nil
			default:
				return nil, builtinErr(ErrConv, "cannot convert '%s' to int", args[0].TypeName())
			}
		},
	})

	env.Define("float", &BuiltinVal{
		Name: "float",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, arityErr("float", 1, len(args))
			}
			switch v := args[0].(type) {
			case IntVal:
				return FloatVal(float64(int64(v))), nil
			case FloatVal:
				return v, nil
			case StringVal:
				f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
				if err != nil {
					return nil, builtinErr(ErrConv, "cannot convert '%s' to float", string(v))
				}
				return FloatVal(f), nil
			default:
				return nil, builtinErr(ErrConv, "cannot convert '%s' to float", args[0].TypeName())
			}
		},
	})

	env.Define("abs", &BuiltinVal{
		Name: "abs",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, arityErr("abs", 1, len(args))
			}
			switch v := args[0].(type) {
			case IntVal:
				if int64(v) < 0 {
					return IntVal(-int64(v)), nil
				}
				return v, nil
			case FloatVal:
				return FloatVal(math.Abs(float64(v))), nil
			default:
				return nil, builtinErr(ErrType, "abs() requires a numeric argument, got '%s'", args[0].TypeName())
			}
		},
	})

	env.Define("min", &BuiltinVal{Name: "min", Fn: minMaxFn("min", func(a, b float64) bool { return a <= b })})
	env.Define("max", &BuiltinVal{Name: "max", Fn: minMaxFn("max", func(a, b float64) bool { return a >= b })})

	env.Define("floor", &BuiltinVal{Name: "floor", Fn: roundingFn("floor", math.Floor)})
	env.Define("ceil", &BuiltinVal{Name: "ceil", Fn: roundingFn("ceil", math.Ceil)})
	env.Define("round", &BuiltinVal{Name: "round", Fn: roundingFn("round", math.Round)})

	env.Define("sqrt", &BuiltinVal{
		Name: "sqrt",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, arityErr("sqrt", 1, len(args))
			}
			f, ok := ToFloat64(args[0])
			if !ok {
				return nil, builtinErr(ErrType, "sqrt() requires a numeric argument, got '%s'", args[0].TypeName())
			}
			if f < 0 {
				return nil, builtinErr(ErrType, "sqrt() of negative number")
			}
			return FloatVal(math.Sqrt(f)), nil
		},
	})

	env.Define("pow", &BuiltinVal{
		Name: "pow",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, arityErr("pow", 2, len(args))
			}
			base, ok1 := ToFloat64(args[0])
			exp, ok2 := ToFloat64(args[1])
			if !ok1 || !ok2 {
				return nil, builtinErr(ErrType, "pow() requires numeric arguments")
			}
			return FloatVal(math.Pow(base, exp)), nil
		},
	})

	env.Define("substring", &BuiltinVal{
		Name: "substring",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 3 {
				return nil, arityErr("substring", 3, len(args))
			}
			s, ok := args[0].(StringVal)
			if !ok {
				return nil, builtinErr(ErrType, "substring() first argument must be a string, got '%s'", args[0].TypeName())
			}
			start, ok1 := args[1].(IntVal)
			end, ok2 := args[2].(IntVal)
			if !ok1 || !ok2 {
				return nil, builtinErr(ErrType, "substring() bounds must be integers")
			}
			// Out-of-range bounds clamp instead of erroring.
			lo, hi := int64(start), int64(end)
			n := int64(len(string(s)))
			if lo < 0 {
				lo = 0
			}
			if hi > n {
				hi = n
			}
			if lo >= hi {
				return StringVal(""), nil
			}
			return StringVal(string(s)[lo:hi]), nil
		},
	})

	env.Define("contains", &BuiltinVal{
		Name: "contains",
		Fn: func(args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, arityErr("contains", 2, len(args))
			}
			s, ok1 := args[0].(StringVal)
			sub, ok2 := args[1].(StringVal)
			if !ok1 || !ok2 {
				return nil, builtinErr(ErrType, "contains() requires string arguments")
			}
			return BoolVal(strings.Contains(string(s), string(sub))), nil
		},
	})

	env.Define("toUpper", &BuiltinVal{Name: "toUpper", Fn: caseFn("toUpper", strings.ToUpper)})
	env.Define("toLower", &BuiltinVal{Name: "toLower", Fn: caseFn("toLower", strings.ToLower)})
}

// minMaxFn builds the min/max builtin. Two ints yield an int, any
// float operand promotes the result.
func minMaxFn(name string, pick func(a, b float64) bool) BuiltinFn {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, arityErr(name, 2, len(args))
		}
		a, ok1 := ToFloat64(args[0])
		b, ok2 := ToFloat64(args[1])
		if !ok1 || !ok2 {
			return nil, builtinErr(ErrType, "%s() requires numeric arguments", name)
		}
		var chosen Value
		if pick(a, b) {
			chosen = args[0]
		} else {
			chosen = args[1]
		}
		_, aInt := args[0].(IntVal)
		_, bInt := args[1].(IntVal)
		if aInt && bInt {
			return chosen, nil
		}
		f, _ := ToFloat64(chosen)
		return FloatVal(f), nil
	}
}

// roundingFn builds floor/ceil/round. Ints pass through, floats come
// back as ints.
func roundingFn(name string, round func(float64) float64) BuiltinFn {
	return func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, arityErr(name, 1, len(args))
		}
		switch v := args[0].(type) {
		case IntVal:
			return v, nil
		case FloatVal:
			return IntVal(int64(round(float64(v)))), nil
		default:
			return nil, builtinErr(ErrType, "%s() requires a numeric argument, got '%s'", name, args[0].TypeName())
		}
	}
}

func caseFn(name string, mapper func(string) string) BuiltinFn {
	return func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, arityErr(name, 1, len(args))
		}
		s, ok := args[0].(StringVal)
		if !ok {
			return nil, builtinErr(ErrType, "%s() requires a string argument, got '%s'", name, args[0].TypeName())
		}
		return StringVal(mapper(string(s))), nil
	}
}
