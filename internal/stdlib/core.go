package stdlib

import (
	"fmt"
	"strconv"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/token"
	"github.com/jargnar/orangensaft/internal/value"
)

// token0 is the zero-value span every builtin error is raised with; the
// evaluator's callBuiltin replaces it with the real call-site span via
// WithSpan before the error reaches anything that prints it.
var token0 = token.Span{}

func init() {
	envBuiltinFactories = append(envBuiltinFactories, printBuiltin, logLineBuiltin)
	allBuiltins = append(allBuiltins,
		lenBuiltin, typeBuiltin, keysBuiltin, strBuiltin, intBuiltin, floatBuiltin,
	)
}

// printBuiltin and logLineBuiltin both route through the environment's
// Logger rather than directly to stdout, so a host embedding the
// interpreter (a REPL, a test harness with a BufferedLogger) controls where
// script output actually lands.
func printBuiltin(env *eval.Environment) *eval.Builtin {
	return &eval.Builtin{
		Name:     "print",
		Variadic: true,
		Fn: func(args []value.Value) (value.Value, *errors.LangError) {
			parts := make([]any, len(args))
			for i, a := range args {
				parts[i] = inspectOrRaw(a)
			}
			env.Logger.Log(parts...)
			return value.NilValue, nil
		},
	}
}

func logLineBuiltin(env *eval.Environment) *eval.Builtin {
	return &eval.Builtin{
		Name:     "logLine",
		Variadic: true,
		Fn: func(args []value.Value) (value.Value, *errors.LangError) {
			parts := make([]any, len(args))
			for i, a := range args {
				parts[i] = inspectOrRaw(a)
			}
			env.Logger.LogLine(parts...)
			return value.NilValue, nil
		},
	}
}

func inspectOrRaw(v value.Value) string {
	if s, ok := v.(*value.String); ok {
		return s.Value
	}
	return v.Inspect()
}

var lenBuiltin = &eval.Builtin{
	Name:   "len",
	Params: []eval.BuiltinParam{{Name: "value"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		switch v := args[0].(type) {
		case *value.List:
			return &value.Int{Value: int64(len(v.Elements))}, nil
		case *value.Tuple:
			return &value.Int{Value: int64(len(v.Elements))}, nil
		case *value.String:
			return &value.Int{Value: int64(len([]rune(v.Value)))}, nil
		case *value.Object:
			return &value.Int{Value: int64(len(v.Fields))}, nil
		default:
			return nil, errors.Simple(errors.ClassRuntime, token0, "len() expects a list, tuple, string, or object, got "+string(v.Type()))
		}
	},
}

var typeBuiltin = &eval.Builtin{
	Name:   "type",
	Params: []eval.BuiltinParam{{Name: "value"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		return &value.String{Value: string(args[0].Type())}, nil
	},
}

var keysBuiltin = &eval.Builtin{
	Name:   "keys",
	Params: []eval.BuiltinParam{{Name: "object"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		obj, ok := args[0].(*value.Object)
		if !ok {
			return nil, errors.Simple(errors.ClassRuntime, token0, "keys() expects an object, got "+string(args[0].Type()))
		}
		elems := make([]value.Value, 0, len(obj.Fields))
		for _, k := range obj.SortedKeys() {
			elems = append(elems, &value.String{Value: k})
		}
		return &value.List{Elements: elems}, nil
	},
}

var strBuiltin = &eval.Builtin{
	Name:   "str",
	Params: []eval.BuiltinParam{{Name: "value"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		return &value.String{Value: inspectOrRaw(args[0])}, nil
	},
}

var intBuiltin = &eval.Builtin{
	Name:   "int",
	Params: []eval.BuiltinParam{{Name: "value"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		switch v := args[0].(type) {
		case *value.Int:
			return v, nil
		case *value.Float:
			return &value.Int{Value: int64(v.Value)}, nil
		case *value.String:
			n, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil, errors.Simple(errors.ClassRuntime, token0, fmt.Sprintf("int(): cannot parse %q as an integer", v.Value))
			}
			return &value.Int{Value: n}, nil
		default:
			return nil, errors.Simple(errors.ClassRuntime, token0, "int() expects an int, float, or string, got "+string(v.Type()))
		}
	},
}

var floatBuiltin = &eval.Builtin{
	Name:   "float",
	Params: []eval.BuiltinParam{{Name: "value"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		switch v := args[0].(type) {
		case *value.Float:
			return v, nil
		case *value.Int:
			return &value.Float{Value: float64(v.Value)}, nil
		case *value.String:
			f, err := strconv.ParseFloat(v.Value, 64)
			if err != nil {
				return nil, errors.Simple(errors.ClassRuntime, token0, fmt.Sprintf("float(): cannot parse %q as a float", v.Value))
			}
			return &value.Float{Value: f}, nil
		default:
			return nil, errors.Simple(errors.ClassRuntime, token0, "float() expects an int, float, or string, got "+string(v.Type()))
		}
	},
}
