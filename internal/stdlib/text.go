package stdlib

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/value"
)

func init() {
	allBuiltins = append(allBuiltins,
		upperBuiltin, lowerBuiltin, trimBuiltin, splitBuiltin, joinBuiltin,
		containsBuiltin, normalizeBuiltin, graphemesBuiltin, displayWidthBuiltin,
	)
}

var upperBuiltin = &eval.Builtin{
	Name:   "upper",
	Params: []eval.BuiltinParam{{Name: "s"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("upper", args[0])
		if err != nil {
			return nil, err
		}
		return &value.String{Value: strings.ToUpper(s)}, nil
	},
}

var lowerBuiltin = &eval.Builtin{
	Name:   "lower",
	Params: []eval.BuiltinParam{{Name: "s"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("lower", args[0])
		if err != nil {
			return nil, err
		}
		return &value.String{Value: strings.ToLower(s)}, nil
	},
}

var trimBuiltin = &eval.Builtin{
	Name:   "trim",
	Params: []eval.BuiltinParam{{Name: "s"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("trim", args[0])
		if err != nil {
			return nil, err
		}
		return &value.String{Value: strings.TrimSpace(s)}, nil
	},
}

var splitBuiltin = &eval.Builtin{
	Name:   "split",
	Params: []eval.BuiltinParam{{Name: "s"}, {Name: "sep"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("split", args[0])
		if err != nil {
			return nil, err
		}
		sep, err := asString("split", args[1])
		if err != nil {
			return nil, err
		}
		parts := strings.Split(s, sep)
		elems := make([]value.Value, len(parts))
		for i, p := range parts {
			elems[i] = &value.String{Value: p}
		}
		return &value.List{Elements: elems}, nil
	},
}

var joinBuiltin = &eval.Builtin{
	Name:   "join",
	Params: []eval.BuiltinParam{{Name: "list"}, {Name: "sep"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		list, ok := args[0].(*value.List)
		if !ok {
			return nil, errors.Simple(errors.ClassRuntime, token0, "join() expects a list of strings as its first argument")
		}
		sep, err := asString("join", args[1])
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(list.Elements))
		for i, e := range list.Elements {
			s, err := asString("join", e)
			if err != nil {
				return nil, err
			}
			parts[i] = s
		}
		return &value.String{Value: strings.Join(parts, sep)}, nil
	},
}

var containsBuiltin = &eval.Builtin{
	Name:   "contains",
	Params: []eval.BuiltinParam{{Name: "s"}, {Name: "substr"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("contains", args[0])
		if err != nil {
			return nil, err
		}
		sub, err := asString("contains", args[1])
		if err != nil {
			return nil, err
		}
		return &value.Bool{Value: strings.Contains(s, sub)}, nil
	},
}

// normalizeBuiltin exposes Unicode NFC normalization, since comparing or
// hashing model-generated text without normalizing it first is a common
// source of "identical-looking strings don't match" bugs in prompt output.
var normalizeBuiltin = &eval.Builtin{
	Name:   "normalize",
	Params: []eval.BuiltinParam{{Name: "s"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("normalize", args[0])
		if err != nil {
			return nil, err
		}
		return &value.String{Value: norm.NFC.String(s)}, nil
	},
}

// graphemesBuiltin splits s into user-perceived characters rather than Go
// runes, so a string containing combining marks or emoji sequences counts
// and indexes the way a person reading it would expect.
var graphemesBuiltin = &eval.Builtin{
	Name:   "graphemes",
	Params: []eval.BuiltinParam{{Name: "s"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("graphemes", args[0])
		if err != nil {
			return nil, err
		}
		var elems []value.Value
		gr := uniseg.NewGraphemes(s)
		for gr.Next() {
			elems = append(elems, &value.String{Value: gr.Str()})
		}
		return &value.List{Elements: elems}, nil
	},
}

// displayWidthBuiltin reports the terminal column width of s, used when
// rendering tabular output or padding REPL prompts where rune count would
// misjudge wide (CJK) or zero-width characters.
var displayWidthBuiltin = &eval.Builtin{
	Name:   "displayWidth",
	Params: []eval.BuiltinParam{{Name: "s"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("displayWidth", args[0])
		if err != nil {
			return nil, err
		}
		return &value.Int{Value: int64(runewidth.StringWidth(s))}, nil
	},
}

func asString(fn string, v value.Value) (string, *errors.LangError) {
	s, ok := v.(*value.String)
	if !ok {
		return "", errors.Simple(errors.ClassRuntime, token0, fn+"() expects a string, got "+string(v.Type()))
	}
	return s.Value, nil
}
