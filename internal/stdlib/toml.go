package stdlib

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/value"
)

func init() {
	allBuiltins = append(allBuiltins,
		parseTOMLBuiltin, encodeTOMLBuiltin, parseJSONBuiltin, encodeJSONBuiltin,
	)
}

// parseTOMLBuiltin decodes a TOML document (a config file, a tool result
// rendered as TOML) into ordinary list/object/scalar values.
var parseTOMLBuiltin = &eval.Builtin{
	Name:   "parseTOML",
	Params: []eval.BuiltinParam{{Name: "source"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("parseTOML", args[0])
		if err != nil {
			return nil, err
		}
		var data map[string]any
		if terr := toml.Unmarshal([]byte(s), &data); terr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "parseTOML(): "+terr.Error())
		}
		return value.FromJSON(data), nil
	},
}

var encodeTOMLBuiltin = &eval.Builtin{
	Name:   "encodeTOML",
	Params: []eval.BuiltinParam{{Name: "value"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		data := value.ToJSON(args[0])
		out, terr := toml.Marshal(data)
		if terr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "encodeTOML(): "+terr.Error())
		}
		return &value.String{Value: string(out)}, nil
	},
}

// parseJSONBuiltin and encodeJSONBuiltin stay on encoding/json directly: the
// runtime's own value model is already JSON-shaped (see internal/value/json.go),
// so there is no third-party JSON library in the corpus worth reaching for
// here — the decoding subtlety (UseNumber, for the int/float distinction)
// lives in value.DecodeJSON already and these builtins just expose it.
var parseJSONBuiltin = &eval.Builtin{
	Name:   "parseJSON",
	Params: []eval.BuiltinParam{{Name: "source"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("parseJSON", args[0])
		if err != nil {
			return nil, err
		}
		data, derr := value.DecodeJSON(s)
		if derr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "parseJSON(): "+derr.Error())
		}
		return value.FromJSON(data), nil
	},
}

var encodeJSONBuiltin = &eval.Builtin{
	Name:   "encodeJSON",
	Params: []eval.BuiltinParam{{Name: "value"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		out, jerr := json.Marshal(value.ToJSON(args[0]))
		if jerr != nil {
			return &value.String{Value: "null"}, nil
		}
		return &value.String{Value: string(out)}, nil
	},
}
