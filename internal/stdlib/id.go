package stdlib

import (
	"github.com/google/uuid"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/value"
)

func init() {
	allBuiltins = append(allBuiltins, newIDBuiltin)
}

// newIDBuiltin mints a random v4 UUID, the usual way a script needs a stable
// handle for a tool call result or a recorded transcript entry.
var newIDBuiltin = &eval.Builtin{
	Name:   "newID",
	Params: []eval.BuiltinParam{},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		return &value.String{Value: uuid.New().String()}, nil
	},
}
