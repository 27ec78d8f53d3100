package stdlib

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/value"
)

func init() {
	allBuiltins = append(allBuiltins, hashPasswordBuiltin, checkPasswordBuiltin)
}

// hashPasswordBuiltin and checkPasswordBuiltin hash secrets with bcrypt's
// default cost rather than rolling any comparison or salting logic by hand.
var hashPasswordBuiltin = &eval.Builtin{
	Name:   "hashPassword",
	Params: []eval.BuiltinParam{{Name: "password"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("hashPassword", args[0])
		if err != nil {
			return nil, err
		}
		hash, herr := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
		if herr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "hashPassword(): "+herr.Error())
		}
		return &value.String{Value: string(hash)}, nil
	},
}

var checkPasswordBuiltin = &eval.Builtin{
	Name:   "checkPassword",
	Params: []eval.BuiltinParam{{Name: "password"}, {Name: "hash"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		pw, err := asString("checkPassword", args[0])
		if err != nil {
			return nil, err
		}
		hash, err := asString("checkPassword", args[1])
		if err != nil {
			return nil, err
		}
		ok := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
		return &value.Bool{Value: ok}, nil
	},
}
