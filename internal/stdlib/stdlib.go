// Package stdlib provides the builtin functions every Orangensaft program
// sees without importing anything: core value operations plus a handful of
// domain builtins (text, time, identifiers, hashing, documents, a local
// database, and TOML) that exercise the third-party stack the rest of the
// evaluator doesn't need on its own.
package stdlib

import "github.com/jargnar/orangensaft/internal/eval"

// builtinFactory produces the builtins that need access to the environment
// they're registered into (print/log write through its Logger); plain,
// environment-independent builtins are appended directly to allBuiltins by
// each domain file's init().
type builtinFactory func(env *eval.Environment) *eval.Builtin

var allBuiltins []*eval.Builtin
var envBuiltinFactories []builtinFactory

// Register defines every builtin — core and domain — in env.
func Register(env *eval.Environment) {
	for _, b := range allBuiltins {
		env.Define(b.Name, b)
	}
	for _, factory := range envBuiltinFactories {
		b := factory(env)
		env.Define(b.Name, b)
	}
}

// Names lists every builtin name, used to seed the resolver's known-name
// set so builtins never read as undefined.
func Names() []string {
	names := make([]string, 0, len(allBuiltins)+len(envBuiltinFactories))
	for _, b := range allBuiltins {
		names = append(names, b.Name)
	}
	for _, factory := range envBuiltinFactories {
		names = append(names, factory(eval.NewEnvironment()).Name)
	}
	return names
}
