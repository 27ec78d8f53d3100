package eval

import (
	"github.com/jargnar/orangensaft/internal/ast"
	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/value"
)

// UserFunction is a function value created by an `f name(...): body`
// definition. Its identity (this pointer) is what the prompt renderer uses
// to dedup repeated interpolations of the same function within one prompt.
type UserFunction struct {
	Def     *ast.FnDef
	Closure *Environment
}

func (f *UserFunction) Type() value.Type { return value.FunctionType }
func (f *UserFunction) Inspect() string  { return "<function:" + f.Def.Name + ">" }
func (f *UserFunction) FnName() string   { return f.Def.Name }
func (f *UserFunction) Arity() int       { return len(f.Def.Params) }
func (f *UserFunction) ParamNames() []string {
	names := make([]string, len(f.Def.Params))
	for i, p := range f.Def.Params {
		names[i] = p.Name
	}
	return names
}

// ParamSchema returns the i'th parameter's schema annotation, or nil if
// unannotated (the tool descriptor builder treats that as "any").
func (f *UserFunction) ParamSchema(i int) ast.SchemaExpr { return f.Def.Params[i].Schema }

// BuiltinParam documents one builtin parameter for both arity/schema
// checking and tool-descriptor generation.
type BuiltinParam struct {
	Name   string
	Schema ast.SchemaExpr
}

// BuiltinFn is the native dispatch handle a Builtin wraps. It receives
// already-schema-validated arguments.
type BuiltinFn func(args []value.Value) (value.Value, *errors.LangError)

// Builtin is a native callable exposed as a first-class value, the same as
// a user function: both are first-class values and may be interpolated
// into prompts.
type Builtin struct {
	Name         string
	Params       []BuiltinParam
	Variadic     bool
	ReturnSchema ast.SchemaExpr
	Fn           BuiltinFn
}

func (b *Builtin) Type() value.Type { return value.FunctionType }
func (b *Builtin) Inspect() string  { return "<builtin:" + b.Name + ">" }
func (b *Builtin) FnName() string   { return b.Name }
func (b *Builtin) Arity() int       { return len(b.Params) }
func (b *Builtin) ParamNames() []string {
	names := make([]string, len(b.Params))
	for i, p := range b.Params {
		names[i] = p.Name
	}
	return names
}

// ParamSchema returns the i'th parameter's schema, or nil ("any") if the
// builtin declared none or i is beyond a variadic builtin's fixed prefix.
func (b *Builtin) ParamSchema(i int) ast.SchemaExpr {
	if i < 0 || i >= len(b.Params) {
		return nil
	}
	return b.Params[i].Schema
}

// paramSchemaOf is a small helper the tool-descriptor builder in prompt.go
// uses without caring whether the function is a UserFunction or Builtin.
func paramSchemaOf(fn value.Function, i int) ast.SchemaExpr {
	switch f := fn.(type) {
	case *UserFunction:
		return f.ParamSchema(i)
	case *Builtin:
		return f.ParamSchema(i)
	default:
		return nil
	}
}
