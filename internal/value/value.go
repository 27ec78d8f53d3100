// Package value defines the runtime value model every evaluated expression
// produces: the dynamically typed objects that flow through the
// interpreter, get projected to and from JSON at the prompt boundary, and
// get validated against schemas.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type names the dynamic type of a Value, used in error messages and as the
// type_name JSON-Schema-adjacent discriminator.
type Type string

const (
	IntType      Type = "int"
	FloatType    Type = "float"
	BoolType     Type = "bool"
	StringType   Type = "string"
	ListType     Type = "list"
	TupleType    Type = "tuple"
	ObjectType   Type = "object"
	FunctionType Type = "function"
	NilType      Type = "nil"
)

// Value is implemented by every runtime value variant. Concrete types are
// always used as pointers so that Go's interface equality gives function
// values a stable identity, without a separate ID field to keep in sync.
type Value interface {
	Type() Type
	Inspect() string
}

type Int struct{ Value int64 }

func (i *Int) Type() Type      { return IntType }
func (i *Int) Inspect() string { return strconv.FormatInt(i.Value, 10) }

type Float struct{ Value float64 }

func (f *Float) Type() Type      { return FloatType }
func (f *Float) Inspect() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type Bool struct{ Value bool }

func (b *Bool) Type() Type      { return BoolType }
func (b *Bool) Inspect() string { return strconv.FormatBool(b.Value) }

type String struct{ Value string }

func (s *String) Type() Type      { return StringType }
func (s *String) Inspect() string { return strconv.Quote(s.Value) }

type Nil struct{}

func (n *Nil) Type() Type      { return NilType }
func (n *Nil) Inspect() string { return "nil" }

// NilValue is the single shared nil instance; evaluator code should return
// this rather than allocating a fresh &Nil{} each time.
var NilValue = &Nil{}

type List struct{ Elements []Value }

func (l *List) Type() Type { return ListType }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Tuple always has 2+ elements; the parser enforces this at the syntax
// level, so nothing downstream needs to check it again.
type Tuple struct{ Elements []Value }

func (t *Tuple) Type() Type { return TupleType }
func (t *Tuple) Inspect() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.Inspect()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Object's key set is fixed at construction: there is no field-add/remove
// operation anywhere in the evaluator.
type Object struct{ Fields map[string]Value }

func (o *Object) Type() Type { return ObjectType }
func (o *Object) Inspect() string {
	keys := make([]string, 0, len(o.Fields))
	for k := range o.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + o.Fields[k].Inspect()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SortedKeys returns Fields' keys in sorted order, so callers that list
// them (the keys() builtin) get deterministic output.
func (o *Object) SortedKeys() []string {
	keys := make([]string, 0, len(o.Fields))
	for k := range o.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Function is implemented by both user-defined and builtin callables; the
// evaluator and prompt renderer only ever need this much of the shape to
// discover tool parameters and dispatch a call.
type Function interface {
	Value
	FnName() string
	Arity() int
	ParamNames() []string
}

func typeName(v Value) string {
	if v == nil {
		return "nil"
	}
	return string(v.Type())
}

// Truthy: only false and nil are falsey, everything else is truthy.
func Truthy(v Value) bool {
	switch b := v.(type) {
	case *Bool:
		return b.Value
	case *Nil:
		return false
	default:
		return v != nil
	}
}

// Equal is structural equality across the value model: values of different
// dynamic types are never equal, except int and float, which compare
// numerically in either order (1 == 1.0).
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case *Int:
		switch bv := b.(type) {
		case *Int:
			return av.Value == bv.Value
		case *Float:
			return float64(av.Value) == bv.Value
		default:
			return false
		}
	case *Float:
		switch bv := b.(type) {
		case *Float:
			return av.Value == bv.Value
		case *Int:
			return av.Value == float64(bv.Value)
		default:
			return false
		}
	case *Bool:
		bv, ok := b.(*Bool)
		return ok && av.Value == bv.Value
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *List:
		bv, ok := b.(*List)
		return ok && equalSlice(av.Elements, bv.Elements)
	case *Tuple:
		bv, ok := b.(*Tuple)
		return ok && equalSlice(av.Elements, bv.Elements)
	case *Object:
		bv, ok := b.(*Object)
		if !ok || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for k, v := range av.Fields {
			other, ok := bv.Fields[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		// Functions compare by identity, matching the original's
		// Value::Function(id) == Value::Function(id) comparison.
		return a == b
	}
}

func equalSlice(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// TypeMismatch is a small formatting helper shared by the evaluator and
// schema validator when describing what went wrong.
func TypeMismatch(expected string, got Value) string {
	return fmt.Sprintf("expected %s, got %s", expected, typeName(got))
}
