// Package schema implements structural validation of runtime values against
// the schema mini-language, plus a projection of that mini-language into
// JSON Schema for typed-prompt contracts and auto-discovered tool
// descriptors.
package schema

import (
	"fmt"
	"strings"

	"github.com/jargnar/orangensaft/internal/ast"
	"github.com/jargnar/orangensaft/internal/value"
)

// Validate checks v against schema, returning a human-readable path-qualified
// error on the first mismatch found, or "" if v satisfies schema. A nil
// schema always validates (unannotated parameters and return types accept
// any value).
func Validate(v value.Value, s ast.SchemaExpr) string {
	if s == nil {
		return ""
	}
	return validateInner(v, s, "value")
}

func validateInner(v value.Value, s ast.SchemaExpr, path string) string {
	switch sc := s.(type) {
	case *ast.AnySchema:
		return ""
	case *ast.IntSchema:
		if _, ok := v.(*value.Int); ok {
			return ""
		}
		return typeMismatch(path, s, v)
	case *ast.FloatSchema:
		if _, ok := v.(*value.Float); ok {
			return ""
		}
		return typeMismatch(path, s, v)
	case *ast.BoolSchema:
		if _, ok := v.(*value.Bool); ok {
			return ""
		}
		return typeMismatch(path, s, v)
	case *ast.StringSchema:
		if _, ok := v.(*value.String); ok {
			return ""
		}
		return typeMismatch(path, s, v)
	case *ast.ListSchema:
		list, ok := v.(*value.List)
		if !ok {
			return typeMismatch(path, s, v)
		}
		for i, item := range list.Elements {
			if msg := validateInner(item, sc.Elem, fmt.Sprintf("%s[%d]", path, i)); msg != "" {
				return msg
			}
		}
		return ""
	case *ast.TupleSchema:
		tup, ok := v.(*value.Tuple)
		if !ok {
			return typeMismatch(path, s, v)
		}
		if len(tup.Elements) != len(sc.Elems) {
			return fmt.Sprintf("%s: expected tuple length %d, got %d", path, len(sc.Elems), len(tup.Elements))
		}
		for i, elemSchema := range sc.Elems {
			if msg := validateInner(tup.Elements[i], elemSchema, fmt.Sprintf("%s.%d", path, i)); msg != "" {
				return msg
			}
		}
		return ""
	case *ast.ObjectSchema:
		obj, ok := v.(*value.Object)
		if !ok {
			return typeMismatch(path, s, v)
		}
		for _, field := range sc.Fields {
			fv, ok := obj.Fields[field.Name]
			if !ok {
				return fmt.Sprintf("%s: missing field '%s'", path, field.Name)
			}
			if msg := validateInner(fv, field.Schema, path+"."+field.Name); msg != "" {
				return msg
			}
		}
		for key := range obj.Fields {
			known := false
			for _, field := range sc.Fields {
				if field.Name == key {
					known = true
					break
				}
			}
			if !known {
				return fmt.Sprintf("%s: unexpected field '%s'", path, key)
			}
		}
		return ""
	case *ast.UnionSchema:
		var branchErrs []string
		for _, branch := range sc.Branches {
			if msg := validateInner(v, branch, path); msg == "" {
				return ""
			} else {
				branchErrs = append(branchErrs, msg)
			}
		}
		return fmt.Sprintf("%s: value did not match any union variant (%s)", path, strings.Join(branchErrs, "; "))
	case *ast.OptionalSchema:
		if _, ok := v.(*value.Nil); ok {
			return ""
		}
		return validateInner(v, sc.Elem, path)
	default:
		return fmt.Sprintf("%s: unknown schema node %T", path, s)
	}
}

func typeMismatch(path string, s ast.SchemaExpr, v value.Value) string {
	return fmt.Sprintf("%s: expected %s, got %s", path, String(s), v.Type())
}

// String renders a schema back to Orangensaft's own surface syntax, used in
// type-error messages and typed-prompt contracts.
func String(s ast.SchemaExpr) string {
	switch sc := s.(type) {
	case nil, *ast.AnySchema:
		return "any"
	case *ast.IntSchema:
		return "int"
	case *ast.FloatSchema:
		return "float"
	case *ast.BoolSchema:
		return "bool"
	case *ast.StringSchema:
		return "string"
	case *ast.ListSchema:
		return "[" + String(sc.Elem) + "]"
	case *ast.TupleSchema:
		parts := make([]string, len(sc.Elems))
		for i, e := range sc.Elems {
			parts[i] = String(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.ObjectSchema:
		parts := make([]string, len(sc.Fields))
		for i, f := range sc.Fields {
			parts[i] = f.Name + ": " + String(f.Schema)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ast.UnionSchema:
		parts := make([]string, len(sc.Branches))
		for i, b := range sc.Branches {
			parts[i] = String(b)
		}
		return strings.Join(parts, " | ")
	case *ast.OptionalSchema:
		return String(sc.Elem) + "?"
	default:
		return "any"
	}
}

// ToJSONSchema projects the schema mini-language into a JSON Schema document
// (as plain map[string]any, ready for json.Marshal), used both to build
// typed-prompt output contracts and tool-parameter descriptors.
func ToJSONSchema(s ast.SchemaExpr) map[string]any {
	switch sc := s.(type) {
	case nil, *ast.AnySchema:
		return map[string]any{}
	case *ast.IntSchema:
		return jsonType("integer")
	case *ast.FloatSchema:
		return jsonType("number")
	case *ast.BoolSchema:
		return jsonType("boolean")
	case *ast.StringSchema:
		return jsonType("string")
	case *ast.ListSchema:
		return map[string]any{"type": "array", "items": ToJSONSchema(sc.Elem)}
	case *ast.TupleSchema:
		items := make([]any, len(sc.Elems))
		for i, e := range sc.Elems {
			items[i] = ToJSONSchema(e)
		}
		return map[string]any{
			"type":       "array",
			"prefixItems": items,
			"minItems":   len(sc.Elems),
			"maxItems":   len(sc.Elems),
			"items":      false,
		}
	case *ast.ObjectSchema:
		properties := make(map[string]any, len(sc.Fields))
		required := make([]any, 0, len(sc.Fields))
		for _, f := range sc.Fields {
			properties[f.Name] = ToJSONSchema(f.Schema)
			required = append(required, f.Name)
		}
		return map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		}
	case *ast.UnionSchema:
		variants := make([]any, len(sc.Branches))
		for i, b := range sc.Branches {
			variants[i] = ToJSONSchema(b)
		}
		return map[string]any{"anyOf": variants}
	case *ast.OptionalSchema:
		return map[string]any{"anyOf": []any{ToJSONSchema(sc.Elem), jsonType("null")}}
	default:
		return map[string]any{}
	}
}

func jsonType(name string) map[string]any {
	return map[string]any{"type": name}
}

// ExampleShape produces a minimal representative JSON value matching
// schema, used by the typed-prompt contract to show the model a concrete
// example shape alongside the formal JSON Schema.
func ExampleShape(s ast.SchemaExpr) any {
	switch sc := s.(type) {
	case nil, *ast.AnySchema:
		return nil
	case *ast.IntSchema:
		return 0
	case *ast.FloatSchema:
		return 0.0
	case *ast.BoolSchema:
		return false
	case *ast.StringSchema:
		return ""
	case *ast.ListSchema:
		return []any{ExampleShape(sc.Elem)}
	case *ast.TupleSchema:
		out := make([]any, len(sc.Elems))
		for i, e := range sc.Elems {
			out[i] = ExampleShape(e)
		}
		return out
	case *ast.ObjectSchema:
		out := make(map[string]any, len(sc.Fields))
		for _, f := range sc.Fields {
			out[f.Name] = ExampleShape(f.Schema)
		}
		return out
	case *ast.UnionSchema:
		if len(sc.Branches) == 0 {
			return nil
		}
		return ExampleShape(sc.Branches[0])
	case *ast.OptionalSchema:
		return ExampleShape(sc.Elem)
	default:
		return nil
	}
}
