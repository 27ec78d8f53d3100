package ast

import "github.com/jargnar/orangensaft/internal/token"

// SchemaExpr is the mini-grammar used both for type annotations in source
// and for the schema.Validate/schema.ToJSONSchema pair in internal/schema.
type SchemaExpr interface {
	Node
	schemaNode()
}

type AnySchema struct{ SpanValue token.Span }

func (n *AnySchema) Span() token.Span { return n.SpanValue }
func (n *AnySchema) String() string   { return "any" }
func (n *AnySchema) schemaNode()      {}

type IntSchema struct{ SpanValue token.Span }

func (n *IntSchema) Span() token.Span { return n.SpanValue }
func (n *IntSchema) String() string   { return "int" }
func (n *IntSchema) schemaNode()      {}

type FloatSchema struct{ SpanValue token.Span }

func (n *FloatSchema) Span() token.Span { return n.SpanValue }
func (n *FloatSchema) String() string   { return "float" }
func (n *FloatSchema) schemaNode()      {}

type BoolSchema struct{ SpanValue token.Span }

func (n *BoolSchema) Span() token.Span { return n.SpanValue }
func (n *BoolSchema) String() string   { return "bool" }
func (n *BoolSchema) schemaNode()      {}

type StringSchema struct{ SpanValue token.Span }

func (n *StringSchema) Span() token.Span { return n.SpanValue }
func (n *StringSchema) String() string   { return "string" }
func (n *StringSchema) schemaNode()      {}

type ListSchema struct {
	Elem      SchemaExpr
	SpanValue token.Span
}

func (n *ListSchema) Span() token.Span { return n.SpanValue }
func (n *ListSchema) String() string   { return "list" }
func (n *ListSchema) schemaNode()      {}

// TupleSchema requires 2+ elements, same as TupleLit.
type TupleSchema struct {
	Elems     []SchemaExpr
	SpanValue token.Span
}

func (n *TupleSchema) Span() token.Span { return n.SpanValue }
func (n *TupleSchema) String() string   { return "tuple" }
func (n *TupleSchema) schemaNode()      {}

type ObjectField struct {
	Name   string
	Schema SchemaExpr
}

type ObjectSchema struct {
	Fields    []ObjectField
	SpanValue token.Span
}

func (n *ObjectSchema) Span() token.Span { return n.SpanValue }
func (n *ObjectSchema) String() string   { return "object" }
func (n *ObjectSchema) schemaNode()      {}

// UnionSchema is left-folded by the parser: `S1 | S2 | S3` becomes one
// UnionSchema with three branches, not nested pairs.
type UnionSchema struct {
	Branches  []SchemaExpr
	SpanValue token.Span
}

func (n *UnionSchema) Span() token.Span { return n.SpanValue }
func (n *UnionSchema) String() string   { return "union" }
func (n *UnionSchema) schemaNode()      {}

// OptionalSchema is the `?` suffix: matches nil or the wrapped schema.
type OptionalSchema struct {
	Elem      SchemaExpr
	SpanValue token.Span
}

func (n *OptionalSchema) Span() token.Span { return n.SpanValue }
func (n *OptionalSchema) String() string   { return "optional" }
func (n *OptionalSchema) schemaNode()      {}
