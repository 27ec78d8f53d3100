// Package ast defines the span-annotated syntax tree produced by the
// parser and consumed by the resolver and evaluator.
package ast

import "github.com/jargnar/orangensaft/internal/token"

// Node is the common interface implemented by every statement, expression,
// and schema node. String exists for debugging/printing, mirroring the
// interpreter-book convention the rest of the tree follows.
type Node interface {
	Span() token.Span
	String() string
}

// Statement is a top-level or block-level construct that does not itself
// produce a value.
type Statement interface {
	Node
	statementNode()
}

// Expression produces a runtime value when evaluated.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: an ordered sequence of statements.
type Program struct {
	Statements []Statement
	SpanValue  token.Span
}

func (p *Program) Span() token.Span { return p.SpanValue }
func (p *Program) String() string {
	out := ""
	for _, s := range p.Statements {
		out += s.String() + "\n"
	}
	return out
}

// ---- Statements ----------------------------------------------------------

// FnDef is a function definition: `f name(params) -> schema: body`.
type FnDef struct {
	Name         string
	Params       []Param
	ReturnSchema SchemaExpr // nil if unannotated
	Body         []Statement
	SpanValue    token.Span
}

func (n *FnDef) Span() token.Span { return n.SpanValue }
func (n *FnDef) String() string   { return "f " + n.Name + "(...)" }
func (n *FnDef) statementNode()   {}

// Param is one function parameter, with an optional schema annotation.
type Param struct {
	Name      string
	Schema    SchemaExpr // nil if unannotated
	SpanValue token.Span
}

// AssignStmt covers both `name = expr` and `name: schema = expr`, and the
// tuple-destructuring supplement `a, b = expr`.
type AssignStmt struct {
	Targets    []string   // one name, or several for tuple destructuring
	Annotation SchemaExpr // nil unless the single-target form carries `: schema`
	Value      Expression
	SpanValue  token.Span
}

func (n *AssignStmt) Span() token.Span { return n.SpanValue }
func (n *AssignStmt) String() string   { return "assign " + n.Targets[0] }
func (n *AssignStmt) statementNode()   {}

// IfStmt is `if cond: then` with an optional `else: alt`.
type IfStmt struct {
	Cond      Expression
	Then      []Statement
	Else      []Statement // nil if no else branch
	SpanValue token.Span
}

func (n *IfStmt) Span() token.Span { return n.SpanValue }
func (n *IfStmt) String() string   { return "if ..." }
func (n *IfStmt) statementNode()   {}

// ForStmt is `for pattern in iter: body`, where pattern is one or more
// identifiers (destructuring each iterated tuple).
type ForStmt struct {
	Pattern   []string
	Iter      Expression
	Body      []Statement
	SpanValue token.Span
}

func (n *ForStmt) Span() token.Span { return n.SpanValue }
func (n *ForStmt) String() string   { return "for ..." }
func (n *ForStmt) statementNode()   {}

// ReturnStmt is `ret expr?`.
type ReturnStmt struct {
	Value     Expression // nil for a bare `ret`
	SpanValue token.Span
}

func (n *ReturnStmt) Span() token.Span { return n.SpanValue }
func (n *ReturnStmt) String() string   { return "ret" }
func (n *ReturnStmt) statementNode()   {}

// AssertStmt is `assert expr`.
type AssertStmt struct {
	Expr      Expression
	SpanValue token.Span
}

func (n *AssertStmt) Span() token.Span { return n.SpanValue }
func (n *AssertStmt) String() string   { return "assert ..." }
func (n *AssertStmt) statementNode()   {}

// ExprStmt wraps an expression evaluated for effect.
type ExprStmt struct {
	Expr      Expression
	SpanValue token.Span
}

func (n *ExprStmt) Span() token.Span { return n.SpanValue }
func (n *ExprStmt) String() string   { return n.Expr.String() }
func (n *ExprStmt) statementNode()   {}

// ---- Expressions ----------------------------------------------------------

type IntLit struct {
	Value     int64
	SpanValue token.Span
}

func (n *IntLit) Span() token.Span { return n.SpanValue }
func (n *IntLit) String() string   { return "int" }
func (n *IntLit) expressionNode()  {}

type FloatLit struct {
	Value     float64
	SpanValue token.Span
}

func (n *FloatLit) Span() token.Span { return n.SpanValue }
func (n *FloatLit) String() string   { return "float" }
func (n *FloatLit) expressionNode()  {}

type StringLit struct {
	Value     string
	SpanValue token.Span
}

func (n *StringLit) Span() token.Span { return n.SpanValue }
func (n *StringLit) String() string   { return "string" }
func (n *StringLit) expressionNode()  {}

type BoolLit struct {
	Value     bool
	SpanValue token.Span
}

func (n *BoolLit) Span() token.Span { return n.SpanValue }
func (n *BoolLit) String() string   { return "bool" }
func (n *BoolLit) expressionNode()  {}

type NilLit struct {
	SpanValue token.Span
}

func (n *NilLit) Span() token.Span { return n.SpanValue }
func (n *NilLit) String() string   { return "nil" }
func (n *NilLit) expressionNode()  {}

type Ident struct {
	Name      string
	SpanValue token.Span
}

func (n *Ident) Span() token.Span { return n.SpanValue }
func (n *Ident) String() string   { return n.Name }
func (n *Ident) expressionNode()  {}

type ListLit struct {
	Elements  []Expression
	SpanValue token.Span
}

func (n *ListLit) Span() token.Span { return n.SpanValue }
func (n *ListLit) String() string   { return "list" }
func (n *ListLit) expressionNode()  {}

// TupleLit requires 2+ elements per the grammar; the parser enforces this.
type TupleLit struct {
	Elements  []Expression
	SpanValue token.Span
}

func (n *TupleLit) Span() token.Span { return n.SpanValue }
func (n *TupleLit) String() string   { return "tuple" }
func (n *TupleLit) expressionNode()  {}

// ObjectLit preserves field order as written, though the value model does
// not make that order observable.
type ObjectLit struct {
	Keys      []string
	Values    []Expression
	SpanValue token.Span
}

func (n *ObjectLit) Span() token.Span { return n.SpanValue }
func (n *ObjectLit) String() string   { return "object" }
func (n *ObjectLit) expressionNode()  {}

type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

type UnaryExpr struct {
	Op        UnaryOp
	Expr      Expression
	SpanValue token.Span
}

func (n *UnaryExpr) Span() token.Span { return n.SpanValue }
func (n *UnaryExpr) String() string   { return "unary" }
func (n *UnaryExpr) expressionNode()  {}

type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNotEq
	BinLt
	BinLte
	BinGt
	BinGte
	BinAnd
	BinOr
)

type BinaryExpr struct {
	Left, Right Expression
	Op          BinaryOp
	SpanValue   token.Span
}

func (n *BinaryExpr) Span() token.Span { return n.SpanValue }
func (n *BinaryExpr) String() string   { return "binary" }
func (n *BinaryExpr) expressionNode()  {}

type CallExpr struct {
	Callee    Expression
	Args      []Expression
	SpanValue token.Span
}

func (n *CallExpr) Span() token.Span { return n.SpanValue }
func (n *CallExpr) String() string   { return "call" }
func (n *CallExpr) expressionNode()  {}

type IndexExpr struct {
	Target, Index Expression
	SpanValue     token.Span
}

func (n *IndexExpr) Span() token.Span { return n.SpanValue }
func (n *IndexExpr) String() string   { return "index" }
func (n *IndexExpr) expressionNode()  {}

type MemberExpr struct {
	Target    Expression
	Name      string
	SpanValue token.Span
}

func (n *MemberExpr) Span() token.Span { return n.SpanValue }
func (n *MemberExpr) String() string   { return "member ." + n.Name }
func (n *MemberExpr) expressionNode()  {}

type TupleIndexExpr struct {
	Target    Expression
	Index     int
	SpanValue token.Span
}

func (n *TupleIndexExpr) Span() token.Span { return n.SpanValue }
func (n *TupleIndexExpr) String() string   { return "tuple-index" }
func (n *TupleIndexExpr) expressionNode()  {}

// PromptExpr is `$ ... $`, a sequence of literal-text and interpolation
// parts. It carries no schema of its own: the evaluator enters typed-prompt
// mode when the prompt is the value of an AssignStmt with an Annotation.
type PromptExpr struct {
	Parts     []PromptPart
	SpanValue token.Span
}

func (n *PromptExpr) Span() token.Span { return n.SpanValue }
func (n *PromptExpr) String() string   { return "prompt" }
func (n *PromptExpr) expressionNode()  {}

// PromptPart is either literal Text or an Interpolation expression; exactly
// one of the two is set.
type PromptPart struct {
	Text          string
	Interpolation Expression
}
