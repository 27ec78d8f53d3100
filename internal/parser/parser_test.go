package parser

import (
	"testing"

	"github.com/jargnar/orangensaft/internal/ast"
	"github.com/jargnar/orangensaft/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := ParseProgram(lexer.New(src, "<test>"))
	if len(errs) != 0 {
		t.Fatalf("input %q: unexpected errors: %v", src, errs)
	}
	return prog
}

func TestParsePrimitiveExpressions(t *testing.T) {
	tests := []struct {
		input string
		check func(t *testing.T, e ast.Expression)
	}{
		{"42", func(t *testing.T, e ast.Expression) {
			lit, ok := e.(*ast.IntLit)
			if !ok || lit.Value != 42 {
				t.Errorf("got %#v", e)
			}
		}},
		{"3.14", func(t *testing.T, e ast.Expression) {
			lit, ok := e.(*ast.FloatLit)
			if !ok || lit.Value != 3.14 {
				t.Errorf("got %#v", e)
			}
		}},
		{`"hi"`, func(t *testing.T, e ast.Expression) {
			lit, ok := e.(*ast.StringLit)
			if !ok || lit.Value != "hi" {
				t.Errorf("got %#v", e)
			}
		}},
		{"true", func(t *testing.T, e ast.Expression) {
			if lit, ok := e.(*ast.BoolLit); !ok || !lit.Value {
				t.Errorf("got %#v", e)
			}
		}},
		{"nil", func(t *testing.T, e ast.Expression) {
			if _, ok := e.(*ast.NilLit); !ok {
				t.Errorf("got %#v", e)
			}
		}},
	}

	for _, tt := range tests {
		prog := parse(t, tt.input)
		if len(prog.Statements) != 1 {
			t.Fatalf("input %q: expected 1 statement, got %d", tt.input, len(prog.Statements))
		}
		stmt, ok := prog.Statements[0].(*ast.ExprStmt)
		if !ok {
			t.Fatalf("input %q: expected ExprStmt, got %T", tt.input, prog.Statements[0])
		}
		tt.check(t, stmt.Expr)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  ast.BinaryOp
	}{
		{"1 + 2 * 3", ast.BinAdd},
		{"1 or 2 and 3", ast.BinOr},
		{"1 == 2 and 3 == 4", ast.BinAnd},
	}
	for _, tt := range tests {
		prog := parse(t, tt.input)
		stmt := prog.Statements[0].(*ast.ExprStmt)
		bin, ok := stmt.Expr.(*ast.BinaryExpr)
		if !ok {
			t.Fatalf("input %q: expected top-level BinaryExpr, got %T", tt.input, stmt.Expr)
		}
		if bin.Op != tt.want {
			t.Errorf("input %q: expected top-level op %v, got %v", tt.input, tt.want, bin.Op)
		}
	}
}

func TestParseTupleRequiresTwoElements(t *testing.T) {
	_, errs := ParseProgram(lexer.New("(1, 2)", "<test>"))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	_, errs = ParseProgram(lexer.New("(1,)", "<test>"))
	if len(errs) == 0 {
		t.Fatalf("expected an error for a single-element tuple literal")
	}
}

func TestParseGroupedExpressionIsNotATuple(t *testing.T) {
	prog := parse(t, "(1 + 2) * 3")
	stmt := prog.Statements[0].(*ast.ExprStmt)
	bin, ok := stmt.Expr.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.BinMul {
		t.Fatalf("expected a multiplication at the top level, got %#v", stmt.Expr)
	}
	if _, ok := bin.Left.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected grouped addition on the left, got %#v", bin.Left)
	}
}

func TestParseAssignUntyped(t *testing.T) {
	prog := parse(t, "x = 1")
	stmt, ok := prog.Statements[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", prog.Statements[0])
	}
	if len(stmt.Targets) != 1 || stmt.Targets[0] != "x" || stmt.Annotation != nil {
		t.Errorf("got %#v", stmt)
	}
}

func TestParseAssignTyped(t *testing.T) {
	prog := parse(t, "x: int = 1")
	stmt := prog.Statements[0].(*ast.AssignStmt)
	if _, ok := stmt.Annotation.(*ast.IntSchema); !ok {
		t.Errorf("expected IntSchema annotation, got %#v", stmt.Annotation)
	}
}

func TestParseDestructuringAssign(t *testing.T) {
	prog := parse(t, "a, b = pair")
	stmt := prog.Statements[0].(*ast.AssignStmt)
	if len(stmt.Targets) != 2 || stmt.Targets[0] != "a" || stmt.Targets[1] != "b" {
		t.Errorf("got %#v", stmt.Targets)
	}
}

func TestParseFnDefWithSchemas(t *testing.T) {
	src := "f add(a: int, b: int) -> int:\n  ret a + b\n"
	prog := parse(t, src)
	fn, ok := prog.Statements[0].(*ast.FnDef)
	if !ok {
		t.Fatalf("expected FnDef, got %T", prog.Statements[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("got %#v", fn)
	}
	if _, ok := fn.Params[0].Schema.(*ast.IntSchema); !ok {
		t.Errorf("expected first param schema int, got %#v", fn.Params[0].Schema)
	}
	if _, ok := fn.ReturnSchema.(*ast.IntSchema); !ok {
		t.Errorf("expected return schema int, got %#v", fn.ReturnSchema)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body))
	}
	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected ReturnStmt, got %T", fn.Body[0])
	}
	if _, ok := ret.Value.(*ast.BinaryExpr); !ok {
		t.Errorf("expected binary return value, got %#v", ret.Value)
	}
}

func TestParseIfElse(t *testing.T) {
	src := "if x > 0:\n  y = 1\nelse:\n  y = 2\n"
	prog := parse(t, src)
	stmt, ok := prog.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Statements[0])
	}
	if len(stmt.Then) != 1 || len(stmt.Else) != 1 {
		t.Fatalf("got %#v", stmt)
	}
}

func TestParseForDestructuring(t *testing.T) {
	src := "for k, v in pairs:\n  ret k\n"
	prog := parse(t, src)
	stmt, ok := prog.Statements[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected ForStmt, got %T", prog.Statements[0])
	}
	if len(stmt.Pattern) != 2 || stmt.Pattern[0] != "k" || stmt.Pattern[1] != "v" {
		t.Errorf("got %#v", stmt.Pattern)
	}
}

func TestParseCallIndexMemberChain(t *testing.T) {
	prog := parse(t, "obj.items[0].name(1, 2)")
	stmt := prog.Statements[0].(*ast.ExprStmt)
	call, ok := stmt.Expr.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected top-level CallExpr, got %#v", stmt.Expr)
	}
	member, ok := call.Callee.(*ast.MemberExpr)
	if !ok || member.Name != "name" {
		t.Fatalf("expected member access '.name', got %#v", call.Callee)
	}
	if _, ok := member.Target.(*ast.IndexExpr); !ok {
		t.Fatalf("expected an index expression under the member access, got %#v", member.Target)
	}
}

func TestParseTupleIndex(t *testing.T) {
	prog := parse(t, "pair.0")
	stmt := prog.Statements[0].(*ast.ExprStmt)
	idx, ok := stmt.Expr.(*ast.TupleIndexExpr)
	if !ok || idx.Index != 0 {
		t.Fatalf("got %#v", stmt.Expr)
	}
}

func TestParsePromptPlain(t *testing.T) {
	prog := parse(t, "$ hello world $")
	stmt := prog.Statements[0].(*ast.ExprStmt)
	p, ok := stmt.Expr.(*ast.PromptExpr)
	if !ok {
		t.Fatalf("expected PromptExpr, got %#v", stmt.Expr)
	}
	if len(p.Parts) != 1 || p.Parts[0].Text != " hello world " {
		t.Fatalf("got %#v", p.Parts)
	}
}

func TestParsePromptInterpolation(t *testing.T) {
	prog := parse(t, "$ hi {name}, bye $")
	stmt := prog.Statements[0].(*ast.ExprStmt)
	p := stmt.Expr.(*ast.PromptExpr)
	if len(p.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d: %#v", len(p.Parts), p.Parts)
	}
	if p.Parts[0].Text != " hi " {
		t.Errorf("got %q", p.Parts[0].Text)
	}
	ident, ok := p.Parts[1].Interpolation.(*ast.Ident)
	if !ok || ident.Name != "name" {
		t.Errorf("got %#v", p.Parts[1].Interpolation)
	}
	if p.Parts[2].Text != ", bye " {
		t.Errorf("got %q", p.Parts[2].Text)
	}
}

func TestParseNestedPromptInsideInterpolation(t *testing.T) {
	prog := parse(t, "$ outer {$ inner $} $")
	stmt := prog.Statements[0].(*ast.ExprStmt)
	outer := stmt.Expr.(*ast.PromptExpr)
	if len(outer.Parts) != 3 || outer.Parts[2].Text != " " {
		t.Fatalf("expected 3 parts ending in a \" \" text part, got %d: %#v", len(outer.Parts), outer.Parts)
	}
	inner, ok := outer.Parts[1].Interpolation.(*ast.PromptExpr)
	if !ok {
		t.Fatalf("expected nested PromptExpr, got %#v", outer.Parts[1].Interpolation)
	}
	if len(inner.Parts) != 1 || inner.Parts[0].Text != " inner " {
		t.Errorf("got %#v", inner.Parts)
	}
}

func TestParseSchemaUnionAndOptional(t *testing.T) {
	src := "f g(a: int | string?):\n  ret a\n"
	prog := parse(t, src)
	fn := prog.Statements[0].(*ast.FnDef)
	union, ok := fn.Params[0].Schema.(*ast.UnionSchema)
	if !ok || len(union.Branches) != 2 {
		t.Fatalf("got %#v", fn.Params[0].Schema)
	}
	if _, ok := union.Branches[0].(*ast.IntSchema); !ok {
		t.Errorf("expected first branch int, got %#v", union.Branches[0])
	}
	opt, ok := union.Branches[1].(*ast.OptionalSchema)
	if !ok {
		t.Fatalf("expected second branch optional, got %#v", union.Branches[1])
	}
	if _, ok := opt.Elem.(*ast.StringSchema); !ok {
		t.Errorf("expected optional(string), got %#v", opt.Elem)
	}
}

func TestParseSchemaObjectAndList(t *testing.T) {
	src := "f g(a: {name: string, tags: [string]}):\n  ret a\n"
	prog := parse(t, src)
	fn := prog.Statements[0].(*ast.FnDef)
	obj, ok := fn.Params[0].Schema.(*ast.ObjectSchema)
	if !ok || len(obj.Fields) != 2 {
		t.Fatalf("got %#v", fn.Params[0].Schema)
	}
	if obj.Fields[0].Name != "name" {
		t.Errorf("got %#v", obj.Fields[0])
	}
	list, ok := obj.Fields[1].Schema.(*ast.ListSchema)
	if !ok {
		t.Fatalf("expected list schema for 'tags', got %#v", obj.Fields[1].Schema)
	}
	if _, ok := list.Elem.(*ast.StringSchema); !ok {
		t.Errorf("expected list element string, got %#v", list.Elem)
	}
}

func TestParseSchemaTupleGrouping(t *testing.T) {
	src := "f g(a: (int, string)):\n  ret a\n"
	prog := parse(t, src)
	fn := prog.Statements[0].(*ast.FnDef)
	tup, ok := fn.Params[0].Schema.(*ast.TupleSchema)
	if !ok || len(tup.Elems) != 2 {
		t.Fatalf("got %#v", fn.Params[0].Schema)
	}
}

func TestParseUnknownTokenReportsError(t *testing.T) {
	_, errs := ParseProgram(lexer.New("x = @", "<test>"))
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for '@'")
	}
}
