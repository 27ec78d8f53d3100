// Package resolver performs a static, pre-evaluation pass over the AST that
// catches undefined names and duplicate definitions before the evaluator
// ever runs. It never changes the tree; it only collects diagnostics.
package resolver

import (
	"github.com/jargnar/orangensaft/internal/ast"
	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/token"
)

// Resolve walks prog and returns every diagnostic found. builtins names the
// identifiers that are always in scope (stdlib functions, constants) without
// having been assigned anywhere in the program.
func Resolve(prog *ast.Program, builtins []string) []*errors.LangError {
	r := &resolver{builtins: toSet(builtins), candidates: candidateNames(builtins)}
	r.resolveBlock(prog.Statements, scope{}, false)
	return r.errs
}

type scope map[string]bool

func (s scope) with(names ...string) scope {
	next := make(scope, len(s)+len(names))
	for k := range s {
		next[k] = true
	}
	for _, n := range names {
		next[n] = true
	}
	return next
}

type resolver struct {
	builtins   map[string]bool
	candidates []string
	errs       []*errors.LangError
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// candidateNames is the pool fuzzy "did you mean" suggestions are drawn
// from: every keyword, every builtin, nothing else. Local variables aren't
// included since by definition an undefined-name error means none matched.
func candidateNames(builtins []string) []string {
	out := append([]string{}, token.KeywordNames...)
	out = append(out, builtins...)
	return out
}

func (r *resolver) errf(code string, span token.Span, data map[string]any) {
	r.errs = append(r.errs, errors.New(code, span, data))
}

// resolveBlock mirrors a two-pass scheme: first every name a statement in
// this block introduces (function names, assignment targets, for-loop
// pattern names) is hoisted into scope, so forward references and mutual
// recursion between sibling functions work; then each statement is resolved
// against that completed scope.
func (r *resolver) resolveBlock(stmts []ast.Statement, parent scope, inFn bool) {
	names := map[string]bool{}
	fnNames := map[string]bool{}
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FnDef:
			if fnNames[s.Name] {
				r.errf("RESOLVE-0002", s.SpanValue, map[string]any{"Name": s.Name})
			}
			fnNames[s.Name] = true
			names[s.Name] = true
		case *ast.AssignStmt:
			for _, t := range s.Targets {
				names[t] = true
			}
		case *ast.ForStmt:
			for _, p := range s.Pattern {
				names[p] = true
			}
		}
	}
	inner := parent
	if len(names) > 0 {
		keys := make([]string, 0, len(names))
		for n := range names {
			keys = append(keys, n)
		}
		inner = parent.with(keys...)
	}
	for _, stmt := range stmts {
		r.resolveStmt(stmt, inner, inFn)
	}
}

func (r *resolver) resolveStmt(stmt ast.Statement, s scope, inFn bool) {
	switch n := stmt.(type) {
	case *ast.FnDef:
		fnScope := s
		seen := map[string]bool{}
		var params []string
		for _, p := range n.Params {
			if seen[p.Name] {
				r.errf("RESOLVE-0003", p.SpanValue, map[string]any{"Name": p.Name})
				continue
			}
			seen[p.Name] = true
			params = append(params, p.Name)
		}
		fnScope = fnScope.with(params...)
		r.resolveBlock(n.Body, fnScope, true)
	case *ast.AssignStmt:
		r.resolveExpr(n.Value, s)
	case *ast.IfStmt:
		r.resolveExpr(n.Cond, s)
		r.resolveBlock(n.Then, s, inFn)
		if n.Else != nil {
			r.resolveBlock(n.Else, s, inFn)
		}
	case *ast.ForStmt:
		r.resolveExpr(n.Iter, s)
		loopScope := s.with(n.Pattern...)
		r.resolveBlock(n.Body, loopScope, inFn)
	case *ast.ReturnStmt:
		if !inFn {
			r.errf("RESOLVE-0004", n.SpanValue, nil)
		}
		if n.Value != nil {
			r.resolveExpr(n.Value, s)
		}
	case *ast.AssertStmt:
		r.resolveExpr(n.Expr, s)
	case *ast.ExprStmt:
		r.resolveExpr(n.Expr, s)
	}
}

func (r *resolver) resolveExpr(expr ast.Expression, s scope) {
	switch n := expr.(type) {
	case nil:
		return
	case *ast.Ident:
		if s[n.Name] || r.builtins[n.Name] {
			return
		}
		err := errors.NewUndefinedName(n.Name, n.SpanValue, r.candidates)
		r.errs = append(r.errs, err)
	case *ast.ListLit:
		for _, e := range n.Elements {
			r.resolveExpr(e, s)
		}
	case *ast.TupleLit:
		for _, e := range n.Elements {
			r.resolveExpr(e, s)
		}
	case *ast.ObjectLit:
		for _, v := range n.Values {
			r.resolveExpr(v, s)
		}
	case *ast.UnaryExpr:
		r.resolveExpr(n.Expr, s)
	case *ast.BinaryExpr:
		r.resolveExpr(n.Left, s)
		r.resolveExpr(n.Right, s)
	case *ast.CallExpr:
		r.resolveExpr(n.Callee, s)
		for _, a := range n.Args {
			r.resolveExpr(a, s)
		}
	case *ast.IndexExpr:
		r.resolveExpr(n.Target, s)
		r.resolveExpr(n.Index, s)
	case *ast.MemberExpr:
		r.resolveExpr(n.Target, s)
	case *ast.TupleIndexExpr:
		r.resolveExpr(n.Target, s)
	case *ast.PromptExpr:
		for _, part := range n.Parts {
			if part.Interpolation != nil {
				r.resolveExpr(part.Interpolation, s)
			}
		}
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.BoolLit, *ast.NilLit:
		// literals introduce nothing to resolve
	}
}
