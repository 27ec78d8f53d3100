// Package eval is the tree-walking evaluator: environment/closures, the
// core expression and statement semantics, and (in prompt.go) the prompt
// orchestration loop that turns a PromptExpr into a rendered request, a
// tool-call round trip, and a validated result.
package eval

import (
	"fmt"

	"github.com/jargnar/orangensaft/internal/ast"
	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/schema"
	"github.com/jargnar/orangensaft/internal/token"
	"github.com/jargnar/orangensaft/internal/value"
)

// Interpreter owns everything a running program needs beyond the
// environment chain: the active prompt provider, tool-loop limits, and
// where transcripts/log output go. One Interpreter runs one program;
// nested/child prompts share it.
type Interpreter struct {
	Provider      Provider
	MaxToolRounds int
	MaxToolCalls  int
	Recorder      Recorder
}

// Recorder observes prompt round trips for transcript capture. Run without
// one (nil) is fine; every call site nil-checks.
type Recorder interface {
	RecordPrompt(rendered string, response string)
}

// New creates an Interpreter with the default tool-loop limits (8 rounds,
// 32 calls).
func New(provider Provider) *Interpreter {
	return &Interpreter{Provider: provider, MaxToolRounds: 8, MaxToolCalls: 32}
}

// execResult is the tree-walker's control-flow signal: a pair returned
// alongside an error rather than an allocated sentinel object, so a `ret`
// can short-circuit outward through nested blocks without a type switch to
// detect it.
type execResult struct {
	returning bool
	value     value.Value
}

// Run executes every top-level statement in prog against env, matching the
// program-level semantics of a function body's block (a top-level `ret` is
// a resolver-time error per DESIGN.md's Open Question (a), so Run never
// needs to special-case encountering one here).
func (in *Interpreter) Run(prog *ast.Program, env *Environment) *errors.LangError {
	_, err := in.execBlock(prog.Statements, env)
	return err
}

func (in *Interpreter) execBlock(stmts []ast.Statement, env *Environment) (execResult, *errors.LangError) {
	for _, stmt := range stmts {
		res, err := in.execStmt(stmt, env)
		if err != nil {
			return execResult{}, err
		}
		if res.returning {
			return res, nil
		}
	}
	return execResult{}, nil
}

func (in *Interpreter) execStmt(stmt ast.Statement, env *Environment) (execResult, *errors.LangError) {
	switch n := stmt.(type) {
	case *ast.FnDef:
		env.Define(n.Name, &UserFunction{Def: n, Closure: env})
		return execResult{}, nil

	case *ast.AssignStmt:
		v, err := in.evalAssignValue(n, env)
		if err != nil {
			return execResult{}, err
		}
		if n.Annotation != nil {
			if msg := schema.Validate(v, n.Annotation); msg != "" {
				return execResult{}, errors.New("TYPE-0001", n.SpanValue, map[string]any{"Name": n.Targets[0], "Detail": msg})
			}
		}
		if len(n.Targets) == 1 {
			env.Assign(n.Targets[0], v)
			return execResult{}, nil
		}
		tup, ok := v.(*value.Tuple)
		if !ok {
			return execResult{}, errors.New("RUNTIME-0008", n.SpanValue, map[string]any{"Want": len(n.Targets), "Got": 1})
		}
		if len(tup.Elements) != len(n.Targets) {
			return execResult{}, errors.New("RUNTIME-0008", n.SpanValue, map[string]any{"Want": len(n.Targets), "Got": len(tup.Elements)})
		}
		for i, target := range n.Targets {
			env.Assign(target, tup.Elements[i])
		}
		return execResult{}, nil

	case *ast.IfStmt:
		cond, err := in.Eval(n.Cond, env)
		if err != nil {
			return execResult{}, err
		}
		if value.Truthy(cond) {
			return in.execBlock(n.Then, NewEnclosedEnvironment(env))
		}
		if n.Else != nil {
			return in.execBlock(n.Else, NewEnclosedEnvironment(env))
		}
		return execResult{}, nil

	case *ast.ForStmt:
		return in.execFor(n, env)

	case *ast.ReturnStmt:
		if n.Value == nil {
			return execResult{returning: true, value: value.NilValue}, nil
		}
		v, err := in.Eval(n.Value, env)
		if err != nil {
			return execResult{}, err
		}
		return execResult{returning: true, value: v}, nil

	case *ast.AssertStmt:
		v, err := in.Eval(n.Expr, env)
		if err != nil {
			return execResult{}, err
		}
		if !value.Truthy(v) {
			return execResult{}, errors.New("ASSERT-0001", n.SpanValue, map[string]any{"Expr": n.Expr.String(), "Value": v.Inspect()})
		}
		return execResult{}, nil

	case *ast.ExprStmt:
		_, err := in.Eval(n.Expr, env)
		return execResult{}, err

	default:
		return execResult{}, errors.Simple(errors.ClassRuntime, stmt.Span(), fmt.Sprintf("unhandled statement type %T", stmt))
	}
}

func (in *Interpreter) evalAssignValue(n *ast.AssignStmt, env *Environment) (value.Value, *errors.LangError) {
	if prompt, ok := n.Value.(*ast.PromptExpr); ok && n.Annotation != nil {
		return in.evalTypedPrompt(prompt, n.Annotation, env)
	}
	return in.Eval(n.Value, env)
}

func (in *Interpreter) execFor(n *ast.ForStmt, env *Environment) (execResult, *errors.LangError) {
	iter, err := in.Eval(n.Iter, env)
	if err != nil {
		return execResult{}, err
	}
	var elements []value.Value
	switch it := iter.(type) {
	case *value.List:
		elements = it.Elements
	case *value.Tuple:
		elements = it.Elements
	default:
		return execResult{}, errors.New("RUNTIME-0010", n.Iter.Span(), map[string]any{"Got": iter.Type()})
	}
	for _, elem := range elements {
		loopEnv := NewEnclosedEnvironment(env)
		if len(n.Pattern) == 1 {
			loopEnv.Define(n.Pattern[0], elem)
		} else {
			tup, ok := elem.(*value.Tuple)
			if !ok || len(tup.Elements) != len(n.Pattern) {
				got := 1
				if ok {
					got = len(tup.Elements)
				}
				return execResult{}, errors.New("RUNTIME-0008", n.SpanValue, map[string]any{"Want": len(n.Pattern), "Got": got})
			}
			for i, name := range n.Pattern {
				loopEnv.Define(name, tup.Elements[i])
			}
		}
		res, err := in.execBlock(n.Body, loopEnv)
		if err != nil {
			return execResult{}, err
		}
		if res.returning {
			return res, nil
		}
	}
	return execResult{}, nil
}

// Eval evaluates a single expression to a value.
func (in *Interpreter) Eval(expr ast.Expression, env *Environment) (value.Value, *errors.LangError) {
	switch n := expr.(type) {
	case *ast.IntLit:
		return &value.Int{Value: n.Value}, nil
	case *ast.FloatLit:
		return &value.Float{Value: n.Value}, nil
	case *ast.StringLit:
		return &value.String{Value: n.Value}, nil
	case *ast.BoolLit:
		return &value.Bool{Value: n.Value}, nil
	case *ast.NilLit:
		return value.NilValue, nil
	case *ast.Ident:
		if v, ok := env.Get(n.Name); ok {
			return v, nil
		}
		return nil, errors.Simple(errors.ClassRuntime, n.SpanValue, "undefined name '"+n.Name+"' (should have been caught by the resolver)")
	case *ast.ListLit:
		elems := make([]value.Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := in.Eval(e, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &value.List{Elements: elems}, nil
	case *ast.TupleLit:
		elems := make([]value.Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := in.Eval(e, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &value.Tuple{Elements: elems}, nil
	case *ast.ObjectLit:
		fields := make(map[string]value.Value, len(n.Keys))
		for i, key := range n.Keys {
			v, err := in.Eval(n.Values[i], env)
			if err != nil {
				return nil, err
			}
			fields[key] = v // last-wins on duplicate keys, per DESIGN.md Open Question (c)
		}
		return &value.Object{Fields: fields}, nil
	case *ast.UnaryExpr:
		return in.evalUnary(n, env)
	case *ast.BinaryExpr:
		return in.evalBinary(n, env)
	case *ast.CallExpr:
		return in.evalCall(n, env)
	case *ast.IndexExpr:
		return in.evalIndex(n, env)
	case *ast.MemberExpr:
		return in.evalMember(n, env)
	case *ast.TupleIndexExpr:
		return in.evalTupleIndex(n, env)
	case *ast.PromptExpr:
		return in.evalUntypedPrompt(n, env)
	default:
		return nil, errors.Simple(errors.ClassRuntime, expr.Span(), fmt.Sprintf("unhandled expression type %T", expr))
	}
}

func (in *Interpreter) evalUnary(n *ast.UnaryExpr, env *Environment) (value.Value, *errors.LangError) {
	v, err := in.Eval(n.Expr, env)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.UnaryNeg:
		switch num := v.(type) {
		case *value.Int:
			return &value.Int{Value: -num.Value}, nil
		case *value.Float:
			return &value.Float{Value: -num.Value}, nil
		default:
			return nil, errors.New("RUNTIME-0003", n.SpanValue, map[string]any{"Got": v.Type()})
		}
	case ast.UnaryNot:
		return &value.Bool{Value: !value.Truthy(v)}, nil
	default:
		return nil, errors.Simple(errors.ClassRuntime, n.SpanValue, "unknown unary operator")
	}
}

func (in *Interpreter) evalBinary(n *ast.BinaryExpr, env *Environment) (value.Value, *errors.LangError) {
	// and/or short-circuit, so the right operand is only evaluated when
	// it can affect the result.
	if n.Op == ast.BinAnd {
		left, err := in.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		if !value.Truthy(left) {
			return left, nil
		}
		return in.Eval(n.Right, env)
	}
	if n.Op == ast.BinOr {
		left, err := in.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		if value.Truthy(left) {
			return left, nil
		}
		return in.Eval(n.Right, env)
	}

	left, err := in.Eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := in.Eval(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ast.BinEq:
		return &value.Bool{Value: value.Equal(left, right)}, nil
	case ast.BinNotEq:
		return &value.Bool{Value: !value.Equal(left, right)}, nil
	}

	if ls, ok := left.(*value.String); ok {
		if rs, ok := right.(*value.String); ok {
			switch n.Op {
			case ast.BinAdd:
				return &value.String{Value: ls.Value + rs.Value}, nil
			case ast.BinLt:
				return &value.Bool{Value: ls.Value < rs.Value}, nil
			case ast.BinLte:
				return &value.Bool{Value: ls.Value <= rs.Value}, nil
			case ast.BinGt:
				return &value.Bool{Value: ls.Value > rs.Value}, nil
			case ast.BinGte:
				return &value.Bool{Value: ls.Value >= rs.Value}, nil
			}
		}
	}

	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return nil, errors.New("RUNTIME-0004", n.SpanValue, map[string]any{"Op": opSymbol(n.Op), "Left": left.Type(), "Right": right.Type()})
	}
	bothInt := isInt(left) && isInt(right)

	switch n.Op {
	case ast.BinAdd:
		return numericResult(lf+rf, bothInt), nil
	case ast.BinSub:
		return numericResult(lf-rf, bothInt), nil
	case ast.BinMul:
		return numericResult(lf*rf, bothInt), nil
	case ast.BinDiv:
		if rf == 0 {
			return nil, errors.New("RUNTIME-0001", n.SpanValue, nil)
		}
		return numericResult(lf/rf, bothInt && isExactIntDiv(left, right)), nil
	case ast.BinMod:
		if !bothInt {
			return nil, errors.New("RUNTIME-0004", n.SpanValue, map[string]any{"Op": "%", "Left": left.Type(), "Right": right.Type()})
		}
		ri := right.(*value.Int).Value
		if ri == 0 {
			return nil, errors.New("RUNTIME-0002", n.SpanValue, nil)
		}
		return &value.Int{Value: left.(*value.Int).Value % ri}, nil
	case ast.BinLt:
		return &value.Bool{Value: lf < rf}, nil
	case ast.BinLte:
		return &value.Bool{Value: lf <= rf}, nil
	case ast.BinGt:
		return &value.Bool{Value: lf > rf}, nil
	case ast.BinGte:
		return &value.Bool{Value: lf >= rf}, nil
	default:
		return nil, errors.Simple(errors.ClassRuntime, n.SpanValue, "unknown binary operator")
	}
}

func isInt(v value.Value) bool { _, ok := v.(*value.Int); return ok }

func isExactIntDiv(left, right value.Value) bool {
	l, lok := left.(*value.Int)
	r, rok := right.(*value.Int)
	return lok && rok && r.Value != 0 && l.Value%r.Value == 0
}

func asFloat(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case *value.Int:
		return float64(n.Value), true
	case *value.Float:
		return n.Value, true
	default:
		return 0, false
	}
}

func numericResult(f float64, asInt bool) value.Value {
	if asInt {
		return &value.Int{Value: int64(f)}
	}
	return &value.Float{Value: f}
}

func opSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.BinAdd:
		return "+"
	case ast.BinSub:
		return "-"
	case ast.BinMul:
		return "*"
	case ast.BinDiv:
		return "/"
	case ast.BinMod:
		return "%"
	case ast.BinLt:
		return "<"
	case ast.BinLte:
		return "<="
	case ast.BinGt:
		return ">"
	case ast.BinGte:
		return ">="
	default:
		return "?"
	}
}

func (in *Interpreter) evalCall(n *ast.CallExpr, env *Environment) (value.Value, *errors.LangError) {
	callee, err := in.Eval(n.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := in.Eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return in.call(callee, args, n.SpanValue)
}

// call dispatches to a user function or builtin; it's also the entry point
// tool dispatch in the prompt loop uses once a model-selected tool call has
// been turned into argument values.
func (in *Interpreter) call(callee value.Value, args []value.Value, span token.Span) (value.Value, *errors.LangError) {
	switch fn := callee.(type) {
	case *UserFunction:
		return in.callUser(fn, args, span)
	case *Builtin:
		return in.callBuiltin(fn, args, span)
	default:
		return nil, errors.New("RUNTIME-0009", span, map[string]any{"Got": callee.Type()})
	}
}

func (in *Interpreter) callUser(fn *UserFunction, args []value.Value, span token.Span) (value.Value, *errors.LangError) {
	if len(args) != len(fn.Def.Params) {
		return nil, errors.New("RUNTIME-0007", span, map[string]any{"Construct": "function '" + fn.Def.Name + "'", "Want": len(fn.Def.Params), "Got": len(args)})
	}
	callEnv := NewEnclosedEnvironment(fn.Closure)
	for i, param := range fn.Def.Params {
		if param.Schema != nil {
			if msg := schema.Validate(args[i], param.Schema); msg != "" {
				return nil, errors.New("TYPE-0002", span, map[string]any{"Param": param.Name, "Function": fn.Def.Name, "Detail": msg})
			}
		}
		callEnv.Define(param.Name, args[i])
	}
	res, err := in.execBlock(fn.Def.Body, callEnv)
	if err != nil {
		return nil, err
	}
	result := res.value
	if result == nil {
		result = value.NilValue
	}
	if fn.Def.ReturnSchema != nil {
		if msg := schema.Validate(result, fn.Def.ReturnSchema); msg != "" {
			return nil, errors.New("TYPE-0003", span, map[string]any{"Function": fn.Def.Name, "Schema": schema.String(fn.Def.ReturnSchema), "Detail": msg})
		}
	}
	return result, nil
}

func (in *Interpreter) callBuiltin(fn *Builtin, args []value.Value, span token.Span) (value.Value, *errors.LangError) {
	if !fn.Variadic && len(args) != len(fn.Params) {
		return nil, errors.New("RUNTIME-0007", span, map[string]any{"Construct": "builtin '" + fn.Name + "'", "Want": len(fn.Params), "Got": len(args)})
	}
	for i, param := range fn.Params {
		if i >= len(args) {
			break
		}
		if param.Schema != nil {
			if msg := schema.Validate(args[i], param.Schema); msg != "" {
				return nil, errors.New("TYPE-0002", span, map[string]any{"Param": param.Name, "Function": fn.Name, "Detail": msg})
			}
		}
	}
	result, err := fn.Fn(args)
	if err != nil {
		return nil, err.WithSpan(span)
	}
	if fn.ReturnSchema != nil {
		if msg := schema.Validate(result, fn.ReturnSchema); msg != "" {
			return nil, errors.New("TYPE-0003", span, map[string]any{"Function": fn.Name, "Schema": schema.String(fn.ReturnSchema), "Detail": msg})
		}
	}
	return result, nil
}

func (in *Interpreter) evalIndex(n *ast.IndexExpr, env *Environment) (value.Value, *errors.LangError) {
	target, err := in.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	idxVal, err := in.Eval(n.Index, env)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case *value.List:
		return indexElements(t.Elements, idxVal, n.SpanValue)
	case *value.Tuple:
		return indexElements(t.Elements, idxVal, n.SpanValue)
	case *value.String:
		idx, ok := idxVal.(*value.Int)
		if !ok {
			return nil, errors.New("RUNTIME-0013", n.SpanValue, map[string]any{"Got": idxVal.Type()})
		}
		runes := []rune(t.Value)
		i := int(idx.Value)
		if i < 0 || i >= len(runes) {
			return nil, errors.New("RUNTIME-0005", n.SpanValue, map[string]any{"Index": i, "Length": len(runes)})
		}
		return &value.String{Value: string(runes[i])}, nil
	case *value.Object:
		key, ok := idxVal.(*value.String)
		if !ok {
			return nil, errors.New("RUNTIME-0013", n.SpanValue, map[string]any{"Got": idxVal.Type()})
		}
		field, ok := t.Fields[key.Value]
		if !ok {
			return nil, errors.New("RUNTIME-0005", n.SpanValue, map[string]any{"Index": key.Value, "Length": len(t.Fields)})
		}
		return field, nil
	default:
		return nil, errors.New("RUNTIME-0013", n.SpanValue, map[string]any{"Got": target.Type()})
	}
}

func indexElements(elements []value.Value, idxVal value.Value, span token.Span) (value.Value, *errors.LangError) {
	idx, ok := idxVal.(*value.Int)
	if !ok {
		return nil, errors.New("RUNTIME-0013", span, map[string]any{"Got": idxVal.Type()})
	}
	i := int(idx.Value)
	if i < 0 || i >= len(elements) {
		return nil, errors.New("RUNTIME-0005", span, map[string]any{"Index": i, "Length": len(elements)})
	}
	return elements[i], nil
}

func (in *Interpreter) evalMember(n *ast.MemberExpr, env *Environment) (value.Value, *errors.LangError) {
	target, err := in.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	obj, ok := target.(*value.Object)
	if !ok {
		return nil, errors.New("RUNTIME-0013", n.SpanValue, map[string]any{"Got": target.Type()})
	}
	v, ok := obj.Fields[n.Name]
	if !ok {
		return nil, errors.New("RUNTIME-0006", n.SpanValue, map[string]any{"Field": n.Name})
	}
	return v, nil
}

func (in *Interpreter) evalTupleIndex(n *ast.TupleIndexExpr, env *Environment) (value.Value, *errors.LangError) {
	target, err := in.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	tup, ok := target.(*value.Tuple)
	if !ok {
		return nil, errors.New("RUNTIME-0013", n.SpanValue, map[string]any{"Got": target.Type()})
	}
	if n.Index < 0 || n.Index >= len(tup.Elements) {
		return nil, errors.New("RUNTIME-0005", n.SpanValue, map[string]any{"Index": n.Index, "Length": len(tup.Elements)})
	}
	return tup.Elements[n.Index], nil
}
