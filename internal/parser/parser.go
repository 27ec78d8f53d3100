// Package parser implements the recursive-descent, Pratt-style expression
// parser that turns a token stream into a span-annotated AST.
package parser

import (
	"strconv"

	"github.com/jargnar/orangensaft/internal/ast"
	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/lexer"
	"github.com/jargnar/orangensaft/internal/token"
)

const (
	_ int = iota
	precLowest
	precOr
	precAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
	precPostfix
)

var precedences = map[token.Type]int{
	token.OR:       precOr,
	token.AND:      precAnd,
	token.EQ:       precEquality,
	token.NOT_EQ:   precEquality,
	token.LT:       precComparison,
	token.LTE:      precComparison,
	token.GT:       precComparison,
	token.GTE:      precComparison,
	token.PLUS:     precAdditive,
	token.MINUS:    precAdditive,
	token.ASTERISK: precMultiplicative,
	token.SLASH:    precMultiplicative,
	token.PERCENT:  precMultiplicative,
	token.LPAREN:   precPostfix,
	token.LBRACKET: precPostfix,
	token.DOT:      precPostfix,
}

// Parser consumes a lexer's token stream and produces a *ast.Program, plus
// any diagnostics accumulated along the way. It does not stop at the first
// error: it records and attempts to resynchronize at the next statement
// boundary, recovering and continuing rather than bailing out.
type Parser struct {
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token
	errs []*errors.LangError
}

// New creates a parser over l and primes the two-token lookahead buffer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lex: l}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

// Errors returns every diagnostic accumulated during parsing, including any
// lex errors surfaced by the underlying lexer.
func (p *Parser) Errors() []*errors.LangError {
	return append(append([]*errors.LangError{}, p.lex.Errs...), p.errs...)
}

func (p *Parser) errf(code string, span token.Span, data map[string]any) {
	p.errs = append(p.errs, errors.New(code, span, data))
}

func (p *Parser) expect(t token.Type) bool {
	if p.cur.Type == t {
		return true
	}
	p.errf("PARSE-0001", p.cur.Span, map[string]any{"Expected": t.String(), "Got": p.cur.Type.String()})
	return false
}

// ParseProgram parses the entire token stream into a Program node.
func ParseProgram(l *lexer.Lexer) (*ast.Program, []*errors.LangError) {
	p := New(l)
	prog := &ast.Program{}
	start := p.cur.Span
	for p.cur.Type != token.EOF {
		if p.cur.Type == token.NEWLINE {
			p.next()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.skipStatementTerminator()
	}
	end := p.cur.Span
	prog.SpanValue = token.Cover(start, end)
	return prog, p.Errors()
}

func (p *Parser) skipStatementTerminator() {
	for p.cur.Type == token.NEWLINE {
		p.next()
	}
}

// ---- statements -------------------------------------------------------------

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.F:
		return p.parseFnDef()
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.RET:
		return p.parseReturn()
	case token.ASSERT:
		return p.parseAssert()
	case token.IDENT:
		if p.peek.Type == token.COLON || p.peek.Type == token.ASSIGN || p.peek.Type == token.COMMA {
			return p.parseAssign()
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseBlock() []ast.Statement {
	if !p.expect(token.COLON) {
		return nil
	}
	p.next()
	p.skipStatementTerminator()
	if !p.expect(token.INDENT) {
		return nil
	}
	p.next()
	p.skipStatementTerminator()
	if p.cur.Type == token.DEDENT {
		p.errf("PARSE-0003", p.cur.Span, nil)
		p.next()
		return nil
	}
	var stmts []ast.Statement
	for p.cur.Type != token.DEDENT && p.cur.Type != token.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.skipStatementTerminator()
	}
	if p.cur.Type == token.DEDENT {
		p.next()
	}
	return stmts
}

func (p *Parser) parseFnDef() ast.Statement {
	start := p.cur.Span
	p.next() // consume 'f'
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.cur.Literal
	p.next()
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.next()
	var params []ast.Param
	for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF {
		if !p.expect(token.IDENT) {
			break
		}
		param := ast.Param{Name: p.cur.Literal, SpanValue: p.cur.Span}
		p.next()
		if p.cur.Type == token.COLON {
			p.next()
			param.Schema = p.parseSchema()
		}
		params = append(params, param)
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	p.next()
	var retSchema ast.SchemaExpr
	if p.cur.Type == token.ARROW {
		p.next()
		retSchema = p.parseSchema()
	}
	body := p.parseBlock()
	return &ast.FnDef{Name: name, Params: params, ReturnSchema: retSchema, Body: body, SpanValue: token.Cover(start, p.cur.Span)}
}

func (p *Parser) parseIf() ast.Statement {
	start := p.cur.Span
	p.next()
	cond := p.parseExpression(precLowest)
	then := p.parseBlock()
	var elseBlock []ast.Statement
	p.skipStatementTerminator()
	if p.cur.Type == token.ELSE {
		p.next()
		elseBlock = p.parseBlock()
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBlock, SpanValue: token.Cover(start, p.cur.Span)}
}

func (p *Parser) parseFor() ast.Statement {
	start := p.cur.Span
	p.next()
	var pattern []string
	if !p.expect(token.IDENT) {
		return nil
	}
	pattern = append(pattern, p.cur.Literal)
	p.next()
	for p.cur.Type == token.COMMA {
		p.next()
		if !p.expect(token.IDENT) {
			break
		}
		pattern = append(pattern, p.cur.Literal)
		p.next()
	}
	if !p.expect(token.IN) {
		return nil
	}
	p.next()
	iter := p.parseExpression(precLowest)
	body := p.parseBlock()
	return &ast.ForStmt{Pattern: pattern, Iter: iter, Body: body, SpanValue: token.Cover(start, p.cur.Span)}
}

func (p *Parser) parseReturn() ast.Statement {
	start := p.cur.Span
	p.next()
	var value ast.Expression
	if p.cur.Type != token.NEWLINE && p.cur.Type != token.EOF && p.cur.Type != token.DEDENT {
		value = p.parseExpression(precLowest)
	}
	return &ast.ReturnStmt{Value: value, SpanValue: token.Cover(start, p.cur.Span)}
}

func (p *Parser) parseAssert() ast.Statement {
	start := p.cur.Span
	p.next()
	expr := p.parseExpression(precLowest)
	if expr == nil {
		return nil
	}
	return &ast.AssertStmt{Expr: expr, SpanValue: token.Cover(start, expr.Span())}
}

func (p *Parser) parseAssign() ast.Statement {
	start := p.cur.Span
	targets := []string{p.cur.Literal}
	p.next()
	for p.cur.Type == token.COMMA {
		p.next()
		if !p.expect(token.IDENT) {
			break
		}
		targets = append(targets, p.cur.Literal)
		p.next()
	}
	var annotation ast.SchemaExpr
	if p.cur.Type == token.COLON {
		if len(targets) > 1 {
			p.errf("PARSE-0004", p.cur.Span, map[string]any{"Detail": "destructuring assignment cannot carry a schema annotation"})
		}
		p.next()
		annotation = p.parseSchema()
	}
	if !p.expect(token.ASSIGN) {
		return nil
	}
	p.next()
	value := p.parseExpression(precLowest)
	if value == nil {
		return nil
	}
	return &ast.AssignStmt{Targets: targets, Annotation: annotation, Value: value, SpanValue: token.Cover(start, value.Span())}
}

func (p *Parser) parseExprStmt() ast.Statement {
	expr := p.parseExpression(precLowest)
	if expr == nil {
		p.next()
		return nil
	}
	return &ast.ExprStmt{Expr: expr, SpanValue: expr.Span()}
}

// ---- expressions ------------------------------------------------------------

func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parseUnary()
	for {
		prec, ok := precedences[p.cur.Type]
		if !ok || prec <= minPrec {
			break
		}
		if _, isBin := binOpFor(p.cur.Type); !isBin {
			break
		}
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.cur.Type {
	case token.MINUS:
		start := p.cur.Span
		p.next()
		expr := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.UnaryNeg, Expr: expr, SpanValue: token.Cover(start, expr.Span())}
	case token.NOT:
		start := p.cur.Span
		p.next()
		expr := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.UnaryNot, Expr: expr, SpanValue: token.Cover(start, expr.Span())}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

func (p *Parser) parsePostfix(expr ast.Expression) ast.Expression {
	for expr != nil {
		switch p.cur.Type {
		case token.LPAREN:
			expr = p.parseCall(expr)
		case token.LBRACKET:
			start := expr.Span()
			p.next()
			idx := p.parseExpression(precLowest)
			if !p.expect(token.RBRACKET) {
				return expr
			}
			end := p.cur.Span
			p.next()
			expr = &ast.IndexExpr{Target: expr, Index: idx, SpanValue: token.Cover(start, end)}
		case token.DOT:
			start := expr.Span()
			p.next()
			if p.cur.Type == token.INT {
				n, _ := strconv.Atoi(p.cur.Literal)
				end := p.cur.Span
				p.next()
				expr = &ast.TupleIndexExpr{Target: expr, Index: n, SpanValue: token.Cover(start, end)}
				continue
			}
			if !p.expect(token.IDENT) {
				return expr
			}
			name := p.cur.Literal
			end := p.cur.Span
			p.next()
			expr = &ast.MemberExpr{Target: expr, Name: name, SpanValue: token.Cover(start, end)}
		default:
			return expr
		}
	}
	return expr
}

func (p *Parser) parseCall(callee ast.Expression) ast.Expression {
	start := callee.Span()
	p.next() // consume '('
	var args []ast.Expression
	for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF {
		args = append(args, p.parseExpression(precLowest))
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	if !p.expect(token.RPAREN) {
		return callee
	}
	end := p.cur.Span
	p.next()
	return &ast.CallExpr{Callee: callee, Args: args, SpanValue: token.Cover(start, end)}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	op, ok := binOpFor(p.cur.Type)
	if !ok {
		return left
	}
	prec := precedences[p.cur.Type]
	p.next()
	right := p.parseExpression(prec)
	return &ast.BinaryExpr{Left: left, Op: op, Right: right, SpanValue: token.Cover(left.Span(), right.Span())}
}

func binOpFor(t token.Type) (ast.BinaryOp, bool) {
	switch t {
	case token.PLUS:
		return ast.BinAdd, true
	case token.MINUS:
		return ast.BinSub, true
	case token.ASTERISK:
		return ast.BinMul, true
	case token.SLASH:
		return ast.BinDiv, true
	case token.PERCENT:
		return ast.BinMod, true
	case token.EQ:
		return ast.BinEq, true
	case token.NOT_EQ:
		return ast.BinNotEq, true
	case token.LT:
		return ast.BinLt, true
	case token.LTE:
		return ast.BinLte, true
	case token.GT:
		return ast.BinGt, true
	case token.GTE:
		return ast.BinGte, true
	case token.AND:
		return ast.BinAnd, true
	case token.OR:
		return ast.BinOr, true
	default:
		return 0, false
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.cur.Type {
	case token.INT:
		v, _ := strconv.ParseInt(p.cur.Literal, 10, 64)
		n := &ast.IntLit{Value: v, SpanValue: p.cur.Span}
		p.next()
		return n
	case token.FLOAT:
		v, _ := strconv.ParseFloat(p.cur.Literal, 64)
		n := &ast.FloatLit{Value: v, SpanValue: p.cur.Span}
		p.next()
		return n
	case token.STRING:
		n := &ast.StringLit{Value: p.cur.Literal, SpanValue: p.cur.Span}
		p.next()
		return n
	case token.TRUE, token.FALSE:
		n := &ast.BoolLit{Value: p.cur.Type == token.TRUE, SpanValue: p.cur.Span}
		p.next()
		return n
	case token.NIL:
		n := &ast.NilLit{SpanValue: p.cur.Span}
		p.next()
		return n
	case token.IDENT:
		n := &ast.Ident{Name: p.cur.Literal, SpanValue: p.cur.Span}
		p.next()
		return n
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACKET:
		return p.parseList()
	case token.LBRACE:
		return p.parseObject()
	case token.PROMPT_DOLLAR:
		return p.parsePrompt()
	default:
		p.errf("PARSE-0002", p.cur.Span, map[string]any{"Token": p.cur.Type.String()})
		p.next()
		return nil
	}
}

func (p *Parser) parseParenOrTuple() ast.Expression {
	start := p.cur.Span
	p.next()
	first := p.parseExpression(precLowest)
	if p.cur.Type != token.COMMA {
		if !p.expect(token.RPAREN) {
			return first
		}
		p.next()
		return first
	}
	elems := []ast.Expression{first}
	for p.cur.Type == token.COMMA {
		p.next()
		if p.cur.Type == token.RPAREN {
			break
		}
		elems = append(elems, p.parseExpression(precLowest))
	}
	if len(elems) < 2 {
		p.errf("PARSE-0006", start, nil)
	}
	end := p.cur.Span
	if !p.expect(token.RPAREN) {
		return nil
	}
	p.next()
	return &ast.TupleLit{Elements: elems, SpanValue: token.Cover(start, end)}
}

func (p *Parser) parseList() ast.Expression {
	start := p.cur.Span
	p.next()
	var elems []ast.Expression
	for p.cur.Type != token.RBRACKET && p.cur.Type != token.EOF {
		elems = append(elems, p.parseExpression(precLowest))
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	end := p.cur.Span
	if !p.expect(token.RBRACKET) {
		return nil
	}
	p.next()
	return &ast.ListLit{Elements: elems, SpanValue: token.Cover(start, end)}
}

func (p *Parser) parseObject() ast.Expression {
	start := p.cur.Span
	p.next()
	var keys []string
	var values []ast.Expression
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		if !p.expect(token.IDENT) {
			break
		}
		key := p.cur.Literal
		p.next()
		if !p.expect(token.COLON) {
			break
		}
		p.next()
		val := p.parseExpression(precLowest)
		keys = append(keys, key)
		values = append(values, val)
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	end := p.cur.Span
	if !p.expect(token.RBRACE) {
		return nil
	}
	p.next()
	return &ast.ObjectLit{Keys: keys, Values: values, SpanValue: token.Cover(start, end)}
}

func (p *Parser) parsePrompt() ast.Expression {
	start := p.cur.Span
	p.next() // consume opening PROMPT_DOLLAR; lexer is now in prompt mode
	var parts []ast.PromptPart
	for {
		switch p.cur.Type {
		case token.PROMPT_TEXT:
			parts = append(parts, ast.PromptPart{Text: p.cur.Literal})
			p.next()
		case token.PROMPT_LBRACE:
			p.next() // lexer pushed a normal-mode frame; parse a full expression
			expr := p.parseExpression(precLowest)
			if !p.expect(token.PROMPT_RBRACE) {
				return &ast.PromptExpr{Parts: parts, SpanValue: token.Cover(start, p.cur.Span)}
			}
			parts = append(parts, ast.PromptPart{Interpolation: expr})
			p.next()
		case token.PROMPT_DOLLAR:
			end := p.cur.Span
			p.next()
			return &ast.PromptExpr{Parts: parts, SpanValue: token.Cover(start, end)}
		case token.EOF:
			p.errf("LEX-0002", start, nil)
			return &ast.PromptExpr{Parts: parts, SpanValue: token.Cover(start, p.cur.Span)}
		default:
			p.errf("PARSE-0002", p.cur.Span, map[string]any{"Token": p.cur.Type.String()})
			p.next()
		}
	}
}

// ---- schema mini-grammar ----------------------------------------------------

func (p *Parser) parseSchema() ast.SchemaExpr {
	left := p.parseSchemaUnary()
	if left == nil {
		return left
	}
	if p.cur.Type != token.PIPE {
		return left
	}
	branches := []ast.SchemaExpr{left}
	for p.cur.Type == token.PIPE {
		p.next()
		branches = append(branches, p.parseSchemaUnary())
	}
	return &ast.UnionSchema{Branches: branches, SpanValue: token.Cover(left.Span(), branches[len(branches)-1].Span())}
}

func (p *Parser) parseSchemaUnary() ast.SchemaExpr {
	s := p.parseSchemaPrimary()
	for p.cur.Type == token.QUESTION {
		end := p.cur.Span
		p.next()
		s = &ast.OptionalSchema{Elem: s, SpanValue: token.Cover(s.Span(), end)}
	}
	return s
}

func (p *Parser) parseSchemaPrimary() ast.SchemaExpr {
	switch p.cur.Type {
	case token.IDENT:
		span := p.cur.Span
		switch p.cur.Literal {
		case "any":
			p.next()
			return &ast.AnySchema{SpanValue: span}
		case "int":
			p.next()
			return &ast.IntSchema{SpanValue: span}
		case "float":
			p.next()
			return &ast.FloatSchema{SpanValue: span}
		case "bool":
			p.next()
			return &ast.BoolSchema{SpanValue: span}
		case "string":
			p.next()
			return &ast.StringSchema{SpanValue: span}
		default:
			p.errf("PARSE-0004", span, map[string]any{"Detail": "unknown schema primitive '" + p.cur.Literal + "'"})
			p.next()
			return &ast.AnySchema{SpanValue: span}
		}
	case token.LBRACKET:
		start := p.cur.Span
		p.next()
		elem := p.parseSchema()
		end := p.cur.Span
		if !p.expect(token.RBRACKET) {
			return nil
		}
		p.next()
		return &ast.ListSchema{Elem: elem, SpanValue: token.Cover(start, end)}
	case token.LPAREN:
		start := p.cur.Span
		p.next()
		first := p.parseSchema()
		if p.cur.Type != token.COMMA {
			if !p.expect(token.RPAREN) {
				return nil
			}
			p.next()
			return first
		}
		elems := []ast.SchemaExpr{first}
		for p.cur.Type == token.COMMA {
			p.next()
			if p.cur.Type == token.RPAREN {
				break
			}
			elems = append(elems, p.parseSchema())
		}
		end := p.cur.Span
		if !p.expect(token.RPAREN) {
			return nil
		}
		p.next()
		return &ast.TupleSchema{Elems: elems, SpanValue: token.Cover(start, end)}
	case token.LBRACE:
		start := p.cur.Span
		p.next()
		var fields []ast.ObjectField
		for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
			if !p.expect(token.IDENT) {
				break
			}
			name := p.cur.Literal
			p.next()
			if !p.expect(token.COLON) {
				break
			}
			p.next()
			fields = append(fields, ast.ObjectField{Name: name, Schema: p.parseSchema()})
			if p.cur.Type == token.COMMA {
				p.next()
			}
		}
		end := p.cur.Span
		if !p.expect(token.RBRACE) {
			return nil
		}
		p.next()
		return &ast.ObjectSchema{Fields: fields, SpanValue: token.Cover(start, end)}
	default:
		p.errf("PARSE-0004", p.cur.Span, map[string]any{"Detail": "expected a schema, got " + p.cur.Type.String()})
		p.next()
		return &ast.AnySchema{SpanValue: p.cur.Span}
	}
}
