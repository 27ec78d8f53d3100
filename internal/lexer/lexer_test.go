package lexer

import (
	"testing"

	"github.com/jargnar/orangensaft/internal/token"
)

func collect(input string) []token.Token {
	l := New(input, "<test>")
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func assertTypes(t *testing.T, input string, want []token.Type) {
	t.Helper()
	got := collect(input)
	if len(got) != len(want) {
		types := make([]token.Type, len(got))
		for i, tk := range got {
			types[i] = tk.Type
		}
		t.Fatalf("input %q: got %d tokens %v, want %d %v", input, len(got), types, len(want), want)
	}
	for i, tk := range got {
		if tk.Type != want[i] {
			t.Fatalf("input %q: token %d is %s, want %s", input, i, tk.Type, want[i])
		}
	}
}

func TestNextTokenSimpleExpression(t *testing.T) {
	assertTypes(t, "x = 1 + 2\n", []token.Type{
		token.IDENT, token.ASSIGN, token.INT, token.PLUS, token.INT, token.NEWLINE, token.EOF,
	})
}

func TestNextTokenKeywordsAndOperators(t *testing.T) {
	assertTypes(t, "if a <= b and not c:\n", []token.Type{
		token.IF, token.IDENT, token.LTE, token.IDENT, token.AND, token.NOT, token.IDENT, token.COLON,
		token.NEWLINE, token.EOF,
	})
}

func TestNextTokenArrowAndComparisons(t *testing.T) {
	assertTypes(t, "f g(x: int) -> int:\n    ret x\n", []token.Type{
		token.F, token.IDENT, token.LPAREN, token.IDENT, token.COLON, token.IDENT, token.RPAREN,
		token.ARROW, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.RET, token.IDENT, token.NEWLINE,
		token.DEDENT, token.EOF,
	})
}

func TestNextTokenStringLiteral(t *testing.T) {
	toks := collect(`x = "hello"` + "\n")
	if toks[2].Type != token.STRING || toks[2].Literal != "hello" {
		t.Fatalf("got %+v, want a STRING token with literal \"hello\"", toks[2])
	}
}

// TestIndentDedentNesting walks a two-level nested block and checks the
// INDENT/DEDENT tokens bracket it correctly, including the trailing DEDENT
// the lexer synthesizes at EOF when a final line never dedents explicitly.
func TestIndentDedentNesting(t *testing.T) {
	input := "if a:\n    if b:\n        x = 1\n    y = 2\n"
	assertTypes(t, input, []token.Type{
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.DEDENT, token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.DEDENT, token.EOF,
	})
}

func TestMixedTabsAndSpacesIsAnError(t *testing.T) {
	l := New("if a:\n \tx = 1\n", "<test>")
	for {
		tok := l.Next()
		if tok.Type == token.EOF {
			break
		}
	}
	if len(l.Errs) == 0 {
		t.Fatal("expected a mixed-indentation error")
	}
	if l.Errs[0].Code != "LEX-0003" {
		t.Fatalf("got code %q, want LEX-0003", l.Errs[0].Code)
	}
}

func TestDedentToUnmatchedWidthIsAnError(t *testing.T) {
	l := New("if a:\n    if b:\n        x = 1\n  y = 2\n", "<test>")
	for {
		tok := l.Next()
		if tok.Type == token.EOF {
			break
		}
	}
	if len(l.Errs) == 0 {
		t.Fatal("expected a dedent-to-unmatched-indent error")
	}
	if l.Errs[0].Code != "LEX-0004" {
		t.Fatalf("got code %q, want LEX-0004", l.Errs[0].Code)
	}
}

// TestPromptLiteralBasic covers a prompt with no interpolation: the lexer
// enters prompt mode on '$' and emits one PROMPT_TEXT run before closing.
func TestPromptLiteralBasic(t *testing.T) {
	toks := collect("x = $ say hi $\n")
	types := make([]token.Type, len(toks))
	for i, tk := range toks {
		types[i] = tk.Type
	}
	want := []token.Type{
		token.IDENT, token.ASSIGN, token.PROMPT_DOLLAR, token.PROMPT_TEXT, token.PROMPT_DOLLAR,
		token.NEWLINE, token.EOF,
	}
	if len(types) != len(want) {
		t.Fatalf("got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("got %v, want %v", types, want)
		}
	}
	if toks[3].Literal != " say hi " {
		t.Fatalf("got PROMPT_TEXT literal %q", toks[3].Literal)
	}
}

// TestPromptInterpolationNesting covers '{' and '}' switching the frame
// stack back to normal mode for the interpolated expression and back to
// prompt mode afterward.
func TestPromptInterpolationNesting(t *testing.T) {
	assertTypes(t, "x = $ use {greet} now $\n", []token.Type{
		token.IDENT, token.ASSIGN,
		token.PROMPT_DOLLAR, token.PROMPT_TEXT,
		token.PROMPT_LBRACE, token.IDENT, token.PROMPT_RBRACE,
		token.PROMPT_TEXT, token.PROMPT_DOLLAR,
		token.NEWLINE, token.EOF,
	})
}

func TestPromptEscapesDollarAndBrace(t *testing.T) {
	toks := collect(`x = $ literal \{ and \$ here $` + "\n")
	var text string
	for _, tk := range toks {
		if tk.Type == token.PROMPT_TEXT {
			text += tk.Literal
		}
	}
	if text != " literal { and $ here " {
		t.Fatalf("got %q, want escapes unescaped in the accumulated text", text)
	}
}

func TestUnterminatedPromptIsAnError(t *testing.T) {
	l := New("x = $ never closed", "<test>")
	for {
		tok := l.Next()
		if tok.Type == token.EOF {
			break
		}
	}
	if len(l.Errs) == 0 {
		t.Fatal("expected an unterminated-prompt error")
	}
	if l.Errs[0].Code != "LEX-0002" {
		t.Fatalf("got code %q, want LEX-0002", l.Errs[0].Code)
	}
}
