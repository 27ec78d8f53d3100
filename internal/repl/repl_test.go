package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/provider"
	"github.com/jargnar/orangensaft/internal/stdlib"
)

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"complete statement", "x = 1", false},
		{"blank line", "", false},
		{"open paren", "f greet(a: string", true},
		{"open bracket", "x = [1, 2", true},
		{"unterminated string", `x = "still open`, true},
		{"unterminated prompt", "x = $ still open", true},
		{"prompt closed on one line", "x = $ done $", false},
		{"block-opening colon", "if x == 1:", true},
		{"colon inside a closed prompt isn't a block opener", "x = $ say: hi $", false},
		{"balanced brackets with trailing colon-like text", "f greet(a: string, b: string) -> string:", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := needsMoreInput(tc.input); got != tc.want {
				t.Errorf("needsMoreInput(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFilterCompletions(t *testing.T) {
	got := filterCompletions("as")
	want := []string{"assert"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := filterCompletions("x "); got != nil {
		t.Fatalf("got %v, want nil after a trailing space", got)
	}
	if got := filterCompletions(""); got != nil {
		t.Fatalf("got %v, want nil for empty input", got)
	}
}

func newTestEnv() *eval.Environment {
	env := eval.NewEnvironment()
	stdlib.Register(env)
	return env
}

func TestRunSnippetBindsAndPrintsTrailingExpression(t *testing.T) {
	env := newTestEnv()
	interp := eval.New(provider.NoopProvider{})
	var out bytes.Buffer

	runSnippet("x = 2 + 3\nx\n", env, interp, &out)

	if !strings.Contains(out.String(), "5") {
		t.Fatalf("got %q, want the trailing expression's value printed", out.String())
	}
	v, ok := env.Get("x")
	if !ok || v.Inspect() != "5" {
		t.Fatalf("got %#v, want x bound to 5 in the REPL environment", v)
	}
}

func TestRunSnippetReportsParseErrors(t *testing.T) {
	env := newTestEnv()
	interp := eval.New(provider.NoopProvider{})
	var out bytes.Buffer

	runSnippet("x = (\n", env, interp, &out)

	if out.Len() == 0 {
		t.Fatal("expected parse error output")
	}
}

func TestRunSnippetReportsResolveErrors(t *testing.T) {
	env := newTestEnv()
	interp := eval.New(provider.NoopProvider{})
	var out bytes.Buffer

	runSnippet("prnit(1)\n", env, interp, &out)

	if out.Len() == 0 {
		t.Fatal("expected a resolve error for the undefined name")
	}
}

func TestRunSnippetReportsRuntimeErrors(t *testing.T) {
	env := newTestEnv()
	interp := eval.New(provider.NoopProvider{})
	var out bytes.Buffer

	runSnippet("assert 1 == 2\n", env, interp, &out)

	if !strings.Contains(out.String(), "Assertion failed") {
		t.Fatalf("got %q, want the assertion error rendered", out.String())
	}
}

func TestHandleCommandHelp(t *testing.T) {
	env := newTestEnv()
	var out bytes.Buffer
	handleCommand(":help", env, &out)
	if !strings.Contains(out.String(), "REPL commands") {
		t.Fatalf("got %q", out.String())
	}
}

func TestHandleCommandEnvListsBindings(t *testing.T) {
	env := newTestEnv()
	interp := eval.New(provider.NoopProvider{})
	var discard bytes.Buffer
	runSnippet("x = 1\ny = 2\n", env, interp, &discard)

	var out bytes.Buffer
	handleCommand(":env", env, &out)
	got := out.String()
	if !strings.Contains(got, "x = 1") || !strings.Contains(got, "y = 2") {
		t.Fatalf("got %q, want both bindings listed", got)
	}
}

func TestHandleCommandEnvEmpty(t *testing.T) {
	env := newTestEnv()
	var out bytes.Buffer
	handleCommand(":env", env, &out)
	if !strings.Contains(out.String(), "no bindings") {
		t.Fatalf("got %q", out.String())
	}
}

func TestHandleCommandUnknown(t *testing.T) {
	env := newTestEnv()
	var out bytes.Buffer
	handleCommand(":bogus", env, &out)
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("got %q", out.String())
	}
}
