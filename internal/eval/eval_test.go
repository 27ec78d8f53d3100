package eval_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/lexer"
	"github.com/jargnar/orangensaft/internal/parser"
	"github.com/jargnar/orangensaft/internal/provider"
	"github.com/jargnar/orangensaft/internal/resolver"
	"github.com/jargnar/orangensaft/internal/stdlib"
)

// run pushes src through the same lexer/parser/resolver/eval pipeline
// cmd/orangensaft's executeInline does, against an interpreter backed by
// prov. It fails the test on a parse or resolve error (those are covered
// by their own packages' tests) and returns whatever error the run itself
// produced, if any.
func run(t *testing.T, src string, interp *eval.Interpreter) (*eval.Environment, *errors.LangError) {
	t.Helper()
	l := lexer.New(src, "<test>")
	prog, errs := parser.ParseProgram(l)
	if len(errs) != 0 {
		t.Fatalf("input %q: unexpected parse errors: %v", src, errs)
	}
	if rerrs := resolver.Resolve(prog, stdlib.Names()); len(rerrs) != 0 {
		t.Fatalf("input %q: unexpected resolve errors: %v", src, rerrs)
	}
	env := eval.NewEnvironment()
	stdlib.Register(env)
	rerr := interp.Run(prog, env)
	return env, rerr
}

func mustOK(t *testing.T, src string, interp *eval.Interpreter) *eval.Environment {
	t.Helper()
	env, err := run(t, src, interp)
	if err != nil {
		t.Fatalf("input %q: unexpected error: %v", src, err)
	}
	return env
}

// scriptProvider answers a fixed queue of Response values regardless of
// the request, for scenarios the stock HeuristicMockProvider/
// SequenceProvider can't express (tool calls with specific argument
// shapes, an endless stream for the round-limit case).
type scriptProvider struct {
	responses []provider.Response
	err       error
	calls     int
}

func (p *scriptProvider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	if p.err != nil {
		return provider.Response{}, p.err
	}
	if len(p.responses) == 0 {
		return provider.Response{}, fmt.Errorf("scriptProvider: exhausted")
	}
	resp := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	p.calls++
	return resp, nil
}

func finalText(s string) provider.Response {
	return provider.Response{FinalText: &s}
}

func TestDeterministicArithmetic(t *testing.T) {
	interp := eval.New(provider.NoopProvider{})
	env := mustOK(t, "x = 2 + 3 * 4\nassert x == 14\n", interp)
	v, ok := env.Get("x")
	if !ok || v.Inspect() != "14" {
		t.Fatalf("got %#v", v)
	}
}

func TestIndexStringAndObject(t *testing.T) {
	interp := eval.New(provider.NoopProvider{})
	env := mustOK(t, "s = \"héllo\"\nc = s[1]\nobj = {a: 1, b: 2}\nv = obj[\"b\"]\n", interp)
	c, ok := env.Get("c")
	if !ok || c.Inspect() != `"é"` {
		t.Fatalf("got %#v, want the rune at index 1", c)
	}
	v, ok := env.Get("v")
	if !ok || v.Inspect() != "2" {
		t.Fatalf("got %#v, want obj[\"b\"]", v)
	}
}

func TestIntFloatEqualityIsNumericAcrossTypes(t *testing.T) {
	interp := eval.New(provider.NoopProvider{})
	env := mustOK(t, "a = 1 == 1.0\nb = 2.5 == 2\n", interp)
	a, ok := env.Get("a")
	if !ok || a.Inspect() != "true" {
		t.Fatalf("got %#v, want 1 == 1.0 to be true", a)
	}
	b, ok := env.Get("b")
	if !ok || b.Inspect() != "false" {
		t.Fatalf("got %#v, want 2.5 == 2 to be false", b)
	}
}

func TestSchemaEnforcedAssignmentTypeError(t *testing.T) {
	interp := eval.New(provider.NoopProvider{})
	_, err := run(t, `x: int = "not an int"`, interp)
	if err == nil {
		t.Fatal("expected a type error")
	}
	if err.Class != errors.ClassType {
		t.Fatalf("got class %q, want type", err.Class)
	}
}

func TestUntypedPromptReturnsRawText(t *testing.T) {
	interp := eval.New(&scriptProvider{responses: []provider.Response{finalText("hello there")}})
	env := mustOK(t, `x = $ say hi $`, interp)
	v, ok := env.Get("x")
	if !ok || v.Inspect() != `"hello there"` {
		t.Fatalf("got %#v", v)
	}
}

// TestTypedPromptRepairSucceeds covers the typed-prompt round trip: a first
// response that fails schema validation triggers exactly one repair
// prompt, and a valid repair response is decoded normally.
func TestTypedPromptRepairSucceeds(t *testing.T) {
	prov := &scriptProvider{responses: []provider.Response{
		finalText(`[1, "x"]`),
		finalText(`[1, 2]`),
	}}
	interp := eval.New(prov)
	env := mustOK(t, `nums: [int] = $ give me some numbers $`, interp)
	v, ok := env.Get("nums")
	if !ok || v.Inspect() != "[1, 2]" {
		t.Fatalf("got %#v", v)
	}
	if prov.calls != 2 {
		t.Fatalf("got %d provider calls, want 2 (original + repair)", prov.calls)
	}
}

// TestTypedPromptRepairFails covers the case where even the repair
// response fails validation: the runtime gives up with a TYPE-0004 error
// rather than attempting a second repair.
func TestTypedPromptRepairFails(t *testing.T) {
	prov := &scriptProvider{responses: []provider.Response{
		finalText(`[1, "x"]`),
		finalText(`["still", "wrong"]`),
	}}
	interp := eval.New(prov)
	_, err := run(t, `nums: [int] = $ give me some numbers $`, interp)
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Code != "TYPE-0004" {
		t.Fatalf("got code %q, want TYPE-0004", err.Code)
	}
	if prov.calls != 2 {
		t.Fatalf("got %d provider calls, want 2 (no second repair attempt)", prov.calls)
	}
}

// TestToolCallLoopRoundTrip covers scenario 5: a function value
// interpolated into a prompt is exposed as a tool, the provider calls it,
// and the interpreter resumes with its result folded into the next round.
func TestToolCallLoopRoundTrip(t *testing.T) {
	prov := &scriptProvider{responses: []provider.Response{
		{ToolCalls: []provider.ToolCall{
			{ID: "call_0", Name: "greet", Args: map[string]any{"a": "alice", "b": "bob"}},
		}},
		finalText("alice hi bob"),
	}}
	interp := eval.New(prov)
	src := "f greet(a: string, b: string) -> string:\n    ret a + \" hi \" + b\n" +
		"z: string = $ use {greet} with alice and bob $\n" +
		"assert z == \"alice hi bob\"\n"
	mustOK(t, src, interp)
	if prov.calls != 2 {
		t.Fatalf("got %d provider calls, want 2 (tool round + final round)", prov.calls)
	}
}

// TestToolCallUnknownNameBecomesErrorResult covers the fix to the tool
// loop: a call naming a tool that wasn't exposed must turn into an error
// tool-result and let the loop continue, rather than aborting the prompt.
func TestToolCallUnknownNameBecomesErrorResult(t *testing.T) {
	prov := &scriptProvider{responses: []provider.Response{
		{ToolCalls: []provider.ToolCall{
			{ID: "call_0", Name: "not_a_real_tool", Args: map[string]any{"a": "x", "b": "y"}},
		}},
		finalText("recovered"),
	}}
	interp := eval.New(prov)
	src := "f greet(a: string, b: string) -> string:\n    ret a + \" hi \" + b\n" +
		"z: string = $ use {greet} with alice and bob $\n"
	env := mustOK(t, src, interp)
	v, ok := env.Get("z")
	if !ok || v.Inspect() != `"recovered"` {
		t.Fatalf("got %#v", v)
	}
	if prov.calls != 2 {
		t.Fatalf("got %d provider calls, want 2 (loop continued past the bad call)", prov.calls)
	}
}

// TestToolCallArgValidationFailureBecomesErrorResult covers the same fix
// for a call whose arguments don't match the tool's declared parameters.
func TestToolCallArgValidationFailureBecomesErrorResult(t *testing.T) {
	prov := &scriptProvider{responses: []provider.Response{
		{ToolCalls: []provider.ToolCall{
			{ID: "call_0", Name: "greet", Args: map[string]any{"a": "alice"}}, // missing "b"
		}},
		finalText("recovered"),
	}}
	interp := eval.New(prov)
	src := "f greet(a: string, b: string) -> string:\n    ret a + \" hi \" + b\n" +
		"z: string = $ use {greet} with alice and bob $\n"
	env := mustOK(t, src, interp)
	v, ok := env.Get("z")
	if !ok || v.Inspect() != `"recovered"` {
		t.Fatalf("got %#v", v)
	}
}

// TestToolCallInvocationFailureBecomesErrorResult covers a tool whose body
// itself raises an error (here, a division by zero); the loop must fold
// that into an error tool-result and continue rather than propagating it
// as the prompt's own error.
func TestToolCallInvocationFailureBecomesErrorResult(t *testing.T) {
	prov := &scriptProvider{responses: []provider.Response{
		{ToolCalls: []provider.ToolCall{
			{ID: "call_0", Name: "divide", Args: map[string]any{"a": 1, "b": 0}},
		}},
		finalText("recovered"),
	}}
	interp := eval.New(prov)
	src := "f divide(a: int, b: int) -> int:\n    ret a / b\n" +
		"z: string = $ use {divide} $\n"
	env := mustOK(t, src, interp)
	v, ok := env.Get("z")
	if !ok || v.Inspect() != `"recovered"` {
		t.Fatalf("got %#v", v)
	}
}

// TestToolCallRoundLimitExceeded covers scenario 6: a provider that never
// stops asking for tool calls must be cut off once MaxToolRounds rounds
// have elapsed.
func TestToolCallRoundLimitExceeded(t *testing.T) {
	endless := provider.Response{ToolCalls: []provider.ToolCall{
		{ID: "call_0", Name: "greet", Args: map[string]any{"a": "alice", "b": "bob"}},
	}}
	prov := &scriptProvider{responses: []provider.Response{endless, endless, endless, endless}}
	interp := eval.New(prov)
	interp.MaxToolRounds = 2
	src := "f greet(a: string, b: string) -> string:\n    ret a + \" hi \" + b\n" +
		"z: string = $ use {greet} with alice and bob $\n"
	_, err := run(t, src, interp)
	if err == nil {
		t.Fatal("expected a round-limit error")
	}
	if err.Code != "RUNTIME-0011" {
		t.Fatalf("got code %q, want RUNTIME-0011", err.Code)
	}
}

// TestToolCallCountLimitExceeded exercises the call-count limit separately
// from the round limit: many calls packed into rounds that stay under
// MaxToolRounds but exceed MaxToolCalls.
func TestToolCallCountLimitExceeded(t *testing.T) {
	manyCalls := provider.Response{ToolCalls: []provider.ToolCall{
		{ID: "call_0", Name: "greet", Args: map[string]any{"a": "a", "b": "b"}},
		{ID: "call_1", Name: "greet", Args: map[string]any{"a": "a", "b": "b"}},
		{ID: "call_2", Name: "greet", Args: map[string]any{"a": "a", "b": "b"}},
	}}
	prov := &scriptProvider{responses: []provider.Response{manyCalls, manyCalls}}
	interp := eval.New(prov)
	interp.MaxToolCalls = 2
	src := "f greet(a: string, b: string) -> string:\n    ret a + \" hi \" + b\n" +
		"z: string = $ use {greet} with a and b $\n"
	_, err := run(t, src, interp)
	if err == nil {
		t.Fatal("expected a call-count-limit error")
	}
	if err.Code != "RUNTIME-0012" {
		t.Fatalf("got code %q, want RUNTIME-0012", err.Code)
	}
}

func TestAssertionFailure(t *testing.T) {
	interp := eval.New(provider.NoopProvider{})
	_, err := run(t, "assert 1 == 2\n", interp)
	if err == nil {
		t.Fatal("expected an assertion error")
	}
	if err.Code != "ASSERT-0001" {
		t.Fatalf("got code %q, want ASSERT-0001", err.Code)
	}
}

func TestResolverTypoSurfacesBeforeEval(t *testing.T) {
	l := lexer.New("prnit(1)\n", "<test>")
	prog, errs := parser.ParseProgram(l)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	rerrs := resolver.Resolve(prog, stdlib.Names())
	if len(rerrs) == 0 {
		t.Fatal("expected a resolve error for the undefined name 'prnit'")
	}
	if rerrs[0].Class != errors.ClassResolve {
		t.Fatalf("got class %q, want resolve", rerrs[0].Class)
	}
}
