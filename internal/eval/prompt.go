package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jargnar/orangensaft/internal/ast"
	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/provider"
	"github.com/jargnar/orangensaft/internal/schema"
	"github.com/jargnar/orangensaft/internal/token"
	"github.com/jargnar/orangensaft/internal/value"
)

// Provider is the narrow interface eval depends on; provider.Provider
// satisfies it, and tests can supply anything else with a Complete method.
type Provider = provider.Provider

// toolBinding pairs a function value interpolated into a prompt with the
// stable name the rendered text and the provider both refer to it by.
type toolBinding struct {
	name string
	fn   value.Function
}

// renderPrompt walks a PromptExpr's parts, evaluating every interpolation.
// A function value becomes a tool binding and is rendered into the text as
// `the tool named "X"` rather than its Inspect() form, so the model sees
// which tool to call rather than "<function:X>" noise; every other value is
// interpolated as canonical JSON via inspectForPrompt (strings quoted).
func (in *Interpreter) renderPrompt(n *ast.PromptExpr, env *Environment) (string, []toolBinding, *errors.LangError) {
	var sb strings.Builder
	var tools []toolBinding
	seen := map[value.Function]string{}

	for _, part := range n.Parts {
		if part.Interpolation == nil {
			sb.WriteString(part.Text)
			continue
		}
		v, err := in.Eval(part.Interpolation, env)
		if err != nil {
			return "", nil, err
		}
		if fn, ok := v.(value.Function); ok {
			name, ok := seen[fn]
			if !ok {
				name = toolName(part.Interpolation, tools, env)
				seen[fn] = name
				tools = append(tools, toolBinding{name: name, fn: fn})
			}
			fmt.Fprintf(&sb, "the tool named %q", name)
			continue
		}
		sb.WriteString(inspectForPrompt(v))
	}
	return sb.String(), tools, nil
}

// toolName prefers the bare variable name a function was interpolated
// through (`$ ... {add} ...$` names the tool "add"), falling back to a
// synthesized name for anything interpolated via a more complex expression
// (a call, a member access) where there's no single identifier to reuse;
// the counter that synthesizes those names (tool_1, tool_2, ...) keeps
// incrementing across collisions with tools already discovered in this
// prompt and with names bound in env.
func toolName(interpolated ast.Expression, tools []toolBinding, env *Environment) string {
	if ident, ok := interpolated.(*ast.Ident); ok {
		return ident.Name
	}
	for counter := 1; ; counter++ {
		name := fmt.Sprintf("tool_%d", counter)
		if _, bound := env.Get(name); bound || findTool(tools, name) != nil {
			continue
		}
		return name
	}
}

// inspectForPrompt renders a non-function interpolation as canonical JSON
// text (object keys sorted, strings quoted and escaped), rather than the
// language's debug-print Inspect() form.
func inspectForPrompt(v value.Value) string {
	out, err := json.Marshal(value.ToJSON(v))
	if err != nil {
		return v.Inspect()
	}
	return string(out)
}

func toolDefinitions(tools []toolBinding) []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = provider.ToolDefinition{
			Name:       t.name,
			ParamNames: t.fn.ParamNames(),
			Parameters: toolParameterSchema(t.fn),
		}
	}
	return defs
}

// toolParameterSchema builds a JSON Schema object describing a tool's
// parameters from whatever per-parameter schema annotations its definition
// carries, falling back to "any" for unannotated ones.
func toolParameterSchema(fn value.Function) map[string]any {
	names := fn.ParamNames()
	properties := make(map[string]any, len(names))
	required := make([]any, 0, len(names))
	for i, name := range names {
		properties[name] = schema.ToJSONSchema(paramSchemaOf(fn, i))
		required = append(required, name)
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// evalUntypedPrompt runs the tool-call round trip to completion and returns
// the provider's final text as a String value: an untyped prompt's result
// is always the raw text.
func (in *Interpreter) evalUntypedPrompt(n *ast.PromptExpr, env *Environment) (value.Value, *errors.LangError) {
	text, err := in.runPromptLoop(n, env)
	if err != nil {
		return nil, err
	}
	return &value.String{Value: text}, nil
}

// evalTypedPrompt runs the same round trip but appends a JSON-only output
// contract built from s, then validates and decodes the result. On failure
// it makes exactly one repair attempt with the validation error and a
// truncated copy of the bad output folded into the prompt, surfacing
// TYPE-0004 if the repair also fails.
func (in *Interpreter) evalTypedPrompt(n *ast.PromptExpr, s ast.SchemaExpr, env *Environment) (value.Value, *errors.LangError) {
	base, tools, err := in.renderPrompt(n, env)
	if err != nil {
		return nil, err
	}
	contract := buildContract(base, s)

	text, err := in.runPromptLoopRendered(contract, tools, n.SpanValue)
	if err != nil {
		return nil, err
	}
	result, firstErr := decodeAndValidate(text, s)
	if firstErr == "" {
		return result, nil
	}

	repair := buildRepairPrompt(base, s, text, firstErr)
	text2, err := in.runPromptLoopRendered(repair, tools, n.SpanValue)
	if err != nil {
		return nil, err
	}
	result2, secondErr := decodeAndValidate(text2, s)
	if secondErr == "" {
		return result2, nil
	}
	return nil, errors.New("TYPE-0004", n.SpanValue, map[string]any{"First": firstErr, "Second": secondErr})
}

// buildContract appends a JSON-only output contract to a rendered prompt:
// the schema's surface-syntax rendering, its JSON Schema projection, and a
// minimal example shape, so the model has both a human- and machine-
// readable description of what to return.
func buildContract(base string, s ast.SchemaExpr) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\nRespond with a single JSON value and nothing else.\n")
	sb.WriteString("Required shape: ")
	sb.WriteString(schema.String(s))
	sb.WriteString("\nJSON Schema: ")
	sb.WriteString(marshalCompact(schema.ToJSONSchema(s)))
	sb.WriteString("\nExample: ")
	sb.WriteString(marshalCompact(schema.ExampleShape(s)))
	return sb.String()
}

func buildRepairPrompt(base string, s ast.SchemaExpr, badOutput, validationErr string) string {
	var sb strings.Builder
	sb.WriteString(buildContract(base, s))
	sb.WriteString("\n\nYour previous response did not satisfy the required shape.\n")
	sb.WriteString("Validation error: ")
	sb.WriteString(validationErr)
	sb.WriteString("\nYour previous response was: ")
	sb.WriteString(truncateForRepair(badOutput, 500))
	sb.WriteString("\nRespond again with a single corrected JSON value and nothing else.")
	return sb.String()
}

func truncateForRepair(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// decodeAndValidate parses text as JSON and validates it against s,
// unwrapping a single-key object wrapper first if s itself isn't an object
// schema — models asked for a bare int or string frequently wrap it in
// {"result": ...} or {"answer": ...} regardless of instructions. For a
// string schema, text that is not JSON at all is taken as the value as is.
func decodeAndValidate(text string, s ast.SchemaExpr) (value.Value, string) {
	decoded, jsonErr := value.DecodeJSON(strings.TrimSpace(text))
	if jsonErr != nil {
		if _, isString := s.(*ast.StringSchema); isString {
			return &value.String{Value: text}, ""
		}
		return nil, jsonErr.Error()
	}
	decoded = unwrapSingleFieldWrapper(decoded, s)
	v := value.FromJSON(decoded)
	if msg := schema.Validate(v, s); msg != "" {
		return nil, msg
	}
	return v, ""
}

func unwrapSingleFieldWrapper(decoded any, s ast.SchemaExpr) any {
	if _, isObject := s.(*ast.ObjectSchema); isObject {
		return decoded
	}
	obj, ok := decoded.(map[string]any)
	if !ok || len(obj) != 1 {
		return decoded
	}
	for _, v := range obj {
		return v
	}
	return decoded
}

// runPromptLoop renders n and runs the round trip, for the untyped path.
func (in *Interpreter) runPromptLoop(n *ast.PromptExpr, env *Environment) (string, *errors.LangError) {
	rendered, tools, err := in.renderPrompt(n, env)
	if err != nil {
		return "", err
	}
	return in.runPromptLoopRendered(rendered, tools, n.SpanValue)
}

// runPromptLoopRendered drives the provider round trip: ask, dispatch any
// requested tool calls, ask again with their results folded in, until a
// final text answer arrives or a round/call-count limit is hit.
func (in *Interpreter) runPromptLoopRendered(rendered string, tools []toolBinding, span token.Span) (string, *errors.LangError) {
	if in.Provider == nil {
		return "", errors.Simple(errors.ClassProvider, span, "no prompt provider configured")
	}
	defs := toolDefinitions(tools)
	var results []provider.ToolResult
	totalCalls := 0

	for round := 0; ; round++ {
		if round >= in.MaxToolRounds {
			return "", errors.New("RUNTIME-0011", span, map[string]any{"Limit": in.MaxToolRounds})
		}
		resp, err := in.Provider.Complete(context.Background(), provider.Request{
			Prompt:      rendered,
			Tools:       defs,
			ToolResults: results,
		})
		if err != nil {
			return "", errors.New("PROVIDER-0001", span, map[string]any{"Detail": err.Error()})
		}

		if resp.FinalText != nil {
			if in.Recorder != nil {
				in.Recorder.RecordPrompt(rendered, *resp.FinalText)
			}
			return *resp.FinalText, nil
		}

		if len(resp.ToolCalls) == 0 {
			return "", errors.New("PROVIDER-0002", span, nil)
		}
		if len(tools) == 0 {
			return "", errors.New("PROVIDER-0003", span, nil)
		}

		for _, call := range resp.ToolCalls {
			totalCalls++
			if totalCalls > in.MaxToolCalls {
				return "", errors.New("RUNTIME-0012", span, map[string]any{"Limit": in.MaxToolCalls})
			}

			// An unknown tool name, an argument validation failure, or a
			// failing invocation each become an error tool-result and the
			// loop continues to the next round — only the round/call-count
			// limits above abort it outright.
			binding := findTool(tools, call.Name)
			if binding == nil {
				results = append(results, errorToolResult(call, fmt.Sprintf("unknown tool %q", call.Name)))
				continue
			}
			args, argErr := toolCallArgs(binding.fn, call.Args)
			if argErr != nil {
				results = append(results, errorToolResult(call, argErr.Error()))
				continue
			}
			out, callErr := in.call(binding.fn, args, span)
			if callErr != nil {
				results = append(results, errorToolResult(call, callErr.Error()))
				continue
			}
			results = append(results, provider.ToolResult{
				ID:     call.ID,
				Name:   call.Name,
				Args:   call.Args,
				Output: value.ToJSON(out),
			})
		}
	}
}

// errorToolResult builds the tool-result message for a call that failed
// before or during invocation: the result carries the error rather than
// aborting the round.
func errorToolResult(call provider.ToolCall, message string) provider.ToolResult {
	return provider.ToolResult{
		ID:     call.ID,
		Name:   call.Name,
		Args:   call.Args,
		Output: map[string]any{"error": message},
	}
}

func findTool(tools []toolBinding, name string) *toolBinding {
	for i := range tools {
		if tools[i].name == name {
			return &tools[i]
		}
	}
	return nil
}

// toolCallArgs turns a provider's decoded JSON call arguments into
// positional values matching fn's parameter order. A call that supplied a
// JSON object is matched by parameter name; a JSON array is taken
// positionally; a bare scalar is accepted only for single-parameter tools.
func toolCallArgs(fn value.Function, raw any) ([]value.Value, error) {
	names := fn.ParamNames()
	switch r := raw.(type) {
	case map[string]any:
		args := make([]value.Value, len(names))
		for i, name := range names {
			v, ok := r[name]
			if !ok {
				return nil, fmt.Errorf("tool %q missing argument %q", fn.FnName(), name)
			}
			args[i] = value.FromJSON(v)
		}
		return args, nil
	case []any:
		if len(r) != len(names) {
			return nil, fmt.Errorf("tool %q expects %d argument(s), got %d", fn.FnName(), len(names), len(r))
		}
		args := make([]value.Value, len(r))
		for i, v := range r {
			args[i] = value.FromJSON(v)
		}
		return args, nil
	default:
		if len(names) != 1 {
			return nil, fmt.Errorf("tool %q expects %d argument(s), got a bare value", fn.FnName(), len(names))
		}
		return []value.Value{value.FromJSON(raw)}, nil
	}
}

func marshalCompact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
