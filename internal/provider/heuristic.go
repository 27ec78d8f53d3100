package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// HeuristicMockProvider answers without any network access by pattern-
// matching the lowercased prompt text (and the number of tools offered) and
// dispatching to one of a handful of canned behaviors. It exists for the
// same reason the original's test suite carried one: exercising the
// tool-call round trip, multi-round chaining, and repair-prompt paths needs
// a provider whose behavior is predictable enough to assert on, without the
// cost and flakiness of a real model call.
type HeuristicMockProvider struct{}

func (HeuristicMockProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if len(req.Tools) == 0 {
		return completePlainPrompt(req)
	}
	return completeToolPrompt(req)
}

// completePlainPrompt handles prompts with no tools exposed: either a bare
// arithmetic question or a request to transform a JSON array embedded in the
// prompt text.
func completePlainPrompt(req Request) (Response, error) {
	lower := strings.ToLower(req.Prompt)

	if strings.Contains(lower, "uppercase") {
		if arr, ok := extractFirstJSONArray(req.Prompt); ok {
			upper := make([]string, len(arr))
			for i, s := range arr {
				upper[i] = strings.ToUpper(fmt.Sprint(s))
			}
			text := jsonStringArray(upper)
			return Response{FinalText: &text}, nil
		}
	}

	if sum, ok := parseSimpleAddition(req.Prompt); ok {
		text := strconv.FormatInt(sum, 10)
		return Response{FinalText: &text}, nil
	}

	text := strings.TrimSpace(req.Prompt)
	return Response{FinalText: &text}, nil
}

var additionPattern = regexp.MustCompile(`(-?\d+)\s*(?:\+|plus)\s*(-?\d+)`)

// parseSimpleAddition recognizes "3 + 4" / "3 plus 4" anywhere in the prompt
// text and returns their sum.
func parseSimpleAddition(prompt string) (int64, bool) {
	m := additionPattern.FindStringSubmatch(strings.ToLower(prompt))
	if m == nil {
		return 0, false
	}
	a, err1 := strconv.ParseInt(m[1], 10, 64)
	b, err2 := strconv.ParseInt(m[2], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return a + b, true
}

// completeToolPrompt picks among the tool-calling behaviors based on how
// many tools were exposed and what the prompt text asks for.
func completeToolPrompt(req Request) (Response, error) {
	lower := strings.ToLower(req.Prompt)

	// A prior round already reported results: chain_two_tools' second leg,
	// or the terminal leg of any of the other flows. Once every tool this
	// prompt could call has reported a result, summarize and finish.
	if len(req.ToolResults) > 0 && len(req.ToolResults) >= expectedCallCount(req) {
		text := summarizeToolResults(req.ToolResults)
		return Response{FinalText: &text}, nil
	}

	switch {
	case len(req.Tools) >= 2 && (strings.Contains(lower, "even") || strings.Contains(lower, "odd")):
		return chooseEvenOddCalls(req)
	case len(req.Tools) >= 2 && len(req.ToolResults) == 0:
		return chainTwoTools(req)
	case len(req.Tools) == 1:
		if arr, ok := extractFirstJSONArray(req.Prompt); ok && len(arr) > 1 {
			return mapSingleTool(req, arr)
		}
		return singlePairToolCall(req)
	default:
		return chainTwoTools(req)
	}
}

func expectedCallCount(req Request) int {
	if arr, ok := extractFirstJSONArray(req.Prompt); ok {
		return len(arr)
	}
	return len(req.Tools)
}

// chooseEvenOddCalls dispatches each number found in the prompt to
// whichever of the two tools' names mention "even" or "odd" matches its
// parity, defaulting to the first tool when neither name hints at it.
func chooseEvenOddCalls(req Request) (Response, error) {
	nums := extractNumbers(req.Prompt)
	if len(nums) == 0 {
		return Response{}, fmt.Errorf("heuristic provider: no numbers found in prompt for even/odd dispatch")
	}
	evenTool, oddTool := req.Tools[0].Name, req.Tools[0].Name
	for _, t := range req.Tools {
		switch {
		case strings.Contains(strings.ToLower(t.Name), "even"):
			evenTool = t.Name
		case strings.Contains(strings.ToLower(t.Name), "odd"):
			oddTool = t.Name
		}
	}
	calls := make([]ToolCall, len(nums))
	for i, n := range nums {
		name := oddTool
		if n%2 == 0 {
			name = evenTool
		}
		calls[i] = ToolCall{ID: fmt.Sprintf("call_%d", i), Name: name, Args: argsForItem(req, name, n)}
	}
	return Response{ToolCalls: calls}, nil
}

// chainTwoTools calls the first tool once; its result feeds the second leg
// once completeToolPrompt sees a non-empty ToolResults on the next round.
func chainTwoTools(req Request) (Response, error) {
	if len(req.ToolResults) == 0 {
		first := req.Tools[0]
		nums := extractNumbers(req.Prompt)
		var arg any = req.Prompt
		if len(nums) > 0 {
			arg = nums[0]
		}
		return Response{ToolCalls: []ToolCall{{ID: "call_0", Name: first.Name, Args: argsForItem(req, first.Name, arg)}}}, nil
	}
	second := req.Tools[len(req.Tools)-1]
	prior := req.ToolResults[len(req.ToolResults)-1]
	return Response{ToolCalls: []ToolCall{{ID: "call_1", Name: second.Name, Args: argsForItem(req, second.Name, prior.Output)}}}, nil
}

// singlePairToolCall extracts two values from the prompt ("between 3 and
// 5", "3 and 5") and calls the lone exposed tool once with both.
func singlePairToolCall(req Request) (Response, error) {
	a, b, ok := extractTalkPair(req.Prompt)
	if !ok {
		return Response{}, fmt.Errorf("heuristic provider: could not find a pair of values in prompt for single tool call")
	}
	tool := req.Tools[0]
	return Response{ToolCalls: []ToolCall{{ID: "call_0", Name: tool.Name, Args: argsFromPair(tool, a, b)}}}, nil
}

// mapSingleTool calls the lone exposed tool once per element of a JSON
// array found in the prompt.
func mapSingleTool(req Request, items []any) (Response, error) {
	tool := req.Tools[0]
	calls := make([]ToolCall, len(items))
	for i, item := range items {
		calls[i] = ToolCall{ID: fmt.Sprintf("call_%d", i), Name: tool.Name, Args: argsFromSingle(tool, item)}
	}
	return Response{ToolCalls: calls}, nil
}

// argsForItem wraps a single value as this named tool's call arguments,
// looking the tool up in req.Tools to find its parameter names.
func argsForItem(req Request, name string, item any) any {
	for _, t := range req.Tools {
		if t.Name == name {
			return argsFromSingle(t, item)
		}
	}
	return item
}

// argsFromSingle builds a tool call's argument object from one value: a
// single-parameter tool gets {param: item}, anything else gets the bare
// value (a provider that mis-declares arity is the caller's problem, not
// something the mock silently papers over).
func argsFromSingle(tool ToolDefinition, item any) any {
	if len(tool.ParamNames) == 1 {
		return map[string]any{tool.ParamNames[0]: item}
	}
	return item
}

func argsFromPair(tool ToolDefinition, a, b any) any {
	switch len(tool.ParamNames) {
	case 2:
		return map[string]any{tool.ParamNames[0]: a, tool.ParamNames[1]: b}
	case 1:
		return map[string]any{tool.ParamNames[0]: a}
	default:
		return []any{a, b}
	}
}

var numberPattern = regexp.MustCompile(`-?\d+`)

func extractNumbers(s string) []int64 {
	matches := numberPattern.FindAllString(s, -1)
	out := make([]int64, 0, len(matches))
	for _, m := range matches {
		if n, err := strconv.ParseInt(m, 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// extractTalkPair finds the first two numbers mentioned in text; if fewer
// than two numeric tokens are present it falls back to the first two
// whitespace-separated words, for prompts that pair strings rather than
// numbers ("combine apple and banana").
func extractTalkPair(prompt string) (any, any, bool) {
	nums := extractNumbers(prompt)
	if len(nums) >= 2 {
		return nums[0], nums[1], true
	}
	words := strings.Fields(prompt)
	var clean []string
	for _, w := range words {
		w = strings.Trim(w, ".,:;!?\"'")
		if w == "" || w == "and" {
			continue
		}
		clean = append(clean, w)
	}
	if len(clean) >= 2 {
		return clean[len(clean)-2], clean[len(clean)-1], true
	}
	return nil, nil, false
}

// extractFirstJSONArray scans for the first syntactically balanced JSON
// array substring in s and decodes it, ignoring any surrounding prose. It
// tracks bracket depth and string-quote state by hand rather than using a
// regular expression, since arrays can nest and contain quoted brackets.
func extractFirstJSONArray(s string) ([]any, bool) {
	start := strings.IndexByte(s, '[')
	for start != -1 {
		if end := balancedArrayEnd(s, start); end != -1 {
			candidate := s[start : end+1]
			if decoded, ok := decodeJSONArray(candidate); ok {
				return decoded, true
			}
		}
		next := strings.IndexByte(s[start+1:], '[')
		if next == -1 {
			break
		}
		start = start + 1 + next
	}
	return nil, false
}

func balancedArrayEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func decodeJSONArray(candidate string) ([]any, bool) {
	var arr []any
	if err := json.Unmarshal([]byte(candidate), &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func jsonStringArray(items []string) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func summarizeToolResults(results []ToolResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%v", r.Output)
	}
	return strings.Join(parts, ", ")
}
