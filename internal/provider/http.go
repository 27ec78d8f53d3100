package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// HTTPProvider talks to an OpenAI-function-calling-shaped chat completions
// endpoint over HTTP/2 where available, rather than shelling out to curl.
// OpenRouter is the default endpoint; any compatible gateway can be used by
// setting BaseURL.
type HTTPProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// NewHTTPProvider builds a provider against OpenRouter's chat completions
// endpoint using a client with a generous timeout, since prompt completions
// (especially tool-calling rounds) can run long.
func NewHTTPProvider(apiKey, model string) *HTTPProvider {
	transport := &http.Transport{}
	// Best-effort: configuring h2 fails only if the transport was already
	// used or TLSNextProto pre-populated, neither of which is true here.
	_ = http2.ConfigureTransport(transport)
	return &HTTPProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: openRouterURL,
		Client:  &http.Client{Timeout: 120 * time.Second, Transport: transport},
	}
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatToolCallFunc `json:"function"`
}

type chatToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string           `json:"type"`
	Function chatToolFuncSpec `json:"function"`
}

type chatToolFuncSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []chatTool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *HTTPProvider) Complete(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(p.buildChatRequest(req))
	if err != nil {
		return Response{}, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("calling chat completions endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading chat completions response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("chat completions endpoint returned %s: %s", resp.Status, truncate(string(raw), 500))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Response{}, fmt.Errorf("decoding chat completions response: %w", err)
	}
	if parsed.Error != nil {
		return Response{}, fmt.Errorf("chat completions endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Response{}, fmt.Errorf("chat completions response carried no choices")
	}
	msg := parsed.Choices[0].Message

	if len(msg.ToolCalls) > 0 {
		calls := make([]ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			if tc.Type != "" && tc.Type != "function" {
				return Response{}, fmt.Errorf("unsupported tool call type %q", tc.Type)
			}
			var args any
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					return Response{}, fmt.Errorf("decoding tool call arguments for %q: %w", tc.Function.Name, err)
				}
			}
			calls[i] = ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args}
		}
		return Response{ToolCalls: calls}, nil
	}

	if msg.Content == "" {
		return Response{}, fmt.Errorf("chat completions response carried neither tool calls nor content")
	}
	text := msg.Content
	return Response{FinalText: &text}, nil
}

// buildChatRequest renders the prompt and prior tool results into a chat
// message list: a user message for the prompt, then one assistant message
// carrying the tool_calls and one tool-role message per prior result, so the
// model sees the same round-trip transcript on every subsequent call.
func (p *HTTPProvider) buildChatRequest(req Request) chatRequest {
	messages := []chatMessage{{Role: "user", Content: req.Prompt}}
	if len(req.ToolResults) > 0 {
		assistantCalls := make([]chatToolCall, len(req.ToolResults))
		for i, r := range req.ToolResults {
			args, _ := json.Marshal(r.Args)
			assistantCalls[i] = chatToolCall{
				ID:   r.ID,
				Type: "function",
				Function: chatToolCallFunc{
					Name:      r.Name,
					Arguments: string(args),
				},
			}
		}
		messages = append(messages, chatMessage{Role: "assistant", ToolCalls: assistantCalls})
		for _, r := range req.ToolResults {
			output, _ := json.Marshal(r.Output)
			messages = append(messages, chatMessage{
				Role:       "tool",
				Content:    string(output),
				ToolCallID: r.ID,
				Name:       r.Name,
			})
		}
	}

	tools := make([]chatTool, len(req.Tools))
	for i, t := range req.Tools {
		params := t.Parameters
		if params == nil {
			params = emptyObjectParams(t.ParamNames)
		}
		tools[i] = chatTool{
			Type: "function",
			Function: chatToolFuncSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		}
	}

	return chatRequest{Model: p.Model, Messages: messages, Tools: tools}
}

// emptyObjectParams builds a bare property-named schema (every parameter
// typed as "any") for tools whose caller didn't supply a full JSON Schema —
// a minimal OpenAI-function-calling descriptor shape.
func emptyObjectParams(paramNames []string) map[string]any {
	properties := make(map[string]any, len(paramNames))
	for _, name := range paramNames {
		properties[name] = map[string]any{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
