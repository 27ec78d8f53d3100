// Package provider defines the PromptProvider boundary between the
// interpreter's prompt-orchestration loop and whatever actually answers a
// prompt: a real model endpoint, a scripted sequence of canned responses,
// or a small rule-based mock used in tests and offline runs.
package provider

import "context"

// ToolDefinition is what a provider is told about one auto-discovered tool:
// its stable name and its parameter names, in declaration order. The full
// JSON-Schema parameter shape lives in internal/schema's projection and is
// passed alongside for providers (like the HTTP one) that can use it.
type ToolDefinition struct {
	Name        string
	Description string
	ParamNames  []string
	Parameters  map[string]any // JSON Schema for the tool's argument object
}

// ToolCall is one invocation a provider asks the interpreter to perform.
type ToolCall struct {
	ID   string
	Name string
	Args any // decoded JSON: object, array, scalar, or nil
}

// ToolResult is what the interpreter reports back after dispatching a
// ToolCall, carried forward into the next round so a provider with
// multi-turn memory (or a stateless HTTP one replaying transcript) can see
// what already happened.
type ToolResult struct {
	ID     string
	Name   string
	Args   any
	Output any
}

// Request is everything a provider needs to answer one round of a prompt.
type Request struct {
	Prompt      string
	Tools       []ToolDefinition
	ToolResults []ToolResult
}

// Response is either a final textual answer or a batch of tool calls the
// interpreter must dispatch before asking the provider again.
type Response struct {
	FinalText *string
	ToolCalls []ToolCall
}

// Provider is the single operation every prompt backend implements.
// Mutability (&mut self in the original) is modeled as an ordinary method
// on a pointer receiver — Go has no separate mutable/immutable borrow
// distinction to carry over.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
