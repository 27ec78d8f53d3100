package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestHTTPProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &HTTPProvider{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
		Client:  srv.Client(),
	}
}

func TestHTTPProviderCompleteReturnsFinalText(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("got Authorization %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "say hi" {
			t.Fatalf("got messages %+v", req.Messages)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	})

	resp, err := p.Complete(context.Background(), Request{Prompt: "say hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.FinalText == nil || *resp.FinalText != "hello there" {
		t.Fatalf("got %+v", resp)
	}
}

func TestHTTPProviderCompleteReturnsToolCalls(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"tool_calls":[
			{"id":"call_0","type":"function","function":{"name":"greet","arguments":"{\"a\":\"alice\",\"b\":\"bob\"}"}}
		]}}]}`))
	})

	resp, err := p.Complete(context.Background(), Request{
		Prompt: "use greet",
		Tools:  []ToolDefinition{{Name: "greet", ParamNames: []string{"a", "b"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_0" || call.Name != "greet" {
		t.Fatalf("got %+v", call)
	}
	args, ok := call.Args.(map[string]any)
	if !ok || args["a"] != "alice" || args["b"] != "bob" {
		t.Fatalf("got args %+v", call.Args)
	}
}

func TestHTTPProviderBuildChatRequestFoldsToolResultsIntoTranscript(t *testing.T) {
	var captured chatRequest
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	})

	_, err := p.Complete(context.Background(), Request{
		Prompt: "use greet",
		Tools:  []ToolDefinition{{Name: "greet", ParamNames: []string{"a", "b"}}},
		ToolResults: []ToolResult{
			{ID: "call_0", Name: "greet", Args: map[string]any{"a": "alice", "b": "bob"}, Output: "alice hi bob"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured.Messages) != 3 {
		t.Fatalf("got %d messages, want user+assistant+tool", len(captured.Messages))
	}
	if captured.Messages[1].Role != "assistant" || len(captured.Messages[1].ToolCalls) != 1 {
		t.Fatalf("got assistant message %+v", captured.Messages[1])
	}
	if captured.Messages[2].Role != "tool" || captured.Messages[2].ToolCallID != "call_0" {
		t.Fatalf("got tool message %+v", captured.Messages[2])
	}
	if len(captured.Tools) != 1 || captured.Tools[0].Function.Name != "greet" {
		t.Fatalf("got tools %+v", captured.Tools)
	}
	props, ok := captured.Tools[0].Function.Parameters["properties"].(map[string]any)
	if !ok || len(props) != 2 {
		t.Fatalf("got parameters %+v, want a bare two-property schema", captured.Tools[0].Function.Parameters)
	}
}

func TestHTTPProviderCompleteNonOKStatus(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid key"}`))
	})

	_, err := p.Complete(context.Background(), Request{Prompt: "say hi"})
	if err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestHTTPProviderCompleteErrorField(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	})

	_, err := p.Complete(context.Background(), Request{Prompt: "say hi"})
	if err == nil {
		t.Fatal("expected an error for an error-shaped 200 response")
	}
}

func TestHTTPProviderCompleteEmptyChoices(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := p.Complete(context.Background(), Request{Prompt: "say hi"})
	if err == nil {
		t.Fatal("expected an error for no choices")
	}
}

func TestHTTPProviderCompleteNeitherContentNorToolCalls(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{}}]}`))
	})

	_, err := p.Complete(context.Background(), Request{Prompt: "say hi"})
	if err == nil {
		t.Fatal("expected an error when a message carries neither content nor tool calls")
	}
}
