// Package llm is the chat transport used by agent roles. Every provider sits
// behind Client; requests carry the full message history so callers can run
// multi-turn tool loops.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of a chat history.
type Message struct {
	Role    string
	Content string

	// Set on assistant messages that requested tools.
	ToolCalls []ToolCall

	// Set on tool result messages; matches ToolCall.ID.
	ToolCallID string
}

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// Request is a single chat completion call.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response is the model's reply to a Request.
type Response struct {
	Text         string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// Client sends chat requests to a provider.
type Client interface {
	Chat(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

// Chat calls f.
func (f ClientFunc) Chat(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
