package agents

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesmith/internal/config"
	"codesmith/internal/llm"
	"codesmith/internal/tools"
)

type recordingClient struct {
	mu       sync.Mutex
	requests []llm.Request
	replies  []*llm.Response
}

func (c *recordingClient) Chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if len(c.replies) == 0 {
		return &llm.Response{Text: "done"}, nil
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r, nil
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	reg.MustRegister(&tools.Tool{
		Name:     "web_search",
		Category: tools.CategoryResearch,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return fmt.Sprintf("results for %v", args["query"]), nil
		},
		Schema: tools.ToolSchema{Required: []string{"query"}},
	})
	reg.MustRegister(&tools.Tool{
		Name:     "secret",
		Category: tools.CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "should not run", nil
		},
	})
	return reg
}

func testTeam(t *testing.T, client llm.Client) *Team {
	t.Helper()
	models := config.ModelsConfig{Coding: "coder", Reasoning: "thinker", General: "general"}
	roster := NewRoster(models, NewPromptLibrary(""), []string{"web_search"})
	return NewTeam(client, roster, testRegistry(t), TeamOptions{Temperature: 0.7, MaxTokens: 256})
}

func TestExchangeSingleTurn(t *testing.T) {
	client := &recordingClient{replies: []*llm.Response{{Text: "```go\nfunc A() {}\n```"}}}
	team := testTeam(t, client)

	out, err := team.Exchange(context.Background(), RoleCodegen, "write A", 0)
	require.NoError(t, err)
	assert.Equal(t, "```go\nfunc A() {}\n```", out)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "coder", req.Model)
	assert.Equal(t, "You are an expert Go programmer. Write clean, efficient code.", req.System)
	assert.Empty(t, req.Tools, "codegen has no tools")
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 256, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "write A"}, req.Messages[0])
}

func TestExchangeRunsToolsInOrder(t *testing.T) {
	client := &recordingClient{replies: []*llm.Response{
		{
			Text: "let me look",
			ToolCalls: []llm.ToolCall{
				{ID: "c1", Name: "web_search", Input: map[string]any{"query": "manacher"}},
				{ID: "c2", Name: "secret", Input: map[string]any{}},
				{ID: "c3", Name: "web_search", Input: map[string]any{}},
			},
		},
		{Text: "final plan"},
	}}
	team := testTeam(t, client)

	out, err := team.Exchange(context.Background(), RoleReasoner, "plan it", 3)
	require.NoError(t, err)
	assert.Equal(t, "final plan", out)

	require.Len(t, client.requests, 2)
	first := client.requests[0]
	require.Len(t, first.Tools, 1)
	assert.Equal(t, "web_search", first.Tools[0].Name)

	msgs := client.requests[1].Messages
	require.Len(t, msgs, 5)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].ToolCalls, 3)

	assert.Equal(t, llm.Message{Role: llm.RoleTool, ToolCallID: "c1", Content: "results for manacher"}, msgs[2])
	assert.Equal(t, "c2", msgs[3].ToolCallID)
	assert.Equal(t, "Error: tool not available to reasoner: secret", msgs[3].Content)
	assert.Equal(t, "c3", msgs[4].ToolCallID)
	assert.Contains(t, msgs[4].Content, "missing required argument: query")
}

func TestExchangeFinalTurnHasNoTools(t *testing.T) {
	call := llm.ToolCall{ID: "c", Name: "web_search", Input: map[string]any{"query": "x"}}
	client := &recordingClient{replies: []*llm.Response{
		{Text: "searching", ToolCalls: []llm.ToolCall{call}},
		{Text: "", ToolCalls: []llm.ToolCall{call}},
	}}
	team := testTeam(t, client)

	out, err := team.Exchange(context.Background(), RoleLogicalReasoner, "decompose", 2)
	require.NoError(t, err)
	assert.Equal(t, "", out)
	require.Len(t, client.requests, 2)
	assert.NotEmpty(t, client.requests[0].Tools)
	assert.Empty(t, client.requests[1].Tools)
}

func TestExchangeTransportError(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		return nil, fmt.Errorf("openrouter: %w", llm.ErrRateLimited)
	})
	team := testTeam(t, client)

	_, err := team.Exchange(context.Background(), RoleCritiquer, "critique", 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrRateLimited))
	assert.Contains(t, err.Error(), "critiquer: ")
}

func TestExchangeUnknownRole(t *testing.T) {
	team := testTeam(t, &recordingClient{})
	_, err := team.Exchange(context.Background(), Role(77), "hi", 1)
	assert.Error(t, err)
	assert.Nil(t, team.Agent(Role(77)))
}
