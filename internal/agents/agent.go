package agents

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"codesmith/internal/llm"
	"codesmith/internal/logging"
	"codesmith/internal/tools"
)

// Exchanges slower than this are logged as warnings.
const slowExchange = 2 * time.Minute

// Agent runs exchanges for a single role.
type Agent struct {
	spec        RoleSpec
	client      llm.Client
	registry    *tools.Registry
	temperature float64
	maxTokens   int
	toolTimeout time.Duration
}

// Spec returns the agent's role spec.
func (a *Agent) Spec() RoleSpec {
	return a.spec
}

// Exchange sends prompt and returns the model's final text. Tool calls are
// executed and fed back, each model call consuming one of maxTurns.
// Running out of turns returns the last text seen.
func (a *Agent) Exchange(ctx context.Context, prompt string, maxTurns int) (string, error) {
	if maxTurns <= 0 {
		maxTurns = 1
	}
	timer := logging.StartTimer(logging.CategoryAgents, "exchange "+a.spec.Role.String())
	defer timer.StopWithThreshold(slowExchange)

	var defs []llm.ToolDefinition
	if a.registry != nil {
		defs = a.registry.Definitions(a.spec.Tools)
	}

	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	var last string

	for turn := 1; turn <= maxTurns; turn++ {
		req := llm.Request{
			Model:       a.spec.Model,
			System:      a.spec.SystemPrompt,
			Messages:    messages,
			Temperature: a.temperature,
			MaxTokens:   a.maxTokens,
		}
		// No tools on the final turn so the model has to answer.
		if turn < maxTurns {
			req.Tools = defs
		}

		resp, err := a.client.Chat(ctx, req)
		if err != nil {
			logging.AgentsError("%s turn %d: %v", a.spec.Role, turn, err)
			return last, fmt.Errorf("%s: %w", a.spec.Role, err)
		}
		if resp.Text != "" {
			last = resp.Text
		}
		if len(resp.ToolCalls) == 0 || len(req.Tools) == 0 {
			logging.AgentsDebug("%s answered on turn %d (%d chars)", a.spec.Role, turn, len(resp.Text))
			return resp.Text, nil
		}

		logging.Agents("%s requested %d tool calls on turn %d", a.spec.Role, len(resp.ToolCalls), turn)
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		messages = append(messages, a.runTools(ctx, resp.ToolCalls)...)
	}

	logging.AgentsDebug("%s exhausted %d turns", a.spec.Role, maxTurns)
	return last, nil
}

// runTools executes calls concurrently and returns tool messages in call order.
func (a *Agent) runTools(ctx context.Context, calls []llm.ToolCall) []llm.Message {
	out := make([]llm.Message, len(calls))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for i, call := range calls {
		eg.Go(func() error {
			content := a.runTool(egCtx, call)
			out[i] = llm.Message{Role: llm.RoleTool, Content: content, ToolCallID: call.ID}
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func (a *Agent) runTool(ctx context.Context, call llm.ToolCall) string {
	if !a.allowed(call.Name) {
		err := fmt.Errorf("%w to %s: %s", tools.ErrToolNotPermitted, a.spec.Role, call.Name)
		return (&tools.ToolResult{ToolName: call.Name, Error: err}).Content()
	}
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}
	result, _ := a.registry.Execute(ctx, call.Name, call.Input)
	return result.Content()
}

func (a *Agent) allowed(name string) bool {
	if a.registry == nil {
		return false
	}
	for _, t := range a.spec.Tools {
		if t == name {
			return true
		}
	}
	return false
}
