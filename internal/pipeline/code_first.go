package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codesmith/internal/agents"
	"codesmith/internal/critique"
	"codesmith/internal/extract"
	"codesmith/internal/flow"
	"codesmith/internal/logging"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
)

// minCodeLen is the shortest capture accepted as code.
const minCodeLen = 10

// CodeFirst generates code directly through a codegen, critiquer, corrector
// stage graph, then critiques the captured code.
type CodeFirst struct {
	deps  Deps
	graph *flow.Graph
}

// NewCodeFirst builds the stage graph.
func NewCodeFirst(d Deps) (*CodeFirst, error) {
	g, err := flow.NewBuilder().Chain(
		flow.Stage{Role: agents.RoleCodegen, Turns: d.Strategy.ExchangeTurns},
		flow.Stage{Role: agents.RoleCritiquer, Turns: d.Strategy.ExchangeTurns},
		flow.Stage{Role: agents.RoleCorrector, Turns: d.Strategy.ExchangeTurns},
	).Build()
	if err != nil {
		return nil, fmt.Errorf("code-first graph: %w", err)
	}
	return &CodeFirst{deps: d, graph: g}, nil
}

// Strategy implements Pipeline.
func (p *CodeFirst) Strategy() types.Strategy { return types.CodeFirst }

// SeedPrompt is the prompt the stage graph starts from.
func SeedPrompt(task string) string {
	return fmt.Sprintf(`You are solving the following Go task. Try to generate correct code.
Task: %s
%s
Return code only in a `+"```go ... ```"+` block.`, task, types.SolutionShape)
}

// Run implements Pipeline.
func (p *CodeFirst) Run(ctx context.Context, task string) Result {
	logging.Pipeline("code-first: %q", task)
	p.deps.Events.Info(transparency.CategoryPipeline, "code_first", "Running code-first pipeline")

	prompt := SeedPrompt(task)
	code, halt := p.generate(ctx, prompt)
	if halt != nil {
		return Result{Solution: types.SentinelSolution(types.CodeFirst), Halt: halt}
	}
	if code == "" {
		logging.PipelineWarn("code-first: no code after %d graph runs", p.deps.Strategy.FlowRetries)
		p.deps.Events.Warn(transparency.CategoryPipeline, "code_first", "No code returned")
		return Result{Solution: types.SentinelSolution(types.CodeFirst)}
	}
	p.deps.Events.Detail(transparency.CategoryPipeline, "code_first",
		fmt.Sprintf("Attempted code (%d chars)", len(code)), code)

	// Corrections re-run the graph with the accumulated feedback.
	corrector := critique.CorrectorFunc(func(ctx context.Context, c critique.Correction) (string, error) {
		if !c.Malformed && (len(c.Critique.Issues) > 0 || len(c.Critique.Fixes) > 0) {
			prompt = withFeedback(prompt, c.Critique)
		}
		code, halt := p.generate(ctx, prompt)
		if halt != nil {
			return "", halt
		}
		return code, nil
	})

	loop := p.deps.critiqueLoop(corrector, critique.CritiquePrompt)
	out := loop.Refine(ctx, task, types.NewSolution(types.CodeFirst, agents.RoleCodegen.String(), code), p.deps.Strategy.CodeFirstAttempts)
	logging.Pipeline("code-first: %s", out)
	return finish(Result{}, out)
}

// generate runs the graph until it yields code, up to the retry budget.
// A rate limit stops the retries.
func (p *CodeFirst) generate(ctx context.Context, prompt string) (string, *transparency.ClassifiedError) {
	retries := max(p.deps.Strategy.FlowRetries, 1)
	timeout := p.deps.Strategy.GetFlowTimeout()

	for attempt := 1; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return "", nil
		}
		p.deps.Events.Info(transparency.CategoryFlow, "code_first", "Attempt %d", attempt)

		runCtx, cancel := context.WithTimeout(ctx, timeout)
		trace, err := p.graph.Run(runCtx, p.deps.Team, prompt, flow.Options{
			StageTimeout: p.deps.Strategy.GetStageTimeout(),
			OnMessage:    func(m flow.Message) {
				logging.FlowDebug("%s: %.100s", m.Stage, m.Content)
			},
		})
		cancel()

		code := captureCode(trace.Messages)
		if err != nil {
			ce := transparency.ClassifyError(err)
			if ce.Halts() {
				p.deps.Events.Fault(transparency.CategoryFlow, "code_first", ce)
				return "", ce
			}
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				logging.FlowWarn("attempt %d timed out after %v", attempt, timeout)
				p.deps.Events.Warn(transparency.CategoryFlow, "code_first", "Timeout in attempt %d", attempt)
				continue
			}
			logging.FlowWarn("attempt %d failed: %v", attempt, err)
			p.deps.Events.Warn(transparency.CategoryFlow, "code_first", "Error in attempt %d: %s", attempt, ce.Summary)
		}

		if len(strings.TrimSpace(code)) < minCodeLen {
			p.deps.Events.Warn(transparency.CategoryFlow, "code_first", "No substantial solution generated in attempt %d", attempt)
			continue
		}
		return code, nil
	}
	return "", nil
}

// captureCode picks the code from a stage transcript: the last fenced block
// longer than minCodeLen, else code from the last substantial message, else
// the last message.
func captureCode(messages []flow.Message) string {
	final := ""
	for _, m := range messages {
		if !extract.HasFence(m.Content) {
			continue
		}
		if code := extract.Code(m.Content); len(code) > minCodeLen {
			final = code
		}
	}
	if final != "" || len(messages) == 0 {
		return final
	}

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i].Content
		if len(strings.TrimSpace(msg)) <= minCodeLen {
			continue
		}
		if code := extract.Code(msg); code != msg {
			return code
		}
	}
	return messages[len(messages)-1].Content
}

func withFeedback(prompt string, c critique.Critique) string {
	return fmt.Sprintf("%s\n\nPrevious issues: %s\nSuggested fixes: %s\n\nPlease improve the code based on the feedback above.",
		prompt, quoteList(c.Issues), quoteList(c.Fixes))
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

var _ Pipeline = (*CodeFirst)(nil)
