package pipeline

import (
	"context"
	"fmt"
	"strings"

	"codesmith/internal/agents"
	"codesmith/internal/critique"
	"codesmith/internal/extract"
	"codesmith/internal/logging"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
)

// planner holds the refinement and implementation stages shared by the
// plan-based strategies.
type planner struct {
	deps     Deps
	strategy types.Strategy
}

// refine runs the collaborative refinement rounds: a detailed analysis, a
// quick flaw check, and a merge into the next plan.
func (p *planner) refine(ctx context.Context, task, plan string) (string, *transparency.ClassifiedError) {
	rounds := p.deps.Strategy.RefinementRounds
	for round := 1; round <= rounds; round++ {
		p.deps.Events.Info(transparency.CategoryPipeline, "refinement", "Refinement round %d/%d", round, rounds)

		detailed, halt := p.deps.ask(ctx, agents.RoleReasoner, fmt.Sprintf(`Analyze and improve this plan for logic and edge cases.

Task: %s
Plan: %s
`, task, plan))
		if halt != nil {
			return plan, halt
		}

		quick, halt := p.deps.ask(ctx, agents.RoleQuickReasoner,
			fmt.Sprintf("What's the biggest flaw and quick fix in this plan?\n%s", plan))
		if halt != nil {
			return plan, halt
		}

		if strings.TrimSpace(detailed) == "" && strings.TrimSpace(quick) == "" {
			logging.PipelineWarn("refinement round %d produced no analysis, keeping plan", round)
			continue
		}

		merged, halt := p.deps.ask(ctx, agents.RoleReasoner, fmt.Sprintf(`Merge these analyses into a final refined plan.

Task: %s
Detailed Analysis: %s
Quick Feedback: %s
`, task, detailed, quick))
		if halt != nil {
			return plan, halt
		}
		if strings.TrimSpace(merged) != "" {
			plan = merged
		}
		logging.PipelineDebug("refinement round %d: plan %d chars", round, len(plan))
	}
	return plan, nil
}

// implement asks codegen for the plan's code and critiques it.
func (p *planner) implement(ctx context.Context, task, plan string) Result {
	res := Result{Plan: plan}

	p.deps.Events.Info(transparency.CategoryPipeline, agents.RoleCodegen.String(), "Implementing plan")
	reply, halt := p.deps.ask(ctx, agents.RoleCodegen, fmt.Sprintf(`Implement this plan in Go.
Plan:
%s
%s
Return only the code in a `+"```go ... ```"+` block.
`, plan, types.SolutionShape))
	if halt != nil {
		res.Solution = types.SentinelSolution(p.strategy)
		res.Halt = halt
		return res
	}
	code := extract.Code(reply)
	if strings.TrimSpace(code) == "" {
		p.deps.Events.Warn(transparency.CategoryPipeline, agents.RoleCodegen.String(), "No code returned")
		res.Solution = types.SentinelSolution(p.strategy)
		return res
	}

	loop := p.deps.critiqueLoop(
		critique.NewRoleCorrector(p.deps.Team, critique.PlanCorrectionPrompt(plan)),
		critique.PlanCritiquePrompt(plan),
	)
	out := loop.Refine(ctx, task, types.NewSolution(p.strategy, agents.RoleCodegen.String(), code), p.deps.Strategy.ImplementationAttempts)
	logging.Pipeline("%s implementation: %s", p.strategy, out)
	return finish(res, out)
}

// halted ends a pipeline that was stopped before implementation.
func (p *planner) halted(plan string, halt *transparency.ClassifiedError) Result {
	return Result{Solution: types.SentinelSolution(p.strategy), Plan: plan, Halt: halt}
}

// PseudocodeFirst plans in pseudocode, refines the plan, then implements it.
type PseudocodeFirst struct {
	planner
}

// NewPseudocodeFirst creates the pipeline.
func NewPseudocodeFirst(d Deps) *PseudocodeFirst {
	return &PseudocodeFirst{planner{deps: d, strategy: types.PseudocodeFirst}}
}

// Strategy implements Pipeline.
func (p *PseudocodeFirst) Strategy() types.Strategy { return types.PseudocodeFirst }

// Run implements Pipeline.
func (p *PseudocodeFirst) Run(ctx context.Context, task string) Result {
	logging.Pipeline("pseudocode-first: %q", task)
	p.deps.Events.Info(transparency.CategoryPipeline, "pseudocode_first", "Running pseudocode-first pipeline")

	reply, halt := p.deps.ask(ctx, agents.RoleReasoner, fmt.Sprintf(`Create pseudocode for solving this task.
Wrap in `+"```pseudocode ... ```"+`.

Task: %s
`, task))
	if halt != nil {
		return p.halted("", halt)
	}
	plan := extract.Pseudocode(reply)
	p.deps.Events.Detail(transparency.CategoryPipeline, agents.RoleReasoner.String(), "Pseudocode plan", plan)

	plan, halt = p.refine(ctx, task, plan)
	if halt != nil {
		return p.halted(plan, halt)
	}
	return p.implement(ctx, task, plan)
}

// NeuroSymbolic decomposes the task logically, turns the decomposition into
// a symbolic plan, then refines and implements it.
type NeuroSymbolic struct {
	planner
}

// NewNeuroSymbolic creates the pipeline.
func NewNeuroSymbolic(d Deps) *NeuroSymbolic {
	return &NeuroSymbolic{planner{deps: d, strategy: types.NeuroSymbolic}}
}

// Strategy implements Pipeline.
func (p *NeuroSymbolic) Strategy() types.Strategy { return types.NeuroSymbolic }

// Run implements Pipeline.
func (p *NeuroSymbolic) Run(ctx context.Context, task string) Result {
	logging.Pipeline("neuro-symbolic: %q", task)
	p.deps.Events.Info(transparency.CategoryPipeline, "neuro_symbolic", "Running neuro-symbolic pipeline")

	analysis, halt := p.deps.ask(ctx, agents.RoleLogicalReasoner, fmt.Sprintf(`Decompose this problem logically:
1. Key logic
2. Sub-problems
3. Constraints

Task: %s
`, task))
	if halt != nil {
		return p.halted("", halt)
	}
	p.deps.Events.Detail(transparency.CategoryPipeline, agents.RoleLogicalReasoner.String(), "Logical decomposition", analysis)

	plan, halt := p.deps.ask(ctx, agents.RoleSymbolicReasoner, fmt.Sprintf(`Based on this analysis, generate symbolic representation and pseudocode.
Analysis: %s
`, analysis))
	if halt != nil {
		return p.halted("", halt)
	}
	p.deps.Events.Detail(transparency.CategoryPipeline, agents.RoleSymbolicReasoner.String(), "Symbolic plan", plan)

	plan, halt = p.refine(ctx, task, plan)
	if halt != nil {
		return p.halted(plan, halt)
	}
	return p.implement(ctx, task, plan)
}

var (
	_ Pipeline = (*PseudocodeFirst)(nil)
	_ Pipeline = (*NeuroSymbolic)(nil)
)
