// Package pipeline implements the reasoning strategies that turn a task into
// a candidate solution. Every pipeline ends in a critique loop.
package pipeline

import (
	"context"
	"fmt"

	"codesmith/internal/agents"
	"codesmith/internal/config"
	"codesmith/internal/critique"
	"codesmith/internal/logging"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
)

// Pipeline produces a solution for a task. Run never fails; total failure
// yields the sentinel solution.
type Pipeline interface {
	Strategy() types.Strategy
	Run(ctx context.Context, task string) Result
}

// Result is a pipeline's output.
type Result struct {
	Solution types.Solution

	// Plan is the refined plan for plan-based strategies.
	Plan string

	// State of the final critique loop; empty if it never ran.
	State critique.State

	// Halt is set when a rate limit stopped the pipeline.
	Halt *transparency.ClassifiedError
}

// Deps are shared by every pipeline.
type Deps struct {
	Team     agents.Exchanger
	Strategy config.StrategyConfig
	Events   *transparency.Emitter
}

// Set holds one pipeline per strategy.
type Set struct {
	codeFirst       *CodeFirst
	pseudocodeFirst *PseudocodeFirst
	neuroSymbolic   *NeuroSymbolic
}

// NewSet builds every pipeline.
func NewSet(d Deps) (*Set, error) {
	cf, err := NewCodeFirst(d)
	if err != nil {
		return nil, err
	}
	return &Set{
		codeFirst:       cf,
		pseudocodeFirst: NewPseudocodeFirst(d),
		neuroSymbolic:   NewNeuroSymbolic(d),
	}, nil
}

// Get returns the pipeline for s.
func (s *Set) Get(st types.Strategy) (Pipeline, error) {
	switch st {
	case types.CodeFirst:
		return s.codeFirst, nil
	case types.PseudocodeFirst:
		return s.pseudocodeFirst, nil
	case types.NeuroSymbolic:
		return s.neuroSymbolic, nil
	default:
		return nil, fmt.Errorf("no pipeline for strategy %s", st)
	}
}

// ask runs one exchange. Failures that do not halt are logged and read as
// an empty reply.
func (d *Deps) ask(ctx context.Context, role agents.Role, prompt string) (string, *transparency.ClassifiedError) {
	reply, err := d.Team.Exchange(ctx, role, prompt, d.Strategy.ExchangeTurns)
	if err == nil {
		return reply, nil
	}
	ce := transparency.ClassifyError(err)
	if ce.Halts() {
		logging.PipelineWarn("%s halted: %v", role, err)
		d.Events.Fault(transparency.CategoryPipeline, role.String(), ce)
		return "", ce
	}
	logging.PipelineWarn("%s failed: %v", role, err)
	d.Events.Warn(transparency.CategoryPipeline, role.String(), "%s failed: %s", role, ce.Summary)
	return "", nil
}

// critiqueLoop builds the loop used after implementation.
func (d *Deps) critiqueLoop(corrector critique.Corrector, prompt func(task, code string) string) *critique.Loop {
	return critique.NewLoop(critique.Config{
		Team:           d.Team,
		Critic:         agents.RoleReasoner,
		Corrector:      corrector,
		AcceptScore:    d.Strategy.AcceptScore,
		CritiqueTurns:  d.Strategy.CritiqueTurns,
		CritiquePrompt: prompt,
		Events:         d.Events,
	})
}

func finish(res Result, out critique.Outcome) Result {
	res.Solution = out.Solution
	res.State = out.State
	res.Halt = out.Halt
	return res
}
