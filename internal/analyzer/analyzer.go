// Package analyzer recommends a reasoning strategy for a task.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"codesmith/internal/agents"
	"codesmith/internal/extract"
	"codesmith/internal/logging"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
)

const (
	defaultComplexity  = 3
	defaultExplanation = "Default fallback"
)

// Recommendation is the analyzer's advice for a task.
type Recommendation struct {
	Strategy    types.Strategy
	Complexity  int
	Explanation string

	// Fallback is set when the model's answer could not be used.
	Fallback bool

	// Halt is set when a rate limit stopped the analysis.
	Halt *transparency.ClassifiedError
}

// Default is the recommendation used when analysis fails.
func Default() Recommendation {
	return Recommendation{
		Strategy:    types.CodeFirst,
		Complexity:  defaultComplexity,
		Explanation: defaultExplanation,
		Fallback:    true,
	}
}

func (r Recommendation) String() string {
	return fmt.Sprintf("%s (complexity %d/10)", r.Strategy, r.Complexity)
}

// Analyzer asks the task_analyzer role to classify tasks.
type Analyzer struct {
	team   agents.Exchanger
	turns  int
	events *transparency.Emitter
}

// New creates an Analyzer. turns <= 0 uses the team default.
func New(team agents.Exchanger, turns int, events *transparency.Emitter) *Analyzer {
	return &Analyzer{team: team, turns: turns, events: events}
}

// Prompt is the classification prompt sent for task.
func Prompt(task string) string {
	return fmt.Sprintf(`Analyze this task and recommend one reasoning strategy: 
CODE_FIRST | PSEUDOCODE_FIRST | NEURO_SYMBOLIC. Return JSON:
{
  "reasoning_strategy": "...",
  "complexity": X,
  "explanation": "..."
}

Task: %s
`, task)
}

// Recommend classifies task. It never fails; unusable answers yield Default.
func (a *Analyzer) Recommend(ctx context.Context, task string) Recommendation {
	timer := logging.StartTimer(logging.CategoryAnalyzer, "recommend")
	defer timer.Stop()

	source := agents.RoleTaskAnalyzer.String()
	a.events.Info(transparency.CategoryAnalyzer, source, "Analyzing task")

	reply, err := a.team.Exchange(ctx, agents.RoleTaskAnalyzer, Prompt(task), a.turns)
	if err != nil {
		ce := transparency.ClassifyError(err)
		logging.AnalyzerWarn("analysis failed: %v", err)
		rec := Default()
		if ce.Halts() {
			a.events.Fault(transparency.CategoryAnalyzer, source, ce)
			rec.Halt = ce
		} else {
			a.events.Warn(transparency.CategoryAnalyzer, source, "Analysis failed (%s), using default", ce.Summary)
		}
		return rec
	}

	rec, err := Parse(reply)
	if err != nil {
		logging.AnalyzerWarn("unusable analysis: %v", err)
		a.events.Warn(transparency.CategoryAnalyzer, source, "Could not read analysis, using default")
		return rec
	}
	logging.Analyzer("recommended %s", rec)
	a.events.Info(transparency.CategoryAnalyzer, source, "Recommended %s", rec)
	return rec
}

var (
	errNoObject      = errors.New("no JSON object in analysis")
	errNoStrategy    = errors.New("analysis has no strategy")
	errNoComplexity  = errors.New("analysis has no complexity")
	errNoExplanation = errors.New("analysis has no explanation")
)

// Parse decodes an analyzer reply. On error the returned recommendation is
// Default.
func Parse(reply string) (Recommendation, error) {
	payload := extract.JSON(reply)
	if !strings.Contains(payload, "{") {
		return Default(), errNoObject
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(payload)
		if rerr != nil {
			return Default(), fmt.Errorf("invalid analysis JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
			return Default(), fmt.Errorf("invalid analysis JSON after repair: %w", err)
		}
	}
	if obj == nil {
		return Default(), errNoObject
	}

	name := types.ExtractString(obj["reasoning_strategy"])
	if name == "" {
		name = types.ExtractString(obj["strategy"])
	}
	if strings.TrimSpace(name) == "" {
		return Default(), errNoStrategy
	}
	strategy, err := types.ParseStrategy(name)
	if err != nil {
		return Default(), err
	}

	complexity, ok := types.ExtractInt(obj["complexity"])
	if !ok {
		return Default(), errNoComplexity
	}

	raw, ok := obj["explanation"]
	if !ok || raw == nil {
		return Default(), errNoExplanation
	}

	return Recommendation{
		Strategy:    strategy,
		Complexity:  types.Clamp(complexity, 1, 10),
		Explanation: strings.TrimSpace(types.ExtractString(raw)),
	}, nil
}
