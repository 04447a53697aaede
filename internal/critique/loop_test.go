package critique

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesmith/internal/agents"
	"codesmith/internal/agents/agenttest"
	"codesmith/internal/llm"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
)

func echoCorrector() Corrector {
	return CorrectorFunc(func(ctx context.Context, c Correction) (string, error) {
		return "fixed:" + c.Code, nil
	})
}

func initial(code string) types.Solution {
	return types.NewSolution(types.CodeFirst, "codegen", code)
}

func TestRefineAcceptsOnFirstCritique(t *testing.T) {
	fake := agenttest.New().Reply(agents.RoleCritiquer, `{"score": 9, "issues": [], "fixes": []}`)
	corrections := 0
	loop := NewLoop(Config{
		Team:   fake,
		Critic: agents.RoleCritiquer,
		Corrector: CorrectorFunc(func(ctx context.Context, c Correction) (string, error) {
			corrections++
			return "", nil
		}),
	})

	start := initial("x")
	out := loop.Refine(context.Background(), "task", start, 3)

	assert.Equal(t, StateAccepted, out.State)
	assert.Equal(t, "x", out.Solution.Code)
	assert.Equal(t, start.ID, out.Solution.ID)
	assert.True(t, out.Solution.Accepted)
	assert.Equal(t, 9, out.Solution.Score)
	assert.Equal(t, 1, fake.Count(agents.RoleCritiquer))
	assert.Zero(t, corrections)
	assert.Zero(t, out.Corrections)
	assert.Equal(t, 2, fake.CallsFor(agents.RoleCritiquer)[0].MaxTurns)
}

func TestRefineRejectsFractionalScoreBelowThreshold(t *testing.T) {
	fake := agenttest.New().Reply(agents.RoleCritiquer,
		`{"score": 7.5, "issues": ["edge case"], "fixes": ["handle it"]}`,
		`{"score": 8.0, "issues": [], "fixes": []}`)
	loop := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer, Corrector: echoCorrector(), AcceptScore: 8})

	out := loop.Refine(context.Background(), "task", initial("x"), 3)

	assert.Equal(t, StateAccepted, out.State)
	assert.Equal(t, "fixed:x", out.Solution.Code)
	assert.Equal(t, 1, out.Corrections)
	require.Len(t, out.Verdicts, 2)
	assert.Equal(t, 7, out.Verdicts[0].Critique.Score)
}

func TestRefineExhaustsWithCorrections(t *testing.T) {
	fake := agenttest.New().Reply(agents.RoleCritiquer, `{"score": 2, "issues": ["wrong"], "fixes": ["redo"]}`)
	loop := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer, Corrector: echoCorrector()})

	out := loop.Refine(context.Background(), "task", initial("x"), 3)

	assert.Equal(t, StateExhausted, out.State)
	assert.Equal(t, "fixed:fixed:fixed:x", out.Solution.Code)
	assert.False(t, out.Solution.Accepted)
	assert.Equal(t, "corrector", out.Solution.Producer)
	assert.Equal(t, 3, out.Corrections)
	assert.Len(t, out.Verdicts, 3)
	assert.Equal(t, 3, fake.Count(agents.RoleCritiquer))
	assert.Nil(t, out.Halt)
}

func TestRefineThroughRoleCorrector(t *testing.T) {
	fake := agenttest.New().
		Reply(agents.RoleCritiquer, `{"score": 2}`).
		On(agents.RoleCorrector, func(p string) (string, error) { return "fixed:" + p, nil })
	corrector := NewRoleCorrector(fake, func(c Correction) string { return c.Code })
	loop := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer, Corrector: corrector})

	out := loop.Refine(context.Background(), "task", initial("x"), 3)
	assert.Equal(t, "fixed:fixed:fixed:x", out.Solution.Code)
	assert.Equal(t, StateExhausted, out.State)
}

func TestRefineAcceptsAfterCorrection(t *testing.T) {
	fake := agenttest.New().
		Reply(agents.RoleReasoner, `{"score": 4, "issues": ["nil map"], "fixes": ["make it"]}`, `{"score": 8}`).
		Reply(agents.RoleCorrector, "```go\nfunc F() {}\n```")
	events := &transparency.Recorder{}
	loop := NewLoop(Config{
		Team:           fake,
		Critic:         agents.RoleReasoner,
		Corrector:      NewRoleCorrector(fake, PlanCorrectionPrompt("the plan")),
		CritiquePrompt: PlanCritiquePrompt("the plan"),
		Events:         transparency.NewEmitter(events),
	})

	out := loop.Refine(context.Background(), "make F", initial("func F() { var m map[string]int; m[\"a\"] = 1 }"), 3)

	require.Equal(t, StateAccepted, out.State)
	assert.Equal(t, "func F() {}", out.Solution.Code)
	assert.Equal(t, 8, out.Solution.Score)
	assert.Equal(t, 2, out.Solution.Attempt)

	critiques := fake.CallsFor(agents.RoleReasoner)
	require.Len(t, critiques, 2)
	assert.Contains(t, critiques[0].Prompt, "Plan: the plan")
	assert.Contains(t, critiques[1].Prompt, "func F() {}")

	correction := fake.CallsFor(agents.RoleCorrector)[0].Prompt
	assert.Contains(t, correction, "Plan:\nthe plan")
	assert.Contains(t, correction, `Issues: ["nil map"]`)
	assert.Contains(t, correction, `Fixes: ["make it"]`)
	assert.Contains(t, correction, types.SolutionShape)

	assert.Equal(t, []string{"Score: 4/10", "Score: 8/10", "Final score 8/10, solution accepted"}, events.Summaries())
}

func TestRefineMalformedCritiqueFallsBack(t *testing.T) {
	fake := agenttest.New().
		Reply(agents.RoleCritiquer, "I cannot produce JSON today", `{"score": 10}`).
		Reply(agents.RoleCorrector, "```go\nfunc Better() {}\n```")
	loop := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer})

	out := loop.Refine(context.Background(), "task", initial("func A() {}"), 3)

	assert.Equal(t, StateAccepted, out.State)
	assert.Equal(t, "func Better() {}", out.Solution.Code)
	require.Len(t, out.Verdicts, 2)
	assert.Equal(t, Malformed, out.Verdicts[0].Kind)

	prompt := fake.CallsFor(agents.RoleCorrector)[0].Prompt
	assert.True(t, strings.HasPrefix(prompt, "Improve the following code for task: task\nCode: func A() {}"))
	assert.Contains(t, prompt, "Reviewer feedback: I cannot produce JSON today")
}

func TestRefineCriticTransportErrorDegrades(t *testing.T) {
	fake := agenttest.New().
		Fail(agents.RoleCritiquer, errors.New("API request failed with status 500")).
		On(agents.RoleCorrector, func(p string) (string, error) { return "v2", nil })
	loop := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer})

	out := loop.Refine(context.Background(), "task", initial("v1"), 2)

	assert.Equal(t, StateExhausted, out.State)
	assert.Equal(t, "v2", out.Solution.Code)
	assert.Nil(t, out.Halt)
	assert.Contains(t, fake.CallsFor(agents.RoleCorrector)[0].Prompt, "status 500")
}

func TestRefineHaltsOnRateLimit(t *testing.T) {
	t.Run("critic", func(t *testing.T) {
		fake := agenttest.New().Fail(agents.RoleCritiquer, fmt.Errorf("critiquer: %w", llm.ErrRateLimited))
		loop := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer, Corrector: echoCorrector()})

		out := loop.Refine(context.Background(), "task", initial("x"), 3)
		assert.Equal(t, StateExhausted, out.State)
		require.NotNil(t, out.Halt)
		assert.Equal(t, transparency.ErrorCategoryRateLimit, out.Halt.Category)
		assert.Equal(t, "x", out.Solution.Code)
		assert.Equal(t, 1, fake.Count(agents.RoleCritiquer))
	})

	t.Run("corrector", func(t *testing.T) {
		fake := agenttest.New().
			Reply(agents.RoleCritiquer, `{"score": 1}`).
			Fail(agents.RoleCorrector, errors.New("Error code: 429 - RateLimitError"))
		loop := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer})

		out := loop.Refine(context.Background(), "task", initial("x"), 3)
		require.NotNil(t, out.Halt)
		assert.Equal(t, 1, fake.Count(agents.RoleCorrector))
		assert.Equal(t, "x", out.Solution.Code)
	})
}

func TestRefineKeepsSolutionOnEmptyCorrection(t *testing.T) {
	fake := agenttest.New().
		Reply(agents.RoleCritiquer, `{"score": 3}`).
		Reply(agents.RoleCorrector, "   ")
	loop := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer})

	out := loop.Refine(context.Background(), "task", initial("keep"), 2)
	assert.Equal(t, "keep", out.Solution.Code)
	assert.Zero(t, out.Corrections)
}

func TestRefineStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := agenttest.New()
	out := NewLoop(Config{Team: fake, Critic: agents.RoleCritiquer}).Refine(ctx, "task", initial("x"), 3)
	assert.Equal(t, StateExhausted, out.State)
	assert.Empty(t, fake.Calls())
	assert.True(t, out.State.IsTerminal())
}
