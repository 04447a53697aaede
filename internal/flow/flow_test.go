package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codesmith/internal/agents"
	"codesmith/internal/agents/agenttest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// blockingExchanger waits for its context to end.
type blockingExchanger struct{}

func (blockingExchanger) Exchange(ctx context.Context, role agents.Role, prompt string, maxTurns int) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestBuildOrdersStages(t *testing.T) {
	g, err := NewBuilder().
		AddStage(Stage{Name: "fix", Role: agents.RoleCorrector}).
		AddStage(Stage{Role: agents.RoleCodegen}).
		AddStage(Stage{Name: "review", Role: agents.RoleCritiquer}).
		AddStage(Stage{Name: "notes", Role: agents.RoleReasoner}).
		AddEdge("codegen", "review").
		AddEdge("review", "fix").
		Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"codegen", "review", "fix", "notes"}, g.Order())
}

func TestBuildRejectsBadGraphs(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.Error(t, err)

	_, err = NewBuilder().
		AddStage(Stage{Name: "a", Role: agents.RoleCodegen}).
		AddStage(Stage{Name: "a", Role: agents.RoleCritiquer}).
		Build()
	assert.ErrorContains(t, err, "duplicate stage")

	_, err = NewBuilder().
		AddStage(Stage{Name: "a", Role: agents.RoleCodegen}).
		AddEdge("a", "b").
		Build()
	assert.ErrorContains(t, err, "unknown stage")

	_, err = NewBuilder().
		AddStage(Stage{Name: "a", Role: agents.RoleCodegen}).
		AddStage(Stage{Name: "b", Role: agents.RoleCritiquer}).
		AddEdge("a", "b").
		AddEdge("b", "a").
		Build()
	assert.ErrorContains(t, err, "cycle")

	_, err = NewBuilder().AddStage(Stage{Name: "x", Role: agents.Role(50)}).Build()
	assert.ErrorContains(t, err, "invalid role")
}

func TestRunPassesUpstreamMessages(t *testing.T) {
	fake := agenttest.New().
		Reply(agents.RoleCodegen, "```go\nfunc A() int { return 1 }\n```").
		Reply(agents.RoleCritiquer, "looks fine").
		On(agents.RoleCorrector, func(p string) (string, error) { return "final", nil })

	g, err := NewBuilder().Chain(
		Stage{Role: agents.RoleCodegen, Turns: 1},
		Stage{Role: agents.RoleCritiquer},
		Stage{Role: agents.RoleCorrector},
	).Build()
	require.NoError(t, err)

	var seen []string
	trace, err := g.Run(context.Background(), fake, "Task: A", Options{
		StageTimeout: time.Second,
		OnMessage:    func(m Message) { seen = append(seen, m.Stage) },
	})
	require.NoError(t, err)

	require.Len(t, trace.Messages, 3)
	assert.Equal(t, []string{"codegen", "critiquer", "corrector"}, seen)
	last, ok := trace.Last()
	require.True(t, ok)
	assert.Equal(t, "final", last.Content)

	calls := fake.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "Task: A", calls[0].Prompt)
	assert.Equal(t, 1, calls[0].MaxTurns)
	assert.True(t, strings.HasPrefix(calls[1].Prompt, "Task: A\n\n--- codegen (codegen) ---\n```go"))
	assert.Contains(t, calls[2].Prompt, "--- codegen (codegen) ---\n```go\nfunc A() int { return 1 }")
	assert.Contains(t, calls[2].Prompt, "--- critiquer (critiquer) ---\nlooks fine")
	assert.Less(t, strings.Index(calls[2].Prompt, "func A()"), strings.Index(calls[2].Prompt, "looks fine"))
}

func TestRunPassesOnlyUpstreamBranches(t *testing.T) {
	fake := agenttest.New().
		Reply(agents.RoleCodegen, "draft").
		Reply(agents.RoleReasoner, "side notes").
		Reply(agents.RoleCritiquer, "review").
		Reply(agents.RoleCorrector, "final")

	g, err := NewBuilder().
		AddStage(Stage{Role: agents.RoleCodegen}).
		AddStage(Stage{Role: agents.RoleReasoner}).
		AddStage(Stage{Role: agents.RoleCritiquer}).
		AddStage(Stage{Role: agents.RoleCorrector}).
		AddEdge("codegen", "critiquer").
		AddEdge("critiquer", "corrector").
		Build()
	require.NoError(t, err)

	_, err = g.Run(context.Background(), fake, "seed", Options{})
	require.NoError(t, err)

	corrector := fake.CallsFor(agents.RoleCorrector)
	require.Len(t, corrector, 1)
	assert.Contains(t, corrector[0].Prompt, "draft")
	assert.Contains(t, corrector[0].Prompt, "review")
	assert.NotContains(t, corrector[0].Prompt, "side notes")
}

func TestRunCustomPrompt(t *testing.T) {
	fake := agenttest.New().On(agents.RoleReasoner, func(p string) (string, error) { return strings.ToUpper(p), nil })
	g, err := NewBuilder().AddStage(Stage{
		Role:   agents.RoleReasoner,
		Prompt: func(seed string, _ []Message) string { return "plan: " + seed },
	}).Build()
	require.NoError(t, err)

	trace, err := g.Run(context.Background(), fake, "x", Options{})
	require.NoError(t, err)
	assert.Equal(t, "PLAN: X", trace.Messages[0].Content)
}

func TestRunReturnsPartialTraceOnError(t *testing.T) {
	boom := errors.New("boom")
	fake := agenttest.New().
		Reply(agents.RoleCodegen, "code").
		Fail(agents.RoleCritiquer, boom)

	g, err := NewBuilder().Chain(
		Stage{Role: agents.RoleCodegen},
		Stage{Role: agents.RoleCritiquer},
		Stage{Role: agents.RoleCorrector},
	).Build()
	require.NoError(t, err)

	trace, err := g.Run(context.Background(), fake, "seed", Options{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "stage critiquer")
	require.Len(t, trace.Messages, 1)
	assert.Equal(t, "code", trace.Messages[0].Content)
	assert.Zero(t, fake.Count(agents.RoleCorrector))
}

func TestRunStageTimeout(t *testing.T) {
	g, err := NewBuilder().AddStage(Stage{Role: agents.RoleCodegen}).Build()
	require.NoError(t, err)

	start := time.Now()
	_, err = g.Run(context.Background(), blockingExchanger{}, "seed", Options{StageTimeout: 20 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunHonoursRunDeadline(t *testing.T) {
	g, err := NewBuilder().Chain(
		Stage{Role: agents.RoleCodegen},
		Stage{Role: agents.RoleCritiquer},
	).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	trace, err := g.Run(ctx, blockingExchanger{}, "seed", Options{StageTimeout: time.Minute})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, trace.Messages)
}
