package analyzer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesmith/internal/agents"
	"codesmith/internal/agents/agenttest"
	"codesmith/internal/llm"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    Recommendation
		wantErr bool
	}{
		{
			name:  "plain object",
			reply: `{"reasoning_strategy": "PSEUDOCODE_FIRST", "complexity": 6, "explanation": "needs a plan"}`,
			want:  Recommendation{Strategy: types.PseudocodeFirst, Complexity: 6, Explanation: "needs a plan"},
		},
		{
			name:  "wrapped in prose and fence",
			reply: "Sure!\n```json\n{\"reasoning_strategy\": \"neuro_symbolic\", \"complexity\": \"8/10\", \"explanation\": \"logic heavy\"}\n```",
			want:  Recommendation{Strategy: types.NeuroSymbolic, Complexity: 8, Explanation: "logic heavy"},
		},
		{
			name:  "strategy alias",
			reply: `{"strategy": "code first", "complexity": 2, "explanation": "short"}`,
			want:  Recommendation{Strategy: types.CodeFirst, Complexity: 2, Explanation: "short"},
		},
		{
			name:  "complexity clamped",
			reply: `{"reasoning_strategy": "CODE_FIRST", "complexity": 42, "explanation": "x"}`,
			want:  Recommendation{Strategy: types.CodeFirst, Complexity: 10, Explanation: "x"},
		},
		{
			name:  "trailing comma repaired",
			reply: `{"reasoning_strategy": "PSEUDOCODE_FIRST", "complexity": 0, "explanation": "y",}`,
			want:  Recommendation{Strategy: types.PseudocodeFirst, Complexity: 1, Explanation: "y"},
		},
		{name: "gibberish", reply: "asdf qwerty", want: Default(), wantErr: true},
		{name: "unknown strategy", reply: `{"reasoning_strategy": "GUESS", "complexity": 5}`, want: Default(), wantErr: true},
		{name: "missing strategy", reply: `{"complexity": 5}`, want: Default(), wantErr: true},
		{name: "missing complexity", reply: `{"reasoning_strategy": "CODE_FIRST"}`, want: Default(), wantErr: true},
		{name: "missing explanation", reply: `{"reasoning_strategy": "NEURO_SYMBOLIC", "complexity": 7}`, want: Default(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecommendGibberishFallsBack(t *testing.T) {
	fake := agenttest.New().Reply(agents.RoleTaskAnalyzer, "I like turtles")

	rec := New(fake, 0, nil).Recommend(context.Background(), "reverse a string")

	assert.Equal(t, types.CodeFirst, rec.Strategy)
	assert.Equal(t, 3, rec.Complexity)
	assert.Equal(t, "Default fallback", rec.Explanation)
	assert.True(t, rec.Fallback)
	assert.Nil(t, rec.Halt)
}

func TestRecommendSendsTask(t *testing.T) {
	fake := agenttest.New().Reply(agents.RoleTaskAnalyzer,
		`{"reasoning_strategy": "NEURO_SYMBOLIC", "complexity": 7, "explanation": "constraints"}`)
	rec := &transparency.Recorder{}

	got := New(fake, 2, transparency.NewEmitter(rec)).Recommend(context.Background(), "solve sudoku")

	assert.Equal(t, types.NeuroSymbolic, got.Strategy)
	assert.False(t, got.Fallback)

	calls := fake.CallsFor(agents.RoleTaskAnalyzer)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Task: solve sudoku")
	assert.Equal(t, 2, calls[0].MaxTurns)
	assert.Contains(t, rec.Summaries(transparency.CategoryAnalyzer), "Recommended NEURO_SYMBOLIC (complexity 7/10)")
}

func TestRecommendTransportErrors(t *testing.T) {
	t.Run("degrades", func(t *testing.T) {
		fake := agenttest.New().Fail(agents.RoleTaskAnalyzer, errors.New("dial tcp: no such host"))
		rec := New(fake, 0, nil).Recommend(context.Background(), "task")
		assert.Equal(t, Default(), rec)
	})

	t.Run("rate limit is reported", func(t *testing.T) {
		fake := agenttest.New().Fail(agents.RoleTaskAnalyzer, fmt.Errorf("task_analyzer: %w", llm.ErrRateLimited))
		rec := New(fake, 0, nil).Recommend(context.Background(), "task")
		assert.Equal(t, types.CodeFirst, rec.Strategy)
		require.NotNil(t, rec.Halt)
		assert.Equal(t, transparency.RateLimitNotice, rec.Halt.Summary)
	})
}
