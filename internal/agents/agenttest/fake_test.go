package agenttest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesmith/internal/agents"
)

func TestFakeScripts(t *testing.T) {
	boom := errors.New("boom")
	f := New().
		Reply(agents.RoleCodegen, "one", "two").
		Fail(agents.RoleCritiquer, boom).
		On(agents.RoleCorrector, func(p string) (string, error) { return "fixed:" + p, nil })

	ctx := context.Background()
	for _, want := range []string{"one", "two", "two"} {
		got, err := f.Exchange(ctx, agents.RoleCodegen, "p", 3)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := f.Exchange(ctx, agents.RoleCritiquer, "c", 2)
	assert.ErrorIs(t, err, boom)

	got, err := f.Exchange(ctx, agents.RoleCorrector, "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "fixed:x", got)

	_, err = f.Exchange(ctx, agents.RoleReasoner, "r", 1)
	assert.Error(t, err)

	assert.Equal(t, 3, f.Count(agents.RoleCodegen))
	assert.Equal(t, 2, f.CallsFor(agents.RoleCritiquer)[0].MaxTurns)
	assert.Len(t, f.Calls(), 6)
}
