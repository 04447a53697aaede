package agents

import (
	"context"
	"fmt"
	"time"

	"codesmith/internal/llm"
	"codesmith/internal/tools"
)

// Exchanger sends a prompt to a role and returns its reply.
type Exchanger interface {
	Exchange(ctx context.Context, role Role, prompt string, maxTurns int) (string, error)
}

// TeamOptions tunes every agent in a team.
type TeamOptions struct {
	Temperature float64
	MaxTokens   int

	// Turns used when an exchange asks for maxTurns <= 0.
	DefaultTurns int

	ToolTimeout time.Duration
}

// Team is the set of agents for one run. Read-only after construction.
type Team struct {
	agents       [roleCount]*Agent
	defaultTurns int
}

// NewTeam builds one agent per roster entry. registry may be nil.
func NewTeam(client llm.Client, roster Roster, registry *tools.Registry, opts TeamOptions) *Team {
	if opts.DefaultTurns <= 0 {
		opts.DefaultTurns = 3
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = 30 * time.Second
	}
	t := &Team{defaultTurns: opts.DefaultTurns}
	for _, role := range AllRoles() {
		t.agents[role] = &Agent{
			spec:        roster[role],
			client:      client,
			registry:    registry,
			temperature: opts.Temperature,
			maxTokens:   opts.MaxTokens,
			toolTimeout: opts.ToolTimeout,
		}
	}
	return t
}

// Agent returns the agent for role, or nil for an unknown role.
func (t *Team) Agent(role Role) *Agent {
	if !role.Valid() {
		return nil
	}
	return t.agents[role]
}

// Exchange implements Exchanger.
func (t *Team) Exchange(ctx context.Context, role Role, prompt string, maxTurns int) (string, error) {
	a := t.Agent(role)
	if a == nil {
		return "", fmt.Errorf("no agent for %s", role)
	}
	if maxTurns <= 0 {
		maxTurns = t.defaultTurns
	}
	return a.Exchange(ctx, prompt, maxTurns)
}
