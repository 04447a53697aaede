package agents

import (
	"codesmith/internal/config"
	"codesmith/internal/logging"
)

// RoleSpec is a role resolved against configuration.
type RoleSpec struct {
	Role         Role
	Kind         Kind
	Model        string
	SystemPrompt string

	// Tool names the role may call.
	Tools []string
}

// Roster holds one spec per role, indexed by role.
type Roster [roleCount]RoleSpec

// NewRoster resolves every role. researchTools are granted to roles that
// research; pass nil to disable tools.
func NewRoster(models config.ModelsConfig, prompts *PromptLibrary, researchTools []string) Roster {
	var roster Roster
	for _, role := range AllRoles() {
		spec := RoleSpec{
			Role:         role,
			Kind:         role.Kind(),
			Model:        modelFor(models, role.Kind()),
			SystemPrompt: prompts.For(role),
		}
		if role.Researches() && len(researchTools) > 0 {
			spec.Tools = append([]string(nil), researchTools...)
		}
		roster[role] = spec
		logging.AgentsDebug("role %s: kind=%s model=%s tools=%v", role, spec.Kind, spec.Model, spec.Tools)
	}
	return roster
}

// Spec returns the spec for role.
func (r *Roster) Spec(role Role) RoleSpec {
	if !role.Valid() {
		return RoleSpec{Role: role, Kind: KindGeneral}
	}
	return r[role]
}

func modelFor(models config.ModelsConfig, kind Kind) string {
	switch kind {
	case KindCoding:
		return models.Coding
	case KindReasoning:
		return models.Reasoning
	default:
		return models.General
	}
}
