// Package agents binds named roles to models, system prompts and tools, and
// runs prompt exchanges against them.
//
// The role set is closed. Every role is resolved once at startup into a
// RoleSpec held by a Roster; a Team pairs the roster with a chat client and
// the tool registry and is passed explicitly to every pipeline.
package agents

import (
	"fmt"
	"strings"
)

// Role identifies an agent role.
type Role int

const (
	RoleTaskAnalyzer Role = iota
	RoleCodegen
	RoleCritiquer
	RoleTestWriter
	RoleCorrector
	RoleReasoner
	RoleQuickReasoner
	RoleLogicalReasoner
	RoleSymbolicReasoner

	roleCount
)

// Kind selects which configured model serves a role.
type Kind string

const (
	KindReasoning Kind = "reasoning"
	KindCoding    Kind = "coding"
	KindGeneral   Kind = "general"
)

// AllRoles returns every role in declaration order.
func AllRoles() []Role {
	roles := make([]Role, 0, roleCount)
	for r := Role(0); r < roleCount; r++ {
		roles = append(roles, r)
	}
	return roles
}

// String returns the role's stable name.
func (r Role) String() string {
	switch r {
	case RoleTaskAnalyzer:
		return "task_analyzer"
	case RoleCodegen:
		return "codegen"
	case RoleCritiquer:
		return "critiquer"
	case RoleTestWriter:
		return "testwriter"
	case RoleCorrector:
		return "corrector"
	case RoleReasoner:
		return "reasoner"
	case RoleQuickReasoner:
		return "quick_reasoner"
	case RoleLogicalReasoner:
		return "logical_reasoner"
	case RoleSymbolicReasoner:
		return "symbolic_reasoner"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r >= 0 && r < roleCount
}

// Kind returns the model kind the role runs on.
func (r Role) Kind() Kind {
	switch r {
	case RoleCodegen, RoleTestWriter, RoleCorrector:
		return KindCoding
	case RoleTaskAnalyzer, RoleCritiquer, RoleReasoner, RoleQuickReasoner,
		RoleLogicalReasoner, RoleSymbolicReasoner:
		return KindReasoning
	default:
		return KindGeneral
	}
}

// Researches reports whether the role may use research tools.
func (r Role) Researches() bool {
	switch r {
	case RoleReasoner, RoleQuickReasoner, RoleLogicalReasoner, RoleSymbolicReasoner:
		return true
	default:
		return false
	}
}

// promptName is the prompt file stem for the role.
func (r Role) promptName() string {
	if r == RoleTestWriter {
		return "testcase"
	}
	return r.String()
}

// ParseRole resolves a role by name.
func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range AllRoles() {
		if r.String() == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}
