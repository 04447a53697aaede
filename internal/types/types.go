// Package types holds the domain values shared by the orchestration packages.
package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Strategy selects a reasoning pipeline.
type Strategy int

const (
	CodeFirst Strategy = iota
	PseudocodeFirst
	NeuroSymbolic
)

// Strategies lists every strategy in menu order.
var Strategies = []Strategy{CodeFirst, PseudocodeFirst, NeuroSymbolic}

func (s Strategy) String() string {
	switch s {
	case CodeFirst:
		return "CODE_FIRST"
	case PseudocodeFirst:
		return "PSEUDOCODE_FIRST"
	case NeuroSymbolic:
		return "NEURO_SYMBOLIC"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts CODE_FIRST style names case-insensitively, with
// spaces or dashes in place of underscores.
func ParseStrategy(s string) (Strategy, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, st := range Strategies {
		if st.String() == norm {
			return st, nil
		}
	}
	return CodeFirst, fmt.Errorf("unknown strategy %q", s)
}

// NoCodeSentinel is the placeholder solution for a pipeline that produced nothing.
const NoCodeSentinel = "// No code returned."

// SolutionShape tells a code-writing role how verification calls its code.
const SolutionShape = "Write the solution as one exported top-level Go function; verification calls it with the test inputs as arguments. A func main is optional and never runs."

// Solution is a candidate program and where it came from.
type Solution struct {
	ID       uuid.UUID
	Code     string
	Strategy Strategy

	// Role name of the agent that produced the final code.
	Producer string

	// Critique rounds spent; Score is the last critique score.
	Attempt  int
	Score    int
	Accepted bool

	// Sentinel marks total pipeline failure.
	Sentinel bool
}

// NewSolution creates a solution with a fresh id.
func NewSolution(strategy Strategy, producer, code string) Solution {
	return Solution{ID: uuid.New(), Code: code, Strategy: strategy, Producer: producer}
}

// SentinelSolution is returned when a pipeline fails outright.
func SentinelSolution(strategy Strategy) Solution {
	s := NewSolution(strategy, "", NoCodeSentinel)
	s.Sentinel = true
	return s
}
