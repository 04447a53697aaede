// Package flow runs a fixed graph of agent stages.
//
// A Graph is built once from named stages and dependency edges and runs its
// stages one at a time in topological order. Each stage sends a prompt to
// its role; the prompt is built from the seed text and the messages of every
// stage upstream of it, directly or transitively, in execution order.
package flow

import (
	"errors"
	"fmt"
	"strings"

	"codesmith/internal/agents"
)

// PromptFunc builds a stage prompt from the seed and upstream messages.
// Inputs are ordered as the stages ran.
type PromptFunc func(seed string, inputs []Message) string

// Stage is one node of the graph.
type Stage struct {
	Name string
	Role agents.Role

	// Model turns for the exchange; 0 uses the team default.
	Turns int

	// Prompt builds the stage prompt; nil means DefaultPrompt.
	Prompt PromptFunc
}

// Graph is a validated, acyclic stage graph.
type Graph struct {
	stages []Stage
	deps   [][]int
	order  []int

	// upstream[i][j] reports whether stage j precedes stage i on some path.
	upstream [][]bool
}

// Builder assembles a Graph.
type Builder struct {
	stages []Stage
	index  map[string]int
	edges  [][2]string
	errs   []error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// AddStage adds a stage. Names must be unique; an empty name uses the role name.
func (b *Builder) AddStage(s Stage) *Builder {
	if s.Name == "" {
		s.Name = s.Role.String()
	}
	if _, dup := b.index[s.Name]; dup {
		b.errs = append(b.errs, fmt.Errorf("duplicate stage %q", s.Name))
		return b
	}
	if !s.Role.Valid() {
		b.errs = append(b.errs, fmt.Errorf("stage %q: invalid role %s", s.Name, s.Role))
		return b
	}
	b.index[s.Name] = len(b.stages)
	b.stages = append(b.stages, s)
	return b
}

// AddEdge makes to depend on from.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.edges = append(b.edges, [2]string{from, to})
	return b
}

// Chain adds stages and links each to the next.
func (b *Builder) Chain(stages ...Stage) *Builder {
	prev := ""
	for _, s := range stages {
		b.AddStage(s)
		name := s.Name
		if name == "" {
			name = s.Role.String()
		}
		if prev != "" {
			b.AddEdge(prev, name)
		}
		prev = name
	}
	return b
}

// Build validates the graph and fixes its execution order.
func (b *Builder) Build() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if len(b.stages) == 0 {
		return nil, errors.New("graph has no stages")
	}

	g := &Graph{
		stages: append([]Stage(nil), b.stages...),
		deps:   make([][]int, len(b.stages)),
	}
	for _, e := range b.edges {
		from, ok := b.index[e[0]]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown stage %q", e[0], e[1], e[0])
		}
		to, ok := b.index[e[1]]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown stage %q", e[0], e[1], e[1])
		}
		if from == to {
			return nil, fmt.Errorf("stage %q depends on itself", e[0])
		}
		g.deps[to] = append(g.deps[to], from)
	}

	order, err := topoSort(len(g.stages), g.deps)
	if err != nil {
		return nil, err
	}
	g.order = order
	g.upstream = ancestors(order, g.deps)
	return g, nil
}

// ancestors computes the transitive dependencies of every stage. order must
// be topological so a stage's dependencies are complete before it is visited.
func ancestors(order []int, deps [][]int) [][]bool {
	up := make([][]bool, len(deps))
	for _, idx := range order {
		up[idx] = make([]bool, len(deps))
		for _, dep := range deps[idx] {
			up[idx][dep] = true
			for j, ok := range up[dep] {
				if ok {
					up[idx][j] = true
				}
			}
		}
	}
	return up
}

// topoSort is Kahn's algorithm; ties go to the stage added first.
func topoSort(n int, deps [][]int) ([]int, error) {
	indegree := make([]int, n)
	next := make([][]int, n)
	for to, froms := range deps {
		for _, from := range froms {
			indegree[to]++
			next[from] = append(next[from], to)
		}
	}

	var ready []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		for _, to := range next[cur] {
			indegree[to]--
			if indegree[to] == 0 {
				ready = insertSorted(ready, to)
			}
		}
	}
	if len(order) != n {
		return nil, errors.New("graph has a cycle")
	}
	return order, nil
}

func insertSorted(s []int, v int) []int {
	i := 0
	for i < len(s) && s[i] < v {
		i++
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// Order returns stage names in execution order.
func (g *Graph) Order() []string {
	names := make([]string, len(g.order))
	for i, idx := range g.order {
		names[i] = g.stages[idx].Name
	}
	return names
}

// DefaultPrompt gives a stage the seed followed by its inputs as a shared
// transcript.
func DefaultPrompt(seed string, inputs []Message) string {
	if len(inputs) == 0 {
		return seed
	}
	var sb strings.Builder
	sb.WriteString(seed)
	for _, m := range inputs {
		fmt.Fprintf(&sb, "\n\n--- %s (%s) ---\n%s", m.Stage, m.Role, m.Content)
	}
	return sb.String()
}
