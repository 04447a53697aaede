// Package agenttest provides a scripted agents.Exchanger for tests.
package agenttest

import (
	"context"
	"fmt"
	"sync"

	"codesmith/internal/agents"
)

// Handler produces a role's reply to prompt.
type Handler func(prompt string) (string, error)

// Call records one exchange.
type Call struct {
	Role     agents.Role
	Prompt   string
	MaxTurns int
}

// Fake is a scripted Exchanger. Roles without a handler fail.
type Fake struct {
	mu       sync.Mutex
	handlers map[agents.Role]Handler
	calls    []Call
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{handlers: make(map[agents.Role]Handler)}
}

// On installs h for role.
func (f *Fake) On(role agents.Role, h Handler) *Fake {
	f.mu.Lock()
	f.handlers[role] = h
	f.mu.Unlock()
	return f
}

// Reply makes role answer with replies in order, repeating the last one.
func (f *Fake) Reply(role agents.Role, replies ...string) *Fake {
	var (
		mu sync.Mutex
		i  int
	)
	return f.On(role, func(string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			return "", nil
		}
		r := replies[min(i, len(replies)-1)]
		i++
		return r, nil
	})
}

// Fail makes role return err.
func (f *Fake) Fail(role agents.Role, err error) *Fake {
	return f.On(role, func(string) (string, error) { return "", err })
}

// Exchange implements agents.Exchanger.
func (f *Fake) Exchange(ctx context.Context, role agents.Role, prompt string, maxTurns int) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Role: role, Prompt: prompt, MaxTurns: maxTurns})
	h := f.handlers[role]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if h == nil {
		return "", fmt.Errorf("agenttest: no handler for %s", role)
	}
	return h(prompt)
}

// Calls returns every recorded exchange.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor returns the exchanges sent to role.
func (f *Fake) CallsFor(role agents.Role) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many exchanges role received.
func (f *Fake) Count(role agents.Role) int {
	return len(f.CallsFor(role))
}

var _ agents.Exchanger = (*Fake)(nil)
