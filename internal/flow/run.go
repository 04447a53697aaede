package flow

import (
	"context"
	"fmt"
	"time"

	"codesmith/internal/agents"
	"codesmith/internal/logging"
)

// Message is one stage's output.
type Message struct {
	Stage   string
	Role    agents.Role
	Content string
	Elapsed time.Duration
}

// Trace is the ordered output of a run. On failure it holds the messages
// produced before the failing stage.
type Trace struct {
	Messages []Message
}

// Last returns the last message, if any.
func (t Trace) Last() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// Options configures a run.
type Options struct {
	// Budget for each stage; 0 means only the context deadline applies.
	StageTimeout time.Duration

	// OnMessage observes each message as it is produced.
	OnMessage func(Message)
}

type stageResult struct {
	text string
	err  error
}

// Run executes every stage in order. The first stage error stops the run;
// the trace so far is returned with it.
func (g *Graph) Run(ctx context.Context, team agents.Exchanger, seed string, opts Options) (Trace, error) {
	timer := logging.StartTimer(logging.CategoryFlow, "graph run")
	defer timer.Stop()

	var trace Trace
	ran := make([]int, 0, len(g.stages))

	for _, idx := range g.order {
		stage := g.stages[idx]

		var inputs []Message
		for i, prev := range ran {
			if g.upstream[idx][prev] {
				inputs = append(inputs, trace.Messages[i])
			}
		}
		prompt := stage.Prompt
		if prompt == nil {
			prompt = DefaultPrompt
		}

		start := time.Now()
		text, err := runStage(ctx, team, stage, prompt(seed, inputs), opts.StageTimeout)
		if err != nil {
			logging.FlowWarn("stage %s failed after %v: %v", stage.Name, time.Since(start), err)
			return trace, fmt.Errorf("stage %s: %w", stage.Name, err)
		}

		msg := Message{Stage: stage.Name, Role: stage.Role, Content: text, Elapsed: time.Since(start)}
		ran = append(ran, idx)
		trace.Messages = append(trace.Messages, msg)
		logging.FlowDebug("stage %s done in %v (%d chars)", stage.Name, msg.Elapsed, len(text))
		if opts.OnMessage != nil {
			opts.OnMessage(msg)
		}
	}
	return trace, nil
}

// runStage awaits one exchange, abandoning it when the stage budget or the
// run context ends first.
func runStage(ctx context.Context, team agents.Exchanger, stage Stage, prompt string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan stageResult, 1)
	go func() {
		text, err := team.Exchange(ctx, stage.Role, prompt, stage.Turns)
		done <- stageResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
