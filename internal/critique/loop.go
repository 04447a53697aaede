package critique

import (
	"context"
	"fmt"
	"strings"

	"codesmith/internal/agents"
	"codesmith/internal/extract"
	"codesmith/internal/logging"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
)

// State is a critique loop state.
type State string

const (
	StateProposed  State = "proposed"
	StateCritiqued State = "critiqued"
	StateAccepted  State = "accepted"
	StateExhausted State = "exhausted"
)

// IsTerminal returns true for Accepted and Exhausted.
func (s State) IsTerminal() bool {
	return s == StateAccepted || s == StateExhausted
}

// DefaultAcceptScore is the lowest accepted critique score.
const DefaultAcceptScore = 8

// Correction is what a Corrector receives.
type Correction struct {
	Task     string
	Code     string
	Critique Critique
	Attempt  int

	// Malformed is set when the critique could not be read; Feedback then
	// holds the raw reply or transport error.
	Malformed bool
	Feedback  string
}

// Corrector produces a revised solution.
type Corrector interface {
	Correct(ctx context.Context, c Correction) (string, error)
}

// CorrectorFunc adapts a function to Corrector.
type CorrectorFunc func(ctx context.Context, c Correction) (string, error)

// Correct calls f.
func (f CorrectorFunc) Correct(ctx context.Context, c Correction) (string, error) {
	return f(ctx, c)
}

// RoleCorrector sends correction prompts to an agent role and extracts code
// from the reply.
type RoleCorrector struct {
	Team agents.Exchanger
	Role agents.Role

	// Prompt builds the correction prompt; nil means CorrectionPrompt.
	Prompt func(Correction) string

	Turns int
}

// NewRoleCorrector corrects through the corrector role.
func NewRoleCorrector(team agents.Exchanger, prompt func(Correction) string) *RoleCorrector {
	return &RoleCorrector{Team: team, Role: agents.RoleCorrector, Prompt: prompt}
}

// Correct implements Corrector.
func (c *RoleCorrector) Correct(ctx context.Context, corr Correction) (string, error) {
	var prompt string
	switch {
	case corr.Malformed:
		prompt = FallbackPrompt(corr)
	case c.Prompt != nil:
		prompt = c.Prompt(corr)
	default:
		prompt = CorrectionPrompt(corr)
	}
	reply, err := c.Team.Exchange(ctx, c.Role, prompt, c.Turns)
	if err != nil {
		return "", err
	}
	return extract.Code(reply), nil
}

// Config configures a Loop.
type Config struct {
	Team   agents.Exchanger
	Critic agents.Role

	Corrector Corrector

	// Role name recorded as the producer of corrected solutions.
	CorrectorName string

	AcceptScore   int
	CritiqueTurns int

	// CritiquePrompt builds the critic prompt; nil means CritiquePrompt.
	CritiquePrompt func(task, code string) string

	Events *transparency.Emitter
}

// Loop refines a solution until a critic accepts it or attempts run out.
type Loop struct {
	cfg Config
}

// NewLoop creates a Loop, filling defaults.
func NewLoop(cfg Config) *Loop {
	if cfg.AcceptScore <= 0 {
		cfg.AcceptScore = DefaultAcceptScore
	}
	if cfg.CritiqueTurns <= 0 {
		cfg.CritiqueTurns = 2
	}
	if cfg.CritiquePrompt == nil {
		cfg.CritiquePrompt = CritiquePrompt
	}
	if cfg.CorrectorName == "" {
		cfg.CorrectorName = agents.RoleCorrector.String()
	}
	if cfg.Corrector == nil {
		cfg.Corrector = NewRoleCorrector(cfg.Team, nil)
	}
	return &Loop{cfg: cfg}
}

// Outcome is the result of Refine.
type Outcome struct {
	Solution types.Solution
	State    State

	// Verdicts in critique order.
	Verdicts    []Verdict
	Corrections int

	// Halt is set when a rate limit stopped the loop.
	Halt *transparency.ClassifiedError
}

// Refine critiques initial up to maxAttempts times. Every rejected critique
// is followed by a correction, so an exhausted loop returns the latest
// corrected solution.
func (l *Loop) Refine(ctx context.Context, task string, initial types.Solution, maxAttempts int) Outcome {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	out := Outcome{Solution: initial, State: StateProposed}
	critic := l.cfg.Critic.String()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			logging.CritiqueWarn("refine cancelled: %v", ctx.Err())
			out.State = StateExhausted
			return out
		}

		current := out.Solution
		out.State = StateCritiqued

		reply, err := l.cfg.Team.Exchange(ctx, l.cfg.Critic, l.cfg.CritiquePrompt(task, current.Code), l.cfg.CritiqueTurns)
		var verdict Verdict
		if err != nil {
			if ce := transparency.ClassifyError(err); ce.Halts() {
				return l.halt(out, critic, ce)
			}
			logging.CritiqueWarn("critic %s failed: %v", critic, err)
			verdict = malformed(err.Error(), err)
		} else {
			verdict = Parse(reply)
		}
		out.Verdicts = append(out.Verdicts, verdict)

		score := verdict.Critique.Score
		out.Solution.Attempt = attempt
		out.Solution.Score = score

		if verdict.Valid() {
			logging.Critique("attempt %d/%d: score %d/10 (%d issues)", attempt, maxAttempts, score, len(verdict.Critique.Issues))
			l.cfg.Events.Info(transparency.CategoryCritique, critic, "Score: %d/10", score)
			if score >= l.cfg.AcceptScore {
				out.Solution.Accepted = true
				out.State = StateAccepted
				l.cfg.Events.Info(transparency.CategoryCritique, critic, "Final score %d/10, solution accepted", score)
				return out
			}
		} else {
			logging.CritiqueWarn("attempt %d/%d: unreadable critique: %v", attempt, maxAttempts, verdict.Cause)
			l.cfg.Events.Warn(transparency.CategoryCritique, critic, "Critique could not be parsed, asking for a general improvement")
		}

		corr := Correction{
			Task:      task,
			Code:      current.Code,
			Critique:  verdict.Critique,
			Attempt:   attempt,
			Malformed: !verdict.Valid(),
		}
		if corr.Malformed {
			corr.Feedback = verdict.Raw
		}

		revised, err := l.cfg.Corrector.Correct(ctx, corr)
		if err != nil {
			if ce := transparency.ClassifyError(err); ce.Halts() {
				return l.halt(out, l.cfg.CorrectorName, ce)
			}
			logging.CritiqueWarn("correction %d failed: %v", attempt, err)
			l.cfg.Events.Warn(transparency.CategoryCritique, l.cfg.CorrectorName, "Correction failed: %v", err)
			continue
		}
		if strings.TrimSpace(revised) == "" {
			logging.CritiqueWarn("correction %d returned nothing", attempt)
			continue
		}

		next := types.NewSolution(current.Strategy, l.cfg.CorrectorName, revised)
		next.Attempt = attempt
		next.Score = score
		out.Solution = next
		out.Corrections++
		logging.CritiqueDebug("correction %d: %d chars", attempt, len(revised))
	}

	out.State = StateExhausted
	logging.Critique("exhausted %d attempts, returning last version", maxAttempts)
	l.cfg.Events.Warn(transparency.CategoryCritique, critic, "Max retries reached, returning last version")
	return out
}

func (l *Loop) halt(out Outcome, source string, ce *transparency.ClassifiedError) Outcome {
	logging.CritiqueWarn("halted by %s: %v", source, ce.Original)
	l.cfg.Events.Fault(transparency.CategoryCritique, source, ce)
	out.State = StateExhausted
	out.Halt = ce
	return out
}

// String summarises the outcome for logs.
func (o Outcome) String() string {
	return fmt.Sprintf("%s after %d critiques, %d corrections, score %d", o.State, len(o.Verdicts), o.Corrections, o.Solution.Score)
}
