// Package engine runs a task end to end: strategy pipeline, generated tests,
// verification and the final correction loop.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"codesmith/internal/agents"
	"codesmith/internal/analyzer"
	"codesmith/internal/config"
	"codesmith/internal/extract"
	"codesmith/internal/logging"
	"codesmith/internal/pipeline"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
	"codesmith/internal/verify"
)

// Notices shown to the user.
const (
	NoticePipelineFailed = "Pipeline failed to generate a solution"
	NoticeNoTests        = "Could not generate test cases, skipping verification"
	NoticeNoCode         = "No valid Go code found"
	NoticeTestsFailed    = "Tests failed, attempting final corrections"
	NoticeCorrected      = "Correction successful"
	NoticeNotCorrected   = "Could not fully correct the code"
)

// Options wires an Engine.
type Options struct {
	Team      agents.Exchanger
	Pipelines *pipeline.Set
	Analyzer  *analyzer.Analyzer
	Verifier  *verify.Verifier
	Strategy  config.StrategyConfig
	Events    *transparency.Emitter
}

// Engine runs tasks. It is safe to reuse across tasks.
type Engine struct {
	opts Options
}

// New creates an Engine.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Report is the result of one Solve.
type Report struct {
	RunID    uuid.UUID
	Strategy types.Strategy
	Task     string
	Solution types.Solution
	Plan     string

	// Verification is nil when tests were skipped or never run.
	Verification *verify.Report
	TestCases    string
	Skipped      bool
	Corrected    bool
	Passed       bool

	Notices []string
	Halt    *transparency.ClassifiedError
	Elapsed time.Duration
}

// HasSolution reports whether the report carries usable code.
func (r *Report) HasSolution() bool {
	return !r.Solution.Sentinel && strings.TrimSpace(r.Solution.Code) != ""
}

func (r *Report) notice(format string, args ...any) {
	r.Notices = append(r.Notices, fmt.Sprintf(format, args...))
}

// Recommend asks the analyzer for a strategy.
func (e *Engine) Recommend(ctx context.Context, task string) analyzer.Recommendation {
	return e.opts.Analyzer.Recommend(ctx, task)
}

// TestPrompt asks the testwriter for cases.
func TestPrompt(task string) string {
	return fmt.Sprintf(`Generate comprehensive test cases for this task.
Return a JSON array of test cases with 'input' and 'expected' fields.
Include edge cases and typical scenarios.
Give 'input' as a JSON array of the function's arguments in order.

Task: %s
`, task)
}

// CorrectionPrompt asks the corrector to fix code against test results.
func CorrectionPrompt(task, code, results string) string {
	return fmt.Sprintf(`Fix this code based on test failures.
Return only the corrected Go code wrapped in `+"```go ... ```"+`.
%s

Task: %s
Current Code: %s
Test Results: %s
`, types.SolutionShape, task, code, results)
}

// Solve runs strategy's pipeline for task, verifies the solution and, when
// tests fail, runs the final correction loop. It never fails; problems are
// recorded as notices.
func (e *Engine) Solve(ctx context.Context, task string, strategy types.Strategy) *Report {
	start := time.Now()
	rep := &Report{RunID: uuid.New(), Strategy: strategy, Task: task}
	defer func() { rep.Elapsed = time.Since(start) }()

	logging.Engine("run %s: %s for %q", rep.RunID, strategy, task)
	e.opts.Events.Info(transparency.CategoryEngine, "engine", "Executing %s pipeline", strategy)

	p, err := e.opts.Pipelines.Get(strategy)
	if err != nil {
		logging.EngineWarn("%v", err)
		rep.Solution = types.SentinelSolution(strategy)
		rep.notice("%s: %v", NoticePipelineFailed, err)
		return rep
	}

	res := p.Run(ctx, task)
	rep.Solution = res.Solution
	rep.Plan = res.Plan
	if res.Halt != nil {
		return e.halt(rep, res.Halt)
	}
	if !rep.HasSolution() {
		e.opts.Events.Warn(transparency.CategoryEngine, "engine", NoticePipelineFailed)
		rep.notice(NoticePipelineFailed)
		return rep
	}

	e.verify(ctx, rep)
	return rep
}

func (e *Engine) verify(ctx context.Context, rep *Report) {
	source := agents.RoleTestWriter.String()
	e.opts.Events.Info(transparency.CategoryVerify, source, "Generating test cases")

	reply, err := e.opts.Team.Exchange(ctx, agents.RoleTestWriter, TestPrompt(rep.Task), e.opts.Strategy.ExchangeTurns)
	if err != nil {
		ce := transparency.ClassifyError(err)
		if ce.Halts() {
			e.halt(rep, ce)
			return
		}
		logging.EngineWarn("testwriter failed: %v", err)
		reply = ""
	}

	cases := strings.TrimSpace(extract.JSON(reply))
	if !strings.ContainsAny(cases, "[{") {
		logging.EngineWarn("no test cases in %d chars", len(reply))
		e.opts.Events.Warn(transparency.CategoryVerify, source, NoticeNoTests)
		rep.notice(NoticeNoTests)
		rep.Skipped = true
		rep.Passed = true
		return
	}
	rep.TestCases = cases
	e.opts.Events.Detail(transparency.CategoryVerify, source, "Test cases generated", cases)

	code := extract.Code(rep.Solution.Code)
	if strings.TrimSpace(code) == "" {
		rep.notice(NoticeNoCode)
		return
	}
	rep.Solution.Code = code

	result := e.opts.Verifier.Run(ctx, code, cases)
	rep.Verification = &result
	e.reportVerification(result)
	if result.AllPassed() {
		rep.Passed = true
		return
	}

	e.opts.Events.Warn(transparency.CategoryEngine, "engine", NoticeTestsFailed)
	rep.notice(NoticeTestsFailed)
	e.correct(ctx, rep, code, result)
}

// correct runs the final correction loop. The latest code carries forward
// between attempts and is kept even when tests still fail.
func (e *Engine) correct(ctx context.Context, rep *Report, code string, result verify.Report) {
	attempts := e.opts.Strategy.FinalCorrectionAttempts
	source := agents.RoleCorrector.String()

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		rep.Corrected = true
		e.opts.Events.Info(transparency.CategoryEngine, source, "Correction attempt %d/%d", attempt, attempts)

		prompt := CorrectionPrompt(rep.Task, code, verify.FormatReport(result))
		reply, err := e.opts.Team.Exchange(ctx, agents.RoleCorrector, prompt, e.opts.Strategy.ExchangeTurns)
		if err != nil {
			ce := transparency.ClassifyError(err)
			if ce.Halts() {
				e.halt(rep, ce)
				return
			}
			logging.EngineWarn("correction %d failed: %v", attempt, err)
			continue
		}

		corrected := extract.Code(reply)
		if strings.TrimSpace(corrected) == "" {
			logging.EngineWarn("correction %d: no code extracted", attempt)
			e.opts.Events.Warn(transparency.CategoryEngine, source, "Could not extract corrected code")
			continue
		}

		result = e.opts.Verifier.Run(ctx, corrected, rep.TestCases)
		code = corrected
		rep.Solution = e.revised(rep.Solution, corrected)
		rep.Verification = &result
		e.reportVerification(result)

		if result.AllPassed() {
			logging.Engine("correction %d passed all tests", attempt)
			e.opts.Events.Info(transparency.CategoryEngine, source, NoticeCorrected)
			rep.notice(NoticeCorrected)
			rep.Passed = true
			return
		}
	}

	logging.EngineWarn("not corrected after %d attempts", attempts)
	e.opts.Events.Warn(transparency.CategoryEngine, source, "%s after %d attempts", NoticeNotCorrected, attempts)
	rep.notice("%s after %d attempts", NoticeNotCorrected, attempts)
}

func (e *Engine) revised(prev types.Solution, code string) types.Solution {
	next := types.NewSolution(prev.Strategy, agents.RoleCorrector.String(), code)
	next.Attempt = prev.Attempt
	next.Score = prev.Score
	next.Accepted = prev.Accepted
	return next
}

func (e *Engine) reportVerification(r verify.Report) {
	summary := fmt.Sprintf("%d/%d tests passed", r.Passed, r.Total)
	if msg, ok := r.Diagnostic(); ok {
		summary = msg
	}
	e.opts.Events.Detail(transparency.CategoryVerify, "verifier", summary, verify.FormatReport(r))
}

func (e *Engine) halt(rep *Report, ce *transparency.ClassifiedError) *Report {
	logging.EngineWarn("run %s halted: %v", rep.RunID, ce.Original)
	e.opts.Events.Fault(transparency.CategoryEngine, "engine", ce)
	rep.Halt = ce
	rep.notice("%s", ce.Summary)
	return rep
}
