package main

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"codesmith/internal/analyzer"
	"codesmith/internal/engine"
	"codesmith/internal/types"
)

// DefaultTask is used when the user enters nothing.
const DefaultTask = "Create a Go function that finds the longest palindromic substring in a given string."

// solver is the part of the engine the session drives.
type solver interface {
	Recommend(ctx context.Context, task string) analyzer.Recommendation
	Solve(ctx context.Context, task string, strategy types.Strategy) *engine.Report
}

// session runs one interactive task.
type session struct {
	in     InputReader
	view   *view
	solver solver
	log    *zap.Logger
}

var menuChoices = map[string]types.Strategy{
	"1": types.CodeFirst,
	"2": types.PseudocodeFirst,
	"3": types.NeuroSymbolic,
}

func (s *session) run(ctx context.Context) (*engine.Report, error) {
	s.view.banner()

	task, err := s.in.ReadLine("Enter your programming task (or press Enter for default): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	task = strings.TrimSpace(task)
	if task == "" {
		task = DefaultTask
	}
	s.view.task(task)
	s.log.Info("task received", zap.String("task", task))

	s.view.heading(1, "Analyzing task complexity")
	rec := s.solver.Recommend(ctx, task)
	s.view.recommendation(rec)
	if rec.Halt != nil {
		s.log.Warn("analysis halted", zap.Error(rec.Halt))
		return nil, nil
	}

	strategy, err := s.chooseStrategy(rec.Strategy)
	if err != nil {
		return nil, err
	}
	s.view.selected(strategy)
	s.log.Info("strategy selected",
		zap.Stringer("strategy", strategy),
		zap.Stringer("recommended", rec.Strategy))

	s.view.heading(2, "Executing reasoning pipeline")
	rep := s.solver.Solve(ctx, task, strategy)
	s.log.Info("run finished",
		zap.Stringer("run", rep.RunID),
		zap.Bool("passed", rep.Passed),
		zap.Bool("corrected", rep.Corrected),
		zap.Duration("elapsed", rep.Elapsed))

	s.view.report(rep)
	return rep, nil
}

// chooseStrategy reads 1, 2 or 3. Enter or end of input keeps the
// recommendation.
func (s *session) chooseStrategy(recommended types.Strategy) (types.Strategy, error) {
	s.view.strategyMenu(recommended)
	for {
		line, err := s.in.ReadLine("Enter your choice [1, 2, 3] or press Enter to accept recommendation: ")
		if errors.Is(err, io.EOF) {
			return recommended, nil
		}
		if err != nil {
			return recommended, err
		}

		choice := strings.TrimSpace(line)
		if choice == "" {
			return recommended, nil
		}
		if st, ok := menuChoices[choice]; ok {
			return st, nil
		}
		s.view.invalidChoice()
	}
}
