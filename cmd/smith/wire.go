package main

import (
	"context"
	"fmt"

	"codesmith/internal/agents"
	"codesmith/internal/analyzer"
	"codesmith/internal/config"
	"codesmith/internal/engine"
	"codesmith/internal/llm"
	"codesmith/internal/pipeline"
	"codesmith/internal/tools"
	"codesmith/internal/tools/research"
	"codesmith/internal/transparency"
	"codesmith/internal/verify"
)

// buildEngine wires the transport, tools, team and pipelines from cfg.
func buildEngine(ctx context.Context, cfg *config.Config, events *transparency.Emitter) (*engine.Engine, error) {
	client, err := llm.NewClient(ctx, cfg.LLM, cfg.GetLLMTimeout())
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	return newEngine(cfg, client, events)
}

func newEngine(cfg *config.Config, client llm.Client, events *transparency.Emitter) (*engine.Engine, error) {
	registry := tools.NewRegistry()
	var researchTools []string
	if cfg.Search.Enabled {
		searcher := research.NewSearcher(cfg.Search.MaxResults, cfg.GetSearchTimeout())
		if err := research.RegisterAll(registry, searcher); err != nil {
			return nil, fmt.Errorf("register research tools: %w", err)
		}
		researchTools = registry.Names()
	}

	roster := agents.NewRoster(cfg.Models, agents.NewPromptLibrary(cfg.Prompts.Dir), researchTools)
	team := agents.NewTeam(client, roster, registry, agents.TeamOptions{
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
		DefaultTurns: cfg.Strategy.ExchangeTurns,
	})

	set, err := pipeline.NewSet(pipeline.Deps{Team: team, Strategy: cfg.Strategy, Events: events})
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Options{
		Team:      team,
		Pipelines: set,
		Analyzer:  analyzer.New(team, cfg.Strategy.ExchangeTurns, events),
		Verifier: verify.New(verify.Options{
			CaseTimeout:    cfg.GetCaseTimeout(),
			AllowedImports: cfg.Verifier.AllowedImports,
		}),
		Strategy: cfg.Strategy,
		Events:   events,
	}), nil
}
