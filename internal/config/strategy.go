package config

import "time"

// StrategyConfig holds the retry caps and thresholds for the reasoning pipelines.
// Each cap is tuned independently.
type StrategyConfig struct {
	// Minimum critique score (0-10) that accepts a solution
	AcceptScore int `yaml:"accept_score" validate:"gte=0,lte=10"`

	// Critique loop budget for the code-first pipeline
	CodeFirstAttempts int `yaml:"code_first_attempts" validate:"gte=1"`

	// Collaborative plan refinement rounds (pseudocode-first, neuro-symbolic)
	RefinementRounds int `yaml:"refinement_rounds" validate:"gte=0"`

	// Critique loop budget after implementing a plan
	ImplementationAttempts int `yaml:"implementation_attempts" validate:"gte=1"`

	// Correction attempts after failed verification
	FinalCorrectionAttempts int `yaml:"final_correction_attempts" validate:"gte=0"`

	// Wall-clock budget for one code-first stage graph run
	FlowTimeout string `yaml:"flow_timeout"`

	// Budget for a single stage within a graph run
	StageTimeout string `yaml:"stage_timeout"`

	// Graph reruns on timeout or empty output
	FlowRetries int `yaml:"flow_retries" validate:"gte=1"`

	// Model turns allowed per exchange (tool calls consume turns)
	ExchangeTurns int `yaml:"exchange_turns" validate:"gte=1"`

	// Model turns allowed for a critique exchange
	CritiqueTurns int `yaml:"critique_turns" validate:"gte=1"`
}

// DefaultStrategyConfig returns the stock retry caps.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		AcceptScore:             8,
		CodeFirstAttempts:       3,
		RefinementRounds:        2,
		ImplementationAttempts:  3,
		FinalCorrectionAttempts: 3,
		FlowTimeout:             "120s",
		StageTimeout:            "60s",
		FlowRetries:             3,
		ExchangeTurns:           3,
		CritiqueTurns:           2,
	}
}

// GetFlowTimeout returns the stage graph budget as a duration.
func (s StrategyConfig) GetFlowTimeout() time.Duration {
	return parseDuration(s.FlowTimeout, 120*time.Second)
}

// GetStageTimeout returns the per-stage budget as a duration.
func (s StrategyConfig) GetStageTimeout() time.Duration {
	return parseDuration(s.StageTimeout, 60*time.Second)
}
