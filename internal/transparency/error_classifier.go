package transparency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codesmith/internal/llm"
)

// ErrorCategory classifies errors for user guidance.
type ErrorCategory int

const (
	// ErrorCategoryRateLimit indicates a provider rate limit or exhausted quota.
	ErrorCategoryRateLimit ErrorCategory = iota

	// ErrorCategoryConfig indicates a configuration issue.
	ErrorCategoryConfig

	// ErrorCategoryAPI indicates any other LLM API error.
	ErrorCategoryAPI

	// ErrorCategoryNetwork indicates a network connectivity issue.
	ErrorCategoryNetwork

	// ErrorCategoryTimeout indicates an operation timeout.
	ErrorCategoryTimeout

	// ErrorCategoryUnknown is the fallback for unclassified errors.
	ErrorCategoryUnknown
)

// RateLimitNotice is shown to the user when a loop stops on a rate limit.
const RateLimitNotice = "Rate limit exceeded. Please add credits or wait for reset."

// Prefix returns the display prefix for this error category.
func (c ErrorCategory) Prefix() string {
	switch c {
	case ErrorCategoryRateLimit:
		return "[RATE LIMIT]"
	case ErrorCategoryConfig:
		return "[CONFIG]"
	case ErrorCategoryAPI:
		return "[API]"
	case ErrorCategoryNetwork:
		return "[NET]"
	case ErrorCategoryTimeout:
		return "[TIMEOUT]"
	default:
		return "[ERROR]"
	}
}

// String returns the category name.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryRateLimit:
		return "rate_limit"
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategoryAPI:
		return "api"
	case ErrorCategoryNetwork:
		return "network"
	case ErrorCategoryTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with classification and remediation.
type ClassifiedError struct {
	Original    error
	Category    ErrorCategory
	Summary     string
	Remediation []string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	return ce.Format()
}

// Unwrap returns the original error for errors.Is/As compatibility.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Original
}

// Halts reports whether the current loop must stop rather than degrade.
func (ce *ClassifiedError) Halts() bool {
	return ce != nil && ce.Category == ErrorCategoryRateLimit
}

// Format returns a user-friendly error message with remediation.
func (ce *ClassifiedError) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s\n\n", ce.Category.Prefix(), ce.Summary))
	sb.WriteString(fmt.Sprintf("Details: %s\n", ce.Original.Error()))

	if len(ce.Remediation) > 0 {
		sb.WriteString("\nSuggested fixes:\n")
		for _, r := range ce.Remediation {
			sb.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}

	return sb.String()
}

// ClassifyError analyzes an error and returns a classified version.
// A nil error classifies to nil.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var already *ClassifiedError
	if errors.As(err, &already) {
		return already
	}

	classified := &ClassifiedError{
		Original: err,
		Category: ErrorCategoryUnknown,
		Summary:  "An unexpected error occurred",
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case llm.IsRateLimit(err) || containsAny(errStr, "quota"):
		classified.Category = ErrorCategoryRateLimit
		classified.Summary = RateLimitNotice

	case errors.Is(err, llm.ErrNoAPIKey) || containsAny(errStr, "config", "configuration", "api key"):
		classified.Category = ErrorCategoryConfig
		classified.Summary = "Configuration issue detected"

	case errors.Is(err, context.DeadlineExceeded) || containsAny(errStr, "timeout", "deadline", "timed out"):
		classified.Category = ErrorCategoryTimeout
		classified.Summary = "Operation timed out"

	case containsAny(errStr, "connection", "network", "dial", "dns", "no such host", "unreachable"):
		classified.Category = ErrorCategoryNetwork
		classified.Summary = "Network connectivity issue"

	case errors.Is(err, llm.ErrEmptyResponse) || containsAny(errStr, "api", "unauthorized", "401", "403", "status"):
		classified.Category = ErrorCategoryAPI
		classified.Summary = "LLM API issue"
	}

	classified.Remediation = GetRecoveryGuide(classified.Category)
	return classified
}

// containsAny returns true if s contains any of the patterns.
func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// GetRecoveryGuide returns remediation steps for an error category.
func GetRecoveryGuide(category ErrorCategory) []string {
	switch category {
	case ErrorCategoryRateLimit:
		return []string{
			"Add credits to your provider account",
			"Wait for the rate limit window to reset",
			"Lower llm.requests_per_second in the config",
		}
	case ErrorCategoryConfig:
		return []string{
			"Set the API key for your provider (OPENROUTER_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY)",
			"Check .smith/config.yaml is valid YAML",
		}
	case ErrorCategoryAPI:
		return []string{
			"Check your API key is valid",
			"Try a different model under models: in the config",
		}
	case ErrorCategoryNetwork:
		return []string{
			"Check your internet connection",
			"Verify llm.base_url is reachable",
		}
	case ErrorCategoryTimeout:
		return []string{
			"Increase llm.timeout or strategy.flow_timeout",
			"Try a simpler task",
		}
	default:
		return []string{"Run with --verbose and check the logs for details"}
	}
}
