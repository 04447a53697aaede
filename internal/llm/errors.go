package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRateLimited marks provider throttling or exhausted quota.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNoAPIKey is returned when a client is built without credentials.
	ErrNoAPIKey = errors.New("API key not configured")

	// ErrEmptyResponse is returned when the provider sends no choices.
	ErrEmptyResponse = errors.New("no completion returned")
)

// rateLimitMarkers are matched case-insensitively against error text. SDK
// errors from different providers only agree on their wording.
var rateLimitMarkers = []string{"ratelimiterror", "429", "rate limit", "resource_exhausted", "too many requests"}

// IsRateLimit reports whether err signals provider throttling.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return isRateLimitText(err.Error())
}

func isRateLimitText(s string) bool {
	s = strings.ToLower(s)
	for _, m := range rateLimitMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// classify wraps provider errors that look like throttling with ErrRateLimited.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrRateLimited) && isRateLimitText(err.Error()) {
		return fmt.Errorf("%s: %w: %v", provider, ErrRateLimited, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}
