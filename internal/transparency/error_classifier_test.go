package transparency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"codesmith/internal/llm"
)

func TestClassifyErrorRateLimit(t *testing.T) {
	cases := []error{
		fmt.Errorf("openrouter: max retries exceeded: %w", llm.ErrRateLimited),
		errors.New("RateLimitError: slow down"),
		errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"),
		errors.New("monthly quota reached"),
	}
	for _, err := range cases {
		classified := ClassifyError(err)
		if classified.Category != ErrorCategoryRateLimit {
			t.Fatalf("%q: expected rate limit category, got %v", err, classified.Category)
		}
		if !classified.Halts() {
			t.Fatalf("%q: expected rate limit to halt", err)
		}
		if classified.Summary != RateLimitNotice {
			t.Fatalf("unexpected summary %q", classified.Summary)
		}
	}
}

func TestClassifyErrorTimeout(t *testing.T) {
	classified := ClassifyError(fmt.Errorf("codegen: %w", context.DeadlineExceeded))
	if classified.Category != ErrorCategoryTimeout {
		t.Fatalf("expected timeout category, got %v", classified.Category)
	}
	if classified.Halts() {
		t.Fatalf("timeouts degrade, they do not halt")
	}
	if len(classified.Remediation) == 0 {
		t.Fatalf("expected remediation guidance")
	}
	if !strings.Contains(classified.Format(), "[TIMEOUT]") {
		t.Fatalf("expected timeout prefix in formatted output")
	}
}

func TestClassifyErrorConfigAndAPI(t *testing.T) {
	if c := ClassifyError(llm.ErrNoAPIKey); c.Category != ErrorCategoryConfig {
		t.Fatalf("expected config category, got %v", c.Category)
	}
	if c := ClassifyError(errors.New("API request failed with status 500")); c.Category != ErrorCategoryAPI {
		t.Fatalf("expected api category, got %v", c.Category)
	}
	if c := ClassifyError(errors.New("dial tcp: lookup openrouter.ai: no such host")); c.Category != ErrorCategoryNetwork {
		t.Fatalf("expected network category, got %v", c.Category)
	}
}

func TestClassifyErrorPassthrough(t *testing.T) {
	if ClassifyError(nil) != nil {
		t.Fatalf("nil error must classify to nil")
	}
	inner := ClassifyError(llm.ErrRateLimited)
	if again := ClassifyError(fmt.Errorf("wrapped: %w", inner)); again != inner {
		t.Fatalf("expected already classified error to be returned as is")
	}
	if !errors.Is(inner, llm.ErrRateLimited) {
		t.Fatalf("classified error must unwrap to the original")
	}
}

func TestGetRecoveryGuideUnknown(t *testing.T) {
	guide := GetRecoveryGuide(ErrorCategoryUnknown)
	if len(guide) == 0 {
		t.Fatalf("expected fallback recovery guide")
	}
}
