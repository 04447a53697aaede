package verify

import (
	"fmt"
	"strings"
)

// TestResult is the outcome of running one test case.
type TestResult struct {
	TestID   int    `json:"test_id"`
	Passed   bool   `json:"passed"`
	Input    any    `json:"input,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`

	// Diagnostic marks a batch-level failure (no callable, evaluation error,
	// undecodable tests) reported in place of per-case results.
	Diagnostic bool `json:"diagnostic,omitempty"`
}

// Report holds the ordered results of one verification run.
type Report struct {
	Results []TestResult `json:"results"`
	Passed  int          `json:"passed"`
	Total   int          `json:"total"`
}

func newReport(results []TestResult) Report {
	r := Report{Results: results, Total: len(results)}
	for _, res := range results {
		if res.Passed {
			r.Passed++
		}
	}
	return r
}

func diagnostic(msg string) Report {
	return newReport([]TestResult{{TestID: 0, Passed: false, Error: msg, Diagnostic: true}})
}

// AllPassed reports whether at least one case ran and every case passed.
func (r Report) AllPassed() bool {
	return r.Total > 0 && r.Passed == r.Total
}

// Diagnostic returns the batch-level failure message, if any.
func (r Report) Diagnostic() (string, bool) {
	if len(r.Results) == 1 && r.Results[0].Diagnostic {
		return r.Results[0].Error, true
	}
	return "", false
}

// Failures returns the results that did not pass, in order.
func (r Report) Failures() []TestResult {
	var out []TestResult
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// FormatReport renders a report the way it is shown to users and fed back
// to the corrector.
func FormatReport(r Report) string {
	var sb strings.Builder
	if len(r.Results) == 0 {
		sb.WriteString("No valid results to display.\n")
		return sb.String()
	}

	for i, res := range r.Results {
		status := "PASSED"
		if !res.Passed {
			status = "FAILED"
		}
		fmt.Fprintf(&sb, "Test %d: %s\n", i+1, status)
		if res.Diagnostic {
			fmt.Fprintf(&sb, "   - Error: %s\n", res.Error)
			continue
		}
		fmt.Fprintf(&sb, "   - Input: %s\n", render(res.Input))
		fmt.Fprintf(&sb, "   - Expected: %s\n", render(res.Expected))
		fmt.Fprintf(&sb, "   - Actual: %s\n", render(res.Actual))
		if res.Error != "" {
			fmt.Fprintf(&sb, "   - Error: %s\n", res.Error)
		}
	}

	rate := 0.0
	if r.Total > 0 {
		rate = float64(r.Passed) / float64(r.Total) * 100
	}
	fmt.Fprintf(&sb, "\nSUMMARY: %d/%d tests passed (%.1f%%)\n", r.Passed, r.Total, rate)
	return sb.String()
}

func render(v any) string {
	if v == nil {
		return "N/A"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}
