package critique

import (
	"fmt"
	"strings"

	"codesmith/internal/types"
)

// CritiquePrompt asks the critic to score code against the task.
func CritiquePrompt(task, code string) string {
	return fmt.Sprintf(`Critique this Go implementation. Return JSON only:
{"score": X, "issues": [...], "fixes": [...]}

Task: %s
Code:
%s
`, task, code)
}

// PlanCritiquePrompt is CritiquePrompt with the plan the code implements.
func PlanCritiquePrompt(plan string) func(task, code string) string {
	return func(task, code string) string {
		return fmt.Sprintf(`Critique this Go implementation. Return JSON only:
{"score": X, "issues": [...], "fixes": [...]}

Task: %s
Plan: %s
Code:
%s
`, task, plan, code)
	}
}

// CorrectionPrompt asks for code fixed according to a critique.
func CorrectionPrompt(c Correction) string {
	return fmt.Sprintf(`Fix the code based on issues and improvements suggested.

Task: %s
Code:
%s
Issues: %s
Fixes: %s
%s
Return only the corrected Go code in a `+"```go ... ```"+` block.
`, c.Task, c.Code, formatList(c.Critique.Issues), formatList(c.Critique.Fixes), types.SolutionShape)
}

// PlanCorrectionPrompt is CorrectionPrompt anchored to a plan.
func PlanCorrectionPrompt(plan string) func(Correction) string {
	return func(c Correction) string {
		return fmt.Sprintf(`Fix the code based on issues and improvements suggested.

Plan:
%s
Code:
%s
Issues: %s
Fixes: %s
%s
Return only the corrected Go code in a `+"```go ... ```"+` block.
`, plan, c.Code, formatList(c.Critique.Issues), formatList(c.Critique.Fixes), types.SolutionShape)
	}
}

// FallbackPrompt is used when the critique could not be read.
func FallbackPrompt(c Correction) string {
	p := fmt.Sprintf("Improve the following code for task: %s\nCode: %s", c.Task, c.Code)
	if fb := strings.TrimSpace(c.Feedback); fb != "" {
		p += "\nReviewer feedback: " + fb
	}
	return p + "\n" + types.SolutionShape
}

// formatList renders items as a JSON-like list, ["a", "b"].
func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
