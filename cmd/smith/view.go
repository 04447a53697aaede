package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"codesmith/internal/analyzer"
	"codesmith/internal/engine"
	"codesmith/internal/transparency"
	"codesmith/internal/types"
)

const ruleWidth = 70

var (
	accent  = lipgloss.Color("#8BC34A")
	warning = lipgloss.Color("#FFC107")
	danger  = lipgloss.Color("#e53935")
	info    = lipgloss.Color("#2196F3")
	muted   = lipgloss.Color("#6b7280")
)

// styles for terminal output. The zero value renders plain text.
type styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Label   lipgloss.Style
}

func colorStyles() styles {
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Heading: lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		Success: lipgloss.NewStyle().Foreground(accent),
		Warning: lipgloss.NewStyle().Foreground(warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(danger),
		Info:    lipgloss.NewStyle().Foreground(info),
		Label:   lipgloss.NewStyle().Bold(true),
	}
}

func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{Title: s, Heading: s, Muted: s, Success: s, Warning: s, Error: s, Info: s, Label: s}
}

// view writes the interactive session to a terminal or plain stream.
type view struct {
	mu       sync.Mutex
	out      io.Writer
	styles   styles
	renderer *glamour.TermRenderer
	verbose  bool
}

// newView builds a view. With color, code is rendered through glamour.
func newView(out io.Writer, color, verbose bool) *view {
	v := &view{out: out, styles: plainStyles(), verbose: verbose}
	if color {
		v.styles = colorStyles()
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
			v.renderer = r
		}
	}
	return v
}

func (v *view) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *view) rule(ch string) string {
	return v.styles.Muted.Render(strings.Repeat(ch, ruleWidth))
}

func (v *view) banner() {
	v.printf("%s\n%s\n", v.styles.Title.Render("codesmith: multi-strategy code generation"), v.rule("="))
}

func (v *view) heading(step int, title string) {
	v.printf("\n%s\n", v.styles.Heading.Render(fmt.Sprintf("%d. %s", step, title)))
}

func (v *view) task(task string) {
	v.printf("\n%s %s\n%s\n", v.styles.Label.Render("Task:"), task, v.rule("="))
}

func (v *view) recommendation(rec analyzer.Recommendation) {
	explanation := rec.Explanation
	if explanation == "" {
		explanation = "N/A"
	}
	v.printf("Analysis results:\n   - Strategy: %s\n   - Complexity: %d/10\n   - Reasoning: %s\n",
		rec.Strategy, rec.Complexity, explanation)
	if rec.Halt != nil {
		v.printf("%s\n", v.styles.Error.Render(rec.Halt.Summary))
	}
}

func (v *view) strategyMenu(recommended types.Strategy) {
	v.printf("\n%s\n%s\n", v.styles.Heading.Render("Choose a reasoning strategy"), v.rule("-"))
	v.printf("Recommended: [%s]\n", recommended)
	v.printf("1: Code-First (Simple, direct tasks)\n")
	v.printf("2: Pseudocode-First (Medium, algorithmic tasks)\n")
	v.printf("3: Neuro-Symbolic (Complex, critical tasks)\n")
}

func (v *view) invalidChoice() {
	v.printf("%s\n", v.styles.Warning.Render("Invalid choice. Please enter 1, 2, or 3."))
}

func (v *view) selected(st types.Strategy) {
	v.printf("\n%s [%s]\n", v.styles.Success.Render("Selected strategy:"), st)
}

// Emit implements transparency.Sink.
func (v *view) Emit(e transparency.Event) {
	style := v.styles.Info
	switch e.Level {
	case transparency.LevelWarn:
		style = v.styles.Warning
	case transparency.LevelError:
		style = v.styles.Error
	}
	line := style.Render(e.Category.DisplayPrefix()) + " " + e.Summary
	if e.Source != "" {
		line += " " + v.styles.Muted.Render("("+e.Source+")")
	}
	v.printf("%s\n", line)

	if e.HasDetails() && (v.verbose || e.Category == transparency.CategoryVerify) {
		v.printf("%s\n", indent(e.Details, "    "))
	}
}

func (v *view) report(rep *engine.Report) {
	v.printf("\n%s\n%s\n%s\n", v.rule("="), v.styles.Title.Render("FINAL RESULTS"), v.rule("="))
	v.printf("%s [%s]\n", v.styles.Label.Render("Strategy Used:"), rep.Strategy)
	v.printf("%s %s\n", v.styles.Label.Render("Task:"), rep.Task)
	v.printf("%s %s\n", v.styles.Label.Render("Tests:"), v.testStatus(rep))
	for _, n := range rep.Notices {
		v.printf("%s %s\n", v.styles.Warning.Render("!"), n)
	}

	v.printf("\n%s\n%s\n", v.styles.Success.Render("Final Solution:"), v.rule("-"))
	if rep.HasSolution() {
		v.printf("%s\n", v.code(rep.Solution.Code))
	} else {
		v.printf("%s\n", v.styles.Error.Render("No valid solution was generated"))
	}
	v.printf("%s\n", v.rule("-"))
	if v.verbose {
		v.printf("%s\n", v.styles.Muted.Render(fmt.Sprintf("run %s in %s", rep.RunID, rep.Elapsed.Round(time.Millisecond))))
	}
}

func (v *view) testStatus(rep *engine.Report) string {
	switch {
	case rep.Skipped:
		return v.styles.Warning.Render("skipped")
	case rep.Verification == nil:
		return v.styles.Muted.Render("not run")
	case rep.Passed:
		return v.styles.Success.Render(fmt.Sprintf("%d/%d passed", rep.Verification.Passed, rep.Verification.Total))
	default:
		return v.styles.Error.Render(fmt.Sprintf("%d/%d passed", rep.Verification.Passed, rep.Verification.Total))
	}
}

func (v *view) code(code string) string {
	if v.renderer == nil {
		return code
	}
	out, err := v.renderer.Render("```go\n" + code + "\n```")
	if err != nil {
		return code
	}
	return strings.TrimRight(out, "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
