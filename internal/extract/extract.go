// Package extract pulls structured artifacts (code, pseudocode, JSON) out of
// free-form model replies. Every function is total: when nothing matches the
// input is returned unchanged.
package extract

import (
	"regexp"
	"strings"

	"codesmith/internal/logging"
)

var (
	// Tagged source block. Leftmost match wins.
	codeBlockRegex = regexp.MustCompile("(?s)```(?:go|golang|python|py)\\n(.*?)\\n```")

	pseudocodeBlockRegex = regexp.MustCompile("(?is)```pseudocode\\n(.*?)\\n```")

	// Any fenced block; the info string line is skipped.
	anyBlockRegex = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)\\n```")

	// Greedy and not nesting-aware: first opener to last closer.
	jsonSpanRegex = regexp.MustCompile(`(?s)(\[.*\]|\{.*\})`)
)

// Code returns the trimmed interior of the first fenced block tagged go,
// golang, python or py. Without one, text is returned unchanged.
func Code(text string) string {
	m := codeBlockRegex.FindStringSubmatch(text)
	if m == nil {
		logging.ParserDebug("no tagged code block in %d chars", len(text))
		return text
	}
	return strings.TrimSpace(m[1])
}

// Pseudocode prefers a block tagged pseudocode and falls back to the first
// fenced block of any kind.
func Pseudocode(text string) string {
	if m := pseudocodeBlockRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := anyBlockRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	logging.ParserDebug("no pseudocode block in %d chars", len(text))
	return text
}

// JSON returns the first top-level [...] or {...} span verbatim.
func JSON(text string) string {
	if m := jsonSpanRegex.FindString(text); m != "" {
		return m
	}
	return text
}

// HasFence reports whether text contains a markdown code fence.
func HasFence(text string) bool {
	return strings.Contains(text, "```")
}
