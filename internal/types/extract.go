package types

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// DECODED VALUE EXTRACTION UTILITIES
// =============================================================================
//
// Model replies are decoded into map[string]any, so a field may arrive as any
// JSON shape. These helpers coerce the common shapes and report failure
// instead of panicking on bare type assertions.

var leadingNumberRegex = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)

// ExtractString extracts a string representation from a decoded value.
func ExtractString(arg interface{}) string {
	switch v := arg.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ExtractInt extracts an integer from a number or a numeric string such as
// "7", "7.5" or "7/10". Fractions truncate toward zero so 7.5 never
// reaches a threshold of 8.
// Returns (value, true) on success, (0, false) if the value is not numeric.
func ExtractInt(arg interface{}) (int, bool) {
	switch v := arg.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(math.Trunc(v)), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		m := leadingNumberRegex.FindStringSubmatch(v)
		if m == nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return int(math.Trunc(f)), true
	default:
		return 0, false
	}
}

// ExtractStrings extracts a list of strings. A lone string becomes a single
// element; non-string list items are stringified; empty items are dropped.
func ExtractStrings(arg interface{}) []string {
	switch v := arg.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(ExtractString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
		return nil
	default:
		return nil
	}
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
