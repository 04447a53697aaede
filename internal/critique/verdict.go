// Package critique drives generate, critique and fix cycles with numeric
// score termination.
package critique

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"codesmith/internal/extract"
	"codesmith/internal/logging"
	"codesmith/internal/types"
)

// Critique is a critic's structured judgement.
type Critique struct {
	Score  int
	Issues []string
	Fixes  []string
}

// VerdictKind tags a parsed critic reply.
type VerdictKind int

const (
	Valid VerdictKind = iota
	Malformed
)

func (k VerdictKind) String() string {
	if k == Valid {
		return "valid"
	}
	return "malformed"
}

// Verdict is a parsed critic reply. A Malformed verdict carries a zero
// score, the raw reply and the reason it could not be read.
type Verdict struct {
	Kind     VerdictKind
	Critique Critique
	Raw      string
	Cause    error
}

// Valid reports whether the reply held a critique object.
func (v Verdict) Valid() bool {
	return v.Kind == Valid
}

var errNoObject = errors.New("no JSON object in critique")

// Parse reads a critic reply. It never fails: unreadable replies become a
// Malformed verdict with score 0. Missing fields take zero values.
func Parse(raw string) Verdict {
	payload := extract.JSON(raw)
	if !strings.ContainsAny(payload, "{[") {
		return malformed(raw, errNoObject)
	}

	decoded, err := decode(payload)
	if err != nil {
		logging.CritiqueDebug("critique decode failed: %v", err)
		return malformed(raw, err)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		// A list holding the critique object.
		if list, isList := decoded.([]any); isList && len(list) > 0 {
			obj, ok = list[0].(map[string]any)
		}
	}
	if !ok {
		return malformed(raw, errNoObject)
	}

	c := Critique{
		Issues: types.ExtractStrings(obj["issues"]),
		Fixes:  types.ExtractStrings(obj["fixes"]),
	}
	if score, ok := types.ExtractInt(obj["score"]); ok {
		c.Score = types.Clamp(score, 0, 10)
	}
	return Verdict{Kind: Valid, Critique: c, Raw: raw}
}

func malformed(raw string, cause error) Verdict {
	return Verdict{Kind: Malformed, Raw: raw, Cause: cause}
}

func decode(payload string) (any, error) {
	var v any
	err := json.Unmarshal([]byte(payload), &v)
	if err == nil {
		return v, nil
	}
	repaired, rerr := jsonrepair.JSONRepair(payload)
	if rerr != nil {
		return nil, fmt.Errorf("invalid critique JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, fmt.Errorf("invalid critique JSON after repair: %w", err)
	}
	return v, nil
}
