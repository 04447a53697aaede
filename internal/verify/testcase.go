package verify

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"codesmith/internal/logging"
)

// TestCase is one input/expected pair produced by the test writer.
type TestCase struct {
	Input    any `json:"input"`
	Expected any `json:"expected"`
}

// UnmarshalJSON accepts "inputs" for "input" and "output" for "expected".
func (tc *TestCase) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*tc = caseFromValue(v)
	return nil
}

// DecodeTestCases parses a JSON array of cases. A single object becomes a
// one-element slice. Malformed JSON gets one repair attempt before failing.
func DecodeTestCases(raw []byte) ([]TestCase, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(raw))
		if rerr != nil {
			return nil, fmt.Errorf("decode test cases: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &v); err != nil {
			return nil, fmt.Errorf("decode repaired test cases: %w", err)
		}
		logging.VerifierDebug("test cases decoded after JSON repair")
	}

	switch t := v.(type) {
	case []any:
		cases := make([]TestCase, 0, len(t))
		for _, e := range t {
			cases = append(cases, caseFromValue(e))
		}
		return cases, nil
	case map[string]any:
		return []TestCase{caseFromValue(t)}, nil
	default:
		return nil, fmt.Errorf("test cases must be a JSON array or object, got %T", v)
	}
}

// caseFromValue reads one decoded element. Non-objects are treated as a
// zero-argument case expecting the element itself.
func caseFromValue(v any) TestCase {
	m, ok := v.(map[string]any)
	if !ok {
		return TestCase{Input: []any{}, Expected: v}
	}

	tc := TestCase{Input: []any{}}
	if in, ok := m["input"]; ok {
		tc.Input = in
	} else if in, ok := m["inputs"]; ok {
		tc.Input = in
	}
	if exp, ok := m["expected"]; ok {
		tc.Expected = exp
	} else if exp, ok := m["output"]; ok {
		tc.Expected = exp
	}
	return tc
}

func toTestCases(tests any) ([]TestCase, error) {
	switch t := tests.(type) {
	case []TestCase:
		return t, nil
	case TestCase:
		return []TestCase{t}, nil
	case string:
		return DecodeTestCases([]byte(t))
	case []byte:
		return DecodeTestCases(t)
	case json.RawMessage:
		return DecodeTestCases(t)
	case nil:
		return nil, fmt.Errorf("no test cases")
	default:
		// Go values (e.g. []map[string]any) go through JSON.
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode test cases: %w", err)
		}
		return DecodeTestCases(data)
	}
}
