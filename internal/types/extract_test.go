package types

import "testing"

func TestExtractString(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want string
	}{
		{"string", "hello", "hello"},
		{"float64 integral", float64(42), "42"},
		{"float64", 3.14, "3.14"},
		{"int", 7, "7"},
		{"bool", true, "true"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractString(tt.arg); got != tt.want {
				t.Errorf("ExtractString(%v) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

func TestExtractInt(t *testing.T) {
	tests := []struct {
		name   string
		arg    interface{}
		want   int
		wantOK bool
	}{
		{"float64", float64(8), 8, true},
		{"float64 truncates", 7.6, 7, true},
		{"half below threshold", 7.5, 7, true},
		{"negative truncates toward zero", -2.7, -2, true},
		{"decimal string", "7.9/10", 7, true},
		{"int", 3, 3, true},
		{"numeric string", "9", 9, true},
		{"fraction string", "6/10", 6, true},
		{"junk string", "great", 0, false},
		{"nil", nil, 0, false},
		{"list", []interface{}{1.0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractInt(tt.arg)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ExtractInt(%v) = (%d, %v), want (%d, %v)", tt.arg, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractStrings(t *testing.T) {
	got := ExtractStrings([]interface{}{"a", 2.0, "", " b "})
	if len(got) != 3 || got[0] != "a" || got[1] != "2" || got[2] != "b" {
		t.Errorf("unexpected %v", got)
	}
	if got := ExtractStrings("single"); len(got) != 1 || got[0] != "single" {
		t.Errorf("unexpected %v", got)
	}
	if got := ExtractStrings(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"CODE_FIRST":       CodeFirst,
		"pseudocode-first": PseudocodeFirst,
		" Neuro Symbolic ": NeuroSymbolic,
	} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}
	if _, err := ParseStrategy("HYBRID"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestSentinelSolution(t *testing.T) {
	s := SentinelSolution(PseudocodeFirst)
	if !s.Sentinel || s.Code != NoCodeSentinel || s.Strategy != PseudocodeFirst {
		t.Errorf("unexpected sentinel %+v", s)
	}
}
