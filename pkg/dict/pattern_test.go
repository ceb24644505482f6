package dict

import "testing"

func testPatterns(t *testing.T) *patternMatcher {
	t.Helper()
	pm, err := compilePatterns([]PatternSpec{
		{Label: "unit", Regex: `(apt|flat|unit|suite)\.?\s*#?\s*[0-9]+[a-z]?`},
		{Label: "po_box", Regex: `p\.?\s*o\.?\s*box\s+[0-9]+`},
		{Label: "level", Regex: `(floor|fl\.?|level)\s*[0-9]+`},
	})
	if err != nil {
		t.Fatalf("compilePatterns: %v", err)
	}
	return pm
}

func TestPatternMatch(t *testing.T) {
	pm := testPatterns(t)

	tests := []struct {
		term  string
		label string
		ok    bool
	}{
		{"Apt 4B", "unit", true},
		{"apt. 12", "unit", true},
		{"FLAT 3", "unit", true},
		{"Suite #200", "unit", true},
		{"P.O. Box 1234", "po_box", true},
		{"PO  Box   7", "po_box", true},
		{"Floor 3", "level", true},
		{"fl. 12", "level", true},
		{"Main Street", "", false},
		{"Apt", "", false},
		{"my apt 4", "", false}, // anchored
		{"", "", false},
	}
	for _, tt := range tests {
		label, ok := pm.match(tt.term)
		if ok != tt.ok || label != tt.label {
			t.Errorf("match(%q) = %q, %v; want %q, %v", tt.term, label, ok, tt.label, tt.ok)
		}
	}
}

func TestPatternMatch_FirstWins(t *testing.T) {
	pm, err := compilePatterns([]PatternSpec{
		{Label: "unit", Regex: `unit\s*[0-9]+`},
		{Label: "house_number", Regex: `[a-z]*\s*[0-9]+`},
	})
	if err != nil {
		t.Fatalf("compilePatterns: %v", err)
	}
	if label, _ := pm.match("Unit 5"); label != "unit" {
		t.Errorf("match(Unit 5) = %q, want unit", label)
	}
	if label, _ := pm.match("42"); label != "house_number" {
		t.Errorf("match(42) = %q, want house_number", label)
	}
}

func TestCompilePatterns_Errors(t *testing.T) {
	tests := []struct {
		name  string
		specs []PatternSpec
	}{
		{"empty", nil},
		{"missing label", []PatternSpec{{Regex: `apt\s*[0-9]+`}}},
		{"bad regex", []PatternSpec{{Label: "unit", Regex: `(apt`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := compilePatterns(tt.specs); err == nil {
				t.Error("expected error")
			}
		})
	}
}
