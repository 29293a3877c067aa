package enumerate

import "testing"

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, value string
		want           bool
	}{
		{"input*", "input0", true},
		{"input*", "sda", false},
		{"sd?", "sda", true},
		{"sd?", "sdaa", false},
		{"[", "x", false}, // malformed pattern never matches
	}
	for _, c := range cases {
		if got := globMatch(c.pattern, c.value); got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.pattern, c.value, got, c.want)
		}
	}
}

func TestMatchGlobListEmptyMeansNoConstraint(t *testing.T) {
	if !matchGlobList("anything", nil, true) {
		t.Error("empty match list should impose no restriction")
	}
	if matchGlobList("anything", nil, false) {
		t.Error("empty no-match list should never exclude")
	}
}

func TestMatchGlobListHonorsPatterns(t *testing.T) {
	if !matchGlobList("input0", []string{"block*", "input*"}, true) {
		t.Error("expected input0 to match one of the globs")
	}
	if matchGlobList("sda", []string{"input*"}, true) {
		t.Error("sda should not match input* allowlist")
	}
}

func TestEnumeratorBuilderChaining(t *testing.T) {
	e := New(nil).
		AddMatchSubsystem("input*").
		AddNomatchSysname("event*").
		AddMatchProperty("ID_INPUT", "1")

	if len(e.subsystemMatch) != 1 || e.subsystemMatch[0] != "input*" {
		t.Errorf("subsystemMatch = %v", e.subsystemMatch)
	}
	if len(e.sysnameNomatch) != 1 || e.sysnameNomatch[0] != "event*" {
		t.Errorf("sysnameNomatch = %v", e.sysnameNomatch)
	}
	if len(e.propertyMatch) != 1 || e.propertyMatch[0].key != "ID_INPUT" {
		t.Errorf("propertyMatch = %v", e.propertyMatch)
	}
}
