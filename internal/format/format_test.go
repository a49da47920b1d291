package format

import (
	"strings"
	"testing"
)

func TestFromBodyNestedResult(t *testing.T) {
	raw := []byte(`{"result": {"Dosage": "500mg", "Warnings": ["avoid alcohol"]}}`)
	got := FromBody(raw)

	if !strings.Contains(got, "Dosage: 500mg") {
		t.Errorf("output missing scalar field, got:\n%s", got)
	}
	if !strings.Contains(got, "Warnings") {
		t.Errorf("output missing array heading, got:\n%s", got)
	}
	if !strings.Contains(got, "1. avoid alcohol") {
		t.Errorf("output missing numbered item, got:\n%s", got)
	}

	// The numbered item must appear under the Warnings heading.
	warnIdx := strings.Index(got, "Warnings")
	itemIdx := strings.Index(got, "1. avoid alcohol")
	if itemIdx < warnIdx {
		t.Errorf("numbered item should follow its heading, got:\n%s", got)
	}
}

func TestFromBodyResultAliases(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"result", `{"result": "take with food"}`, "take with food"},
		{"data", `{"data": "take with food"}`, "take with food"},
		{"output", `{"output": "take with food"}`, "take with food"},
		{"response", `{"response": "take with food"}`, "take with food"},
	}
	for _, tc := range cases {
		if got := FromBody([]byte(tc.raw)); got != tc.want {
			t.Errorf("%s: FromBody = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFromBodyPlainTextFallback(t *testing.T) {
	raw := []byte("Amoxicillin is a penicillin antibiotic.")
	if got := FromBody(raw); got != "Amoxicillin is a penicillin antibiotic." {
		t.Errorf("FromBody = %q, want verbatim text", got)
	}
}

func TestFromBodyJSONString(t *testing.T) {
	if got := FromBody([]byte(`"plain reply"`)); got != "plain reply" {
		t.Errorf("FromBody = %q, want %q", got, "plain reply")
	}
}

func TestFromBodyScalars(t *testing.T) {
	if got := FromBody([]byte(`{"result": 42}`)); got != "42" {
		t.Errorf("number = %q, want 42", got)
	}
	if got := FromBody([]byte(`{"result": true}`)); got != "true" {
		t.Errorf("bool = %q, want true", got)
	}
	if got := FromBody([]byte(`{"result": 2.5}`)); got != "2.5" {
		t.Errorf("float = %q, want 2.5", got)
	}
}

func TestFromBodyNoAliasRendersWholeObject(t *testing.T) {
	raw := []byte(`{"name": "Paracetamol", "max_daily_dose": "4g"}`)
	got := FromBody(raw)
	if !strings.Contains(got, "Name: Paracetamol") {
		t.Errorf("missing Name line, got:\n%s", got)
	}
	if !strings.Contains(got, "Max Daily Dose: 4g") {
		t.Errorf("missing title-cased key, got:\n%s", got)
	}
}

func TestFromBodyDeterministicKeyOrder(t *testing.T) {
	raw := []byte(`{"result": {"b": "2", "a": "1", "c": "3"}}`)
	first := FromBody(raw)
	for i := 0; i < 10; i++ {
		if got := FromBody(raw); got != first {
			t.Fatalf("output not deterministic: %q vs %q", got, first)
		}
	}
	if strings.Index(first, "A: 1") > strings.Index(first, "B: 2") {
		t.Errorf("keys not sorted: %q", first)
	}
}

func TestFromBodyNestedObjectsIndented(t *testing.T) {
	raw := []byte(`{"result": {"interactions": {"alcohol": "avoid", "caffeine": "ok"}}}`)
	got := FromBody(raw)
	if !strings.Contains(got, "**Interactions**:") {
		t.Errorf("missing bold heading, got:\n%s", got)
	}
	if !strings.Contains(got, "  Alcohol: avoid") {
		t.Errorf("nested fields should be indented, got:\n%s", got)
	}
}

func TestFromBodyArrayOfObjects(t *testing.T) {
	raw := []byte(`{"result": [{"name": "dose one"}, {"name": "dose two"}]}`)
	got := FromBody(raw)
	if !strings.Contains(got, "1.") || !strings.Contains(got, "2.") {
		t.Errorf("array items should be numbered, got:\n%s", got)
	}
	if !strings.Contains(got, "Name: dose one") {
		t.Errorf("object items should render fields, got:\n%s", got)
	}
}

func TestFromBodyEmpty(t *testing.T) {
	if got := FromBody(nil); got != "" {
		t.Errorf("FromBody(nil) = %q, want empty", got)
	}
	if got := FromBody([]byte("   \n")); got != "" {
		t.Errorf("FromBody(whitespace) = %q, want empty", got)
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"dosage":         "Dosage",
		"side_effects":   "Side Effects",
		"max-daily-dose": "Max Daily Dose",
		"sideEffects":    "Side Effects",
		"Warnings":       "Warnings",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
