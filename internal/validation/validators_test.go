package validation

import "testing"

func TestValidatePriority(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"High", "Medium", "Low"} {
		if err := ValidatePriority(v); err != nil {
			t.Errorf("expected %q to be valid: %v", v, err)
		}
	}
	for _, v := range []string{"", "high", "urgent", "HIGH"} {
		if err := ValidatePriority(v); err == nil {
			t.Errorf("expected %q to be rejected", v)
		}
	}
}

func TestValidateWorkspace(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"personal", "office", "startup"} {
		if err := ValidateWorkspace(v); err != nil {
			t.Errorf("expected %q to be valid: %v", v, err)
		}
	}
	for _, v := range []string{"", "Personal", "home"} {
		if err := ValidateWorkspace(v); err == nil {
			t.Errorf("expected %q to be rejected", v)
		}
	}
}

func TestValidateDueDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		ok    bool
	}{
		{"2026-01-31", true},
		{"2026-02-29", false},
		{"2024-02-29", true},
		{"tomorrow", false},
		{"2026-1-5", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidateDueDate(tt.value)
		if tt.ok && err != nil {
			t.Errorf("expected %q to be valid: %v", tt.value, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("expected %q to be rejected", tt.value)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	got := SanitizeText("  buy milk\x00\x1b  ")
	if got != "buy milk" {
		t.Errorf("SanitizeText = %q, want %q", got, "buy milk")
	}

	got = SanitizeText("line1\nline2\ttabbed")
	if got != "line1\nline2\ttabbed" {
		t.Errorf("newline and tab should be preserved, got %q", got)
	}
}
