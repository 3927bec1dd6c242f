package logger

import (
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "empty", in: "", max: 100, want: ""},
		{name: "plain", in: "hello world", max: 100, want: "hello world"},
		{name: "strips newlines", in: "line1\nline2\rline3", max: 100, want: "line1line2line3"},
		{name: "strips control chars", in: "a\x00b\x1bc", max: 100, want: "abc"},
		{name: "keeps tabs", in: "a\tb", max: 100, want: "a\tb"},
		{name: "default max when zero", in: "abc", max: 0, want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.in, tt.max); got != tt.want {
				t.Errorf("SanitizeString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeStringTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 50)
	got := SanitizeString(long, 10)
	if got != strings.Repeat("x", 10)+"..." {
		t.Errorf("expected truncated string with ellipsis, got %q", got)
	}
}

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	if got := SanitizePath("/api/v1/tasks\n/etc/passwd"); got != "/api/v1/tasks/etc/passwd" {
		t.Errorf("expected newline stripped, got %q", got)
	}
}
