package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain string untouched", input: "Tech Meetup", expected: "Tech Meetup"},
		{name: "leading and trailing spaces", input: "  Tech Meetup  ", expected: "Tech Meetup"},
		{name: "inner whitespace collapsed", input: "Tech \t  Meetup", expected: "Tech Meetup"},
		{name: "only whitespace becomes empty", input: " \t\n ", expected: ""},
		{name: "empty stays empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTrimAndNormalize_Idempotent(t *testing.T) {
	input := "  Annual   Gala\tNight "
	once := TrimAndNormalize(input)
	twice := TrimAndNormalize(once)
	if once != twice {
		t.Errorf("normalization is not idempotent: %q vs %q", once, twice)
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory("  Music  Festival "); got != "music festival" {
		t.Errorf("NormalizeCategory = %q, want %q", got, "music festival")
	}
}

func TestNormalizeStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "duplicates and empties dropped",
			input:    []string{" a@example.com ", "a@example.com", "", "b@example.com"},
			expected: []string{"a@example.com", "b@example.com"},
		},
		{
			name:     "all invalid filtered out",
			input:    []string{"", "  ", "\t"},
			expected: []string{},
		},
		{
			name:     "order preserved",
			input:    []string{"wifi", "parking", "wifi", "stage"},
			expected: []string{"wifi", "parking", "stage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeStrings(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("NormalizeStrings(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
