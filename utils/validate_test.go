package utils

import (
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"Alphanumeric", "abc123", true},
		{"With dash", "abc-123", true},
		{"With underscore", "abc_123", true},
		{"Minimum length", "ab", true},
		{"Maximum length", strings.Repeat("a", 30), true},
		{"Empty", "", false},
		{"Single char", "a", false},
		{"Too long", strings.Repeat("a", 40), false},
		{"Path traversal", "abc/123", false},
		{"Dot segments", "../etc", false},
		{"Whitespace", "abc 123", false},
		{"Query injection", "abc?x=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateID(tt.id); got != tt.valid {
				t.Errorf("ValidateID(%q) = %v, expected %v", tt.id, got, tt.valid)
			}
		})
	}
}
