package wikiapi

import "testing"

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Example", "Example"},
		{"example", "Example"},
		{"  Jimbo_Wales ", "Jimbo Wales"},
		{"a__b", "A b"},
		{"ébène", "Ébène"},
		{"   ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeUsername(tt.raw); got != tt.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
