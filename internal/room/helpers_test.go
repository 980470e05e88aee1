package room

import (
	"regexp"
	"testing"
)

func TestSanitizeRoom(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"movie-night", "movie-night"},
		{"  Movie Night  ", "movienight"},
		{"Rüm_42!", "rm42"},
		{"", ""},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := SanitizeRoom(tt.in); got != tt.want {
			t.Errorf("SanitizeRoom(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewRoomID(t *testing.T) {
	hex10 := regexp.MustCompile(`^[0-9a-f]{10}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewRoomID()
		if !hex10.MatchString(id) {
			t.Fatalf("NewRoomID() = %q, want 10 hex chars", id)
		}
		if SanitizeRoom(id) != id {
			t.Errorf("NewRoomID() = %q is not a sanitized room", id)
		}
		seen[id] = true
	}
	if len(seen) < 50 {
		t.Errorf("only %d distinct ids out of 50", len(seen))
	}
}

func TestParseWatched(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{float64(1), true},
		{float64(0), false},
		{2, true},
		{"watched", true},
		{"YES", true},
		{"true", true},
		{"1", true},
		{"0", false},
		{"no", false},
		{nil, false},
		{[]any{1}, false},
	}
	for _, tt := range tests {
		if got := ParseWatched(tt.in); got != tt.want {
			t.Errorf("ParseWatched(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
