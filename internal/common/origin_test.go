package common

import (
	"testing"
)

func TestOriginOf(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://auth.example.com/oauth/start?provider=analytics", "https://auth.example.com"},
		{"https://auth.example.com:8443/oauth/start", "https://auth.example.com:8443"},
		{"http://localhost:8085", "http://localhost:8085"},
		{"http://localhost:8085/", "http://localhost:8085"},

		// Whitespace handling
		{"  https://auth.example.com/path  ", "https://auth.example.com"},

		// No derivable origin
		{"/relative/path", ""},
		{"auth.example.com/no-scheme", ""},
		{"", ""},
		{"://bad", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := OriginOf(tt.input); got != tt.want {
				t.Errorf("OriginOf(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSameOrigin(t *testing.T) {
	if !SameOrigin("https://a.example.com/x", "https://a.example.com/y?z=1") {
		t.Error("expected same origin for same scheme+host")
	}
	if SameOrigin("https://a.example.com", "http://a.example.com") {
		t.Error("scheme difference must not be same origin")
	}
	if SameOrigin("", "") {
		t.Error("empty URLs must never compare as same origin")
	}
}
