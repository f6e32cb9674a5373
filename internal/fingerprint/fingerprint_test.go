package fingerprint

import "testing"

func TestOfIgnoresQueryString(t *testing.T) {
	a := Of("https://x/post/1?ref=abc")
	b := Of("https://x/post/1")
	if a != b {
		t.Errorf("expected equal fingerprints, got %q and %q", a, b)
	}
}

func TestOfDistinguishesPaths(t *testing.T) {
	if Of("https://x/post/1") == Of("https://x/post/2") {
		t.Error("expected different fingerprints for different posts")
	}
}

func TestOfFixedLength(t *testing.T) {
	for _, u := range []string{"https://x/p/1", "https://www.instagram.com/p/Cx1_abc/?igsh=zz", "a"} {
		if got := len(Of(u)); got != 64 {
			t.Errorf("expected 64 hex chars for %q, got %d", u, got)
		}
	}
}

func TestOfEmpty(t *testing.T) {
	if Of("") != "" {
		t.Error("expected empty identity for empty URL")
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://x/post/1?ref=abc", "https://x/post/1"},
		{"https://x/post/1", "https://x/post/1"},
		{"https://x/post/1?a=1?b=2", "https://x/post/1"},
		{"?only", ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
