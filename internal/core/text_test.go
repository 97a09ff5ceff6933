package core

import "testing"

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"  a   b  ":  "a b",
		"plain":      "plain",
		"\tx\n\ny ":  "x y",
		"":           "",
		"     ":      "",
	}
	for in, want := range cases {
		if got := CleanText(in); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasAlphanumeric(t *testing.T) {
	cases := map[string]bool{
		"###":   false,
		"# #":   false,
		"a#":    true,
		"42":    true,
		"café":  true,
		"₹₹":    false,
		"":      false,
	}
	for in, want := range cases {
		if got := HasAlphanumeric(in); got != want {
			t.Errorf("HasAlphanumeric(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo world", 5); got != "héllo" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("Truncate short = %q", got)
	}
}
