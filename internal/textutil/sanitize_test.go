package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		`AC/DC: Live? "Best" <of> |2024|*`: "ACDC Live Best of 2024",
		`  C:\path\name  `:                  "Cpathname",
		"日本語のタイトル":                          "日本語のタイトル",
		"   ":                               "",
	}
	for input, want := range cases {
		if got := SanitizeFileName(input); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 8); got != "hello..." {
		t.Fatalf("unexpected truncate %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncate %q", got)
	}
	if got := Truncate("abcdef", 2); got != "ab" {
		t.Fatalf("unexpected truncate %q", got)
	}
}
