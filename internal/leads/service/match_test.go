package service

import "testing"

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"john smith", "john smith", 0},
		{"john smith", "jon smith", 1},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Fatalf("levenshtein(%q, %q): expected %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestSimilarityThreshold(t *testing.T) {
	// One edit in a ten-rune name is 0.9: same person.
	if got := similarity("john smith", "jon smith"); got < duplicateThreshold {
		t.Fatalf("expected %q and %q above threshold, got %.2f", "john smith", "jon smith", got)
	}

	// Different people stay below the threshold.
	if got := similarity("john smith", "mary jones"); got >= duplicateThreshold {
		t.Fatalf("expected %q and %q below threshold, got %.2f", "john smith", "mary jones", got)
	}
}

func TestNormalizeFullName(t *testing.T) {
	if got := normalizeFullName("  John ", " SMITH "); got != "john smith" {
		t.Fatalf("expected %q, got %q", "john smith", got)
	}
	if got := normalizeFullName("", ""); got != "" {
		t.Fatalf("expected empty name, got %q", got)
	}
}
