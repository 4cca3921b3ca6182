package storage

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// Normalization must be idempotent: applying it twice gives the same key
// as applying it once, so every component can safely re-normalize.
func TestNormalizeTopicIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.String().Draw(t, "in")
		once := NormalizeTopic(in)
		twice := NormalizeTopic(once)
		if once != twice {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	})
}

func TestNormalizeTopicShape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.String().Draw(t, "in")
		out := NormalizeTopic(in)
		if out != strings.ToLower(out) {
			t.Fatalf("not lowercased: %q", out)
		}
		if strings.Contains(out, "  ") {
			t.Fatalf("whitespace not collapsed: %q", out)
		}
		if strings.HasSuffix(out, "?") || strings.HasSuffix(out, "!") || strings.HasSuffix(out, ".") {
			t.Fatalf("trailing punctuation kept: %q", out)
		}
	})
}
