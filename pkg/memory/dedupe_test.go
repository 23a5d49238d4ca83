package memory

import "testing"

func TestNormalizeForDedupe(t *testing.T) {
	cases := map[string]string{
		"  I   Prefer   Dark  Roast. ": "i prefer dark roast",
		"Hello, world!":                "hello, world",
		"ALL CAPS":                     "all caps",
		"":                             "",
	}
	for in, want := range cases {
		if got := NormalizeForDedupe(in); got != want {
			t.Fatalf("NormalizeForDedupe(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeForDedupeIgnoresCasingAndSpacing(t *testing.T) {
	a := NormalizeForDedupe("I prefer dark roast")
	b := NormalizeForDedupe("  i   PREFER dark roast  ")
	if a != b {
		t.Fatalf("expected equal normalized text, got %q vs %q", a, b)
	}
}

func TestDedupeKeyOfMatchesAcrossCasingAndSpacing(t *testing.T) {
	a := DedupeKeyOf("scope-1", KindPreference, "I prefer dark roast")
	b := DedupeKeyOf("scope-1", KindPreference, "  i   PREFER dark roast  ")
	if a.String() != b.String() {
		t.Fatalf("expected equal dedupe keys, got %q vs %q", a.String(), b.String())
	}
}

func TestDedupeKeyOfDiffersByScopeOrKind(t *testing.T) {
	base := DedupeKeyOf("scope-1", KindFact, "the same text")
	otherScope := DedupeKeyOf("scope-2", KindFact, "the same text")
	otherKind := DedupeKeyOf("scope-1", KindDecision, "the same text")
	if base.String() == otherScope.String() {
		t.Fatalf("expected different scopes to produce different keys")
	}
	if base.String() == otherKind.String() {
		t.Fatalf("expected different kinds to produce different keys")
	}
}
