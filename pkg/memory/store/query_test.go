package store

import "testing"

func TestBuildFtsQuery(t *testing.T) {
	got := BuildFtsQuery("Dark Roast coffee, dark!")
	want := `"dark" OR "roast" OR "coffee"`
	if got != want {
		t.Fatalf("BuildFtsQuery = %q, want %q", got, want)
	}
}

func TestBuildFtsQueryEmpty(t *testing.T) {
	if got := BuildFtsQuery("   !!! ,,, "); got != "" {
		t.Fatalf("expected empty query for punctuation-only input, got %q", got)
	}
}
