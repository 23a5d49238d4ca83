package textfs

import "testing"

func TestTruncateHeadLinesByCharsKeepsWholeLines(t *testing.T) {
	lines := []string{"one", "two", "three"}
	kept, truncated := TruncateHeadLinesByChars(lines, 9) // "one\ntwo" = 7 chars, +  "\nthree" overflows
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if len(kept) != 2 || kept[0] != "one" || kept[1] != "two" {
		t.Fatalf("kept = %v, want [one two]", kept)
	}
}

func TestTruncateHeadLinesByCharsFitsExactly(t *testing.T) {
	lines := []string{"abc", "def"}
	kept, truncated := TruncateHeadLinesByChars(lines, 7) // "abc\ndef" == 7 chars
	if truncated {
		t.Fatalf("expected no truncation when content fits exactly")
	}
	if len(kept) != 2 {
		t.Fatalf("kept = %v, want both lines", kept)
	}
}

func TestTruncateHeadLinesByCharsZeroBudget(t *testing.T) {
	kept, truncated := TruncateHeadLinesByChars([]string{"anything"}, 0)
	if kept != nil || !truncated {
		t.Fatalf("expected nil/truncated for a zero budget, got kept=%v truncated=%v", kept, truncated)
	}
}

func TestTruncateHeadLinesByCharsEmptyInput(t *testing.T) {
	kept, truncated := TruncateHeadLinesByChars(nil, 100)
	if kept != nil || truncated {
		t.Fatalf("expected no-op on empty input, got kept=%v truncated=%v", kept, truncated)
	}
}
