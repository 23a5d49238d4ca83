package memory

import "testing"

func TestExtractCandidatesPreference(t *testing.T) {
	turn := Turn{UserText: "I prefer dark roast coffee in the morning."}
	got := ExtractCandidates(turn, false)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Kind != KindPreference {
		t.Fatalf("Kind = %s, want preference", got[0].Kind)
	}
}

func TestExtractCandidatesEmphasisBumpsImportance(t *testing.T) {
	turn := Turn{UserText: "I never use tabs for indentation."}
	got := ExtractCandidates(turn, false)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	plain := ExtractCandidates(Turn{UserText: "I use tabs for indentation sometimes."}, false)
	if len(plain) != 1 {
		t.Fatalf("expected 1 plain candidate, got %d", len(plain))
	}
	if got[0].Importance <= plain[0].Importance {
		t.Fatalf("expected emphasis to raise importance: %v vs %v", got[0].Importance, plain[0].Importance)
	}
}

func TestExtractCandidatesIgnoresAssistantTextByDefault(t *testing.T) {
	turn := Turn{UserText: "what's the weather?", AssistantText: "I prefer giving concise answers."}
	got := ExtractCandidates(turn, false)
	if len(got) != 0 {
		t.Fatalf("expected no candidates from user text alone, got %+v", got)
	}
	withAssistant := ExtractCandidates(turn, true)
	if len(withAssistant) != 1 {
		t.Fatalf("expected 1 candidate when capturing assistant text, got %d", len(withAssistant))
	}
}

func TestExtractCandidatesEpisodicFallback(t *testing.T) {
	turn := Turn{UserText: "We stayed up late last night because the deploy kept failing and nobody wanted to leave it broken."}
	got := ExtractCandidates(turn, false)
	if len(got) != 1 {
		t.Fatalf("expected 1 episodic candidate, got %d: %+v", len(got), got)
	}
	if got[0].Kind != KindEpisodic {
		t.Fatalf("Kind = %s, want episodic", got[0].Kind)
	}
}

func TestExtractCandidatesDedupesWithinTurn(t *testing.T) {
	turn := Turn{UserText: "I prefer dark roast. I PREFER dark roast!"}
	got := ExtractCandidates(turn, false)
	if len(got) != 1 {
		t.Fatalf("expected duplicate sentences to collapse to 1 candidate, got %d: %+v", len(got), got)
	}
}

func TestExtractCandidatesNoCueNoEpisodicWhenShort(t *testing.T) {
	turn := Turn{UserText: "sounds good"}
	got := ExtractCandidates(turn, false)
	if len(got) != 0 {
		t.Fatalf("expected no candidates for short smalltalk, got %+v", got)
	}
}
