package memory

import (
	"regexp"
	"strings"
)

// cueRule pairs a cue regexp with the Kind it signals and a confidence/
// importance bump.
type cueRule struct {
	kind       Kind
	pattern    *regexp.Regexp
	confidence float64
	importance float64
}

var cueRules = []cueRule{
	// preference
	{KindPreference, regexp.MustCompile(`(?i)\bi (?:(?:always|never|really) )?(?:prefer|like|love|hate|don'?t like|want|wish)\b`), 0.82, 0.6},
	{KindPreference, regexp.MustCompile(`(?i)\b(?:please )?(?:always|never) use\b`), 0.85, 0.7},
	{KindPreference, regexp.MustCompile(`(?i)\bdon'?t use\b`), 0.83, 0.65},
	// fact
	{KindFact, regexp.MustCompile(`(?i)\bmy (\w+\s*){0,3}\bis\b`), 0.8, 0.55},
	{KindFact, regexp.MustCompile(`(?i)\bi work (?:on|at|with|for)\b`), 0.82, 0.6},
	{KindFact, regexp.MustCompile(`(?i)\bi (?:live|am based) in\b`), 0.82, 0.6},
	{KindFact, regexp.MustCompile(`(?i)\bi use\b`), 0.78, 0.55},
	// decision
	{KindDecision, regexp.MustCompile(`(?i)\bwe'?ll go with\b`), 0.85, 0.7},
	{KindDecision, regexp.MustCompile(`(?i)\b(?:we|i) (?:decided|have decided) to\b`), 0.85, 0.7},
	{KindDecision, regexp.MustCompile(`(?i)\blet'?s go with\b`), 0.82, 0.65},
	{KindDecision, regexp.MustCompile(`(?i)\bfinal (?:decision|answer|call)\b`), 0.8, 0.65},
}

var emphasisRE = regexp.MustCompile(`(?i)\b(?:always|never)\b`)

const maxEpisodicChars = 200

// ExtractCandidates is the heuristic Extractor (C4, mode=heuristic). It
// inspects turn.UserText and, when captureAssistant is set, turn.AssistantText,
// emitting zero or more deduplicated candidates.
func ExtractCandidates(turn Turn, captureAssistant bool) []Candidate {
	var out []Candidate
	out = append(out, extractFromText(turn.UserText)...)
	if captureAssistant {
		out = append(out, extractFromText(turn.AssistantText)...)
	}
	return dedupeCandidates(out)
}

func extractFromText(text string) []Candidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var candidates []Candidate
	matchedAny := false
	for _, sentence := range splitSentences(text) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		for _, rule := range cueRules {
			if rule.pattern.MatchString(trimmed) {
				matchedAny = true
				confidence := rule.confidence
				importance := rule.importance
				if emphasisRE.MatchString(trimmed) {
					importance += 0.1
					if importance > 1 {
						importance = 1
					}
				}
				candidates = append(candidates, Candidate{
					Kind:       rule.kind,
					Text:       trimmed,
					Confidence: confidence,
					Importance: importance,
				})
				break // one kind per sentence
			}
		}
	}

	if !matchedAny {
		if episodic, ok := episodicCandidate(text); ok {
			candidates = append(candidates, episodic)
		}
	}

	return candidates
}

// episodicCandidate produces a compact continuity marker when the turn
// clearly advances long-horizon context without matching a more specific
// cue. The heuristic here is deliberately conservative: only turns that
// read as a multi-clause narrative (long enough, and containing a
// connector word) qualify, to avoid flooding episodic memory with small
// talk.
func episodicCandidate(text string) (Candidate, bool) {
	runeLen := len([]rune(text))
	if runeLen < 40 {
		return Candidate{}, false
	}
	lower := strings.ToLower(text)
	hasConnector := strings.Contains(lower, " because ") ||
		strings.Contains(lower, " so that ") ||
		strings.Contains(lower, " after ") ||
		strings.Contains(lower, " before ") ||
		strings.Contains(lower, " then ")
	if !hasConnector {
		return Candidate{}, false
	}
	summary := text
	if runeLen > maxEpisodicChars {
		r := []rune(text)
		summary = string(r[:maxEpisodicChars])
	}
	return Candidate{
		Kind:       KindEpisodic,
		Text:       summary,
		Confidence: 0.79,
		Importance: 0.6,
	}, true
}

func splitSentences(text string) []string {
	return regexp.MustCompile(`(?:[.!?\n]+)\s*`).Split(text, -1)
}

// dedupeCandidates removes candidates that share a (kind, normalized text)
// pair within one turn, keeping the highest-scoring instance.
func dedupeCandidates(in []Candidate) []Candidate {
	best := make(map[string]Candidate)
	order := make([]string, 0, len(in))
	for _, c := range in {
		key := string(c.Kind) + "\x00" + NormalizeForDedupe(c.Text)
		if existing, ok := best[key]; ok {
			if c.Confidence+c.Importance <= existing.Confidence+existing.Importance {
				continue
			}
		} else {
			order = append(order, key)
		}
		best[key] = c
	}
	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
