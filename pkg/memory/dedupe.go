package memory

import (
	"strings"
	"unicode"
)

// NormalizeForDedupe is the dedupe-text normalization rule: lowercase +
// collapse-whitespace + strip leading/trailing punctuation.
func NormalizeForDedupe(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	fields := strings.Fields(lower)
	collapsed := strings.Join(fields, " ")
	return strings.TrimFunc(collapsed, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// DedupeKey is the (scope_key, kind, normalized(text)) tuple that two
// candidates must share to be merged instead of inserted as separate rows.
type DedupeKey struct {
	ScopeKey string
	Kind     Kind
	Text     string
}

func dedupeKeyOf(scopeKey string, kind Kind, text string) DedupeKey {
	return DedupeKey{ScopeKey: scopeKey, Kind: kind, Text: NormalizeForDedupe(text)}
}

// String renders the tuple as the flat key stored in memory_entries.dedupe_key,
// NUL-joined so no component's content can collide with the separator.
func (k DedupeKey) String() string {
	return k.ScopeKey + "\x00" + string(k.Kind) + "\x00" + k.Text
}

// DedupeKeyOf builds the DedupeKey for an entry's scope, kind, and text.
func DedupeKeyOf(scopeKey string, kind Kind, text string) DedupeKey {
	return dedupeKeyOf(scopeKey, kind, text)
}
