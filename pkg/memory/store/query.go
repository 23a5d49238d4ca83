package store

import (
	"regexp"
	"strings"
)

var tokenRE = regexp.MustCompile(`[A-Za-z0-9_]+`)

// BuildFtsQuery builds a simple OR query for FTS5 from raw input: the
// retrieval pipeline wants any-token recall over the concatenated user text
// and reply-to text, with exact-match ranking left to bm25.
func BuildFtsQuery(raw string) string {
	tokens := tokenRE.FindAllString(raw, -1)
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(token)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		parts = append(parts, `"`+strings.ReplaceAll(token, `"`, "")+`"`)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " OR ")
}
