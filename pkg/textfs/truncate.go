package textfs

import "unicode/utf8"

// TruncateHeadLinesByChars keeps leading whole lines of content so the total
// rune count stays at or under maxChars. It never emits a partial line: it
// drops the last line instead of cutting it mid-way.
func TruncateHeadLinesByChars(lines []string, maxChars int) (kept []string, truncated bool) {
	if maxChars <= 0 {
		return nil, len(lines) > 0
	}
	used := 0
	for i, line := range lines {
		lineChars := utf8.RuneCountInString(line)
		if i > 0 {
			lineChars++ // newline joiner
		}
		if used+lineChars > maxChars {
			return lines[:i], true
		}
		used += lineChars
	}
	return lines, false
}
