// Package strings holds text helpers for single-line CLI output.
package strings

import (
	"strings"
)

// DefaultMaxLen is the default width of a truncated table cell.
const DefaultMaxLen = 60

// MinTruncateLen is the smallest maxLen Truncate accepts; smaller values are
// raised to it so at least one character fits before "...".
const MinTruncateLen = 4

// Truncate collapses all whitespace in s (newlines included) to single spaces
// and cuts the result to maxLen runes, ending in "..." when cut.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
