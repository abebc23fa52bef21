package utils

// Truncate shortens s to at most maxLen runes, appending an ellipsis.
// Rune-aware so multi-byte debate titles never get cut mid-character.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
