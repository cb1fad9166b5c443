package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the length in runes.
// Worker names and comments arrive in Cyrillic, so the cut must not split a
// multi-byte character.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= maxLen {
		return trimmed
	}
	return string(runes[:maxLen])
}
