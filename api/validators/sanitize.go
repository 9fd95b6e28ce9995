package validators

import "strings"

// SanitizeString trims input and caps it at maxLen bytes without splitting a rune.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	cut := 0
	for idx := range trimmed {
		if idx > maxLen {
			break
		}
		cut = idx
	}
	return trimmed[:cut]
}
