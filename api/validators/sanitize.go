package validators

import "strings"

// SanitizeString trims surrounding whitespace and clamps free-text input to
// maxLen bytes. A maxLen of zero disables the clamp.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(input)
	if maxLen > 0 && len(cleaned) > maxLen {
		cleaned = strings.TrimSpace(cleaned[:maxLen])
	}
	return cleaned
}
