package usage

import "unicode/utf8"

// MaxErrorMessageBytes and MaxRequestBodyBytes bound the two free-text
// columns a usage log row carries (spec.md §4.9).
const (
	MaxErrorMessageBytes = 2000
	MaxRequestBodyBytes  = 65536
)

const ellipsis = "..."

// TruncateUTF8 shortens s to at most max bytes without splitting a
// multi-byte rune, appending an ellipsis when truncation happened.
func TruncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return s[:max]
	}
	cut := max - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}

// TruncateErrorMessage applies MaxErrorMessageBytes.
func TruncateErrorMessage(s string) string {
	return TruncateUTF8(s, MaxErrorMessageBytes)
}

// TruncateRequestBody applies MaxRequestBodyBytes.
func TruncateRequestBody(s string) string {
	return TruncateUTF8(s, MaxRequestBodyBytes)
}
