// Package embedding holds helpers shared by the embedding provider
// adapters.
package embedding

import "unicode/utf8"

// MaxInputChars caps the text sent to an embedding provider. Finding
// descriptions longer than this carry no extra similarity signal and
// only cost tokens.
const MaxInputChars = 2000

// TruncateInput caps s at MaxInputChars bytes, backing off to a rune
// boundary so the provider never receives invalid UTF-8.
func TruncateInput(s string) string {
	if len(s) <= MaxInputChars {
		return s
	}
	n := MaxInputChars
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
