package textutil

import (
	"strings"
	"unicode"
)

// NormalizeSpeech collapses runs of whitespace, including line breaks, into
// single spaces and trims the ends.
func NormalizeSpeech(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// HasSpeech reports whether text contains at least one letter or digit.
// Segments made only of punctuation or music symbols carry nothing to translate.
func HasSpeech(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}) >= 0
}
