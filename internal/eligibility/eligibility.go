// Package eligibility decides which source strings are safe to remember in
// the translation memory. Only short, unambiguous UI terms qualify; sentences,
// templated strings and descriptive text are always sent to the translator.
package eligibility

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxSourceLength is the longest source string, in characters, that may be cached.
	MaxSourceLength = 35
	// MaxWords is the largest whitespace-separated word count that may be cached.
	MaxWords = 5
)

var (
	sentenceEndings = []string{". ", "! ", "? ", "。", "！", "？"}

	placeholders = []string{"{0}", "{1}", "{2}"}

	// Escape sequences as they appear in raw catalog text, not control characters.
	escapes = []string{`\n`, `\t`, `\r`}

	symbols = []string{"(", ")", "[", "]", "→", "•", "|"}

	questionWords = map[string]bool{
		"Whether": true, "How": true, "What": true, "When": true,
		"Where": true, "Why": true, "Which": true, "Who": true,
	}

	prepositionPhrases = []string{"for ", "of ", "in the ", "on the ", "at the ", "by the ", "with the "}

	descriptiveWords = []string{"duration", "spacing", "radius", "distance", "example", "tips"}

	overlySpecific = []string{"mappings", "examples"}
)

// IsCacheable reports whether text is a simple phrase worth learning.
// It gates writes into the learned overlay only; lookups never consult it.
func IsCacheable(text string) bool {
	if utf8.RuneCountInString(text) > MaxSourceLength {
		return false
	}
	if containsAny(text, sentenceEndings) {
		return false
	}

	words := strings.Fields(text)
	if len(words) > MaxWords {
		return false
	}
	if containsAny(text, placeholders) || containsAny(text, escapes) || containsAny(text, symbols) {
		return false
	}
	if len(words) > 0 && questionWords[words[0]] {
		return false
	}

	lower := strings.ToLower(text)
	if containsAny(lower, prepositionPhrases) {
		return false
	}
	if containsAny(lower, descriptiveWords) || containsAny(lower, overlySpecific) {
		return false
	}

	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
