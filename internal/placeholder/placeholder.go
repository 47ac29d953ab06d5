// Package placeholder checks that numeric format tokens such as {0} and {1}
// survive translation.
package placeholder

import (
	"regexp"
	"sort"
)

var tokenRe = regexp.MustCompile(`\{[0-9]+\}`)

// Tokens returns the numeric placeholders found in text, in order.
func Tokens(text string) []string {
	return tokenRe.FindAllString(text, -1)
}

// Count returns the number of numeric placeholders in text.
func Count(text string) int {
	return len(tokenRe.FindAllStringIndex(text, -1))
}

// Mismatch reports whether source and translation carry a different number
// of placeholders. The check is advisory; callers only warn on it.
func Mismatch(source, translation string) bool {
	return Count(source) != Count(translation)
}

// Missing returns the distinct placeholders of source that do not appear in
// translation, sorted.
func Missing(source, translation string) []string {
	have := make(map[string]bool)
	for _, t := range Tokens(translation) {
		have[t] = true
	}

	seen := make(map[string]bool)
	var missing []string
	for _, t := range Tokens(source) {
		if !have[t] && !seen[t] {
			missing = append(missing, t)
			seen[t] = true
		}
	}
	sort.Strings(missing)
	return missing
}
