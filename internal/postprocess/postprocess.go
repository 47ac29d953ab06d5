// Package postprocess removes common LLM artifacts from translator output
// and splits numbered batch responses back into individual lines.
package postprocess

import (
	"regexp"
	"strconv"
	"strings"
)

// Clean strips reasoning blocks and an introductory echo from a whole
// response and returns the trimmed result. Quote wrapping is per line and
// handled by Unquote.
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so each tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opened tag with no closing one: the model was cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Anchored at the start and ending in a colon so that real content is not eaten.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is| are)(?: the)? (?:translated |requested )?(?:translations?|texts?|entries)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translations?|translated (?:text|entries))\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]? here(?:'s| is| are)(?: the)? (?:translated )?(?:translations?|texts?)\s*:`),
	regexp.MustCompile(`^(?:以下是)?(?:翻译|译文)(?:结果|如下)?\s*[:：]`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// Unquote strips a matching pair of outer quotes wrapping the entire line.
// Supported pairs: "…" '…' «…» “…” ‘…’ 「…」
func Unquote(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') ||
		(first == '「' && last == '」') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}

// IsQuoted reports whether Unquote would change text.
func IsQuoted(text string) bool {
	return Unquote(text) != text
}

// "1. ", "1) ", "1、", "1．" and "１." style list markers.
var numberingRe = regexp.MustCompile(`^([0-9０-９]+)\s*[.)、．:：]\s*`)

// StripNumbering removes a leading list number from line. It returns the
// number (1-based as written) and whether a marker was present.
func StripNumbering(line string) (rest string, n int, ok bool) {
	m := numberingRe.FindStringSubmatchIndex(line)
	if m == nil {
		return line, 0, false
	}
	digits := toASCIIDigits(line[m[2]:m[3]])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return line, 0, false
	}
	return line[m[1]:], n, true
}

func toASCIIDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return '0' + (r - '０')
		}
		return r
	}, s)
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
