package translator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/valpere/potrans/internal/postprocess"
)

// LanguageName returns the English name of a BCP 47 tag, or the tag itself
// when it cannot be parsed.
func LanguageName(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}

const defaultRules = `Rules:
1. Keep engine terms in English: Actor, Blueprint, Component, Transform, Mesh, Material, Widget, Collision, Array, Float, Integer.
2. Keep category namespaces and the | separator, translating only the words between them (XTools|Sort|Actor keeps XTools and Actor).
3. Preserve every special sequence exactly: | {} [] () %s %d \n \t and numbered placeholders such as {0} and {1}.
4. Be accurate, fluent and concise. Do not add extra spaces.
5. Keep terminology consistent with your earlier answers in this conversation.`

// BuildSystemPrompt returns the instructions sent before every chunk.
func BuildSystemPrompt(cfg Config) string {
	if cfg.SystemPrompt != "" {
		return cfg.SystemPrompt
	}

	var sb strings.Builder
	source := "English"
	if cfg.SourceLang != "" && cfg.SourceLang != "auto" {
		source = LanguageName(cfg.SourceLang)
	}
	fmt.Fprintf(&sb, "You are a professional game development and Unreal Engine localization expert translating UI strings from %s to %s.\n\n",
		source, LanguageName(cfg.TargetLang))
	sb.WriteString(defaultRules)
	sb.WriteString("\n\nYou will receive a numbered list. Reply with exactly one line per item, in the same order, each prefixed with its number (\"1. \"). Reply with the translations only, no explanations.")
	return sb.String()
}

// BuildUserPrompt numbers texts one per line.
func BuildUserPrompt(texts []string) string {
	var sb strings.Builder
	sb.WriteString("Translate:\n")
	for i, t := range texts {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, t)
	}
	return sb.String()
}

// ParseResponse maps a numbered model response back onto texts. When every
// line carries a number in range, lines are placed by number and the result
// has len(texts) items. Otherwise lines are taken in order with any list
// numbering stripped, and the count may differ from len(texts).
//
// A leading number that belongs to the source text, as in "2:1 Ratio", is
// kept when the model did not number the line.
func ParseResponse(content string, texts []string) []string {
	lines := postprocess.Lines(postprocess.Clean(content))
	if len(lines) == 0 {
		return nil
	}

	numbers := make([]int, len(lines))
	byNumber := true
	for i, l := range lines {
		_, n, ok := postprocess.StripNumbering(l)
		numbers[i] = n
		if !ok || n < 1 || n > len(texts) {
			byNumber = false
		}
	}

	if !byNumber {
		out := make([]string, len(lines))
		for i, l := range lines {
			out[i] = unquoteFor(stripListNumber(l, sourceAt(texts, i)), texts, i)
		}
		return out
	}

	out := make([]string, len(texts))
	for i, l := range lines {
		idx := numbers[i] - 1
		if out[idx] != "" {
			continue
		}
		out[idx] = unquoteFor(stripListNumber(l, texts[idx]), texts, idx)
	}
	return out
}

func sourceAt(texts []string, i int) string {
	if i < len(texts) {
		return texts[i]
	}
	return ""
}

// stripListNumber removes the list marker from line. When source starts with
// a number of its own, the marker is only removed if that number survives
// underneath it.
func stripListNumber(line, source string) string {
	rest, _, ok := postprocess.StripNumbering(line)
	if !ok {
		return strings.TrimSpace(line)
	}
	if _, own, srcNumbered := postprocess.StripNumbering(source); srcNumbered {
		if _, inner, innerOK := postprocess.StripNumbering(rest); !innerOK || inner != own {
			return strings.TrimSpace(line)
		}
	}
	return strings.TrimSpace(rest)
}

// unquoteFor removes quote wrapping unless the source itself was quoted.
func unquoteFor(s string, texts []string, i int) string {
	if i < len(texts) && postprocess.IsQuoted(texts[i]) {
		return s
	}
	return postprocess.Unquote(s)
}
