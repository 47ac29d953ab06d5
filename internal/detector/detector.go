package detector

import (
	lingua "github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector restricted to the given BCP 47 tags. Tags lingua
// does not know are ignored; with fewer than two usable languages the
// detector considers every language.
func New(tags ...string) *Detector {
	var langs []lingua.Language
	seen := make(map[lingua.Language]bool)
	for _, t := range tags {
		l, ok := Lookup(t)
		if ok && !seen[l] {
			langs = append(langs, l)
			seen[l] = true
		}
	}

	builder := lingua.NewLanguageDetectorBuilder()
	var detector lingua.LanguageDetector
	if len(langs) >= 2 {
		detector = builder.FromLanguages(langs...).Build()
	} else {
		detector = builder.FromAllLanguages().Build()
	}
	return &Detector{detector: detector}
}

// Lookup maps a BCP 47 tag such as "zh-Hans" to a lingua language.
func Lookup(tag string) (lingua.Language, bool) {
	code := ISO(tag)
	if code == "" {
		return lingua.Unknown, false
	}
	l := lingua.GetLanguageFromIsoCode639_1(lingua.GetIsoCode639_1FromValue(code))
	return l, l != lingua.Unknown
}

// ISO returns the two-letter base language of a BCP 47 tag, or "" when the
// tag cannot be parsed.
func ISO(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	base, conf := t.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}
