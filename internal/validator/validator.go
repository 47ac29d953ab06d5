// Package validator flags translations that do not appear to be written in
// the target language, typically a model echoing the English source.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/potrans/internal/detector"
)

// Shorter texts produce unreliable detections and are accepted unchecked.
const minValidationLength = 20

// Validator is bound to one target language. The underlying detector is
// expensive to build; reuse the instance.
type Validator struct {
	det    *detector.Detector
	target string
}

// New creates a Validator for targetLang, restricting detection to the
// source and target languages.
func New(sourceLang, targetLang string) *Validator {
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "en"
	}
	return &Validator{
		det:    detector.New(sourceLang, targetLang),
		target: detector.ISO(targetLang),
	}
}

// Target returns the ISO 639-1 code translations are checked against.
func (v *Validator) Target() string {
	return v.target
}

// Check returns an error when translatedText is detected as a language other
// than the target. Empty, short and ambiguous texts pass.
func (v *Validator) Check(translatedText string) error {
	if v.target == "" {
		return nil
	}

	text := strings.TrimSpace(translatedText)
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}

	if !strings.EqualFold(detected, v.target) {
		return fmt.Errorf("expected %s but detected %s", v.target, strings.ToLower(detected))
	}
	return nil
}
