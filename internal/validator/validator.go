// Package validator checks that translated text is written in the target
// language of its project.
package validator

import (
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator wraps a lingua detector. Building one is expensive; share it.
type Validator struct {
	det lingua.LanguageDetector
}

// New creates a Validator over every language lingua knows.
func New() *Validator {
	return &Validator{det: lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build()}
}

// Detect returns the ISO 639-1 code of the language text is written in.
func (v *Validator) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := v.det.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// Check returns an error when text is empty or detected as a language other
// than targetLang. Short or ambiguous texts pass. targetLang may be any BCP 47
// tag; only its base language is compared.
func (v *Validator) Check(text, targetLang string) error {
	if targetLang == "" {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	want := strings.ToLower(targetLang)
	if tag, err := language.Parse(targetLang); err == nil {
		base, _ := tag.Base()
		want = base.String()
	}

	detected, ok := v.Detect(text)
	if !ok {
		return nil
	}
	if detected != want {
		return fmt.Errorf("expected %s but detected %s", want, detected)
	}
	return nil
}
