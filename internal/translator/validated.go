package translator

import (
	"context"
	"fmt"
)

// LanguageChecker reports whether text is written in lang.
type LanguageChecker interface {
	Check(text, lang string) error
}

// Validated rejects translations that come back in the wrong language.
type Validated struct {
	Translator
	checker LanguageChecker
}

func NewValidated(t Translator, checker LanguageChecker) *Validated {
	return &Validated{Translator: t, checker: checker}
}

func (v *Validated) Translate(ctx context.Context, req Request) (*Result, error) {
	res, err := v.Translator.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := v.checker.Check(res.TranslatedText, req.TargetLang); err != nil {
		return nil, fmt.Errorf("language check: %w", err)
	}
	return res, nil
}
