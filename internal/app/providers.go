package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jjjmaes/AIT-sub001/internal/config"
	"github.com/Jjjmaes/AIT-sub001/internal/llm"
	"github.com/Jjjmaes/AIT-sub001/internal/reviewer"
	"github.com/Jjjmaes/AIT-sub001/internal/translator"
	"github.com/Jjjmaes/AIT-sub001/internal/validator"
)

func llmConfig(p config.ProviderConfig) llm.Config {
	return llm.Config{
		Provider: p.Provider,
		BaseURL:  p.BaseURL,
		APIKey:   p.APIKey,
		Model:    p.Model,
		Timeout:  p.Timeout,
	}
}

// NewTranslator builds the configured translation capability. With a refine
// model the draft gets a second editorial pass; AI output is checked for the
// target language when checkLanguage is set.
func NewTranslator(p config.ProviderConfig, checkLanguage bool, log *slog.Logger) (translator.Translator, error) {
	var t translator.Translator
	switch strings.ToLower(p.Provider) {
	case "google":
		t = translator.NewGoogleTranslator(p.Credentials, p.APIKey, p.ProjectID)
	case "ollama", "openrouter":
		client, err := llm.New(llmConfig(p))
		if err != nil {
			return nil, err
		}
		t = translator.NewLLMTranslator(client)
		if p.RefineModel != "" {
			ec := llmConfig(p)
			ec.Model = p.RefineModel
			editor, err := llm.New(ec)
			if err != nil {
				return nil, err
			}
			t = translator.NewRefined(t, editor, log.With("component", "refine"))
		}
	default:
		return nil, fmt.Errorf("unsupported translator provider: %q", p.Provider)
	}
	if checkLanguage {
		t = translator.NewValidated(t, validator.New())
	}
	return t, nil
}

// NewReviewer builds the configured review capability, or nil for "none".
func NewReviewer(p config.ProviderConfig) (reviewer.Reviewer, error) {
	switch strings.ToLower(p.Provider) {
	case "none", "":
		return nil, nil
	case "ollama", "openrouter":
		client, err := llm.New(llmConfig(p))
		if err != nil {
			return nil, err
		}
		return reviewer.NewLLMReviewer(client), nil
	default:
		return nil, fmt.Errorf("unsupported reviewer provider: %q", p.Provider)
	}
}
