// Package translator adapts external machine-translation capabilities to a
// single Translator interface.
package translator

import (
	"context"
	"time"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

// Request carries one segment and the surroundings it should be translated in.
type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	// Context holds neighbouring source segments in document order.
	Context      []string      `json:"context,omitempty"`
	Terms        []domain.Term `json:"terms,omitempty"`
	Domain       string        `json:"domain,omitempty"`
	Instructions string        `json:"instructions,omitempty"`
}

type Result struct {
	TranslatedText string        `json:"translated_text"`
	Model          string        `json:"model"`
	TokenCount     int           `json:"token_count"`
	Latency        time.Duration `json:"latency"`
}

// Translator is an external translation capability. Implementations must be
// safe for concurrent use.
type Translator interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
}
