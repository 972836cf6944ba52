package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jjjmaes/AIT-sub001/internal/llm"
	"github.com/Jjjmaes/AIT-sub001/internal/placeholder"
	"github.com/Jjjmaes/AIT-sub001/internal/postprocess"
)

// LLMTranslator translates through a chat-completion model. Markup is
// shielded with placeholders and the answer is cleaned of model chatter.
type LLMTranslator struct {
	client llm.Client
}

func NewLLMTranslator(client llm.Client) *LLMTranslator {
	return &LLMTranslator{client: client}
}

func (t *LLMTranslator) Name() string { return t.client.Name() }

func (t *LLMTranslator) Translate(ctx context.Context, req Request) (*Result, error) {
	protected := placeholder.Protect(req.Text)

	comp, err := t.client.Complete(ctx, llm.Request{
		System:      buildSystemPrompt(req, protected.Len() > 0),
		User:        protected.Text,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	text := postprocess.Clean(comp.Content)
	if text == "" {
		return nil, errors.New("empty translation")
	}
	restored, err := protected.Restore(text)
	if err != nil {
		return nil, fmt.Errorf("translation: %w", err)
	}

	return &Result{
		TranslatedText: restored,
		Model:          comp.Model,
		TokenCount:     comp.TokenCount,
		Latency:        comp.Latency,
	}, nil
}

// buildSystemPrompt injects the domain, glossary terms, neighbouring
// segments and project instructions.
func buildSystemPrompt(req Request, hasMarkers bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a professional translator. Translate the user's text from %s to %s.\n", req.SourceLang, req.TargetLang)
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, just the translation.")
	if hasMarkers {
		sb.WriteString(" ")
		sb.WriteString(placeholder.InstructionHint())
	}

	if req.Domain != "" {
		fmt.Fprintf(&sb, "\n\nSUBJECT DOMAIN: %s", req.Domain)
	}

	if len(req.Terms) > 0 {
		sb.WriteString("\n\nTERMINOLOGY (use these exact translations):\n")
		for _, term := range req.Terms {
			fmt.Fprintf(&sb, "  %s → %s\n", term.Source, term.Target)
		}
	}

	if len(req.Context) > 0 {
		sb.WriteString("\n\nSURROUNDING TEXT (for reference only, do NOT translate it):\n")
		for _, c := range req.Context {
			fmt.Fprintf(&sb, "  | %s\n", c)
		}
	}

	if req.Instructions != "" {
		fmt.Fprintf(&sb, "\n\nPROJECT INSTRUCTIONS: %s", req.Instructions)
	}

	return sb.String()
}
