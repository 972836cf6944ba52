package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/llm"
	"github.com/Jjjmaes/AIT-sub001/internal/placeholder"
	"github.com/Jjjmaes/AIT-sub001/internal/postprocess"
)

// Refined runs a second, editorial pass over the draft of another
// Translator. When the pass fails the draft is returned as is.
type Refined struct {
	Translator
	editor llm.Client
	log    *slog.Logger
}

func NewRefined(t Translator, editor llm.Client, log *slog.Logger) *Refined {
	return &Refined{Translator: t, editor: editor, log: log}
}

func (r *Refined) Name() string { return r.Translator.Name() + "+" + r.editor.Name() }

func (r *Refined) Translate(ctx context.Context, req Request) (*Result, error) {
	draft, err := r.Translator.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	text, comp, err := r.refine(ctx, req, draft.TranslatedText)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn("refinement failed, keeping draft", "model", r.editor.Name(), diag.Err(err))
		return draft, nil
	}
	return &Result{
		TranslatedText: text,
		Model:          draft.Model + "+" + comp.Model,
		TokenCount:     draft.TokenCount + comp.TokenCount,
		Latency:        draft.Latency + comp.Latency,
	}, nil
}

func (r *Refined) refine(ctx context.Context, req Request, draft string) (string, *llm.Completion, error) {
	protected := placeholder.Protect(draft)
	comp, err := r.editor.Complete(ctx, llm.Request{
		System:      buildRefinePrompt(req, protected.Len() > 0),
		User:        fmt.Sprintf("ORIGINAL (%s):\n%s\n\nDRAFT (%s):\n%s", req.SourceLang, req.Text, req.TargetLang, protected.Text),
		Temperature: 0.3,
	})
	if err != nil {
		return "", nil, err
	}
	text := postprocess.Clean(comp.Content)
	if text == "" {
		return "", nil, errors.New("empty refinement")
	}
	refined, err := protected.Restore(text)
	if err != nil {
		return "", nil, fmt.Errorf("refinement: %w", err)
	}
	return refined, comp, nil
}

func buildRefinePrompt(req Request, hasMarkers bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an experienced %s editor. You receive an original text and a DRAFT translation of it.\n", req.TargetLang)
	sb.WriteString("Rewrite the draft so that it reads naturally and idiomatically while keeping the meaning, names and technical terms intact. ")
	sb.WriteString("If the draft is already good, return it unchanged.\n")
	fmt.Fprintf(&sb, "Output ONLY the refined %s translation of the draft. No explanations, no quotes.", req.TargetLang)
	if hasMarkers {
		sb.WriteString(" ")
		sb.WriteString(placeholder.InstructionHint())
	}
	if len(req.Terms) > 0 {
		sb.WriteString("\n\nTERMINOLOGY (keep these exact translations):\n")
		for _, term := range req.Terms {
			fmt.Fprintf(&sb, "  %s → %s\n", term.Source, term.Target)
		}
	}
	if req.Instructions != "" {
		fmt.Fprintf(&sb, "\n\nPROJECT INSTRUCTIONS:\n%s", req.Instructions)
	}
	return sb.String()
}
