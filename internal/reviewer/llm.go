package reviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/llm"
	"github.com/Jjjmaes/AIT-sub001/internal/postprocess"
)

// templates maps a template name onto the focus paragraph of the prompt.
var templates = map[string]string{
	"default":     "Check accuracy, omissions, additions, terminology, grammar, style, formatting and consistency.",
	"terminology": "Concentrate on terminology and consistency. Report other problems only when they change the meaning.",
	"light":       "Report only accuracy problems, omissions and additions. Ignore style preferences.",
}

// Templates returns the known template names in sorted order.
func Templates() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LLMReviewer reviews through a chat-completion model in JSON mode.
type LLMReviewer struct {
	client llm.Client
}

func NewLLMReviewer(client llm.Client) *LLMReviewer {
	return &LLMReviewer{client: client}
}

func (r *LLMReviewer) Name() string { return r.client.Name() }

func (r *LLMReviewer) Review(ctx context.Context, req Request) (*Result, error) {
	name := req.Template
	if name == "" {
		name = "default"
	}
	focus, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown review template %q", name)
	}

	comp, err := r.client.Complete(ctx, llm.Request{
		System:      buildReviewPrompt(req, focus),
		User:        buildReviewInput(req),
		JSON:        true,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	res, err := parseReviewResponse(comp.Content)
	if err != nil {
		return nil, err
	}
	res.Model = comp.Model
	res.Template = name
	res.TokenCount = comp.TokenCount
	res.Latency = comp.Latency
	return res, nil
}

func buildReviewPrompt(req Request, focus string) string {
	var sb strings.Builder
	sb.WriteString("You are a professional translation reviewer.\n")
	fmt.Fprintf(&sb, "You review a translation from %s to %s. %s\n", req.SourceLang, req.TargetLang, focus)

	if req.Domain != "" {
		fmt.Fprintf(&sb, "\nSUBJECT DOMAIN: %s\n", req.Domain)
	}
	if len(req.Terms) > 0 {
		sb.WriteString("\nREQUIRED TERMINOLOGY:\n")
		for _, term := range req.Terms {
			fmt.Fprintf(&sb, "  %s → %s\n", term.Source, term.Target)
		}
	}
	if len(req.Context) > 0 {
		sb.WriteString("\nSURROUNDING SOURCE TEXT (reference only):\n")
		for _, c := range req.Context {
			fmt.Fprintf(&sb, "  | %s\n", c)
		}
	}
	if req.Instructions != "" {
		fmt.Fprintf(&sb, "\nPROJECT INSTRUCTIONS: %s\n", req.Instructions)
	}

	sb.WriteString(`
Respond ONLY in JSON:
{
  "issues": [
    {
      "type": "terminology|grammar|style|accuracy|formatting|consistency|omission|addition|other",
      "severity": "low|medium|high|critical",
      "description": "...",
      "source_span": {"start": 0, "end": 0},
      "target_span": {"start": 0, "end": 0},
      "suggestion": "..."
    }
  ],
  "suggested_translation": "...",
  "scores": [{"dimension": "accuracy", "value": 0}]
}
Spans are character offsets and may be omitted. Use an empty issues list when the translation is correct.
`)
	return sb.String()
}

func buildReviewInput(req Request) string {
	return fmt.Sprintf("SOURCE:\n%s\n\nTRANSLATION:\n%s", req.Source, req.Translation)
}

type reviewResponse struct {
	Issues               []Finding       `json:"issues"`
	SuggestedTranslation string          `json:"suggested_translation"`
	Scores               json.RawMessage `json:"scores"`
}

func parseReviewResponse(content string) (*Result, error) {
	raw, err := postprocess.ExtractJSON(content)
	if err != nil {
		return nil, err
	}

	var parsed reviewResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse review response as JSON: %w", err)
	}

	scores, err := parseScores(parsed.Scores)
	if err != nil {
		return nil, err
	}

	return &Result{
		Findings:             parsed.Issues,
		SuggestedTranslation: strings.TrimSpace(parsed.SuggestedTranslation),
		Scores:               scores,
	}, nil
}

// parseScores accepts either a list of {dimension, value} or an object keyed
// by dimension; models produce both.
func parseScores(raw json.RawMessage) ([]domain.Score, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []domain.Score
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var byName map[string]float64
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("failed to parse review scores: %w", err)
	}
	list = make([]domain.Score, 0, len(byName))
	for dim, v := range byName {
		list = append(list, domain.Score{Dimension: dim, Value: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Dimension < list[j].Dimension })
	return list, nil
}
