package llm

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultOllamaModel = "llama3.2"

type ollama struct {
	rc      *resty.Client
	baseURL string
	model   string
}

func newOllama(rc *resty.Client, cfg Config) *ollama {
	base := cfg.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	return &ollama{rc: rc, baseURL: strings.TrimRight(base, "/"), model: model}
}

func (c *ollama) Name() string { return "ollama" }

func (c *ollama) Complete(ctx context.Context, req Request) (*Completion, error) {
	start := time.Now()

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"stream":  false,
		"options": map[string]any{"temperature": req.Temperature},
	}
	if req.JSON {
		body["format"] = "json"
	}

	var resp struct {
		Model   string `json:"model"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		PromptEvalCount int `json:"prompt_eval_count"`
		EvalCount       int `json:"eval_count"`
	}
	r, err := c.rc.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		Post(c.baseURL + "/api/chat")
	if err != nil {
		return nil, err
	}
	if r.IsError() {
		return nil, &StatusError{Provider: c.Name(), Code: r.StatusCode(), Body: r.String()}
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return &Completion{
		Content:    strings.TrimSpace(resp.Message.Content),
		Model:      model,
		TokenCount: resp.PromptEvalCount + resp.EvalCount,
		Latency:    time.Since(start),
	}, nil
}
