package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultOpenRouterModel = "qwen/qwen2.5-72b-instruct:free"

type openRouter struct {
	rc      *resty.Client
	baseURL string
	apiKey  string
	model   string
}

func newOpenRouter(rc *resty.Client, cfg Config) *openRouter {
	base := cfg.BaseURL
	if base == "" {
		base = "https://openrouter.ai"
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenRouterModel
	}
	return &openRouter{rc: rc, baseURL: base, apiKey: cfg.APIKey, model: model}
}

func (c *openRouter) Name() string { return "openrouter" }

func (c *openRouter) Complete(ctx context.Context, req Request) (*Completion, error) {
	if c.apiKey == "" {
		return nil, errors.New("OpenRouter API key required")
	}
	start := time.Now()

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature": req.Temperature,
		"max_tokens":  4096,
	}
	if req.JSON {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	var resp struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	r, err := c.rc.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("HTTP-Referer", "https://github.com/Jjjmaes/AIT-sub001").
		SetHeader("X-Title", "ait").
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		Post(openRouterURL(c.baseURL, "/chat/completions"))
	if err != nil {
		return nil, err
	}
	if r.IsError() {
		return nil, &StatusError{Provider: c.Name(), Code: r.StatusCode(), Body: r.String()}
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from OpenRouter")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return &Completion{
		Content:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      model,
		TokenCount: resp.Usage.TotalTokens,
		Latency:    time.Since(start),
	}, nil
}

// openRouterURL builds a URL for OpenRouter whether base contains /api/v1 or not.
func openRouterURL(base, tail string) string {
	b := strings.TrimRight(base, "/")
	if idx := strings.Index(b, "/api/v1"); idx >= 0 {
		return b[:idx+len("/api/v1")] + tail
	}
	return b + "/api/v1" + tail
}
