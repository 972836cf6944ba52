// Package llm talks to chat-completion endpoints (OpenRouter, Ollama) over
// resty and reports the model, token usage and latency of every call.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// Config selects and parameterises one provider.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Request is one system+user exchange.
type Request struct {
	System      string
	User        string
	JSON        bool // ask the provider for a JSON object
	Temperature float64
}

// Completion is the raw model output plus its cost.
type Completion struct {
	Content    string
	Model      string
	TokenCount int
	Latency    time.Duration
}

// Client is a chat-completion backend.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// StatusError reports a non-2xx answer from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Code, abbreviate(e.Body, 500))
}

// New builds the client named by cfg.Provider.
func New(cfg Config) (Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	rc := resty.New().SetTimeout(timeout)

	switch strings.ToLower(cfg.Provider) {
	case "openrouter":
		return newOpenRouter(rc, cfg), nil
	case "ollama":
		return newOllama(rc, cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// abbreviate keeps at most n runes of s, marking a cut with "...".
func abbreviate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
