package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleTranslator calls the Cloud Translation v2 API. It ignores context,
// terms and instructions.
type GoogleTranslator struct {
	credentials string
	apiKey      string
	project     string // billed quota project, optional
}

func NewGoogleTranslator(credentials, apiKey, project string) *GoogleTranslator {
	return &GoogleTranslator{credentials: credentials, apiKey: apiKey, project: project}
}

func (s *GoogleTranslator) Name() string {
	return "google"
}

func (s *GoogleTranslator) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	if s.apiKey != "" {
		opts = append(opts, option.WithAPIKey(s.apiKey))
	}
	if s.project != "" {
		opts = append(opts, option.WithQuotaProject(s.project))
	}
	return opts
}

func (s *GoogleTranslator) Translate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid target language: %w", err)
	}
	var opts *translate.Options
	if req.SourceLang != "" && req.SourceLang != "auto" {
		source, err := language.Parse(req.SourceLang)
		if err != nil {
			return nil, fmt.Errorf("invalid source language: %w", err)
		}
		opts = &translate.Options{Source: source, Format: translate.Text}
	}

	client, err := translate.NewClient(ctx, s.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	translations, err := client.Translate(ctx, []string{req.Text}, target, opts)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		return nil, errors.New("no translation returned")
	}

	return &Result{
		TranslatedText: translations[0].Text,
		Model:          "google-nmt",
		Latency:        time.Since(start),
	}, nil
}
