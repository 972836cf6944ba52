package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/llm"
)

type fakeClient struct {
	content string
	err     error
	last    llm.Request
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (*llm.Completion, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Content: f.content, Model: "fake-1", TokenCount: 7}, nil
}

func TestLLMTranslator_Ollama(t *testing.T) {
	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"gemma2:27b","message":{"role":"assistant","content":"Bonjour le monde"},"prompt_eval_count":20,"eval_count":4}`))
	}))
	defer server.Close()

	client, err := llm.New(llm.Config{Provider: "ollama", BaseURL: server.URL, Model: "gemma2:27b"})
	if err != nil {
		t.Fatal(err)
	}
	tr := NewLLMTranslator(client)

	res, err := tr.Translate(context.Background(), Request{Text: "Hello world", SourceLang: "en", TargetLang: "fr"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.TranslatedText != "Bonjour le monde" || res.Model != "gemma2:27b" || res.TokenCount != 24 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(body.Messages) != 2 || body.Messages[1].Content != "Hello world" {
		t.Errorf("unexpected messages %+v", body.Messages)
	}
}

func TestLLMTranslator_Prompt(t *testing.T) {
	fc := &fakeClient{content: "Salut"}
	tr := NewLLMTranslator(fc)

	_, err := tr.Translate(context.Background(), Request{
		Text:         "Hi",
		SourceLang:   "en",
		TargetLang:   "fr",
		Context:      []string{"Before.", "After."},
		Terms:        []domain.Term{{Source: "invoice", Target: "facture"}},
		Domain:       "finance",
		Instructions: "Use formal register.",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"from en to fr", "invoice → facture", "| Before.", "finance", "Use formal register."} {
		if !strings.Contains(fc.last.System, want) {
			t.Errorf("system prompt missing %q:\n%s", want, fc.last.System)
		}
	}
	if strings.Contains(fc.last.System, "[PHn]") {
		t.Error("placeholder hint should only appear when markup was protected")
	}
}

func TestLLMTranslator_Placeholders(t *testing.T) {
	fc := &fakeClient{content: "Translation: [PH0]Bonjour[PH1] {PH2}"}
	tr := NewLLMTranslator(fc)

	// The model mangled the third marker.
	_, err := tr.Translate(context.Background(), Request{Text: "<b>Hello</b> {name}", SourceLang: "en", TargetLang: "fr"})
	if err == nil {
		t.Fatal("expected error for lost placeholder")
	}
	if !strings.Contains(fc.last.System, "[PHn]") {
		t.Error("expected placeholder hint in prompt")
	}

	fc.content = "[PH0]Bonjour[PH1] [PH2]"
	res, err := tr.Translate(context.Background(), Request{Text: "<b>Hello</b> {name}", SourceLang: "en", TargetLang: "fr"})
	if err != nil {
		t.Fatal(err)
	}
	if res.TranslatedText != "<b>Bonjour</b> {name}" {
		t.Errorf("unexpected restore %q", res.TranslatedText)
	}
}

func TestLLMTranslator_Errors(t *testing.T) {
	boom := errors.New("boom")
	tr := NewLLMTranslator(&fakeClient{err: boom})
	if _, err := tr.Translate(context.Background(), Request{Text: "Hi"}); !errors.Is(err, boom) {
		t.Errorf("expected client error, got %v", err)
	}

	tr = NewLLMTranslator(&fakeClient{content: "   "})
	if _, err := tr.Translate(context.Background(), Request{Text: "Hi"}); err == nil {
		t.Error("expected error for empty translation")
	}
}

type stubChecker struct{ err error }

func (s stubChecker) Check(string, string) error { return s.err }

func TestValidated(t *testing.T) {
	inner := NewLLMTranslator(&fakeClient{content: "Hallo"})

	v := NewValidated(inner, stubChecker{})
	if res, err := v.Translate(context.Background(), Request{Text: "Hello", TargetLang: "de"}); err != nil || res.TranslatedText != "Hallo" {
		t.Fatalf("unexpected %v %v", res, err)
	}
	if v.Name() != "fake" {
		t.Errorf("expected wrapped name, got %q", v.Name())
	}

	v = NewValidated(inner, stubChecker{err: errors.New("detected en, expected de")})
	if _, err := v.Translate(context.Background(), Request{Text: "Hello", TargetLang: "de"}); err == nil {
		t.Error("expected language check error")
	}
}

func TestGoogleTranslator_InvalidLanguage(t *testing.T) {
	g := NewGoogleTranslator("", "key", "")
	if g.Name() != "google" {
		t.Errorf("unexpected name %q", g.Name())
	}
	if opts := NewGoogleTranslator("creds.json", "", "billing").clientOptions(); len(opts) != 2 {
		t.Errorf("expected credentials and quota project options, got %d", len(opts))
	}
	if _, err := g.Translate(context.Background(), Request{Text: "Hi", TargetLang: "not a tag!"}); err == nil {
		t.Error("expected error for invalid target language")
	}
}

func TestRefined(t *testing.T) {
	draft := &fakeClient{content: "Привіт, [PH0]світе[PH1]"}
	editor := &fakeClient{content: "Вітаю, [PH0]світе[PH1]"}
	tr := NewRefined(NewLLMTranslator(draft), editor, diag.Discard())

	res, err := tr.Translate(context.Background(), Request{Text: "Hello, <b>world</b>", SourceLang: "en", TargetLang: "uk"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.TranslatedText != "Вітаю, <b>світе</b>" {
		t.Errorf("unexpected refined text %q", res.TranslatedText)
	}
	if res.Model != "fake-1+fake-1" || res.TokenCount != 14 {
		t.Errorf("unexpected cost %+v", res)
	}
	if !strings.Contains(editor.last.User, "DRAFT (uk):\nПривіт, [PH0]світе[PH1]") {
		t.Errorf("draft markup should be protected, got %q", editor.last.User)
	}
	if tr.Name() != "fake+fake" {
		t.Errorf("unexpected name %q", tr.Name())
	}
}

func TestRefined_FallsBackToDraft(t *testing.T) {
	tests := []struct {
		name   string
		editor *fakeClient
	}{
		{"error", &fakeClient{err: errors.New("overloaded")}},
		{"empty", &fakeClient{content: "  "}},
		{"lost markup", &fakeClient{content: "Вітаю, світе"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewRefined(NewLLMTranslator(&fakeClient{content: "Привіт, [PH0]світе[PH1]"}), tt.editor, diag.Discard())
			res, err := tr.Translate(context.Background(), Request{Text: "Hello, <b>world</b>", SourceLang: "en", TargetLang: "uk"})
			if err != nil {
				t.Fatalf("expected draft, got error %v", err)
			}
			if res.TranslatedText != "Привіт, <b>світе</b>" || res.Model != "fake-1" {
				t.Errorf("expected the draft back, got %+v", res)
			}
		})
	}
}

func TestRefined_DraftErrorPropagates(t *testing.T) {
	editor := &fakeClient{content: "unused"}
	tr := NewRefined(NewLLMTranslator(&fakeClient{err: errors.New("down")}), editor, diag.Discard())
	if _, err := tr.Translate(context.Background(), Request{Text: "Hi", SourceLang: "en", TargetLang: "uk"}); err == nil {
		t.Fatal("expected draft error")
	}
	if editor.last.User != "" {
		t.Error("editor must not run without a draft")
	}
}
