package placeholder_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/Jjjmaes/AIT-sub001/internal/placeholder"
)

func TestProtect_NoMarkup(t *testing.T) {
	text := "Hello, world!"
	p := placeholder.Protect(text)
	if p.Text != text || p.Len() != 0 {
		t.Errorf("expected unchanged text without markers, got %q (%d)", p.Text, p.Len())
	}
	out, err := p.Restore("Привіт, світе!")
	if err != nil || out != "Привіт, світе!" {
		t.Errorf("unexpected restore %q %v", out, err)
	}
}

func TestProtect_Kinds(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		markers int
		gone    []string
	}{
		{"tags", "<p>Hello <b>world</b></p>", 4, []string{"<p>", "<b>", "</b>", "</p>"}},
		{"fenced code", "Before\n```go\nfmt.Println(\"<b>{x}</b>\")\n```\nAfter", 1, []string{"Println"}},
		{"inline code", "Run `make test` first", 1, []string{"make test"}},
		{"variables", "Hello {name}, you have {{count}} new {user.kind} items", 3, []string{"{name}", "{{count}}", "{user.kind}"}},
		{"mixed", "See <a href=\"#\">link</a> or use `code` for {file}.", 4, []string{"<a", "`code`", "{file}"}},
		{"literal marker", "Field [PH0] stays, <i>styled</i>", 3, []string{"<i>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := placeholder.Protect(tt.text)
			if p.Len() != tt.markers {
				t.Fatalf("expected %d markers, got %d: %q", tt.markers, p.Len(), p.Text)
			}
			for _, g := range tt.gone {
				if strings.Contains(p.Text, g) {
					t.Errorf("expected %q to be replaced in %q", g, p.Text)
				}
			}
			restored, err := p.Restore(p.Text)
			if err != nil {
				t.Fatalf("Restore failed: %v", err)
			}
			if restored != tt.text {
				t.Errorf("round-trip failed:\n  original: %q\n  restored: %q", tt.text, restored)
			}
		})
	}
}

func TestProtect_DocumentOrder(t *testing.T) {
	p := placeholder.Protect("{a} <b>`c`</b>")
	if p.Text != "[PH0] [PH1][PH2][PH3]" {
		t.Errorf("expected markers in document order, got %q", p.Text)
	}
}

func TestProtect_BracesWithoutIdentifierKept(t *testing.T) {
	text := "Use {} or { spaced } as literal braces"
	p := placeholder.Protect(text)
	if p.Len() != 0 || p.Text != text {
		t.Errorf("expected literal braces untouched, got %q", p.Text)
	}
}

func TestRestore_TranslatedOrder(t *testing.T) {
	// Word order changes in translation; markers move with it.
	p := placeholder.Protect("You have {count} new messages, {name}")
	got, err := p.Restore("[PH1], маєш [PH0] нових повідомлень")
	if err != nil {
		t.Fatal(err)
	}
	if got != "{name}, маєш {count} нових повідомлень" {
		t.Errorf("unexpected restore %q", got)
	}
}

func TestRestore_UnknownIndexKept(t *testing.T) {
	p := placeholder.Protect("<p>text</p>")
	got, err := p.Restore("[PH0]текст[PH1] [PH99]")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>текст</p> [PH99]" {
		t.Errorf("expected [PH99] to remain, got %q", got)
	}
}

func TestRestore_LostMarkers(t *testing.T) {
	p := placeholder.Protect("<p>Hello <b>world</b></p>")
	if missing := p.Missing("[PH0] Привіт [PH1]світ"); !slices.Equal(missing, []int{2, 3}) {
		t.Errorf("expected missing [2 3], got %v", missing)
	}

	_, err := p.Restore("[PH0] Привіт {PH1}світ[PH2][PH3]")
	var lost *placeholder.LostError
	if !errors.As(err, &lost) {
		t.Fatalf("expected LostError, got %v", err)
	}
	if !slices.Equal(lost.Missing, []int{1}) {
		t.Errorf("expected missing [1], got %v", lost.Missing)
	}
}

func TestInstructionHint_NamesMarkers(t *testing.T) {
	if !strings.Contains(placeholder.InstructionHint(), "[PHn]") {
		t.Error("InstructionHint should name the marker format")
	}
}
