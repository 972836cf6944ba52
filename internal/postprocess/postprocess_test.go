package postprocess

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRemoveThinkingBlocks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no thinking blocks", "Hello, this is a normal translation.", "Hello, this is a normal translation."},
		{"simple thinking block", "Some text<thinking>Let me translate this</thinking>More text", "Some textMore text"},
		{"think block", "<think>\nhmm\n</think>\nBonjour", "Bonjour"},
		{"reasoning block", "Start<reasoning>Analyzing the grammar</reasoning>End", "StartEnd"},
		{"multiple blocks", "<thinking>First</thinking>middle<reflection>Second</reflection>", "middle"},
		{"truncated block", "<thinking>Translation in progress", ""},
		{"truncated in middle", "Before<thinking>Incomplete", "Before"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := removeThinkingBlocks(tt.input); got != tt.expected {
				t.Errorf("removeThinkingBlocks(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveInstructionEchoes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Here is the translation: Bonjour", "Bonjour"},
		{"Here's the translated text:\nHallo", "Hallo"},
		{"Translation: Ciao", "Ciao"},
		{"Sure, here is the translation: Hola", "Hola"},
		{"The translation is accurate", "The translation is accurate"},
		{"Note: Translation: keep", "Note: Translation: keep"},
	}

	for _, tt := range tests {
		if got := removeInstructionEchoes(tt.input); got != tt.expected {
			t.Errorf("removeInstructionEchoes(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRemoveQuoteWrapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"Bonjour"`, "Bonjour"},
		{"«Привіт»", "Привіт"},
		{"“Hallo”", "Hallo"},
		{"「こんにちは」", "こんにちは"},
		{`"unbalanced`, `"unbalanced`},
		{`He said "hi"`, `He said "hi"`},
		{`"`, `"`},
	}

	for _, tt := range tests {
		if got := removeQuoteWrapping(tt.input); got != tt.expected {
			t.Errorf("removeQuoteWrapping(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"Just a normal translation.", "Just a normal translation."},
		{"<thinking>Thinking</thinking>Here's the translation:\n\"Translated text\"", "Translated text"},
		{"Text<thinking>Incomplete", "Text"},
	}

	for _, tt := range tests {
		if got := Clean(tt.input); got != tt.expected {
			t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare", `{"issues":[]}`},
		{"fenced", "```json\n{\"issues\":[]}\n```"},
		{"fenced no lang", "```\n{\"issues\":[]}\n```"},
		{"surrounded", "Sure! Here is my review: {\"issues\":[]} Hope it helps."},
		{"after thinking", "<think>{\"draft\": 1}</think>{\"issues\":[]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("ExtractJSON failed: %v", err)
			}
			var v struct {
				Issues []any `json:"issues"`
			}
			if err := json.Unmarshal(raw, &v); err != nil || v.Issues == nil {
				t.Errorf("unexpected payload %s (%v)", raw, err)
			}
		})
	}
}

func TestExtractJSON_None(t *testing.T) {
	for _, in := range []string{"", "no json here", "{broken", `["array"]`} {
		if _, err := ExtractJSON(in); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractJSON(%q): expected ErrNoJSON, got %v", in, err)
		}
	}
}
