package markdown_test

import (
	"testing"

	"github.com/Jjjmaes/AIT-sub001/internal/markdown"
)

func TestSegments(t *testing.T) {
	src := []byte("# Getting started\n\n" +
		"Install the tool with `make install` and\nrun it.\n\n" +
		"```sh\nait --help\n```\n\n" +
		"- First **item**\n- Second [link](https://example.com)\n\n" +
		"<div>\nraw block\n</div>\n\n" +
		"Press <kbd>Ctrl</kbd> to stop.\n")

	got := markdown.Segments(src)
	want := []string{
		"Getting started",
		"Install the tool with `make install` and run it.",
		"First item",
		"Second link",
		"Press <kbd>Ctrl</kbd> to stop.",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d segments, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSegments_Empty(t *testing.T) {
	if got := markdown.Segments([]byte("```\nonly code\n```\n")); len(got) != 0 {
		t.Errorf("expected no segments, got %q", got)
	}
}
