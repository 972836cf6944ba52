package segmenter_test

import (
	"strings"
	"testing"

	"github.com/Jjjmaes/AIT-sub001/internal/segmenter"
)

func TestParagraphs(t *testing.T) {
	text := "First line\nstill first.\r\n\r\n\n  Second paragraph.  \n\nThird"
	got := segmenter.Paragraphs(text)
	want := []string{"First line still first.", "Second paragraph.", "Third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplit_ShortAndUnlimited(t *testing.T) {
	if got := segmenter.Split("Hello, world!", 100); len(got) != 1 || got[0] != "Hello, world!" {
		t.Errorf("unexpected split %q", got)
	}
	long := strings.Repeat("word ", 500)
	if got := segmenter.Split(long, 0); len(got) != 1 {
		t.Errorf("expected 1 piece without a limit, got %d", len(got))
	}
	if got := segmenter.Split("   ", 10); len(got) != 0 {
		t.Errorf("expected no pieces for blank text, got %q", got)
	}
}

func TestSplit_SentenceBoundary(t *testing.T) {
	text := "First sentence ends here. Second sentence follows. Third sentence."
	got := segmenter.Split(text, 30)
	want := []string{"First sentence ends here.", "Second sentence follows.", "Third sentence."}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("piece %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplit_WordBoundaryKeepsWords(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	got := segmenter.Split(text, 20)
	if len(got) < 2 {
		t.Fatalf("expected several pieces, got %q", got)
	}
	for _, p := range got {
		if len([]rune(p)) > 20 {
			t.Errorf("piece %q exceeds the limit", p)
		}
		if p != strings.TrimSpace(p) || p == "" {
			t.Errorf("piece %q is not trimmed", p)
		}
	}
	if strings.Join(got, " ") != text {
		t.Errorf("words lost: %q", got)
	}
}

func TestSplit_HardCutAndRunes(t *testing.T) {
	text := strings.Repeat("я", 25)
	got := segmenter.Split(text, 10)
	if len(got) != 3 || got[0] != strings.Repeat("я", 10) || got[2] != strings.Repeat("я", 5) {
		t.Errorf("unexpected hard cut %q", got)
	}
}

func TestSplitAll(t *testing.T) {
	got := segmenter.SplitAll([]string{"Short.", "A much longer one. It has two sentences."}, 25)
	if len(got) != 3 || got[0] != "Short." || got[2] != "It has two sentences." {
		t.Errorf("unexpected pieces %q", got)
	}
}
