package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Jjjmaes/AIT-sub001/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFindMatches_Exact(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.SaveToMemory(ctx, 1, "Hello", "en", "fr", "Bonjour", "final")

	m := NewMatcher(s, Options{})
	got, err := m.FindMatches(ctx, " Hello ", "en", "fr", 1)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(got) != 1 || got[0].Score != Exact || got[0].TargetText != "Bonjour" {
		t.Errorf("unexpected matches %+v", got)
	}
}

func TestFindMatches_ScopedToProjectAndPair(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.SaveToMemory(ctx, 1, "Hello", "en", "fr", "Bonjour", "final")

	m := NewMatcher(s, Options{FuzzyThreshold: 75})
	for _, tc := range []struct {
		project  int64
		src, tgt string
	}{
		{2, "en", "fr"},
		{1, "en", "de"},
		{1, "de", "fr"},
	} {
		got, err := m.FindMatches(ctx, "Hello", tc.src, tc.tgt, tc.project)
		if err != nil {
			t.Fatalf("FindMatches failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("project %d %s->%s: expected no matches, got %+v", tc.project, tc.src, tc.tgt, got)
		}
	}
}

func TestFindMatches_Fuzzy(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.SaveToMemory(ctx, 1, "Open the file", "en", "uk", "Відкрийте файл", "final")
	s.SaveToMemory(ctx, 1, "Open the files", "en", "uk", "Відкрийте файли", "final")
	s.SaveToMemory(ctx, 1, "Close the window now", "en", "uk", "Закрийте вікно", "final")

	m := NewMatcher(s, Options{FuzzyThreshold: 75})
	got, err := m.FindMatches(ctx, "Open the file", "en", "uk", 1)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected exact and one fuzzy match, got %+v", got)
	}
	if got[0].Score != Exact || got[0].TargetText != "Відкрийте файл" {
		t.Errorf("expected exact match first, got %+v", got[0])
	}
	// 1 edit over 14 runes.
	if got[1].Score != 92 || got[1].TargetText != "Відкрийте файли" {
		t.Errorf("unexpected fuzzy match %+v", got[1])
	}
}

func TestFindMatches_FuzzyNeverExact(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.SaveToMemory(ctx, 1, "Save changes", "en", "uk", "Зберегти зміни", "final")

	m := NewMatcher(s, Options{FuzzyThreshold: 50})
	got, err := m.FindMatches(ctx, "Save change", "en", "uk", 1)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one fuzzy match, got %+v", got)
	}
	if got[0].Score >= Exact {
		t.Errorf("fuzzy match must score below %d, got %d", Exact, got[0].Score)
	}
}

func TestFindMatches_FuzzyDisabledAndCap(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.SaveToMemory(ctx, 1, "abcd", "en", "uk", "1", "final")
	s.SaveToMemory(ctx, 1, "abce", "en", "uk", "2", "final")
	s.SaveToMemory(ctx, 1, "abcf", "en", "uk", "3", "final")

	got, _ := NewMatcher(s, Options{}).FindMatches(ctx, "abcx", "en", "uk", 1)
	if len(got) != 0 {
		t.Errorf("fuzzy disabled: expected nothing, got %+v", got)
	}

	got, _ = NewMatcher(s, Options{FuzzyThreshold: 70, MaxMatches: 2}).FindMatches(ctx, "abcx", "en", "uk", 1)
	if len(got) != 2 {
		t.Errorf("expected result capped at 2, got %+v", got)
	}
	for _, mt := range got {
		if mt.Score != 75 {
			t.Errorf("expected score 75, got %+v", mt)
		}
	}
}

func TestFindMatches_Empty(t *testing.T) {
	s := newStore(t)
	got, err := NewMatcher(s, Options{FuzzyThreshold: 75}).FindMatches(context.Background(), "   ", "en", "uk", 1)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty result, got %+v err=%v", got, err)
	}
}
