// Package memory looks up prior translations of a source text within a
// project and language pair.
package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Jjjmaes/AIT-sub001/internal/quality"
	"github.com/Jjjmaes/AIT-sub001/internal/store"
)

// Exact is the score of an authoritative match.
const Exact = 100

// Texts longer than this are not fuzzy matched.
const maxFuzzyRunes = 1000

// Store is the part of the persistence layer the matcher reads.
type Store interface {
	LookupMemory(ctx context.Context, projectID int64, sourceText, sourceLang, targetLang string) (string, bool, error)
	MemoryCandidates(ctx context.Context, projectID int64, sourceLang, targetLang string, minLen, maxLen int) ([]store.MemoryEntry, error)
}

// Match is one prior translation and how closely its source matched.
type Match struct {
	TargetText string `json:"target_text"`
	SourceText string `json:"source_text"`
	Score      int    `json:"score"`
}

type Options struct {
	// FuzzyThreshold is the minimum similarity score (1-99) of a fuzzy
	// match; 0 disables fuzzy matching.
	FuzzyThreshold int
	// MaxMatches caps the result length; 0 means no cap.
	MaxMatches int
}

type Matcher struct {
	store Store
	opts  Options
}

func NewMatcher(s Store, opts Options) *Matcher {
	return &Matcher{store: s, opts: opts}
}

// FindMatches returns prior translations ordered by descending score. An
// exact match scores 100 and comes first; fuzzy matches score below 100.
// No match is an empty list, not an error.
func (m *Matcher) FindMatches(ctx context.Context, sourceText, sourceLang, targetLang string, projectID int64) ([]Match, error) {
	key := norm.NFC.String(strings.TrimSpace(sourceText))
	if key == "" {
		return nil, nil
	}

	var matches []Match
	text, found, err := m.store.LookupMemory(ctx, projectID, key, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	if found {
		matches = append(matches, Match{TargetText: text, SourceText: key, Score: Exact})
	}

	fuzzy, err := m.fuzzy(ctx, key, sourceLang, targetLang, projectID)
	if err != nil {
		return nil, err
	}
	matches = append(matches, fuzzy...)

	if m.opts.MaxMatches > 0 && len(matches) > m.opts.MaxMatches {
		matches = matches[:m.opts.MaxMatches]
	}
	return matches, nil
}

func (m *Matcher) fuzzy(ctx context.Context, key, sourceLang, targetLang string, projectID int64) ([]Match, error) {
	threshold := m.opts.FuzzyThreshold
	if threshold <= 0 || threshold >= Exact {
		return nil, nil
	}
	n := len([]rune(key))
	if n > maxFuzzyRunes {
		return nil, nil
	}

	// A candidate whose length alone rules out the threshold is never loaded.
	minLen := int(math.Ceil(float64(n) * float64(threshold) / 100))
	maxLen := int(math.Floor(float64(n) * 100 / float64(threshold)))
	candidates, err := m.store.MemoryCandidates(ctx, projectID, sourceLang, targetLang, minLen, maxLen)
	if err != nil {
		return nil, err
	}

	var out []Match
	for _, c := range candidates {
		if c.SourceText == key {
			continue
		}
		score := int(math.Floor(quality.Similarity(key, c.SourceText) * 100))
		if score >= Exact {
			score = Exact - 1
		}
		if score < threshold {
			continue
		}
		out = append(out, Match{TargetText: c.TargetText, SourceText: c.SourceText, Score: score})
	}
	slices.SortStableFunc(out, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.SourceText, b.SourceText)
	})
	return out, nil
}
