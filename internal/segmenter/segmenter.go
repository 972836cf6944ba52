// Package segmenter cuts imported text into segments: one per paragraph, with
// paragraphs longer than a limit split at sentence or word boundaries.
package segmenter

import (
	"strings"
	"unicode"
)

// Paragraphs splits text at blank lines. Line breaks inside a paragraph
// become single spaces.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

// Split cuts text into pieces of at most maxRunes runes. It prefers, in
// order, a sentence end followed by whitespace, then whitespace, then a hard
// cut. maxRunes <= 0 means no limit. Pieces are trimmed and never empty.
func Split(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return []string{text}
	}

	var out []string
	for len(runes) > maxRunes {
		cut := splitPoint(runes, maxRunes)
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			out = append(out, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// SplitAll applies Split to every element of texts.
func SplitAll(texts []string, maxRunes int) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		out = append(out, Split(t, maxRunes)...)
	}
	return out
}

// splitPoint returns the rune offset to cut runes at; the head is at most max
// runes long.
func splitPoint(runes []rune, max int) int {
	for i := max - 1; i > 0; i-- {
		if isSentenceEnd(runes[i]) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	for i := max; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return max
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}
