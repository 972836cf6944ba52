// Package placeholder shields the untranslatable parts of a segment from the
// model. Code, HTML/XML tags and {variables} are swapped for numbered [PHn]
// markers before the request, and the model output is accepted only if every
// marker comes back.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// shielded matches, in one left-to-right pass, everything a segment must keep
// verbatim. At a given position the alternatives are tried in order, so a
// fenced block swallows the tags and backticks inside it. Marker-shaped text
// already present in the source is shielded too, so it can never be confused
// with a marker of ours.
var shielded = regexp.MustCompile(strings.Join([]string{
	"(?s:```.*?```)",                    // fenced code
	"`[^`\n]+`",                         // inline code
	`<[^>]+>`,                           // tags
	`\{\{?[A-Za-z_][A-Za-z0-9_.]*\}\}?`, // {name}, {{count}}, {user.kind}
	`\[PH\d+\]`,                         // literal markers in the source
}, "|"))

var marker = regexp.MustCompile(`\[PH(\d+)\]`)

// LostError reports markers the model dropped or mangled.
type LostError struct {
	Missing []int
}

func (e *LostError) Error() string {
	return fmt.Sprintf("output lost placeholders %v", e.Missing)
}

// Protected is a segment text with its markup replaced by markers.
type Protected struct {
	// Text is what the model gets to see.
	Text      string
	originals []string
}

// Protect replaces the untranslatable spans of text with [PH0], [PH1], ... in
// document order.
func Protect(text string) Protected {
	var originals []string
	masked := shielded.ReplaceAllStringFunc(text, func(span string) string {
		originals = append(originals, span)
		return fmt.Sprintf("[PH%d]", len(originals)-1)
	})
	return Protected{Text: masked, originals: originals}
}

// Len is the number of shielded spans.
func (p Protected) Len() int { return len(p.originals) }

// Missing returns, in order, the indices of markers absent from out.
func (p Protected) Missing(out string) []int {
	var missing []int
	for i := range p.originals {
		if !strings.Contains(out, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// Restore puts the shielded spans back into the model output. Markers may
// have moved with the word order of the target language; every one of them
// must still be present, otherwise a *LostError is returned. Marker-shaped
// text with an unknown index is left as is.
func (p Protected) Restore(out string) (string, error) {
	if missing := p.Missing(out); len(missing) > 0 {
		return "", &LostError{Missing: missing}
	}
	return marker.ReplaceAllStringFunc(out, func(m string) string {
		idx, err := strconv.Atoi(m[len("[PH") : len(m)-1])
		if err != nil || idx >= len(p.originals) {
			return m
		}
		return p.originals[idx]
	}), nil
}

// InstructionHint is appended to prompts whose text carries markers.
func InstructionHint() string {
	return "Keep every [PHn] marker exactly as written. Do not translate or drop them."
}
