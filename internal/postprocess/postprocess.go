// Package postprocess strips the usual LLM artifacts from model output
// before it is stored on a segment.
package postprocess

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Clean removes thinking blocks, then a leading "Here is the translation:"
// style echo, then one pair of wrapping quotes, and trims the result.
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so every tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opened thinking tag that was never closed: the model was cut off.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Each echo pattern is anchored at the start and requires a colon.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:refined |polished |translated |reviewed )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished |reviewed )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

var quotePairs = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'«':  '»',
	'“':  '”',
	'‘':  '’',
	'「':  '」',
}

func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	if closer, ok := quotePairs[runes[0]]; ok && runes[n-1] == closer {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}

// ErrNoJSON is returned by ExtractJSON when the text holds no JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// ExtractJSON returns the JSON object carried by model output, looking in
// order at the whole cleaned text, a fenced block, and the span between the
// first '{' and the last '}'.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(removeThinkingBlocks(text))
	candidates := []string{s}
	if m := fenceRe.FindStringSubmatch(s); len(m) == 2 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			candidates = append(candidates, s[i:j+1])
		}
	}
	for _, c := range candidates {
		if strings.HasPrefix(c, "{") && json.Valid([]byte(c)) {
			return json.RawMessage(c), nil
		}
	}
	return nil, ErrNoJSON
}
