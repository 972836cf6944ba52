// Package quality holds the pure scoring functions of the review workflow:
// the issue-weighted quality score and the normalised edit distance used to
// measure how much a reviewer changed the AI output.
package quality

// levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func levenshtein(ra, rb []rune) int {
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = min(prev[j], prev[j-1], curr[j-1]) + 1
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// EditDistance returns the normalised Levenshtein distance between a and b in
// [0, 1]: distance divided by the longer rune length. Identical strings and
// the empty pair yield 0.
func EditDistance(a, b string) float64 {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 0
	}
	d := float64(levenshtein(ra, rb)) / float64(maxLen)
	return min(1, d)
}

// Similarity returns 1 - EditDistance(a, b).
func Similarity(a, b string) float64 {
	return 1 - EditDistance(a, b)
}
