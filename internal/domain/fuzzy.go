package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Match keys.
const (
	KeyContent = "content"
	KeyAlias   = "alias"
)

// DefaultThreshold is the maximum accepted score. 0 only accepts exact
// substrings, 1 accepts anything.
const DefaultThreshold = 0.4

// approxScore returns the normalized edit distance between pattern and its
// best matching substring of text: 0 for an exact substring, 1 when
// nothing lines up. Both inputs are compared case-insensitively.
func approxScore(pattern, text string) float64 {
	p := []rune(strings.ToLower(pattern))
	t := []rune(strings.ToLower(text))
	if len(p) == 0 {
		return 0
	}
	if len(t) == 0 {
		return 1
	}

	// Column-wise DP over the text where a match may start anywhere
	// (row 0 is all zeros) and end anywhere (min over the last row).
	prev := make([]int, len(p)+1)
	curr := make([]int, len(p)+1)
	for i := range prev {
		prev[i] = i
	}
	best := prev[len(p)]
	for j := 1; j <= len(t); j++ {
		curr[0] = 0
		for i := 1; i <= len(p); i++ {
			cost := 1
			if p[i-1] == t[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i-1]+cost, prev[i]+1, curr[i-1]+1)
		}
		if curr[len(p)] < best {
			best = curr[len(p)]
		}
		prev, curr = curr, prev
	}

	score := float64(best) / float64(len(p))
	if score > 1 {
		score = 1
	}
	return score
}

// aliasSource exposes rant aliases to sahilm/fuzzy.
type aliasSource []*Rant

func (s aliasSource) String(i int) string { return s[i].Alias }
func (s aliasSource) Len() int            { return len(s) }

// subsequenceScores finds aliases containing pattern as an in-order
// subsequence and scores them by the share of gap characters inside the
// matched span (0 for a contiguous match).
func subsequenceScores(pattern string, rants []*Rant) map[int]float64 {
	scores := make(map[int]float64)
	if utf8.RuneCountInString(pattern) < 2 {
		return scores
	}
	for _, m := range fuzzy.FindFrom(pattern, aliasSource(rants)) {
		if len(m.MatchedIndexes) == 0 {
			continue
		}
		first := m.MatchedIndexes[0]
		last := m.MatchedIndexes[len(m.MatchedIndexes)-1]
		span := last - first + 1
		gaps := span - len(m.MatchedIndexes)
		if gaps < 0 {
			gaps = 0
		}
		scores[m.Index] = float64(gaps) / float64(span)
	}
	return scores
}
