package domain

import (
	"sort"
	"strings"
	"sync/atomic"
)

// Match is one rant accepted by the fuzzy matcher.
type Match struct {
	Rant  *Rant   `json:"rant"`
	Score float64 `json:"score"` // lower is better, 0 = exact
	Key   string  `json:"key"`   // key that produced the best score
}

// SearchResult is the output of a full pipeline run.
type SearchResult struct {
	Query   ParsedQuery `json:"query"`
	Matches []Match     `json:"matches"`
}

// Searcher runs the parse -> fuzzy match -> hard filter pipeline.
// The vocabulary can be swapped at runtime (seed reloads).
type Searcher struct {
	threshold float64
	vocab     atomic.Pointer[Vocabulary]
}

// NewSearcher creates a searcher. A threshold outside (0,1] falls back to DefaultThreshold.
func NewSearcher(vocab *Vocabulary, threshold float64) *Searcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	s := &Searcher{threshold: threshold}
	s.vocab.Store(vocab)
	return s
}

// Threshold returns the strictness threshold in use.
func (s *Searcher) Threshold() float64 { return s.threshold }

// Vocabulary returns the current mood vocabulary.
func (s *Searcher) Vocabulary() *Vocabulary { return s.vocab.Load() }

// SetVocabulary replaces the mood vocabulary used for parsing.
func (s *Searcher) SetVocabulary(v *Vocabulary) {
	if v != nil {
		s.vocab.Store(v)
	}
}

// Parse parses raw against the current vocabulary.
func (s *Searcher) Parse(raw string) ParsedQuery {
	return ParseQuery(raw, s.vocab.Load())
}

// Search fuzzy matches text against rant content and alias.
// Empty or whitespace-only text yields no matches. Results are ordered
// best first (ascending score), ties keep corpus order.
func (s *Searcher) Search(corpus []*Rant, text string) []Match {
	text = strings.TrimSpace(text)
	if text == "" || len(corpus) == 0 {
		return []Match{}
	}

	visible := make([]*Rant, 0, len(corpus))
	for _, r := range corpus {
		if r == nil || r.Hidden {
			continue
		}
		visible = append(visible, r)
	}

	subseq := subsequenceScores(text, visible)

	matches := make([]Match, 0, len(visible))
	for i, r := range visible {
		score, key := approxScore(text, r.Content), KeyContent
		if alias := approxScore(text, r.Alias); alias < score {
			score, key = alias, KeyAlias
		}
		if sub, ok := subseq[i]; ok && sub < score {
			score, key = sub, KeyAlias
		}
		if score > s.threshold {
			continue
		}
		matches = append(matches, Match{Rant: r, Score: score, Key: key})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score < matches[j].Score
	})
	return matches
}

// ApplyFilters keeps matches whose mood equals q.Mood (when set) and whose
// content contains every exact phrase, case-insensitively.
func ApplyFilters(matches []Match, q ParsedQuery) []Match {
	if !q.HasMood() && len(q.ExactPhrases) == 0 {
		return matches
	}

	phrases := make([]string, len(q.ExactPhrases))
	for i, p := range q.ExactPhrases {
		phrases[i] = strings.ToLower(p)
	}

	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if q.HasMood() && m.Rant.Mood != q.Mood {
			continue
		}
		if !containsAll(strings.ToLower(m.Rant.Content), phrases) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// Run parses raw, fuzzy matches the free text and applies the hard filters.
func (s *Searcher) Run(corpus []*Rant, raw string) SearchResult {
	q := s.Parse(raw)
	matches := s.Search(corpus, q.Text)
	return SearchResult{
		Query:   q,
		Matches: ApplyFilters(matches, q),
	}
}
