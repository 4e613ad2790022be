package domain

import (
	"regexp"
	"strings"
)

var (
	moodPattern   = regexp.MustCompile(`(?i)(?:^|\s)mood:([^\s"]+)`)
	phrasePattern = regexp.MustCompile(`"([^"]*)"`)
)

// ParsedQuery is the structured form of a raw search string.
// It is built per search and never persisted.
type ParsedQuery struct {
	Raw          string   `json:"raw"`
	Text         string   `json:"text"`                    // free-text remainder, trimmed
	Mood         string   `json:"mood,omitempty"`          // canonical vocabulary entry, empty = unset
	ExactPhrases []string `json:"exact_phrases,omitempty"` // quoted segments in order of appearance
}

// HasMood reports whether a mood filter was recognized.
func (q ParsedQuery) HasMood() bool { return q.Mood != "" }

// ParseQuery splits raw into mood filter, exact phrases and free text.
// Examples:
//   - `mood:angry "hello world" foo` -> mood Angry, phrases ["hello world"], text "foo"
//   - `mood:bogus text` -> no mood, text "mood:bogus text"
//   - `"a" "b"` -> phrases ["a", "b"], text ""
func ParseQuery(raw string, vocab *Vocabulary) ParsedQuery {
	q := ParsedQuery{Raw: raw}
	working := raw

	// Only the first mood: token is considered. An unknown mood stays in
	// the text so it can still be fuzzy matched.
	if loc := moodPattern.FindStringSubmatchIndex(working); loc != nil {
		token := working[loc[2]:loc[3]]
		if mood, ok := vocab.Lookup(token); ok {
			q.Mood = mood
			start := loc[2] - len("mood:")
			working = working[:start] + working[loc[1]:]
		}
	}

	for _, m := range phrasePattern.FindAllStringSubmatch(working, -1) {
		if phrase := strings.TrimSpace(m[1]); phrase != "" {
			q.ExactPhrases = append(q.ExactPhrases, phrase)
		}
	}
	working = phrasePattern.ReplaceAllString(working, "")

	q.Text = strings.TrimSpace(working)
	return q
}
