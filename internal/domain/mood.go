package domain

import "strings"

// DefaultMoods is the built-in mood vocabulary, in display order.
var DefaultMoods = []string{
	"Angry",
	"Sad",
	"Anxious",
	"Frustrated",
	"Tired",
	"Confused",
	"Happy",
	"Excited",
	"Loved",
	"Grateful",
}

// Vocabulary is a closed, ordered set of recognized mood tags.
// It is immutable once built.
type Vocabulary struct {
	moods []string
	byKey map[string]string // lowercased -> canonical
}

// NewVocabulary builds a vocabulary from moods, keeping the first spelling
// of case-insensitive duplicates and skipping blanks.
func NewVocabulary(moods []string) *Vocabulary {
	v := &Vocabulary{
		moods: make([]string, 0, len(moods)),
		byKey: make(map[string]string, len(moods)),
	}
	for _, m := range moods {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		key := strings.ToLower(m)
		if _, dup := v.byKey[key]; dup {
			continue
		}
		v.byKey[key] = m
		v.moods = append(v.moods, m)
	}
	return v
}

// DefaultVocabulary returns a vocabulary built from DefaultMoods.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(DefaultMoods)
}

// Lookup matches token case-insensitively and returns the canonical spelling.
func (v *Vocabulary) Lookup(token string) (string, bool) {
	if v == nil {
		return "", false
	}
	m, ok := v.byKey[strings.ToLower(strings.TrimSpace(token))]
	return m, ok
}

// Moods returns a copy of the vocabulary in order.
func (v *Vocabulary) Moods() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.moods))
	copy(out, v.moods)
	return out
}

// Len returns the number of moods.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.moods)
}
