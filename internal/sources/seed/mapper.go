package seed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/identity"
)

// Result is a seed file converted to domain values.
type Result struct {
	// Vocabulary is nil when the file declares no moods.
	Vocabulary *domain.Vocabulary
	Rants      []*domain.Rant
	// Skipped counts entries dropped for having no content.
	Skipped int
}

// Mapper converts a seed File into domain values.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a mapper.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// Map validates moods against the file's vocabulary (or fallback when the
// file has none) and assigns stable content-derived IDs, so re-importing
// the same file never duplicates rants.
func (m *Mapper) Map(file *File, fallback *domain.Vocabulary) (*Result, error) {
	res := &Result{}
	vocab := fallback
	if len(file.Moods) > 0 {
		res.Vocabulary = domain.NewVocabulary(file.Moods)
		vocab = res.Vocabulary
	}

	now := m.now().UTC()
	seen := make(map[string]struct{}, len(file.Rants))

	for i, props := range file.Rants {
		content := strings.TrimSpace(props.Content)
		if content == "" {
			res.Skipped++
			continue
		}

		id := stableID(content)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		alias := strings.TrimSpace(props.Alias)
		if alias == "" {
			alias = identity.DisplayName(id)
		}

		mood, _ := vocab.Lookup(props.Mood)

		created := props.CreatedAt.UTC()
		if props.CreatedAt.IsZero() {
			// Keep file order as feed order: earlier entries are newer.
			created = now.Add(-time.Duration(i) * time.Second)
		}

		res.Rants = append(res.Rants, &domain.Rant{
			ID:        id,
			Content:   content,
			Alias:     alias,
			Mood:      mood,
			Likes:     props.Likes,
			CreatedAt: created,
			UpdatedAt: created,
		})
	}

	if len(res.Rants) == 0 && res.Vocabulary == nil {
		return nil, fmt.Errorf("seed file holds neither moods nor rants")
	}
	return res, nil
}

func stableID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "seed-" + hex.EncodeToString(sum[:])[:16]
}
