package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rant/internal/identity"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

const (
	maxContentRunes = 2000
	maxFeedLimit    = 200
	defaultRelated  = 5
	maxRelated      = 50
)

type rantsResponse struct {
	Rants []*domain.Rant `json:"rants"`
	Total int            `json:"total"`
}

type rantView struct {
	*domain.Rant
	Liked      bool `json:"liked"`
	Bookmarked bool `json:"bookmarked"`
	Degraded   bool `json:"degraded,omitempty"`
}

type createRantRequest struct {
	Content string `json:"content"`
	Mood    string `json:"mood,omitempty"`
}

// ListRants serves the feed from the memory index.
// Query: mood (vocabulary entry), sort (new|top), limit (1..200).
func ListRants(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFeedFilter(r, d.Searcher.Vocabulary())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rants := d.MemoryIndex.Feed(filter)
		if rants == nil {
			rants = []*domain.Rant{}
		}
		writeJSON(w, http.StatusOK, rantsResponse{Rants: rants, Total: len(rants)})
	}
}

func parseFeedFilter(r *http.Request, vocab *domain.Vocabulary) (domain.FeedFilter, error) {
	q := r.URL.Query()
	filter := domain.FeedFilter{Sort: domain.SortNew, Limit: domain.DefaultFeedLimit}

	if raw := strings.TrimSpace(q.Get("mood")); raw != "" {
		mood, ok := vocab.Lookup(raw)
		if !ok {
			return filter, fmt.Errorf("unknown mood %q", raw)
		}
		filter.Mood = mood
	}

	switch s := q.Get("sort"); s {
	case "", domain.SortNew:
	case domain.SortTop:
		filter.Sort = domain.SortTop
	default:
		return filter, fmt.Errorf("unknown sort %q", s)
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxFeedLimit {
			return filter, fmt.Errorf("limit must be between 1 and %d", maxFeedLimit)
		}
		filter.Limit = n
	}
	return filter, nil
}

// GetRant returns one visible rant with the caller's engagement flags.
// Engagement lookups that fail mark the response degraded instead of
// failing it.
func GetRant(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rant, err := lookupRant(r, d)
		if err != nil {
			fail(w, d, r, err)
			return
		}

		ctx := r.Context()
		profile := mw.ProfileFrom(ctx)
		view := rantView{Rant: rant}

		if view.Liked, err = d.Likes.GetLikeStatus(ctx, profile, rant.ID); err != nil {
			view.Degraded = true
			d.Logger.Warn("like status unavailable",
				logger.String("rant", rant.ID), logger.Error(err))
		}
		if view.Bookmarked, err = d.Bookmarks.IsBookmarked(ctx, profile, rant.ID); err != nil {
			view.Degraded = true
			d.Logger.Warn("bookmark status unavailable",
				logger.String("rant", rant.ID), logger.Error(err))
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// lookupRant resolves {id} from the index, falling back to the store for
// rants created after the last reload on another instance.
func lookupRant(r *http.Request, d deps.Deps) (*domain.Rant, error) {
	id := chi.URLParam(r, "id")
	if rant, ok := d.MemoryIndex.GetRant(id); ok {
		return rant, nil
	}

	rant, err := d.RantStore.GetRant(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if rant.Hidden {
		return nil, fmt.Errorf("rant %s: %w", id, domain.ErrNotFound)
	}
	return rant, nil
}

// Related lists rants sharing the mood of {id}.
func Related(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := d.MemoryIndex.GetRant(id); !ok {
			writeError(w, http.StatusNotFound, "rant not found")
			return
		}

		limit := defaultRelated
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxRelated {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxRelated))
				return
			}
			limit = n
		}

		rants := d.MemoryIndex.Related(id, limit)
		if rants == nil {
			rants = []*domain.Rant{}
		}
		writeJSON(w, http.StatusOK, rantsResponse{Rants: rants, Total: len(rants)})
	}
}

// CreateRant posts a new rant under the caller's display name.
// An explicit mood must be a vocabulary entry; without one the classifier
// is asked, and a classifier failure leaves the rant untagged.
func CreateRant(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRantRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		content := strings.TrimSpace(req.Content)
		if n := utf8.RuneCountInString(content); n == 0 || n > maxContentRunes {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("content must be 1..%d characters", maxContentRunes))
			return
		}

		ctx := r.Context()
		vocab := d.Searcher.Vocabulary()

		mood := ""
		if raw := strings.TrimSpace(req.Mood); raw != "" {
			m, ok := vocab.Lookup(raw)
			if !ok {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mood %q", raw))
				return
			}
			mood = m
		} else if d.MoodTagger.Available() {
			m, err := d.MoodTagger.Classify(ctx, content, vocab)
			if err != nil {
				d.Logger.Warn("mood classification failed, posting untagged", logger.Error(err))
			} else {
				mood = m
			}
		}

		author, err := d.Identities.GetIdentity(ctx, mw.ProfileFrom(ctx))
		if err != nil {
			fail(w, d, r, err)
			return
		}

		rant := &domain.Rant{
			ID:      uuid.NewString(),
			Content: content,
			Alias:   identity.DisplayName(author),
			Mood:    mood,
		}
		if err := d.RantStore.CreateRant(ctx, rant); err != nil {
			fail(w, d, r, fmt.Errorf("create rant: %v: %w", err, domain.ErrStorageUnavailable))
			return
		}
		d.MemoryIndex.AddRant(rant)

		d.Logger.Info("rant created",
			logger.String("rant", rant.ID),
			logger.String("mood", rant.Mood))
		writeJSON(w, http.StatusCreated, rant)
	}
}
