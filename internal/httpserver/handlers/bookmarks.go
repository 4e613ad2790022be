package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

type bookmarkResponse struct {
	RantID     string `json:"rant_id"`
	Bookmarked bool   `json:"bookmarked"`
	Degraded   bool   `json:"degraded,omitempty"`
}

type bookmarksResponse struct {
	IDs   []string       `json:"ids"`
	Rants []*domain.Rant `json:"rants"`
	Total int            `json:"total"`
}

// BookmarkStatus reports whether the caller bookmarked {id}. An unavailable
// profile store answers "not bookmarked" flagged as degraded.
func BookmarkStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ok, err := d.Bookmarks.IsBookmarked(r.Context(), mw.ProfileFrom(r.Context()), id)
		if errors.Is(err, domain.ErrStorageUnavailable) {
			d.Logger.Warn("bookmark store unavailable", logger.Error(err))
			writeJSON(w, http.StatusOK, bookmarkResponse{RantID: id, Degraded: true})
			return
		}
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, bookmarkResponse{RantID: id, Bookmarked: ok})
	}
}

// ToggleBookmark flips the caller's bookmark on {id}.
func ToggleBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ok, err := d.Bookmarks.Toggle(r.Context(), mw.ProfileFrom(r.Context()), id)
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, bookmarkResponse{RantID: id, Bookmarked: ok})
	}
}

// ListBookmarks returns the caller's bookmarked IDs in insertion order and
// the rants among them still visible in the corpus.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := d.Bookmarks.List(r.Context(), mw.ProfileFrom(r.Context()))
		if err != nil {
			fail(w, d, r, err)
			return
		}

		rants := make([]*domain.Rant, 0, len(ids))
		for _, id := range ids {
			if rant, ok := d.MemoryIndex.GetRant(id); ok {
				rants = append(rants, rant)
			}
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, bookmarksResponse{IDs: ids, Rants: rants, Total: len(ids)})
	}
}
