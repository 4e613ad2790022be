package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz reports ready once the relational store answers and the corpus
// has been loaded at least once.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if d.RantStore != nil {
			if err := d.RantStore.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "store unavailable"})
				return
			}
		}
		if d.MemoryIndex.GetLastReload().IsZero() {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "corpus not loaded"})
			return
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
