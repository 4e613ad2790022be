package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

// HideRant removes {id} from feeds and search. The row stays in the store
// until the garbage collector deletes it.
func HideRant(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.RantStore.HideRant(r.Context(), id); err != nil {
			fail(w, d, r, err)
			return
		}
		d.MemoryIndex.DeleteRant(id)

		d.Logger.Info("rant hidden",
			logger.String("rant", id),
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusNoContent)
	}
}
