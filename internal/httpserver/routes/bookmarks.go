package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	api := r.With(profiled(d)...)
	api.Get("/api/bookmarks", handlers.ListBookmarks(d))
	api.Get("/api/rants/{id}/bookmark", handlers.BookmarkStatus(d))
	api.With(writeLimit(d)).Post("/api/rants/{id}/bookmark", handlers.ToggleBookmark(d))
}
