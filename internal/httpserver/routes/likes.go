package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/rant/internal/httpserver/mw"
)

func init() { Register(registerLikes) }

func registerLikes(r chi.Router, d deps.Deps) {
	api := r.With(profiled(d)...)
	limited := api.With(writeLimit(d))
	api.Get("/api/rants/{id}/like", handlers.LikeStatus(d))
	limited.Post("/api/rants/{id}/like", handlers.ToggleLike(d))
	limited.Post("/api/rants/{id}/likes", handlers.IncrementLikes(d))

	// Long-lived: no request timeout.
	r.With(mw.Profile()).Get("/api/rants/{id}/like/stream", handlers.LikeStream(d))
}
