package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/handlers"
)

func init() { Register(registerRants) }

func registerRants(r chi.Router, d deps.Deps) {
	api := r.With(profiled(d)...)
	api.Get("/api/rants", handlers.ListRants(d))
	api.With(writeLimit(d)).Post("/api/rants", handlers.CreateRant(d))
	api.Get("/api/rants/{id}", handlers.GetRant(d))
	api.Get("/api/rants/{id}/related", handlers.Related(d))
}
