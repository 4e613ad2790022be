package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/handlers"
)

func init() { Register(registerIdentity) }

func registerIdentity(r chi.Router, d deps.Deps) {
	api := r.With(profiled(d)...)
	api.Get("/api/identity", handlers.Identity(d))
	api.With(writeLimit(d)).Delete("/api/identity", handlers.ClearIdentity(d))
}
