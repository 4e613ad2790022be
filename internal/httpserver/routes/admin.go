package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/rant/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).
		Post("/api/admin/rants/{id}/hide", handlers.HideRant(d))
}
