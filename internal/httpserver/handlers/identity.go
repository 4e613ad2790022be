package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rant/internal/identity"
)

type identityResponse struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name"`
}

// Identity returns the pseudonymous identity of the calling profile,
// creating it on first use.
func Identity(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := d.Identities.GetIdentity(r.Context(), mw.ProfileFrom(r.Context()))
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, identityResponse{
			Identity:    id,
			DisplayName: identity.DisplayName(id),
		})
	}
}

// ClearIdentity forgets the identity of the calling profile. The next
// request gets a fresh one.
func ClearIdentity(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Identities.Clear(r.Context(), mw.ProfileFrom(r.Context())); err != nil {
			fail(w, d, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
