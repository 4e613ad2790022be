package mw

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
)

const (
	// ProfileHeader carries the device profile on API requests.
	ProfileHeader = "X-Rant-Profile"
	// ProfileCookie is the fallback when the header is absent.
	ProfileCookie = "rant_profile"
)

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

type profileKey struct{}

// ProfileFromRequest returns the raw profile of r, header first, or "".
func ProfileFromRequest(r *http.Request) string {
	if p := r.Header.Get(ProfileHeader); p != "" {
		return p
	}
	if c, err := r.Cookie(ProfileCookie); err == nil {
		return c.Value
	}
	return ""
}

// Profile requires a valid profile on the request and stores it in the context.
func Profile() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := ProfileFromRequest(r)
			if !profilePattern.MatchString(p) {
				writeError(w, http.StatusBadRequest, "missing or invalid "+ProfileHeader)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), p)))
		})
	}
}

// WithProfile returns ctx carrying profile.
func WithProfile(ctx context.Context, profile string) context.Context {
	return context.WithValue(ctx, profileKey{}, profile)
}

// ProfileFrom returns the profile stored by Profile, or "".
func ProfileFrom(ctx context.Context) string {
	p, _ := ctx.Value(profileKey{}).(string)
	return p
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
