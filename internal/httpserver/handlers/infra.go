package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool     `json:"ok"`
	Loaded     *int     `json:"loaded,omitempty"`
	LastReload string   `json:"last_reload,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Impact     string   `json:"impact,omitempty"`
	Error      string   `json:"error,omitempty"`
	Moods      []string `json:"moods,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := d.MemoryIndex.Count()
		lastReload := "never"
		if t := d.MemoryIndex.GetLastReload(); !t.IsZero() {
			lastReload = t.Format("2006-01-02 15:04:05")
		}

		cached := 0
		if d.Likes != nil {
			cached = d.Likes.Cached()
		}

		components := map[string]componentStatus{
			"corpus": {
				OK:         !d.MemoryIndex.GetLastReload().IsZero(),
				Loaded:     &count,
				LastReload: lastReload,
			},
			"store":   checkStore(r.Context(), d),
			"profile": checkRedis(r.Context(), d),
			"moodtag": checkMoodTagger(d),
			"likes": {
				OK:     true,
				Loaded: &cached,
				Mode:   "cached",
			},
			"search": {
				OK:    true,
				Mode:  "fuzzy",
				Moods: d.Searcher.Vocabulary().Moods(),
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       overallMode(components),
			Components: components,
		})
	}
}

func overallMode(components map[string]componentStatus) string {
	if !components["store"].OK {
		return "critical"
	}
	if !components["profile"].OK || !components["corpus"].OK {
		return "degraded"
	}
	return "operational"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	if d.RantStore == nil {
		return componentStatus{OK: false, Error: "store not initialized"}
	}
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RantStore.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "feeds-and-likes-unavailable", Error: "ping failed"}
	}
	return componentStatus{OK: true, Mode: "sqlite"}
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "memory", Impact: "profiles-not-persisted"}
	}
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "identity-and-bookmarks-unavailable",
			Error:  "timeout",
		}
	}

	status := componentStatus{OK: true, Mode: "redis"}
	if d.Profiles != nil {
		if n, err := d.Profiles.CountProfiles(ctx); err == nil {
			status.Loaded = &n
		}
	}
	return status
}

func checkMoodTagger(d deps.Deps) componentStatus {
	if !d.MoodTagger.Available() {
		return componentStatus{OK: true, Mode: "disabled", Impact: "moods-only-when-supplied"}
	}
	return componentStatus{OK: true, Mode: "remote"}
}
