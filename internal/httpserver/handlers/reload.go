package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

type reloadResponse struct {
	Corpus bool `json:"corpus"`
	Seed   bool `json:"seed"`
}

// Reload triggers a manual corpus reload and, when configured, a seed import.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := reloadResponse{
			Corpus: trigger(d.ReloadTrigger),
			Seed:   trigger(d.SeedReloadTrigger),
		}

		if !resp.Corpus && !resp.Seed {
			d.Logger.Warn("reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "reload already in progress"})
			return
		}

		d.Logger.Info("manual reload triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Bool("corpus", resp.Corpus),
			logger.Bool("seed", resp.Seed))
		writeJSON(w, http.StatusAccepted, resp)
	}
}

// trigger performs a non-blocking send. A nil channel never triggers.
func trigger(ch chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}
