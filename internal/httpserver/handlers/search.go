package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

const maxQueryLen = 512

type searchResponse struct {
	Query   domain.ParsedQuery `json:"query"`
	Matches []domain.Match     `json:"matches"`
	Total   int                `json:"total"`
}

// Search runs the fuzzy pipeline against the in-memory corpus.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if len(q) > maxQueryLen {
			writeError(w, http.StatusBadRequest, "query too long")
			return
		}

		start := time.Now()
		res := d.Searcher.Run(d.MemoryIndex.All(), q)
		if res.Matches == nil {
			res.Matches = []domain.Match{}
		}

		d.Logger.Debug("search",
			logger.String("query", strings.TrimSpace(q)),
			logger.Int("matches", len(res.Matches)),
			logger.Duration("took", time.Since(start)))

		writeJSON(w, http.StatusOK, searchResponse{
			Query:   res.Query,
			Matches: res.Matches,
			Total:   len(res.Matches),
		})
	}
}
