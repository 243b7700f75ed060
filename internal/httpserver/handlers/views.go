package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/logger"
)

const (
	defaultPopularLimit = 10
	maxPopularLimit     = 100
)

// RecordView counts one view of a published item. Unknown slugs and drafts
// are 404 so the counters cannot be filled with junk keys.
func RecordView(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Views == nil {
			writeUnavailable(w, d, "view tracking")
			return
		}

		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		item, err := svc.GetPublished(r.Context(), slugParam(r))
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		n, err := d.Views.Increment(r.Context(), svc.Kind(), item.Slug())
		if err != nil {
			d.Logger.Warn("failed to record view",
				logger.String("kind", string(svc.Kind())),
				logger.String("slug", item.Slug()),
				logger.Error(err))
			writeJSON(w, d, http.StatusServiceUnavailable, errorResponse{Error: "view store unreachable", Code: CodeUnavailable})
			return
		}

		writeJSON(w, d, http.StatusOK, domain.ViewCount{Slug: item.Slug(), Views: n})
	}
}

// Popular serves the most viewed slugs of a kind, ?limit= capped at 100.
func Popular(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Views == nil {
			writeUnavailable(w, d, "view tracking")
			return
		}

		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		limit, err := parseInt("limit", r.URL.Query().Get("limit"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if limit <= 0 {
			limit = defaultPopularLimit
		}
		if limit > maxPopularLimit {
			limit = maxPopularLimit
		}

		top, err := d.Views.Popular(r.Context(), svc.Kind(), limit)
		if err != nil {
			d.Logger.Warn("failed to read popular items",
				logger.String("kind", string(svc.Kind())),
				logger.Error(err))
			writeJSON(w, d, http.StatusServiceUnavailable, errorResponse{Error: "view store unreachable", Code: CodeUnavailable})
			return
		}
		if top == nil {
			top = []domain.ViewCount{}
		}

		writeJSON(w, d, http.StatusOK, top)
	}
}
