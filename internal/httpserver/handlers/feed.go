package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/feed"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/logger"
)

type renderFeed func(items []*domain.Item, opts feed.Options, now time.Time) (string, error)

// RSS serves the published blog posts as RSS 2.0.
func RSS(d deps.Deps) http.HandlerFunc {
	return serveFeed(d, "application/rss+xml; charset=utf-8", feed.RSS)
}

// Atom serves the published blog posts as Atom 1.0.
func Atom(d deps.Deps) http.HandlerFunc {
	return serveFeed(d, "application/atom+xml; charset=utf-8", feed.Atom)
}

func serveFeed(d deps.Deps, contentType string, render renderFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, ok := d.Content[domain.KindBlog]
		if !ok {
			writeError(w, r, d, domain.NotFound(domain.KindBlog, ""))
			return
		}

		items, err := svc.ListPublished(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		body, err := render(items, d.Feed, d.Now())
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(body)); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
