package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/devure/internal/httpserver/mw"
)

func init() { Register(registerPublic) }

// registerPublic mounts the site API under /api/{kind}, where kind is
// "blogs", "projects" or "services". Static segments win over {slug} in
// chi, so /api/blogs/search never reaches GetPublished.
//
// Reads share one bucket per client IP. View counting has its own, smaller
// bucket per client IP and item.
func registerPublic(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(mw.RateLimitConfig{
		Scope:        mw.ScopeView,
		Burst:        d.ViewRateLimitBurst,
		RefillPerMin: d.ViewRateLimitRefill,
		MaxEntries:   50000,
		TrustProxy:   d.TrustProxy,
		Key:          mw.PerItem,
		Metrics:      d.Metrics,
	})).Post("/api/{kind}/{slug}/views", handlers.RecordView(d))

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(mw.RateLimitConfig{
			Scope:        mw.ScopeRead,
			Burst:        d.RateLimitBurst,
			RefillPerMin: d.RateLimitRefill,
			MaxEntries:   10000,
			TrustProxy:   d.TrustProxy,
			Metrics:      d.Metrics,
		}))

		r.Get("/api/{kind}", handlers.ListPublished(d))
		r.Get("/api/{kind}/search", handlers.Search(d, false))
		r.Get("/api/{kind}/categories", handlers.Categories(d))
		r.Get("/api/{kind}/tags", handlers.Tags(d))
		r.Get("/api/{kind}/stats", handlers.Stats(d))
		r.Get("/api/{kind}/popular", handlers.Popular(d))
		r.Get("/api/{kind}/{slug}", handlers.GetPublished(d))
	})
}
