package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/devure/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

// registerAdmin mounts the write API. Access is restricted by network
// location and Host header only.
func registerAdmin(r chi.Router, d deps.Deps) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(
			mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
			mw.EnforceHost(d.AllowedHosts, d.Logger),
		)

		r.Get("/infra", handlers.Infra(d))
		r.Post("/seed", handlers.Seed(d))
		r.Delete("/cache", handlers.PurgeCache(d))

		r.Post("/assets", handlers.UploadAsset(d))
		r.Delete("/assets/{name}", handlers.DeleteAsset(d))

		r.Get("/{kind}", handlers.ListAll(d))
		r.Post("/{kind}", handlers.Create(d))
		r.Get("/{kind}/search", handlers.Search(d, true))
		r.Get("/{kind}/{slug}", handlers.GetItem(d))
		r.Patch("/{kind}/{slug}", handlers.Update(d))
		r.Delete("/{kind}/{slug}", handlers.Delete(d))
		r.Get("/{kind}/{slug}/source", handlers.Source(d))
		r.Post("/{kind}/{slug}/draft", handlers.ToggleDraft(d))
		r.Post("/{kind}/{slug}/featured", handlers.ToggleFeatured(d))
	})
}
