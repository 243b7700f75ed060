package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/devure/internal/httpserver/mw"
)

func init() { Register(registerProbes) }

// registerProbes mounts the operational endpoints. /healthz stays open for
// load balancers; /readyz and /metrics sit behind the CIDR allow-list.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/readyz", handlers.Readyz(d))
	if d.Registry != nil {
		restricted.Method("GET", "/metrics", handlers.Metrics(d))
	}
}
