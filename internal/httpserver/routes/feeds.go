package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/httpserver/handlers"
)

func init() { Register(registerFeeds) }

func registerFeeds(r chi.Router, d deps.Deps) {
	r.Get("/feed.xml", handlers.RSS(d))
	r.Get("/atom.xml", handlers.Atom(d))
}
