package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/logger"
)

type seedResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Seed triggers a re-import of the seed file
func Seed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.SeedTrigger == nil {
			writeUnavailable(w, d, "seed file")
			return
		}

		select {
		case d.SeedTrigger <- struct{}{}:
			d.Logger.Info("manual seed import triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d, http.StatusAccepted, seedResponse{
				Triggered: true,
				Message:   "seed import triggered",
			})
		default:
			d.Logger.Warn("seed import already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d, http.StatusTooManyRequests, seedResponse{
				Message: "seed import already pending, please wait",
			})
		}
	}
}
