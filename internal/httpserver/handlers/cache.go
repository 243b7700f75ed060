package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/logger"
)

type purgeResponse struct {
	Purged int `json:"purged"`
}

// PurgeCache drops every rendered body from the HTML cache. Renditions are
// rebuilt on the next read, so this is safe after a renderer change.
func PurgeCache(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.HTML == nil {
			writeUnavailable(w, d, "html cache")
			return
		}

		n, err := d.HTML.Flush(r.Context())
		if err != nil {
			d.Logger.Warn("failed to purge html cache",
				logger.Int("purged", n),
				logger.Error(err))
			writeJSON(w, d, http.StatusServiceUnavailable, errorResponse{Error: "html cache unreachable", Code: CodeUnavailable})
			return
		}

		d.Logger.Info("html cache purged via endpoint",
			logger.Int("purged", n),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, d, http.StatusOK, purgeResponse{Purged: n})
	}
}
