package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
)

// pingTimeout bounds every component probe.
const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool              `json:"ready"`
	Failed map[string]string `json:"failed,omitempty"`
}

// Readyz pings the required components (repository, object store) and
// answers 503 when any of them fails.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := probe(r.Context(), d.Components)

		resp := readyzResponse{Ready: true}
		for _, c := range d.Components {
			if err := results[c.Name]; c.Required && err != nil {
				resp.Ready = false
				if resp.Failed == nil {
					resp.Failed = make(map[string]string)
				}
				resp.Failed[c.Name] = err.Error()
			}
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d, status, resp)
	}
}

// probe pings every component concurrently.
func probe(ctx context.Context, components []deps.Component) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(components))
	)
	for _, c := range components {
		wg.Add(1)
		go func(c deps.Component) {
			defer wg.Done()
			err := c.Pinger.Ping(ctx)
			mu.Lock()
			results[c.Name] = err
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}
