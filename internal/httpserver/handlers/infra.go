package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
)

type componentStatus struct {
	OK       bool   `json:"ok"`
	Required bool   `json:"required"`
	Impact   string `json:"impact,omitempty"`
	Error    string `json:"error,omitempty"`
}

type kindStatus struct {
	Prefix    string `json:"prefix"`
	Published int    `json:"published"`
	Drafts    int    `json:"drafts"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Backend    string                     `json:"backend"`
	Components map[string]componentStatus `json:"components"`
	Kinds      map[string]kindStatus      `json:"kinds,omitempty"`
}

// Infra reports the status of every backing service and a per-kind census.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := probe(r.Context(), d.Components)

		components := make(map[string]componentStatus, len(d.Components))
		for _, c := range d.Components {
			st := componentStatus{OK: true, Required: c.Required}
			if err := results[c.Name]; err != nil {
				st.OK = false
				st.Error = err.Error()
				if !c.Required {
					st.Impact = "optional-feature-disabled"
				}
			}
			components[c.Name] = st
		}

		kinds := make(map[string]kindStatus, len(d.Content))
		for kind, svc := range d.Content {
			stats, err := svc.Stats(r.Context())
			if err != nil {
				continue
			}
			kinds[kind.Plural()] = kindStatus{
				Prefix:    svc.Prefix(),
				Published: stats.TotalItems,
				Drafts:    stats.DraftCount,
			}
		}

		writeJSON(w, d, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Backend:    d.Backend,
			Components: components,
			Kinds:      kinds,
		})
	}
}

// determineMode is "critical" when a required component is down,
// "degraded" when only optional ones are, "optimal" otherwise.
func determineMode(components map[string]componentStatus) string {
	mode := "optimal"
	for _, c := range components {
		if c.OK {
			continue
		}
		if c.Required {
			return "critical"
		}
		mode = "degraded"
	}
	return mode
}
