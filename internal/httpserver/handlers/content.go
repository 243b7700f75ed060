package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
)

type listResponse struct {
	Items []*domain.Item `json:"items"`
	Count int            `json:"count"`
}

func newListResponse(items []*domain.Item) listResponse {
	if items == nil {
		items = []*domain.Item{}
	}
	return listResponse{Items: items, Count: len(items)}
}

type itemResponse struct {
	*domain.Item
	HTML string `json:"html"`
}

// ListPublished serves published summaries, narrowed by at most one of
// ?featured=true, ?category= or ?tag=.
func ListPublished(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		q := r.URL.Query()
		featured, err := parseBool("featured", q.Get("featured"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		var items []*domain.Item
		switch {
		case featured != nil && *featured:
			items, err = svc.ListFeatured(r.Context())
		case q.Get("category") != "":
			items, err = svc.ListByCategory(r.Context(), q.Get("category"))
		case q.Get("tag") != "":
			items, err = svc.ListByTag(r.Context(), q.Get("tag"))
		default:
			items, err = svc.ListPublished(r.Context())
		}
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		writeJSON(w, d, http.StatusOK, newListResponse(items))
	}
}

// Search runs a paged search. Public callers never see drafts.
func Search(d deps.Deps, includeDrafts bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		opts, err := parseSearchOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		opts.IncludeDrafts = includeDrafts

		res, err := svc.Search(r.Context(), opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		writeJSON(w, d, http.StatusOK, res)
	}
}

func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		terms, err := svc.Catalog().Categories(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, terms)
	}
}

func Tags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		terms, err := svc.Catalog().Tags(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, terms)
	}
}

func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		st, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, st)
	}
}

// GetPublished serves one published item with its rendered, sanitized body.
// Drafts answer 404.
func GetPublished(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		html, err := svc.Render(r.Context(), item)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		writeJSON(w, d, http.StatusOK, itemResponse{Item: item, HTML: html})
	}
}
