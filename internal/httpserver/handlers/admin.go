package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/logger"
)

// ListAll serves every summary of a kind, drafts included.
func ListAll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		items, err := svc.ListAll(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, newListResponse(items))
	}
}

// GetItem serves the full record, drafts included.
func GetItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		item, err := svc.GetBySlug(r.Context(), slugParam(r))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, item)
	}
}

// Source streams the body blob back from the object store as stored.
func Source(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		obj, err := svc.Source(r.Context(), slugParam(r))
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		ct := obj.ContentType
		if ct == "" {
			ct = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.Content)))
		w.Header().Set("Cache-Control", "no-store")
		if !obj.LastModified.IsZero() {
			w.Header().Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(obj.Content); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

func Create(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		var in content.CreateInput
		if err := decodeJSON(w, r, d, &in); err != nil {
			writeError(w, r, d, err)
			return
		}

		item, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusCreated, item)
	}
}

func Update(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		var in content.UpdateInput
		if err := decodeJSON(w, r, d, &in); err != nil {
			writeError(w, r, d, err)
			return
		}

		item, err := svc.Update(r.Context(), slugParam(r), in)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, item)
	}
}

func Delete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := svc.Delete(r.Context(), slugParam(r)); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ToggleDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		item, err := svc.ToggleDraft(r.Context(), slugParam(r))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, item)
	}
}

func ToggleFeatured(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := serviceFor(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		item, err := svc.ToggleFeatured(r.Context(), slugParam(r))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, item)
	}
}
