package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/utils"
)

// multipartMemory is how much of a multipart form is buffered in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

// UploadAsset stores the multipart "file" field and answers {url,key,etag}.
func UploadAsset(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, d.MaxBodyBytes)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, r, d, domain.NewValidationError("file", "file too large"))
				return
			}
			writeError(w, r, d, domain.NewValidationError("body", "expected multipart/form-data"))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, d, domain.NewValidationError("file", "missing file field"))
			return
		}
		defer utils.MustClose(file)

		body, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, d, domain.NewValidationError("file", "unreadable upload"))
			return
		}

		res, err := d.Assets.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), body)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusCreated, res)
	}
}

func DeleteAsset(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Assets.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
