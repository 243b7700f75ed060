package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/objectstore"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeValidation    = "validation_error"
	CodeDuplicateSlug = "duplicate_slug"
	CodeNotFound      = "not_found"
	CodeStorage       = "storage_error"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) (int, string) {
	var se *objectstore.StorageError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, domain.ErrDuplicateSlug):
		return http.StatusConflict, CodeDuplicateSlug
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.As(err, &se):
		return http.StatusBadGateway, CodeStorage
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError logs server-side failures and answers with a JSON error body.
// Internal error details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	status, code := statusFor(err)
	msg := err.Error()

	if status >= http.StatusInternalServerError {
		d.Logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
		if status == http.StatusInternalServerError {
			msg = http.StatusText(status)
		}
	}

	writeJSON(w, d, status, errorResponse{Error: msg, Code: code})
}

func writeUnavailable(w http.ResponseWriter, d deps.Deps, what string) {
	writeJSON(w, d, http.StatusServiceUnavailable, errorResponse{
		Error: what + " is not configured",
		Code:  CodeUnavailable,
	})
}

// decodeJSON reads a size-limited JSON body into v. Unknown fields are
// rejected so misspelled keys do not silently no-op.
func decodeJSON(w http.ResponseWriter, r *http.Request, d deps.Deps, v any) error {
	body := r.Body
	if d.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, d.MaxBodyBytes)
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "empty request body")
		}
		return domain.NewValidationError("body", fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}
