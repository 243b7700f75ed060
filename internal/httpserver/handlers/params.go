package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
)

// serviceFor resolves the {kind} path segment ("blogs", "projects", ...).
func serviceFor(r *http.Request, d deps.Deps) (*content.Service, error) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return nil, err
	}
	svc, ok := d.Content[kind]
	if !ok {
		return nil, domain.NotFound(kind, "")
	}
	return svc, nil
}

func slugParam(r *http.Request) string {
	return chi.URLParam(r, "slug")
}

func parseBool(field, v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be true or false")
	}
	return &b, nil
}

func parseInt(field, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.NewValidationError(field, "must be an integer")
	}
	return i, nil
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A bare date used as an upper
// bound covers the whole day.
func parseDate(field, v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// parseSearchOptions reads the search query string. Defaults and bounds are
// applied later by SearchOptions.Normalize.
func parseSearchOptions(r *http.Request) (domain.SearchOptions, error) {
	q := r.URL.Query()
	opts := domain.SearchOptions{
		Query:     q.Get("q"),
		Category:  q.Get("category"),
		Author:    q.Get("author"),
		SortBy:    domain.SortField(q.Get("sortBy")),
		SortOrder: domain.SortOrder(q.Get("sortOrder")),
	}

	for _, raw := range q["tags"] {
		opts.Tags = append(opts.Tags, strings.Split(raw, ",")...)
	}

	var err error
	if opts.Featured, err = parseBool("featured", q.Get("featured")); err != nil {
		return opts, err
	}
	if opts.Limit, err = parseInt("limit", q.Get("limit")); err != nil {
		return opts, err
	}
	if opts.Offset, err = parseInt("offset", q.Get("offset")); err != nil {
		return opts, err
	}
	if opts.DateRange.From, err = parseDate("from", q.Get("from"), false); err != nil {
		return opts, err
	}
	if opts.DateRange.To, err = parseDate("to", q.Get("to"), true); err != nil {
		return opts, err
	}
	return opts, nil
}
