// Package memory is an in-process content repository used by the memory
// backend and by tests. Text search uses lexical scoring instead of a
// server-side index.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// Repository stores items of one kind keyed by slug.
type Repository struct {
	mu    sync.RWMutex
	kind  domain.Kind
	items map[string]*domain.Item // slug -> Item

	// pingErr is returned by Ping when set (tests).
	pingErr error
}

// NewRepository creates an empty repository for kind.
func NewRepository(kind domain.Kind) *Repository {
	return &Repository{
		kind:  kind,
		items: make(map[string]*domain.Item),
	}
}

func (r *Repository) Kind() domain.Kind { return r.kind }

// Insert stores a copy of item. The slug must be free.
func (r *Repository) Insert(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := item.Slug()
	if _, ok := r.items[slug]; ok {
		return domain.DuplicateSlug(r.kind, slug)
	}
	r.items[slug] = item.Clone()
	return nil
}

// FindBySlug returns a copy of the stored item.
func (r *Repository) FindBySlug(_ context.Context, slug string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[slug]
	if !ok {
		return nil, domain.NotFound(r.kind, slug)
	}
	return item.Clone(), nil
}

// Replace overwrites the stored item with the same slug.
func (r *Repository) Replace(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := item.Slug()
	if _, ok := r.items[slug]; !ok {
		return domain.NotFound(r.kind, slug)
	}
	r.items[slug] = item.Clone()
	return nil
}

// Delete removes the item with slug.
func (r *Repository) Delete(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[slug]; !ok {
		return domain.NotFound(r.kind, slug)
	}
	delete(r.items, slug)
	return nil
}

// List returns summaries matching filter, newest first.
func (r *Repository) List(_ context.Context, filter domain.ListFilter) ([]*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Item, 0, len(r.items))
	for _, item := range r.items {
		if !matchesList(item, filter) {
			continue
		}
		out = append(out, item.Summary())
	}
	sortItems(out, domain.SortByDate, domain.SortDesc)
	return out, nil
}

// Search filters, ranks and pages items. opts must be normalized.
func (r *Repository) Search(_ context.Context, opts domain.SearchOptions) (*domain.SearchResult, error) {
	r.mu.RLock()
	matched := make([]*domain.Item, 0, len(r.items))
	for _, item := range r.items {
		if matchesSearch(item, opts) {
			matched = append(matched, item.Summary())
		}
	}
	r.mu.RUnlock()

	if opts.Query != "" {
		candidates := domain.RankCandidates(opts.Query, matched)
		matched = matched[:0]
		for _, c := range candidates {
			matched = append(matched, c.Item)
		}
		// RankCandidates already ordered by descending score then slug.
		// Relevance is always descending, whatever SortOrder says.
		if opts.SortBy != domain.SortByRelevance {
			sortItems(matched, opts.SortBy, opts.SortOrder)
		}
	} else {
		sortItems(matched, opts.SortBy, opts.SortOrder)
	}

	total := int64(len(matched))
	page := paginate(matched, opts.Offset, opts.Limit)
	return domain.NewSearchResult(page, total, opts.Offset), nil
}

// Categories counts published items per category.
func (r *Repository) Categories(_ context.Context) ([]domain.TermCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, item := range r.items {
		if item.Published() && item.Frontmatter.Category != "" {
			counts[item.Frontmatter.Category]++
		}
	}
	return toTermCounts(counts), nil
}

// Tags counts published items per tag.
func (r *Repository) Tags(_ context.Context) ([]domain.TermCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, item := range r.items {
		if !item.Published() {
			continue
		}
		for _, tag := range item.Frontmatter.Tags {
			if tag != "" {
				counts[tag]++
			}
		}
	}
	return toTermCounts(counts), nil
}

// Stats scans every item.
func (r *Repository) Stats(_ context.Context) (*domain.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Item, 0, len(r.items))
	for _, item := range r.items {
		all = append(all, item)
	}
	return domain.ComputeStats(all), nil
}

// Count returns the number of stored items, drafts included.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

func (r *Repository) Ping(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.pingErr
}

// SetPingError makes Ping fail with err (nil restores health).
func (r *Repository) SetPingError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pingErr = err
}

// ─────────────────────────────────────────────────────────────────
// Filtering and ordering
// ─────────────────────────────────────────────────────────────────

func matchesList(item *domain.Item, f domain.ListFilter) bool {
	fm := item.Frontmatter
	if !f.IncludeDrafts && fm.Draft {
		return false
	}
	if f.Featured != nil && fm.Featured != *f.Featured {
		return false
	}
	if f.Category != "" && fm.Category != f.Category {
		return false
	}
	if f.Tag != "" && !containsString(fm.Tags, f.Tag) {
		return false
	}
	return true
}

func matchesSearch(item *domain.Item, o domain.SearchOptions) bool {
	fm := item.Frontmatter
	if !o.IncludeDrafts && fm.Draft {
		return false
	}
	if o.Category != "" && fm.Category != o.Category {
		return false
	}
	if len(o.Tags) > 0 && !containsAny(fm.Tags, o.Tags) {
		return false
	}
	if o.Author != "" && fm.Author.Name != o.Author {
		return false
	}
	if o.Featured != nil && fm.Featured != *o.Featured {
		return false
	}
	return o.DateRange.Contains(fm.Date)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(list, wanted []string) bool {
	for _, w := range wanted {
		if containsString(list, w) {
			return true
		}
	}
	return false
}

// sortItems orders by field, ties broken by ascending slug.
func sortItems(items []*domain.Item, field domain.SortField, order domain.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		c := compareField(items[i], items[j], field)
		if c == 0 {
			return items[i].Slug() < items[j].Slug()
		}
		if order == domain.SortAsc {
			return c < 0
		}
		return c > 0
	})
}

func compareField(a, b *domain.Item, field domain.SortField) int {
	switch field {
	case domain.SortByTitle:
		return strings.Compare(strings.ToLower(a.Frontmatter.Title), strings.ToLower(b.Frontmatter.Title))
	case domain.SortByWordCount:
		return a.WordCount - b.WordCount
	case domain.SortByUpdatedAt:
		return a.Frontmatter.UpdatedAt.Compare(b.Frontmatter.UpdatedAt)
	case domain.SortByPublishedAt:
		// unpublished items sort as the zero time
		var pa, pb int64
		if a.Frontmatter.PublishedAt != nil {
			pa = a.Frontmatter.PublishedAt.UnixNano()
		}
		if b.Frontmatter.PublishedAt != nil {
			pb = b.Frontmatter.PublishedAt.UnixNano()
		}
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	default:
		return a.Frontmatter.Date.Compare(b.Frontmatter.Date)
	}
}

func paginate(items []*domain.Item, offset, limit int) []*domain.Item {
	if offset >= len(items) {
		return []*domain.Item{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func toTermCounts(counts map[string]int) []domain.TermCount {
	out := make([]domain.TermCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.TermCount{Name: name, Count: n})
	}
	domain.SortTermCounts(out)
	return out
}
