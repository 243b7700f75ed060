package domain

import (
	"strings"
	"time"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// SortField names the frontmatter/derived field a search is ordered by.
type SortField string

const (
	SortByDate        SortField = "date"
	SortByPublishedAt SortField = "publishedAt"
	SortByUpdatedAt   SortField = "updatedAt"
	SortByTitle       SortField = "title"
	SortByWordCount   SortField = "wordCount"
	// SortByRelevance orders by text-match score and needs a Query.
	SortByRelevance SortField = "relevance"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DateRange bounds Frontmatter.Date. Either end may be nil.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls within the (inclusive) range.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// SearchOptions filters, orders and pages a search over one kind.
type SearchOptions struct {
	Query    string
	Category string
	// Tags matches items carrying any of the listed tags.
	Tags      []string
	Author    string
	Featured  *bool
	DateRange DateRange

	SortBy    SortField
	SortOrder SortOrder
	Limit     int
	Offset    int

	// IncludeDrafts widens the search to unpublished items (admin views).
	IncludeDrafts bool
}

// Normalize fills defaults and validates the options in place.
func (o *SearchOptions) Normalize() error {
	o.Query = strings.TrimSpace(o.Query)
	o.Category = strings.TrimSpace(o.Category)
	o.Author = strings.TrimSpace(o.Author)

	tags := o.Tags[:0:0]
	for _, t := range o.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	o.Tags = tags

	switch o.SortBy {
	case "":
		o.SortBy = SortByDate
	case SortByDate, SortByPublishedAt, SortByUpdatedAt, SortByTitle, SortByWordCount:
	case SortByRelevance:
		if o.Query == "" {
			o.SortBy = SortByDate
		}
	default:
		return NewValidationError("sortBy", "unsupported sort field "+string(o.SortBy))
	}

	switch SortOrder(strings.ToLower(string(o.SortOrder))) {
	case "", SortDesc:
		o.SortOrder = SortDesc
	case SortAsc:
		o.SortOrder = SortAsc
	default:
		return NewValidationError("sortOrder", "must be asc or desc")
	}

	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.Limit > MaxSearchLimit {
		o.Limit = MaxSearchLimit
	}
	if o.Offset < 0 {
		return NewValidationError("offset", "must not be negative")
	}
	if o.DateRange.From != nil && o.DateRange.To != nil && o.DateRange.From.After(*o.DateRange.To) {
		return NewValidationError("dateRange", "from is after to")
	}
	return nil
}

// SearchResult is one page of matches.
type SearchResult struct {
	Items   []*Item `json:"items"`
	Total   int64   `json:"total"`
	HasMore bool    `json:"hasMore"`
}

// NewSearchResult computes HasMore from the page position.
func NewSearchResult(items []*Item, total int64, offset int) *SearchResult {
	if items == nil {
		items = []*Item{}
	}
	return &SearchResult{
		Items:   items,
		Total:   total,
		HasMore: int64(offset+len(items)) < total,
	}
}

// ListFilter narrows a plain listing (no text query, no paging).
type ListFilter struct {
	IncludeDrafts bool
	Featured      *bool
	Category      string
	Tag           string
}

// TermCount is a category or tag with the number of published items using it.
type TermCount struct {
	Name  string `json:"name" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// Stats is an aggregate snapshot of one kind.
//
// Every total except DraftCount covers published items only, and
// AverageReadTimeMinutes divides their word total by the published count.
type Stats struct {
	TotalItems             int `json:"totalItems"`
	TotalCategories        int `json:"totalCategories"`
	TotalTags              int `json:"totalTags"`
	TotalAuthors           int `json:"totalAuthors"`
	TotalWords             int `json:"totalWords"`
	AverageReadTimeMinutes int `json:"averageReadTimeMinutes"`
	FeaturedCount          int `json:"featuredCount"`
	DraftCount             int `json:"draftCount"`
}
