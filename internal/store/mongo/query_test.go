package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

func TestListFilter(t *testing.T) {
	yes := true

	tests := []struct {
		name     string
		filter   domain.ListFilter
		expected bson.D
	}{
		{
			name:     "published by default",
			filter:   domain.ListFilter{},
			expected: bson.D{{Key: fieldDraft, Value: false}},
		},
		{
			name:     "drafts included",
			filter:   domain.ListFilter{IncludeDrafts: true},
			expected: bson.D{},
		},
		{
			name:   "featured category tag",
			filter: domain.ListFilter{Featured: &yes, Category: "go", Tag: "api"},
			expected: bson.D{
				{Key: fieldDraft, Value: false},
				{Key: fieldFeatured, Value: true},
				{Key: fieldCategory, Value: "go"},
				{Key: fieldTags, Value: "api"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, listFilter(tt.filter))
		})
	}
}

func TestSearchFilter(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	no := false

	got := searchFilter(domain.SearchOptions{
		Query:     "kubernetes",
		Category:  "ops",
		Tags:      []string{"k8s", "helm"},
		Author:    "Ada",
		Featured:  &no,
		DateRange: domain.DateRange{From: &from, To: &to},
	})

	expected := bson.D{
		{Key: "$text", Value: bson.D{{Key: "$search", Value: "kubernetes"}}},
		{Key: fieldDraft, Value: false},
		{Key: fieldCategory, Value: "ops"},
		{Key: fieldTags, Value: bson.D{{Key: "$in", Value: []string{"k8s", "helm"}}}},
		{Key: fieldAuthorName, Value: "Ada"},
		{Key: fieldFeatured, Value: false},
		{Key: fieldDate, Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lte", Value: to}}},
	}
	assert.Equal(t, expected, got)
}

func TestSearchFilter_AdminIncludesDrafts(t *testing.T) {
	got := searchFilter(domain.SearchOptions{IncludeDrafts: true})
	assert.Empty(t, got)
}

func TestSearchSort(t *testing.T) {
	tests := []struct {
		name     string
		opts     domain.SearchOptions
		expected bson.D
	}{
		{
			name:     "date descending",
			opts:     domain.SearchOptions{SortBy: domain.SortByDate, SortOrder: domain.SortDesc},
			expected: bson.D{{Key: fieldDate, Value: -1}, {Key: fieldSlug, Value: 1}},
		},
		{
			name:     "title ascending",
			opts:     domain.SearchOptions{SortBy: domain.SortByTitle, SortOrder: domain.SortAsc},
			expected: bson.D{{Key: fieldTitle, Value: 1}, {Key: fieldSlug, Value: 1}},
		},
		{
			name:     "word count",
			opts:     domain.SearchOptions{SortBy: domain.SortByWordCount, SortOrder: domain.SortDesc},
			expected: bson.D{{Key: fieldWordCount, Value: -1}, {Key: fieldSlug, Value: 1}},
		},
		{
			name: "relevance uses text score",
			opts: domain.SearchOptions{Query: "go", SortBy: domain.SortByRelevance, SortOrder: domain.SortAsc},
			expected: bson.D{
				{Key: scoreField, Value: bson.D{{Key: "$meta", Value: "textScore"}}},
				{Key: fieldSlug, Value: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, searchSort(tt.opts))
		})
	}
}

func TestStatsFacet_ToStats(t *testing.T) {
	f := statsFacet{
		Categories: []countDoc{{N: 2}},
		Tags:       []countDoc{{N: 5}},
		Authors:    []countDoc{{N: 1}},
		Drafts:     []countDoc{{N: 3}},
	}
	f.Totals = append(f.Totals, struct {
		Items    int `bson:"items"`
		Words    int `bson:"words"`
		Featured int `bson:"featured"`
	}{Items: 2, Words: 900, Featured: 1})

	st := f.toStats()
	assert.Equal(t, &domain.Stats{
		TotalItems:             2,
		TotalCategories:        2,
		TotalTags:              5,
		TotalAuthors:           1,
		TotalWords:             900,
		AverageReadTimeMinutes: 2,
		FeaturedCount:          1,
		DraftCount:             3,
	}, st)

	assert.Equal(t, &domain.Stats{}, statsFacet{}.toStats())
}
