package mongo

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// Document field paths.
const (
	fieldSlug        = "frontmatter.slug"
	fieldTitle       = "frontmatter.title"
	fieldDescription = "frontmatter.description"
	fieldCategory    = "frontmatter.category"
	fieldTags        = "frontmatter.tags"
	fieldAuthorName  = "frontmatter.author.name"
	fieldFeatured    = "frontmatter.featured"
	fieldDraft       = "frontmatter.draft"
	fieldDate        = "frontmatter.date"
	fieldPublishedAt = "frontmatter.publishedAt"
	fieldUpdatedAt   = "frontmatter.updatedAt"
	fieldContent     = "content"
	fieldWordCount   = "wordCount"

	// scoreField is the transient sort key for text relevance.
	scoreField = "score"
)

var sortFields = map[domain.SortField]string{
	domain.SortByDate:        fieldDate,
	domain.SortByPublishedAt: fieldPublishedAt,
	domain.SortByUpdatedAt:   fieldUpdatedAt,
	domain.SortByTitle:       fieldTitle,
	domain.SortByWordCount:   fieldWordCount,
}

// summaryProjection drops the body from list and search results.
var summaryProjection = bson.D{{Key: fieldContent, Value: 0}}

func bySlug(slug string) bson.D {
	return bson.D{{Key: fieldSlug, Value: slug}}
}

func publishedOnly() bson.E {
	return bson.E{Key: fieldDraft, Value: false}
}

func listFilter(f domain.ListFilter) bson.D {
	filter := bson.D{}
	if !f.IncludeDrafts {
		filter = append(filter, publishedOnly())
	}
	if f.Featured != nil {
		filter = append(filter, bson.E{Key: fieldFeatured, Value: *f.Featured})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: fieldCategory, Value: f.Category})
	}
	if f.Tag != "" {
		filter = append(filter, bson.E{Key: fieldTags, Value: f.Tag})
	}
	return filter
}

func listSort() bson.D {
	return bson.D{{Key: fieldDate, Value: -1}, {Key: fieldSlug, Value: 1}}
}

// searchFilter translates normalized options into a query document.
func searchFilter(o domain.SearchOptions) bson.D {
	filter := bson.D{}
	if o.Query != "" {
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: o.Query}}})
	}
	if !o.IncludeDrafts {
		filter = append(filter, publishedOnly())
	}
	if o.Category != "" {
		filter = append(filter, bson.E{Key: fieldCategory, Value: o.Category})
	}
	if len(o.Tags) > 0 {
		filter = append(filter, bson.E{Key: fieldTags, Value: bson.D{{Key: "$in", Value: o.Tags}}})
	}
	if o.Author != "" {
		filter = append(filter, bson.E{Key: fieldAuthorName, Value: o.Author})
	}
	if o.Featured != nil {
		filter = append(filter, bson.E{Key: fieldFeatured, Value: *o.Featured})
	}

	dateRange := bson.D{}
	if o.DateRange.From != nil {
		dateRange = append(dateRange, bson.E{Key: "$gte", Value: *o.DateRange.From})
	}
	if o.DateRange.To != nil {
		dateRange = append(dateRange, bson.E{Key: "$lte", Value: *o.DateRange.To})
	}
	if len(dateRange) > 0 {
		filter = append(filter, bson.E{Key: fieldDate, Value: dateRange})
	}
	return filter
}

// searchSort orders by the chosen field with slug as tie-breaker.
// Relevance sorts by text score, highest first.
func searchSort(o domain.SearchOptions) bson.D {
	if o.SortBy == domain.SortByRelevance && o.Query != "" {
		return bson.D{
			{Key: scoreField, Value: bson.D{{Key: "$meta", Value: "textScore"}}},
			{Key: fieldSlug, Value: 1},
		}
	}

	field, ok := sortFields[o.SortBy]
	if !ok {
		field = fieldDate
	}
	dir := -1
	if o.SortOrder == domain.SortAsc {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: fieldSlug, Value: 1}}
}

// termCountPipeline groups published items by a scalar or array field.
func termCountPipeline(field string, unwind bool) []bson.D {
	pipeline := []bson.D{
		{{Key: "$match", Value: bson.D{publishedOnly()}}},
	}
	if unwind {
		pipeline = append(pipeline, bson.D{{Key: "$unwind", Value: "$" + field}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	)
	return pipeline
}

// distinctCountFacet counts distinct non-empty values of field among
// published items.
func distinctCountFacet(field string, unwind bool) bson.A {
	stages := bson.A{bson.D{{Key: "$match", Value: bson.D{publishedOnly()}}}}
	if unwind {
		stages = append(stages, bson.D{{Key: "$unwind", Value: "$" + field}})
	}
	return append(stages,
		bson.D{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}}}}},
		bson.D{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$" + field}}}},
		bson.D{{Key: "$count", Value: "n"}},
	)
}

// statsPipeline computes every Stats total in one round trip.
func statsPipeline() []bson.D {
	return []bson.D{
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{publishedOnly()}}},
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "items", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "words", Value: bson.D{{Key: "$sum", Value: "$" + fieldWordCount}}},
					{Key: "featured", Value: bson.D{{Key: "$sum", Value: bson.D{
						{Key: "$cond", Value: bson.A{"$" + fieldFeatured, 1, 0}},
					}}}},
				}}},
			}},
			{Key: "categories", Value: distinctCountFacet(fieldCategory, false)},
			{Key: "tags", Value: distinctCountFacet(fieldTags, true)},
			{Key: "authors", Value: distinctCountFacet(fieldAuthorName, false)},
			{Key: "drafts", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: fieldDraft, Value: true}}}},
				bson.D{{Key: "$count", Value: "n"}},
			}},
		}}},
	}
}

type countDoc struct {
	N int `bson:"n"`
}

type statsFacet struct {
	Totals []struct {
		Items    int `bson:"items"`
		Words    int `bson:"words"`
		Featured int `bson:"featured"`
	} `bson:"totals"`
	Categories []countDoc `bson:"categories"`
	Tags       []countDoc `bson:"tags"`
	Authors    []countDoc `bson:"authors"`
	Drafts     []countDoc `bson:"drafts"`
}

func firstCount(docs []countDoc) int {
	if len(docs) == 0 {
		return 0
	}
	return docs[0].N
}

func (f statsFacet) toStats() *domain.Stats {
	st := &domain.Stats{
		TotalCategories: firstCount(f.Categories),
		TotalTags:       firstCount(f.Tags),
		TotalAuthors:    firstCount(f.Authors),
		DraftCount:      firstCount(f.Drafts),
	}
	if len(f.Totals) > 0 {
		st.TotalItems = f.Totals[0].Items
		st.TotalWords = f.Totals[0].Words
		st.FeaturedCount = f.Totals[0].Featured
	}
	st.AverageReadTimeMinutes = domain.AverageReadTime(st.TotalWords, st.TotalItems)
	return st
}
