// Package mongo is the MongoDB content repository: one collection per kind,
// holding frontmatter, the denormalized body and object-store provenance.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// Repository reads and writes items of one kind.
type Repository struct {
	coll *mongo.Collection
	kind domain.Kind
}

// NewRepository binds kind to its collection in db.
func NewRepository(db *mongo.Database, kind domain.Kind) *Repository {
	return &Repository{
		coll: db.Collection(kind.Plural()),
		kind: kind,
	}
}

func (r *Repository) Kind() domain.Kind { return r.kind }

// EnsureIndexes creates the unique slug index, the weighted text index
// used by Search and the indexes behind list filters. It is idempotent.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldSlug, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys: bson.D{
				{Key: fieldTitle, Value: "text"},
				{Key: fieldDescription, Value: "text"},
				{Key: fieldTags, Value: "text"},
			},
			Options: options.Index().SetName("text_search").SetWeights(bson.D{
				{Key: fieldTitle, Value: 10},
				{Key: fieldTags, Value: 5},
				{Key: fieldDescription, Value: 2},
			}),
		},
		{
			Keys:    bson.D{{Key: fieldDraft, Value: 1}, {Key: fieldDate, Value: -1}},
			Options: options.Index().SetName("draft_date"),
		},
		{
			Keys:    bson.D{{Key: fieldCategory, Value: 1}},
			Options: options.Index().SetName("category"),
		},
		{
			Keys:    bson.D{{Key: fieldTags, Value: 1}},
			Options: options.Index().SetName("tags"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", r.kind.Plural(), err)
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, item *domain.Item) error {
	if _, err := r.coll.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.DuplicateSlug(r.kind, item.Slug())
		}
		return fmt.Errorf("failed to insert %s %q: %w", r.kind, item.Slug(), err)
	}
	return nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*domain.Item, error) {
	var item domain.Item
	err := r.coll.FindOne(ctx, bySlug(slug)).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(r.kind, slug)
		}
		return nil, fmt.Errorf("failed to find %s %q: %w", r.kind, slug, err)
	}
	return &item, nil
}

// Replace overwrites the whole document matching item's slug.
func (r *Repository) Replace(ctx context.Context, item *domain.Item) error {
	res, err := r.coll.ReplaceOne(ctx, bySlug(item.Slug()), item)
	if err != nil {
		return fmt.Errorf("failed to replace %s %q: %w", r.kind, item.Slug(), err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(r.kind, item.Slug())
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, slug string) error {
	res, err := r.coll.DeleteOne(ctx, bySlug(slug))
	if err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", r.kind, slug, err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound(r.kind, slug)
	}
	return nil
}

// List returns summaries (no content) sorted by date descending.
func (r *Repository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Item, error) {
	opts := options.Find().
		SetSort(listSort()).
		SetProjection(summaryProjection)

	return r.find(ctx, listFilter(filter), opts)
}

// Search runs a filtered, sorted, paged query. opts must be normalized.
func (r *Repository) Search(ctx context.Context, opts domain.SearchOptions) (*domain.SearchResult, error) {
	filter := searchFilter(opts)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", r.kind.Plural(), err)
	}

	findOpts := options.Find().
		SetSort(searchSort(opts)).
		SetProjection(summaryProjection).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))

	items, err := r.find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	return domain.NewSearchResult(items, total, opts.Offset), nil
}

func (r *Repository) Categories(ctx context.Context) ([]domain.TermCount, error) {
	return r.termCounts(ctx, fieldCategory, false)
}

func (r *Repository) Tags(ctx context.Context) ([]domain.TermCount, error) {
	return r.termCounts(ctx, fieldTags, true)
}

// Stats aggregates every total server-side in a single $facet query.
func (r *Repository) Stats(ctx context.Context) (*domain.Stats, error) {
	cursor, err := r.coll.Aggregate(ctx, statsPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s stats: %w", r.kind.Plural(), err)
	}

	var facets []statsFacet
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("failed to decode %s stats: %w", r.kind.Plural(), err)
	}
	if len(facets) == 0 {
		return &domain.Stats{}, nil
	}
	return facets[0].toStats(), nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *Repository) find(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]*domain.Item, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.kind.Plural(), err)
	}

	var docs []domain.Item
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.kind.Plural(), err)
	}

	items := make([]*domain.Item, len(docs))
	for i := range docs {
		items[i] = &docs[i]
	}
	return items, nil
}

func (r *Repository) termCounts(ctx context.Context, field string, unwind bool) ([]domain.TermCount, error) {
	cursor, err := r.coll.Aggregate(ctx, termCountPipeline(field, unwind))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s by %s: %w", r.kind.Plural(), field, err)
	}

	terms := []domain.TermCount{}
	if err := cursor.All(ctx, &terms); err != nil {
		return nil, fmt.Errorf("failed to decode %s term counts: %w", r.kind.Plural(), err)
	}
	return terms, nil
}
