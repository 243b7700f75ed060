package content

import (
	"context"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// Repository is the document store holding items of one kind.
//
// Lookups of unknown slugs fail with an error wrapping domain.ErrNotFound,
// and Insert of a taken slug with one wrapping domain.ErrDuplicateSlug.
// List and Search return summaries without Content.
type Repository interface {
	Insert(ctx context.Context, item *domain.Item) error
	FindBySlug(ctx context.Context, slug string) (*domain.Item, error)
	Replace(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, slug string) error

	List(ctx context.Context, filter domain.ListFilter) ([]*domain.Item, error)
	Search(ctx context.Context, opts domain.SearchOptions) (*domain.SearchResult, error)

	Categories(ctx context.Context) ([]domain.TermCount, error)
	Tags(ctx context.Context) ([]domain.TermCount, error)
	Stats(ctx context.Context) (*domain.Stats, error)

	Ping(ctx context.Context) error
}

// HTMLCache keeps rendered bodies keyed by etag. Its failures never fail
// a read.
type HTMLCache interface {
	GetHTML(ctx context.Context, kind domain.Kind, slug, etag string) (string, bool, error)
	SetHTML(ctx context.Context, kind domain.Kind, slug, etag, html string) error
	Forget(ctx context.Context, kind domain.Kind, slug string) error
}
