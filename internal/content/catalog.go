package content

import (
	"context"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// Catalog is the read-side view of one kind: categories, tags and stats.
// It keeps no state of its own.
type Catalog struct {
	kind domain.Kind
	repo Repository
}

func NewCatalog(kind domain.Kind, repo Repository) *Catalog {
	return &Catalog{kind: kind, repo: repo}
}

// Categories lists categories of published items, most used first.
func (c *Catalog) Categories(ctx context.Context) ([]domain.TermCount, error) {
	terms, err := c.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortTermCounts(terms)
	return terms, nil
}

// Tags lists tags of published items, most used first.
func (c *Catalog) Tags(ctx context.Context) ([]domain.TermCount, error) {
	terms, err := c.repo.Tags(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortTermCounts(terms)
	return terms, nil
}

func (c *Catalog) Stats(ctx context.Context) (*domain.Stats, error) {
	return c.repo.Stats(ctx)
}
