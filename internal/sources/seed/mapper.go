package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/domain"
)

// Mapper converts seed entries to content create inputs
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map converts every entry of kind. Entries without a title are rejected.
func (m *Mapper) Map(file *File, kind domain.Kind) ([]content.CreateInput, error) {
	entries := file.entries(kind)
	inputs := make([]content.CreateInput, 0, len(entries))

	for i, e := range entries {
		if strings.TrimSpace(e.Title) == "" {
			return nil, fmt.Errorf("%s entry %d: missing title", kind, i)
		}

		date, err := parseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, e.Title, err)
		}

		in := content.CreateInput{
			Frontmatter: domain.Frontmatter{
				Title:       e.Title,
				Slug:        e.Slug,
				Description: e.Description,
				Category:    e.Category,
				Tags:        e.Tags,
				CoverImage:  e.CoverImage,
				OgImage:     e.OgImage,
				Author:      e.Author,
				ReadTime:    e.ReadTime,
				Featured:    e.Featured,
				Draft:       e.Draft,
				Date:        date,
			},
			Content: e.Content,
		}
		if e.Excerpt != "" {
			excerpt := e.Excerpt
			in.Excerpt = &excerpt
		}
		inputs = append(inputs, in)
	}

	return inputs, nil
}

// SlugOf returns the slug an input will be stored under.
func SlugOf(in content.CreateInput) string {
	if in.Frontmatter.Slug != "" {
		return in.Frontmatter.Slug
	}
	return domain.Slugify(in.Frontmatter.Title)
}

// parseDate accepts "2006-01-02" or RFC3339. Empty means "now" at create.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
