// Package feed renders published items as RSS 2.0 and Atom documents.
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// DefaultLimit caps the number of entries in a feed.
const DefaultLimit = 20

// Options describes the site the feed belongs to.
type Options struct {
	Title       string
	Description string
	BaseURL     string // ex: "https://devure.dev"
	PathPrefix  string // item path segment, ex: "blog"
	AuthorName  string
	Limit       int
}

// Build assembles a feed from items, newest first. Drafts are skipped.
func Build(items []*domain.Item, opts Options, now time.Time) *feeds.Feed {
	base := strings.TrimRight(opts.BaseURL, "/")
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	f := &feeds.Feed{
		Title:       opts.Title,
		Link:        &feeds.Link{Href: base},
		Description: opts.Description,
		Created:     now,
	}
	if opts.AuthorName != "" {
		f.Author = &feeds.Author{Name: opts.AuthorName}
	}

	var updated time.Time
	for _, it := range items {
		if !it.Published() {
			continue
		}
		if len(f.Items) == limit {
			break
		}

		fm := it.Frontmatter
		link := fmt.Sprintf("%s/%s/%s", base, strings.Trim(opts.PathPrefix, "/"), fm.Slug)
		created := fm.Date
		if fm.PublishedAt != nil {
			created = *fm.PublishedAt
		}

		entry := &feeds.Item{
			Id:          link,
			Title:       fm.Title,
			Link:        &feeds.Link{Href: link},
			Description: it.Excerpt,
			Created:     created,
			Updated:     fm.UpdatedAt,
		}
		if fm.Author.Name != "" {
			entry.Author = &feeds.Author{Name: fm.Author.Name}
		}
		if fm.CoverImage != "" {
			entry.Enclosure = &feeds.Enclosure{Url: fm.CoverImage, Type: "image/*", Length: "0"}
		}
		f.Items = append(f.Items, entry)

		if fm.UpdatedAt.After(updated) {
			updated = fm.UpdatedAt
		}
	}

	if !updated.IsZero() {
		f.Updated = updated
	}
	return f
}

// RSS renders items as an RSS 2.0 document.
func RSS(items []*domain.Item, opts Options, now time.Time) (string, error) {
	return Build(items, opts, now).ToRss()
}

// Atom renders items as an Atom 1.0 document.
func Atom(items []*domain.Item, opts Options, now time.Time) (string, error) {
	return Build(items, opts, now).ToAtom()
}
