package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func item(slug string, day int, draft bool) *domain.Item {
	date := time.Date(2024, 5, day, 9, 0, 0, 0, time.UTC)
	it := &domain.Item{
		Frontmatter: domain.Frontmatter{
			Title:     "Post " + slug,
			Slug:      slug,
			Author:    domain.Author{Name: "Ada"},
			Date:      date,
			UpdatedAt: date,
		},
		Excerpt: "Excerpt of " + slug,
	}
	it.SetDraft(draft, date)
	return it
}

func opts() Options {
	return Options{
		Title:       "Devure blog",
		Description: "Notes from the team",
		BaseURL:     "https://devure.dev/",
		PathPrefix:  "blog",
	}
}

func TestRSS_ParsesBack(t *testing.T) {
	items := []*domain.Item{item("newer", 20, false), item("hidden", 15, true), item("older", 10, false)}

	doc, err := RSS(items, opts(), now)
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().ParseString(doc)
	require.NoError(t, err)
	assert.Equal(t, "rss", parsed.FeedType)
	assert.Equal(t, "Devure blog", parsed.Title)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "Post newer", parsed.Items[0].Title)
	assert.Equal(t, "https://devure.dev/blog/newer", parsed.Items[0].Link)
	assert.Equal(t, "Excerpt of newer", parsed.Items[0].Description)
	assert.Equal(t, "Post older", parsed.Items[1].Title)
}

func TestAtom_ParsesBack(t *testing.T) {
	doc, err := Atom([]*domain.Item{item("only", 3, false)}, opts(), now)
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().ParseString(doc)
	require.NoError(t, err)
	assert.Equal(t, "atom", parsed.FeedType)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "https://devure.dev/blog/only", parsed.Items[0].Link)
	require.NotNil(t, parsed.Items[0].PublishedParsed)
	assert.True(t, parsed.Items[0].PublishedParsed.Equal(time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)))
}

func TestBuild_Limit(t *testing.T) {
	var items []*domain.Item
	for i := 1; i <= 30; i++ {
		items = append(items, item(fmt.Sprintf("p%d", i), 1+i%28, false))
	}

	assert.Len(t, Build(items, opts(), now).Items, DefaultLimit)

	o := opts()
	o.Limit = 5
	assert.Len(t, Build(items, o, now).Items, 5)
}
