package content

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// mapCache is an in-process HTMLCache that counts lookups.
type mapCache struct {
	entries map[string]string
	hits    int
	getErr  error
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string]string)} }

func (c *mapCache) GetHTML(_ context.Context, kind domain.Kind, slug, etag string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	html, ok := c.entries[string(kind)+"/"+slug+"@"+etag]
	if ok {
		c.hits++
	}
	return html, ok, nil
}

func (c *mapCache) SetHTML(_ context.Context, kind domain.Kind, slug, etag, html string) error {
	c.entries[string(kind)+"/"+slug+"@"+etag] = html
	return nil
}

func (c *mapCache) Forget(_ context.Context, kind domain.Kind, slug string) error {
	for k := range c.entries {
		if strings.HasPrefix(k, string(kind)+"/"+slug+"@") {
			delete(c.entries, k)
		}
	}
	return nil
}

func TestRender_UsesCacheByETag(t *testing.T) {
	f := newFixture(t)
	cache := newMapCache()
	f.svc.html = cache
	ctx := context.Background()

	item := f.create(t, "cached", false, "# One")

	first, err := f.svc.Render(ctx, item)
	require.NoError(t, err)
	assert.Contains(t, first, "<h1")
	assert.Equal(t, 0, cache.hits)

	second, err := f.svc.Render(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)

	updated, err := f.svc.Update(ctx, "cached", UpdateInput{Content: strPtr("# Two")})
	require.NoError(t, err)
	assert.Empty(t, cache.entries, "a body update forgets old renditions")

	html, err := f.svc.Render(ctx, updated)
	require.NoError(t, err)
	assert.Contains(t, html, "Two")

	require.NoError(t, f.svc.Delete(ctx, "cached"))
	assert.Empty(t, cache.entries)
}

func TestRender_CacheFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	cache := newMapCache()
	cache.getErr = errBoom
	f.svc.html = cache

	item := f.create(t, "flaky", false, "plain *text*")
	html, err := f.svc.Render(context.Background(), item)
	require.NoError(t, err)
	assert.Contains(t, html, "<em>text</em>")
}

func TestRender_WithoutCache(t *testing.T) {
	f := newFixture(t)
	item := f.create(t, "nocache", false, "**bold**")

	html, err := f.svc.Render(context.Background(), item)
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>bold</strong>")
}
