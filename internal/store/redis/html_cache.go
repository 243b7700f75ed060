package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// DefaultHTMLCacheTTL bounds how long a rendered body is kept.
const DefaultHTMLCacheTTL = 24 * time.Hour

// HTMLCache keeps rendered item bodies. Entries are keyed by the body etag,
// so an updated body is a cache miss rather than a stale hit.
type HTMLCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHTMLCache creates a new Redis HTML cache. A non-positive ttl uses
// DefaultHTMLCacheTTL.
func NewHTMLCache(client *redis.Client, ttl time.Duration) *HTMLCache {
	if ttl <= 0 {
		ttl = DefaultHTMLCacheTTL
	}
	return &HTMLCache{client: client, ttl: ttl}
}

// GetHTML returns the cached HTML of slug at etag. A miss is ("", false, nil).
func (c *HTMLCache) GetHTML(ctx context.Context, kind domain.Kind, slug, etag string) (string, bool, error) {
	html, err := c.client.Get(ctx, HTMLKey(kind, slug, etag)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached html: %w", err)
	}
	return html, true, nil
}

// SetHTML stores the rendered HTML of slug at etag.
func (c *HTMLCache) SetHTML(ctx context.Context, kind domain.Kind, slug, etag, html string) error {
	if err := c.client.Set(ctx, HTMLKey(kind, slug, etag), html, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache html: %w", err)
	}
	return nil
}

// Forget removes every cached rendition of slug.
func (c *HTMLCache) Forget(ctx context.Context, kind domain.Kind, slug string) error {
	iter := c.client.Scan(ctx, 0, HTMLKeyPattern(kind, slug), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cached html: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to forget cached html: %w", err)
	}
	return nil
}

// Flush removes all cached renditions of every kind and reports how many
// entries were dropped.
func (c *HTMLCache) Flush(ctx context.Context) (int, error) {
	var n int
	iter := c.client.Scan(ctx, 0, KeyPrefixHTML+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return n, fmt.Errorf("failed to delete cache key: %w", err)
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("failed to flush cache: %w", err)
	}
	return n, nil
}
