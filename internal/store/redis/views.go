package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

// ViewStore counts item views in Redis. Counters are not authoritative
// content data: losing them never affects the catalog.
type ViewStore struct {
	client *redis.Client
}

// NewViewStore creates a new Redis view store
func NewViewStore(client *redis.Client) *ViewStore {
	return &ViewStore{
		client: client,
	}
}

// Increment records one view and returns the new total
func (s *ViewStore) Increment(ctx context.Context, kind domain.Kind, slug string) (int64, error) {
	n, err := s.client.ZIncrBy(ctx, ViewsKey(kind), 1, slug).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return int64(n), nil
}

// Count returns the recorded views of one item, 0 when never viewed
func (s *ViewStore) Count(ctx context.Context, kind domain.Kind, slug string) (int64, error) {
	n, err := s.client.ZScore(ctx, ViewsKey(kind), slug).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get views: %w", err)
	}
	return int64(n), nil
}

// Popular returns the limit most viewed items of kind, most viewed first
func (s *ViewStore) Popular(ctx context.Context, kind domain.Kind, limit int) ([]domain.ViewCount, error) {
	if limit <= 0 {
		return []domain.ViewCount{}, nil
	}

	entries, err := s.client.ZRevRangeWithScores(ctx, ViewsKey(kind), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get popular items: %w", err)
	}

	out := make([]domain.ViewCount, 0, len(entries))
	for _, e := range entries {
		slug, ok := e.Member.(string)
		if !ok {
			continue
		}
		out = append(out, domain.ViewCount{Slug: slug, Views: int64(e.Score)})
	}
	return out, nil
}

// Drop forgets the counter of a deleted item
func (s *ViewStore) Drop(ctx context.Context, kind domain.Kind, slug string) error {
	if err := s.client.ZRem(ctx, ViewsKey(kind), slug).Err(); err != nil {
		return fmt.Errorf("failed to drop views: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *ViewStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
