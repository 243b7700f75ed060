package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

func newTestViewStore(t *testing.T) (*ViewStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewViewStore(client), mr
}

func TestViewStore_IncrementAndCount(t *testing.T) {
	store, _ := newTestViewStore(t)
	ctx := context.Background()

	n, err := store.Count(ctx, domain.KindBlog, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for i := 1; i <= 3; i++ {
		n, err = store.Increment(ctx, domain.KindBlog, "hello")
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}

	n, err = store.Count(ctx, domain.KindBlog, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// kinds are isolated
	n, err = store.Count(ctx, domain.KindProject, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestViewStore_Popular(t *testing.T) {
	store, _ := newTestViewStore(t)
	ctx := context.Background()

	views := map[string]int{"a": 1, "b": 5, "c": 3}
	for slug, n := range views {
		for i := 0; i < n; i++ {
			_, err := store.Increment(ctx, domain.KindBlog, slug)
			require.NoError(t, err)
		}
	}

	top, err := store.Popular(ctx, domain.KindBlog, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.ViewCount{{Slug: "b", Views: 5}, {Slug: "c", Views: 3}}, top)

	none, err := store.Popular(ctx, domain.KindBlog, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestViewStore_Drop(t *testing.T) {
	store, mr := newTestViewStore(t)
	ctx := context.Background()

	_, err := store.Increment(ctx, domain.KindService, "audit")
	require.NoError(t, err)
	require.NoError(t, store.Drop(ctx, domain.KindService, "audit"))

	n, err := store.Count(ctx, domain.KindService, "audit")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.False(t, mr.Exists(ViewsKey(domain.KindService)))
}

func TestViewStore_Ping(t *testing.T) {
	store, mr := newTestViewStore(t)
	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}
