package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	lib_store "github.com/eko/gocache/lib/v4/store"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) *RedisStore[payload] {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	return NewRedisStore[payload](client, lib_store.WithExpiration(time.Minute))
}

func TestRedisStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Set(ctx, "k1", payload{Name: "alpha", Count: 2})
	require.NoError(t, err)

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "alpha", Count: 2}, got)
}

func TestRedisStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "absent")
	require.Error(t, err)

	var nf *lib_store.NotFound

	assert.ErrorAs(t, err, &nf)
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k1", payload{Name: "beta"}))
	require.NoError(t, s.Delete(ctx, "k1"))

	_, err := s.Get(ctx, "k1")
	require.Error(t, err)
}

func TestRedisStore_InvalidateByTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k1", payload{Name: "gamma"}, lib_store.WithTags([]string{"group"})))
	require.NoError(t, s.Set(ctx, "k2", payload{Name: "delta"}, lib_store.WithTags([]string{"group"})))

	require.NoError(t, s.Invalidate(ctx, lib_store.WithInvalidateTags([]string{"group"})))

	_, err := s.Get(ctx, "k1")
	require.Error(t, err)
	_, err = s.Get(ctx, "k2")
	require.Error(t, err)
}

func TestRedisStore_GetWithTTL(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k1", payload{Name: "epsilon"}))

	got, ttl, err := s.GetWithTTL(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "epsilon"}, got)
	assert.Greater(t, ttl, time.Duration(0))
}
