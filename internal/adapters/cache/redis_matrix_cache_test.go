package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"fleet-route-service/internal/domain"
)

func newTestCache(t *testing.T) (*RedisMatrixCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache, err := NewRedisMatrixCache(client, time.Hour)
	require.NoError(t, err)
	return cache, mr
}

func TestRedisMatrixCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	want := domain.MatrixResult{
		TimeMatrix:     [][]float64{{0, 12.5}, {13.1, 0}},
		DistanceMatrix: [][]float64{{0, 840}, {910, 0}},
	}
	require.NoError(t, cache.Put(ctx, "matrix:abc", want))

	got, ok, err := cache.Get(ctx, "matrix:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestRedisMatrixCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok, err := cache.Get(context.Background(), "matrix:absent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisMatrixCacheEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "matrix:ttl", domain.MatrixResult{
		TimeMatrix: [][]float64{{0}},
	}))
	require.Positive(t, mr.TTL("matrix:ttl"))

	mr.FastForward(2 * time.Hour)

	_, ok, err := cache.Get(ctx, "matrix:ttl")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisMatrixCacheCorruptPayload(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set("matrix:bad", "not json"))

	_, ok, err := cache.Get(context.Background(), "matrix:bad")
	require.Error(t, err)
	require.False(t, ok)
}

func TestRedisMatrixCacheRejectsEmptyKey(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, _, err := cache.Get(ctx, "")
	require.Error(t, err)
	require.Error(t, cache.Put(ctx, "", domain.MatrixResult{}))
}

func TestNewRedisMatrixCacheValidation(t *testing.T) {
	_, err := NewRedisMatrixCache(nil, time.Hour)
	require.Error(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	_, err = NewRedisMatrixCache(client, 0)
	require.Error(t, err)
}
