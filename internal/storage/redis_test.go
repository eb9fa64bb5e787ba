package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a Redis store.
func setupTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisWithClient(client, ttl)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedis_SetAppliesTTL(t *testing.T) {
	store, mr := setupTestRedis(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "guestCart:d1", []byte(`{}`)))

	assert.True(t, mr.Exists("guestCart:d1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("guestCart:d1"))
}

func TestRedis_SetRefreshesTTL(t *testing.T) {
	store, mr := setupTestRedis(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "guestCart:d1", []byte(`{}`)))
	mr.FastForward(20 * time.Minute)
	require.NoError(t, store.Set(ctx, "guestCart:d1", []byte(`{"items":[]}`)))
	mr.FastForward(20 * time.Minute)

	got, err := store.Get(ctx, "guestCart:d1")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(got))
}

func TestRedis_Expiry(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "guestCart:d1", []byte(`{}`)))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "guestCart:d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_NoTTL(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "guestCart", []byte(`{}`)))
	assert.Equal(t, time.Duration(0), mr.TTL("guestCart"))
}

func TestRedis_ServerDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	store := NewRedisWithClient(client, 0)
	defer store.Close()

	_, err := store.Get(context.Background(), "guestCart")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewRedis_RequiresAddr(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisOptions{})
	assert.Error(t, err)
}
