package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "search:history:u1", []byte(`["sage"]`)))

	raw, err := mr.Get("search:history:u1")
	require.NoError(t, err)
	assert.JSONEq(t, `["sage"]`, raw)

	data, err := store.Load(ctx, "search:history:u1")
	require.NoError(t, err)
	assert.JSONEq(t, `["sage"]`, string(data))

	require.NoError(t, store.Delete(ctx, "search:history:u1"))
	_, err = store.Load(ctx, "search:history:u1")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL("k"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Load(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotNotFound)
	assert.Error(t, store.Ping(context.Background()))
}

func TestSession_OnRedisStore(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	s := openTestSession(t, store)
	s.UpdateSearchQuery(ctx, "terracotta")
	_, err := s.SaveSearch(ctx, "Warm")
	require.NoError(t, err)

	assert.True(t, mr.Exists(HistoryKey("user-1")))
	assert.True(t, mr.Exists(SavedSearchesKey("user-1")))

	require.NoError(t, mr.Set(HistoryKey("user-2"), "garbage"))
	other := Open(ctx, "sess-9", "user-2", store, quietLogger())
	assert.Empty(t, other.History())
}
