package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClientRequiresAddress(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{Address: "  "})
	require.ErrorContains(t, err, "address is required")
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{
		Address: "127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
}

func TestRedisStorePrefixesKeys(t *testing.T) {
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	t.Cleanup(func() { _ = store.Close() })

	require.Equal(t, "sai:view:/dashboard", store.key("view:/dashboard"))

	custom := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "tenant-a:")
	t.Cleanup(func() { _ = custom.Close() })
	require.Equal(t, "tenant-a:k", custom.key("k"))
}

func TestRedisStoreSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStore(client, "")
	t.Cleanup(func() { _ = store.Close() })

	_, _, err := store.Get(context.Background(), "k")
	require.ErrorContains(t, err, "redis: get")

	_, _, err = store.IncrementWithTTL(context.Background(), "k", time.Second)
	require.ErrorContains(t, err, "redis: incr")

	require.NoError(t, store.Delete(context.Background()))
}

func TestNilRedisStore(t *testing.T) {
	require.Nil(t, NewRedisStore(nil, ""))

	var store *RedisStore
	require.Error(t, store.Set(context.Background(), "k", nil, 0))
	require.NoError(t, store.Close())
}
