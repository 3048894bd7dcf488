package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client connected to a miniredis instance
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return rdb, mr
}

func TestNewRedis(t *testing.T) {
	rdb, _ := setupTestRedis(t)

	t.Run("creates store successfully", func(t *testing.T) {
		store, err := NewRedis(rdb, "default", "tab-1")
		require.NoError(t, err)
		assert.Equal(t, "tab-1", store.scope)
	})

	t.Run("rejects nil client", func(t *testing.T) {
		_, err := NewRedis(nil, "default", "tab-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client cannot be nil")
	})

	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := NewRedis(rdb, "", "tab-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "namespace cannot be empty")
	})

	t.Run("rejects empty scope", func(t *testing.T) {
		_, err := NewRedis(rdb, "default", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "scope cannot be empty")
	})

	t.Run("rejects negative ttl", func(t *testing.T) {
		_, err := NewRedis(rdb, "default", "tab-1", WithTTL(-time.Second))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ttl must be >= 0")
	})
}

func TestRedis_SetAndGet(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	ctx := context.Background()

	store, err := NewRedis(rdb, "default", "tab-1")
	require.NoError(t, err)

	t.Run("missing key reports absent", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "list")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stores under namespaced key", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "list", "[1,2]"))

		raw, err := mr.Get("livestore:default:session:tab-1:value:list")
		require.NoError(t, err)
		assert.Equal(t, "[1,2]", raw)

		value, ok, err := store.Get(ctx, "list")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "[1,2]", value)
	})

	t.Run("scopes are isolated", func(t *testing.T) {
		other, err := NewRedis(rdb, "default", "tab-2")
		require.NoError(t, err)

		_, ok, err := other.Get(ctx, "list")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRedis_TTL(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	ctx := context.Background()

	store, err := NewRedis(rdb, "default", "tab-1", WithTTL(time.Minute))
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "list", "[1]"))
	assert.Equal(t, time.Minute, mr.TTL("livestore:default:session:tab-1:value:list"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "list")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Clear(t *testing.T) {
	rdb, _ := setupTestRedis(t)
	ctx := context.Background()

	store, err := NewRedis(rdb, "default", "tab-1")
	require.NoError(t, err)
	other, err := NewRedis(rdb, "default", "tab-2")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))
	require.NoError(t, other.Set(ctx, "a", "3"))

	removed, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err := other.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", value)
}

// Glob characters in a scope must not widen Clear to other sessions.
func TestRedis_ClearScopeWithGlobCharacters(t *testing.T) {
	rdb, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, scope := range []string{"tab*", "tab?", "tab[b]", `tab\`} {
		t.Run(scope, func(t *testing.T) {
			victim, err := NewRedis(rdb, "ns", "tab-b")
			require.NoError(t, err)
			require.NoError(t, victim.Set(ctx, "todos", "kept"))

			store, err := NewRedis(rdb, "ns", scope)
			require.NoError(t, err)
			require.NoError(t, store.Set(ctx, "todos", "mine"))

			removed, err := store.Clear(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			_, ok, err := store.Get(ctx, "todos")
			require.NoError(t, err)
			assert.False(t, ok)

			value, ok, err := victim.Get(ctx, "todos")
			require.NoError(t, err)
			assert.True(t, ok, "other session must keep its value")
			assert.Equal(t, "kept", value)
		})
	}
}

func TestRedis_ConnectionFailure(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	store, err := NewRedis(rdb, "default", "tab-1")
	require.NoError(t, err)

	mr.Close()

	_, _, err = store.Get(context.Background(), "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read value from Redis")
}
