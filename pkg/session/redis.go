package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dyluth/livestore/internal/schema"
	"github.com/redis/go-redis/v9"
)

// Redis stores values in Redis, namespaced by deployment and session scope.
// Values live at livestore:{namespace}:session:{scope}:value:{id}.
// The store is thread-safe and can be used concurrently from multiple goroutines.
type Redis struct {
	rdb       redis.UniversalClient
	namespace string
	scope     string
	ttl       time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis) error

// WithTTL expires every written value after ttl. Zero disables expiry.
// Each write refreshes the expiry, so an active session keeps its values.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) error {
		if ttl < 0 {
			return fmt.Errorf("ttl must be >= 0, got %v", ttl)
		}
		r.ttl = ttl
		return nil
	}
}

// NewRedis creates a store for the given session scope.
//
// Parameters:
//   - rdb: connected Redis client, owned by the caller
//   - namespace: deployment namespace (must not be empty)
//   - scope: session identifier, one per context (must not be empty)
func NewRedis(rdb redis.UniversalClient, namespace, scope string, opts ...RedisOption) (*Redis, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	if scope == "" {
		return nil, fmt.Errorf("scope cannot be empty")
	}

	r := &Redis{rdb: rdb, namespace: namespace, scope: scope}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Get returns the value stored for key. A missing key is reported with ok=false.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read value from Redis: %w", err)
	}
	return value, true, nil
}

// Set writes value for key, refreshing the expiry when a TTL is configured.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write value to Redis: %w", err)
	}
	return nil
}

// Clear deletes every value of this session scope and returns how many
// keys were removed. Use it when a context ends for good.
func (r *Redis) Clear(ctx context.Context) (int, error) {
	var removed int

	prefix := schema.SessionPrefix(r.namespace, r.scope)
	iter := r.rdb.Scan(ctx, 0, schema.SessionPattern(r.namespace, r.scope), 100).Iterator()
	for iter.Next(ctx) {
		if !strings.HasPrefix(iter.Val(), prefix) {
			continue
		}
		n, err := r.rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to delete session key: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan session keys: %w", err)
	}

	return removed, nil
}

func (r *Redis) key(id string) string {
	return schema.ValueKey(r.namespace, r.scope, id)
}
