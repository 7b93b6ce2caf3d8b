package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finview/finview-backend/internal/domain"
)

// Redis implements domain.Cache on top of a Redis server.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis cache and pings the server to make sure it is
// reachable before the service starts taking traffic.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client. Used by tests.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the value stored under key, or domain.ErrCacheMiss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

// SetWithTTL writes value under key with the given expiry.
func (r *Redis) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Health checks the Redis connection.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
