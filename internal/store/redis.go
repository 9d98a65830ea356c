package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisSmallPrefix = "studio:small:"
	redisLargePrefix = "studio:large:"
)

// Redis backs the store with a Redis instance, keeping the two tiers apart
// with key prefixes.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client and verifies connectivity.
func NewRedis(ctx context.Context, client *redis.Client) (*Redis, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) GetSmall(ctx context.Context, key string) ([]byte, error) {
	return r.get(ctx, redisSmallPrefix+key)
}

func (r *Redis) SetSmall(ctx context.Context, key string, value []byte) error {
	return r.set(ctx, redisSmallPrefix+key, value)
}

func (r *Redis) GetLarge(ctx context.Context, key string) ([]byte, error) {
	return r.get(ctx, redisLargePrefix+key)
}

func (r *Redis) SetLarge(ctx context.Context, key string, value []byte) error {
	return r.set(ctx, redisLargePrefix+key, value)
}

func (r *Redis) DeleteLarge(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisLargePrefix+key).Err(); err != nil {
		return fmt.Errorf("store: redis del: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: redis get: %w", err)
	}
	return value, nil
}

func (r *Redis) set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set: %w", err)
	}
	return nil
}

var _ Store = (*Redis)(nil)
