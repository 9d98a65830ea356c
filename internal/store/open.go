package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"studio/internal/infra"
)

// Open constructs the Store selected by the configuration.
func Open(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case infra.StoreBackendMemory:
		return NewMemory(), nil
	case infra.StoreBackendFilesystem:
		return NewFilesystem(cfg.DataDir)
	case infra.StoreBackendPostgres:
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgres(ctx, pool, logger)
	case infra.StoreBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("store: parse redis url: %w", err)
		}
		return NewRedis(ctx, redis.NewClient(opts))
	default:
		return nil, fmt.Errorf("store: unsupported backend %q", cfg.StoreBackend)
	}
}
