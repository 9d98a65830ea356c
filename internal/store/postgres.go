package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	sqlEnsureSmall = `CREATE TABLE IF NOT EXISTS kv_small (
	key   TEXT PRIMARY KEY,
	value JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	sqlEnsureLarge = `CREATE TABLE IF NOT EXISTS kv_large (
	key   TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	sqlGetSmall = `SELECT value FROM kv_small WHERE key = $1`
	sqlSetSmall = `INSERT INTO kv_small (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	sqlGetLarge = `SELECT value FROM kv_large WHERE key = $1`
	sqlSetLarge = `INSERT INTO kv_large (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	sqlDeleteLarge = `DELETE FROM kv_large WHERE key = $1`
)

// Postgres backs the store with two tables on a pgx pool: kv_small holds
// JSONB documents, kv_large holds blobs.
type Postgres struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres ensures the schema exists and returns a Postgres store.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (*Postgres, error) {
	for _, ddl := range []string{sqlEnsureSmall, sqlEnsureLarge} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("store: ensure schema: %w", err)
		}
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) GetSmall(ctx context.Context, key string) ([]byte, error) {
	return p.get(ctx, sqlGetSmall, key)
}

func (p *Postgres) SetSmall(ctx context.Context, key string, value []byte) error {
	return p.set(ctx, sqlSetSmall, key, value)
}

func (p *Postgres) GetLarge(ctx context.Context, key string) ([]byte, error) {
	return p.get(ctx, sqlGetLarge, key)
}

func (p *Postgres) SetLarge(ctx context.Context, key string, value []byte) error {
	return p.set(ctx, sqlSetLarge, key, value)
}

func (p *Postgres) DeleteLarge(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, sqlDeleteLarge, key); err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) get(ctx context.Context, query, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) set(ctx context.Context, query, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, query, key, value); err != nil {
		p.logger.Error().Err(err).Str("key", key).Msg("store: postgres write failed")
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}

var _ Store = (*Postgres)(nil)
