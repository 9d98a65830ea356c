package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem persists both tiers onto the local filesystem, the default for
// single-user development setups where no database is running. Small values
// live under small/, large blobs under large/.
type Filesystem struct {
	basePath string
}

// NewFilesystem initializes a Filesystem store rooted at basePath.
func NewFilesystem(basePath string) (*Filesystem, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("store: base path is required")
	}
	for _, dir := range []string{"small", "large"} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0o755); err != nil {
			return nil, fmt.Errorf("store: ensure base path: %w", err)
		}
	}
	return &Filesystem{basePath: basePath}, nil
}

func (s *Filesystem) GetSmall(ctx context.Context, key string) ([]byte, error) {
	return s.read(ctx, "small", key)
}

func (s *Filesystem) SetSmall(ctx context.Context, key string, value []byte) error {
	return s.write(ctx, "small", key, value)
}

func (s *Filesystem) GetLarge(ctx context.Context, key string) ([]byte, error) {
	return s.read(ctx, "large", key)
}

func (s *Filesystem) SetLarge(ctx context.Context, key string, value []byte) error {
	return s.write(ctx, "large", key, value)
}

func (s *Filesystem) DeleteLarge(ctx context.Context, key string) error {
	path, err := s.path("large", key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete: %w", err)
	}
	return nil
}

func (s *Filesystem) Close() error { return nil }

func (s *Filesystem) read(ctx context.Context, tier, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(tier, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read: %w", err)
	}
	return data, nil
}

func (s *Filesystem) write(ctx context.Context, tier, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(tier, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: ensure directory: %w", err)
	}
	if err := os.WriteFile(path, value, 0o644); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	return nil
}

func (s *Filesystem) path(tier, key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, tier, filepath.FromSlash(cleanKey)), nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("store: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("store: invalid key")
	}
	return cleaned, nil
}

var _ Store = (*Filesystem)(nil)
