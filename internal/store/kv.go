// Package store provides the two-tier key/value persistence the editor's
// state is mirrored into: a small tier for settings-sized JSON values and a
// large tier for blobs such as the result gallery.
package store

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent key on either tier.
var ErrNotFound = errors.New("store: key not found")

// Store is the durable two-tier key/value contract. Small values are
// settings-sized JSON documents; large values are blobs (encoded image
// collections) whose writes callers are expected to debounce.
type Store interface {
	GetSmall(ctx context.Context, key string) ([]byte, error)
	SetSmall(ctx context.Context, key string, value []byte) error
	GetLarge(ctx context.Context, key string) ([]byte, error)
	SetLarge(ctx context.Context, key string, value []byte) error
	DeleteLarge(ctx context.Context, key string) error
	Close() error
}

// Well-known keys used by the service.
const (
	KeyResults      = "gallery/results"
	KeyAdvisory     = "session/advisory"
	KeyGeminiAPIKey = "credentials/gemini"
)
