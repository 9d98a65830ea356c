// Package credentials keeps provider API keys in the small tier of the
// persistent store so the editor can be provisioned once and survive
// restarts.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"studio/internal/store"
)

type Store struct {
	kv store.Store
}

func NewStore(kv store.Store) *Store {
	return &Store{kv: kv}
}

// GeminiAPIKey returns the stored key, or empty when none is provisioned.
func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	data, err := s.kv.GetSmall(ctx, store.KeyGeminiAPIKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	var key string
	if err := json.Unmarshal(data, &key); err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	data, err := json.Marshal(key)
	if err != nil {
		return err
	}
	return s.kv.SetSmall(ctx, store.KeyGeminiAPIKey, data)
}
