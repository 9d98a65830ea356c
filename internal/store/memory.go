package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and credential-less dev runs.
type Memory struct {
	mu    sync.RWMutex
	small map[string][]byte
	large map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		small: make(map[string][]byte),
		large: make(map[string][]byte),
	}
}

func (m *Memory) GetSmall(_ context.Context, key string) ([]byte, error) {
	return m.get(m.small, key)
}

func (m *Memory) SetSmall(_ context.Context, key string, value []byte) error {
	m.set(m.small, key, value)
	return nil
}

func (m *Memory) GetLarge(_ context.Context, key string) ([]byte, error) {
	return m.get(m.large, key)
}

func (m *Memory) SetLarge(_ context.Context, key string, value []byte) error {
	m.set(m.large, key, value)
	return nil
}

func (m *Memory) DeleteLarge(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.large, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) get(tier map[string][]byte, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := tier[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) set(tier map[string][]byte, key string, value []byte) {
	m.mu.Lock()
	tier[key] = append([]byte(nil), value...)
	m.mu.Unlock()
}

var _ Store = (*Memory)(nil)
