package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Store. A positive quota caps the total bytes of keys and values held.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
	quota int
	used  int
}

// MemoryOption customises a Memory store.
type MemoryOption func(*Memory)

// WithQuota limits the store to n bytes across all keys and values.
func WithQuota(n int) MemoryOption {
	return func(m *Memory) {
		m.quota = n
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{items: make(map[string]string)}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Memory) GetItem(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrInvalidKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used
	if prev, ok := m.items[key]; ok {
		used -= len(key) + len(prev)
	}
	used += len(key) + len(value)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	m.items[key] = value
	m.used = used
	return nil
}

func (m *Memory) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.items[key]; ok {
		m.used -= len(key) + len(prev)
		delete(m.items, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
