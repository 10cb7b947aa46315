// Package storage holds the key/value backends the preference record is persisted in.
// Every backend behaves like browser web storage: string values under string keys, last write wins.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by GetItem when no value is stored under the key.
	ErrNotFound = errors.New("storage: item not found")
	// ErrQuotaExceeded is returned by SetItem when the value does not fit the backend's quota.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("storage: key is required")
)

// Store is a string key/value store.
type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
}

// Remover is implemented by stores that can delete keys.
type Remover interface {
	RemoveItem(ctx context.Context, key string) error
}
