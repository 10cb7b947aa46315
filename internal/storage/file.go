package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// File persists all keys as one JSON object on disk. Writes replace the file atomically so a crash never
// leaves a torn record behind.
type File struct {
	path string

	mu     sync.Mutex
	items  map[string]string
	loaded bool
}

func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("storage: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	return &File{path: path}, nil
}

func (f *File) GetItem(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrInvalidKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return "", err
	}
	value, ok := f.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *File) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}
	prev, had := f.items[key]
	f.items[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.items[key] = prev
		} else {
			delete(f.items, key)
		}
		return err
	}
	return nil
}

func (f *File) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}
	if _, ok := f.items[key]; !ok {
		return nil
	}
	delete(f.items, key)
	return f.flush()
}

func (f *File) load() error {
	if f.loaded {
		return nil
	}
	items := make(map[string]string)
	raw, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("storage: read %s: %w", f.path, err)
	case len(bytes.TrimSpace(raw)) > 0:
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("storage: decode %s: %w", f.path, err)
		}
	}
	f.items = items
	f.loaded = true
	return nil
}

func (f *File) flush() error {
	raw, err := json.MarshalIndent(f.items, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("storage: write %s: %w", f.path, err)
	}
	return nil
}
