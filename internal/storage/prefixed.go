package storage

import (
	"context"
	"strings"
)

// Prefixed scopes every key of an underlying store under a namespace, e.g. one per shopper.
type Prefixed struct {
	next   Store
	prefix string
}

// NewPrefixed joins the non-empty parts with ":" and prepends them to every key.
func NewPrefixed(next Store, parts ...string) *Prefixed {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	prefix := strings.Join(kept, ":")
	if prefix != "" {
		prefix += ":"
	}
	return &Prefixed{next: next, prefix: prefix}
}

func (p *Prefixed) GetItem(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	return p.next.GetItem(ctx, p.prefix+key)
}

func (p *Prefixed) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return p.next.SetItem(ctx, p.prefix+key, value)
}

func (p *Prefixed) RemoveItem(ctx context.Context, key string) error {
	if r, ok := p.next.(Remover); ok {
		return r.RemoveItem(ctx, p.prefix+key)
	}
	return nil
}

// Key returns the fully qualified key stored in the underlying store.
func (p *Prefixed) Key(key string) string {
	return p.prefix + key
}
