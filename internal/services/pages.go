// Package services holds the long-lived application services behind the HTTP handlers.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/hanko-field/pdp/internal/catalog"
	"github.com/hanko-field/pdp/internal/domain"
	"github.com/hanko-field/pdp/internal/pdp"
	"github.com/hanko-field/pdp/internal/storage"
)

// ErrProductNotFound is returned when the requested product does not exist.
var ErrProductNotFound = errors.New("services: product not found")

// ErrRegistryClosed is returned by Open after Close.
var ErrRegistryClosed = errors.New("services: page registry closed")

const defaultIdleTimeout = 30 * time.Minute

// ProductSource resolves products by slug.
type ProductSource interface {
	Product(slug string) (domain.Product, error)
}

// StoreFactory returns the preference store for one shopper.
type StoreFactory func(shopperID string) storage.Store

// PageService hands out the live page session for a shopper and product.
type PageService interface {
	Open(ctx context.Context, shopperID, slug string) (*pdp.Loop, error)
}

type pageKey struct {
	shopper string
	slug    string
}

type pageEntry struct {
	loop  *pdp.Loop
	ready chan struct{}
	err   error
}

// PageRegistry keeps one pdp.Loop per shopper and product and evicts sessions that sit idle.
// Eviction is treated as a page unload: preferences are saved, then the loop and its timers stop.
type PageRegistry struct {
	products ProductSource
	stores   StoreFactory
	logger   *zap.Logger
	meter    metric.Meter
	idle     time.Duration
	now      func() time.Time

	mu     sync.Mutex
	pages  map[pageKey]*pageEntry
	closed bool
}

// RegistryOption customises a PageRegistry.
type RegistryOption func(*PageRegistry)

// WithRegistryLogger sets the logger handed to every page.
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *PageRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryMeter records page metrics on m.
func WithRegistryMeter(m metric.Meter) RegistryOption {
	return func(r *PageRegistry) {
		r.meter = m
	}
}

// WithIdleTimeout sets how long a page may go unused before Sweep evicts it.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *PageRegistry) {
		if d > 0 {
			r.idle = d
		}
	}
}

// WithRegistryClock overrides the clock used for idle checks.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *PageRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewPageRegistry constructs an empty registry.
func NewPageRegistry(products ProductSource, stores StoreFactory, opts ...RegistryOption) *PageRegistry {
	r := &PageRegistry{
		products: products,
		stores:   stores,
		logger:   zap.NewNop(),
		idle:     defaultIdleTimeout,
		now:      time.Now,
		pages:    make(map[pageKey]*pageEntry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Open returns the shopper's page for slug, creating and initialising it on first use.
func (r *PageRegistry) Open(ctx context.Context, shopperID, slug string) (*pdp.Loop, error) {
	slug = strings.TrimSpace(slug)
	key := pageKey{shopper: shopperID, slug: slug}

	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, ErrRegistryClosed
		}
		entry, ok := r.pages[key]
		if !ok {
			entry = &pageEntry{ready: make(chan struct{})}
			r.pages[key] = entry
			r.mu.Unlock()
			r.start(ctx, key, entry)
		} else {
			r.mu.Unlock()
		}

		select {
		case <-entry.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if entry.err != nil {
			return nil, entry.err
		}
		if entry.loop.Closed() {
			r.forget(key, entry)
			continue
		}
		return entry.loop, nil
	}
}

func (r *PageRegistry) start(ctx context.Context, key pageKey, entry *pageEntry) {
	defer close(entry.ready)

	product, err := r.lookup(key.slug)
	if err != nil {
		entry.err = err
		r.forget(key, entry)
		return
	}

	var store storage.Store
	if r.stores != nil {
		store = r.stores(key.shopper)
	}
	logger := r.logger.With(zap.String("shopper_id", key.shopper))
	loop := pdp.NewLoop(product, store, pdp.WithLogger(logger), pdp.WithMeter(r.meter))
	if err := loop.Do(ctx, func(p *pdp.Page) error {
		p.Init(ctx)
		return nil
	}); err != nil {
		loop.Close()
		entry.err = fmt.Errorf("services: init page %s: %w", key.slug, err)
		r.forget(key, entry)
		return
	}
	r.mu.Lock()
	entry.loop = loop
	closed := r.closed
	r.mu.Unlock()
	if closed {
		loop.Close()
		return
	}
	logger.Debug("page session opened", zap.String("product", key.slug))
}

func (r *PageRegistry) lookup(slug string) (domain.Product, error) {
	if r.products == nil {
		return domain.Product{}, ErrProductNotFound
	}
	product, err := r.products.Product(slug)
	if errors.Is(err, catalog.ErrNotFound) {
		return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, slug)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *PageRegistry) forget(key pageKey, entry *pageEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pages[key] == entry {
		delete(r.pages, key)
	}
}

// Len reports the number of live page sessions.
func (r *PageRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Sweep evicts pages idle for longer than the idle timeout and returns how many were evicted.
func (r *PageRegistry) Sweep(ctx context.Context) int {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var stale []*pdp.Loop
	for key, entry := range r.pages {
		if entry.loop == nil {
			continue
		}
		if entry.loop.Closed() || entry.loop.LastUsed().Before(cutoff) {
			stale = append(stale, entry.loop)
			delete(r.pages, key)
		}
	}
	r.mu.Unlock()

	for _, loop := range stale {
		r.evict(ctx, loop)
	}
	if len(stale) > 0 {
		r.logger.Info("evicted idle page sessions", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps on every interval tick until ctx is cancelled.
func (r *PageRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Close unloads and stops every page. Later calls to Open fail with ErrRegistryClosed.
func (r *PageRegistry) Close(ctx context.Context) {
	r.mu.Lock()
	r.closed = true
	loops := make([]*pdp.Loop, 0, len(r.pages))
	for key, entry := range r.pages {
		if entry.loop != nil {
			loops = append(loops, entry.loop)
		}
		delete(r.pages, key)
	}
	r.mu.Unlock()

	for _, loop := range loops {
		r.evict(ctx, loop)
	}
}

func (r *PageRegistry) evict(ctx context.Context, loop *pdp.Loop) {
	if err := loop.Do(ctx, func(p *pdp.Page) error {
		p.Unload(ctx)
		return nil
	}); err != nil && !errors.Is(err, pdp.ErrLoopClosed) {
		r.logger.Warn("page unload failed", zap.Error(err))
	}
	loop.Close()
}
