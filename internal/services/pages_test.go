package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanko-field/pdp/internal/catalog"
	"github.com/hanko-field/pdp/internal/domain"
	"github.com/hanko-field/pdp/internal/pdp"
	"github.com/hanko-field/pdp/internal/storage"
)

type staticProducts map[string]domain.Product

func (s staticProducts) Product(slug string) (domain.Product, error) {
	p, ok := s[slug]
	if !ok {
		return domain.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func testProducts() staticProducts {
	return staticProducts{
		"silk-kurta": {
			Slug:   "silk-kurta",
			Name:   "Handwoven Silk Kurta",
			Colors: []string{"Royal Blue", "Maroon"},
			Sizes:  []string{"S", "M", "L"},
		},
	}
}

type memoryStores struct {
	mu     sync.Mutex
	stores map[string]*storage.Memory
}

func (m *memoryStores) factory(shopperID string) storage.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stores == nil {
		m.stores = make(map[string]*storage.Memory)
	}
	s, ok := m.stores[shopperID]
	if !ok {
		s = storage.NewMemory()
		m.stores[shopperID] = s
	}
	return s
}

func TestOpenReusesPagePerShopper(t *testing.T) {
	stores := &memoryStores{}
	registry := NewPageRegistry(testProducts(), stores.factory)
	t.Cleanup(func() { registry.Close(context.Background()) })
	ctx := context.Background()

	first, err := registry.Open(ctx, "shopper-a", "silk-kurta")
	require.NoError(t, err)
	again, err := registry.Open(ctx, "shopper-a", "silk-kurta")
	require.NoError(t, err)
	require.Same(t, first, again)

	other, err := registry.Open(ctx, "shopper-b", "silk-kurta")
	require.NoError(t, err)
	require.NotSame(t, first, other)
	require.Equal(t, 2, registry.Len())
}

func TestOpenConcurrentCallersShareOnePage(t *testing.T) {
	registry := NewPageRegistry(testProducts(), (&memoryStores{}).factory)
	t.Cleanup(func() { registry.Close(context.Background()) })

	var wg sync.WaitGroup
	loops := make([]*pdp.Loop, 8)
	for i := range loops {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loop, err := registry.Open(context.Background(), "shopper", "silk-kurta")
			if err == nil {
				loops[i] = loop
			}
		}(i)
	}
	wg.Wait()
	for _, loop := range loops {
		require.NotNil(t, loop)
		require.Same(t, loops[0], loop)
	}
}

func TestOpenUnknownProduct(t *testing.T) {
	registry := NewPageRegistry(testProducts(), nil)
	_, err := registry.Open(context.Background(), "shopper", "missing")
	require.True(t, errors.Is(err, ErrProductNotFound))
	require.Equal(t, 0, registry.Len())
}

func TestSweepUnloadsIdlePages(t *testing.T) {
	stores := &memoryStores{}
	now := time.Now()
	registry := NewPageRegistry(testProducts(), stores.factory,
		WithIdleTimeout(time.Minute),
		WithRegistryClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	loop, err := registry.Open(ctx, "shopper", "silk-kurta")
	require.NoError(t, err)
	require.NoError(t, loop.Do(ctx, func(p *pdp.Page) error {
		p.Increase()
		p.Increase()
		return nil
	}))

	require.Equal(t, 0, registry.Sweep(ctx), "a fresh page is not idle")

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, registry.Sweep(ctx))
	require.True(t, loop.Closed())
	require.Equal(t, 0, registry.Len())

	raw, err := stores.factory("shopper").GetItem(ctx, domain.PreferencesKey)
	require.NoError(t, err, "eviction saves preferences like a page unload")
	require.Contains(t, raw, `"quantity":3`)

	reopened, err := registry.Open(ctx, "shopper", "silk-kurta")
	require.NoError(t, err)
	require.NotSame(t, loop, reopened)
	view, err := reopened.View(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, view.Quantity)
	registry.Close(ctx)
}

func TestCloseStopsEverything(t *testing.T) {
	registry := NewPageRegistry(testProducts(), (&memoryStores{}).factory)
	ctx := context.Background()

	loop, err := registry.Open(ctx, "shopper", "silk-kurta")
	require.NoError(t, err)
	registry.Close(ctx)

	require.True(t, loop.Closed())
	_, err = registry.Open(ctx, "shopper", "silk-kurta")
	require.ErrorIs(t, err, ErrRegistryClosed)
}
