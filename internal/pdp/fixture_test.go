package pdp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hanko-field/pdp/internal/domain"
	"github.com/hanko-field/pdp/internal/storage"
)

func sampleProduct() domain.Product {
	return domain.Product{
		Slug:  "silk-kurta",
		Name:  "Handwoven Silk Kurta",
		Price: "₹4,999",
		Images: []domain.Image{
			{ID: "front", Thumb: "/img/front-t.jpg", Main: "/img/front.jpg", Alt: "Front view"},
			{ID: "back", Thumb: "/img/back-t.jpg", Main: "/img/back.jpg", Alt: "Back view"},
			{ID: "detail", Thumb: "/img/detail-t.jpg", Alt: "Detail"},
		},
		Colors: []string{"Royal Blue", "Saffron Orange", "Forest Green", "Maroon", "Cream White"},
		Sizes:  []string{"XS", "S", "M", "L", "XL", "XXL"},
		Tabs: []domain.Tab{
			{ID: "description", Label: "Description"},
			{ID: "details", Label: "Details"},
			{ID: "care", Label: "Care"},
		},
		Panels: []domain.Panel{
			{ID: "description", HTML: "<p>Soft silk.</p>"},
			{ID: "details", HTML: "<ul><li>Handwoven</li></ul>"},
		},
		SizeChart: []domain.SizeChartRow{
			{Code: "M", Chest: "40", Length: "42", Shoulder: "17"},
		},
		Compare: []string{"Royal Blue", "Saffron Orange", "Forest Green", "Maroon", "Cream White"},
		Bundle:  &domain.Bundle{Title: "Complete the look", Items: []string{"Kurta", "Churidar", "Dupatta"}, Price: "₹7,499"},
		Carousels: []domain.Carousel{{
			ID:    "related",
			Title: "You may also like",
			Cards: []domain.Card{
				{ID: "nehru-jacket", Name: "Nehru Jacket", Price: "₹2,999"},
				{ID: "mojari", Name: "Mojari", Price: "₹1,499"},
			},
		}},
	}
}

type failingStore struct{ err error }

func (f failingStore) GetItem(context.Context, string) (string, error) { return "", f.err }
func (f failingStore) SetItem(context.Context, string, string) error { return f.err }

func newTestPage(t *testing.T, store storage.Store) (*Page, *ManualScheduler) {
	t.Helper()
	sched := NewManualScheduler()
	p := New(sampleProduct(), store, WithScheduler(sched))
	p.Init(context.Background())
	return p, sched
}

func savedPreferences(t *testing.T, store storage.Store) domain.Preferences {
	t.Helper()
	raw, err := store.GetItem(context.Background(), domain.PreferencesKey)
	if err != nil {
		t.Fatalf("expected saved preferences: %v", err)
	}
	var prefs domain.Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		t.Fatalf("decode preferences: %v", err)
	}
	return prefs
}

func click(target Target) Event {
	return Event{Type: EventClick, Target: target}
}

func key(target Target, k string) Event {
	return Event{Type: EventKeyDown, Target: target, Key: k}
}
