// Package pdp implements the interaction controller behind the product detail page.
//
// A Page owns the shopper's SessionState and every widget on the page. It is not safe for
// concurrent use; Loop serialises handlers and timer callbacks onto one goroutine.
package pdp

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/hanko-field/pdp/internal/domain"
	"github.com/hanko-field/pdp/internal/storage"
)

const (
	scrollStep        = 200.0
	modalTransition   = 300 * time.Millisecond
	cartFeedback      = 1500 * time.Millisecond
	wishlistFeedback  = 2000 * time.Millisecond
	toastEnterDelay   = 100 * time.Millisecond
	toastVisibleFor   = 3000 * time.Millisecond
	toastExitDuration = 300 * time.Millisecond
)

// Page is the controller for one product page view.
type Page struct {
	product domain.Product
	store   storage.Store
	sched   Scheduler
	logger  *zap.Logger
	metrics *pageMetrics
	now     func() time.Time

	state domain.SessionState

	colors Group
	sizes  Group
	thumbs Group
	tabs   Group

	panels      map[string]bool
	activePanel string

	mainImage domain.Image
	zoom      zoomState

	buttons map[string]*feedback

	modals       map[string]*modal
	scrollLocked bool
	compare      []compareOption

	carousels []*carousel

	toasts    []*toast
	nextToast int
	live      string

	focus Target
	ready bool
}

// Option customises a Page.
type Option func(*Page)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Page) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithScheduler sets the timer source. Loop installs its own.
func WithScheduler(s Scheduler) Option {
	return func(p *Page) {
		if s != nil {
			p.sched = s
		}
	}
}

// WithMeter records page metrics on m instead of the global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(p *Page) {
		if m != nil {
			p.metrics = newPageMetrics(m, p.logger)
		}
	}
}

// New builds a page for product. A nil store behaves like unavailable storage: saves and loads are logged and skipped.
func New(product domain.Product, store storage.Store, opts ...Option) *Page {
	p := &Page{
		product: product,
		store:   store,
		logger:  zap.NewNop(),
		now:     time.Now,
		state:   domain.DefaultSessionState(),
		buttons: make(map[string]*feedback),
		modals:  make(map[string]*modal),
		panels:  make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.sched == nil {
		p.sched = NewManualScheduler()
	}
	if p.metrics == nil {
		p.metrics = newPageMetrics(nil, p.logger)
	}
	p.logger = p.logger.With(zap.String("product", product.Slug))

	p.wireGallery()
	p.wireVariants()
	p.wireActions()
	p.wireModals()
	p.wireTabs()
	p.wireCarousels()
	return p
}

// Init marks the page ready and restores saved preferences. Calling it again has no effect.
func (p *Page) Init(ctx context.Context) {
	if p.ready {
		return
	}
	p.ready = true
	p.Restore(ctx)
	p.logger.Debug("product page initialized")
}

// State returns a copy of the session state.
func (p *Page) State() domain.SessionState {
	return p.state
}

// Product returns the product the page was built for.
func (p *Page) Product() domain.Product {
	return p.product
}

// Focus returns the element that currently holds focus.
func (p *Page) Focus() Target {
	return p.focus
}

func (p *Page) wireVariants() {
	p.colors = NewGroup(p.product.Colors)
	p.colors.Select(p.colors.Index(p.state.SelectedColor))

	p.sizes = NewGroup(p.product.Sizes)
	if code, ok := domain.SizeCode(p.state.SelectedSize); ok {
		p.sizes.Select(p.sizes.Index(code))
	}
}

// stopTimers cancels every pending revert, toast stage, and modal transition.
func (p *Page) stopTimers() {
	for _, b := range p.buttons {
		b.cancel()
	}
	for _, m := range p.modals {
		m.cancel()
	}
	for _, t := range p.toasts {
		t.cancel()
	}
}
