package pdp

import (
	"fmt"
	"time"

	"github.com/hanko-field/pdp/internal/domain"
)

const (
	toneSuccess = "#059669"
	toneAccent  = "#dc2626"
)

// Base labels of the buttons that flash feedback.
const (
	LabelAddToCart = "Add to Cart"
	LabelAddBundle = "Add Bundle to Cart"
	LabelWishlist  = "♡ Add to Wishlist"
	LabelQuickAdd  = "Quick Add"
)

// feedback is a button whose label and tone flash for a while after it is pressed.
// Pressing it again while flashing restarts the flash; the revert always restores the base label.
type feedback struct {
	base       string
	label      string
	background string
	color      string
	timer      Timer
}

func newFeedback(base string) *feedback {
	return &feedback{base: base, label: base}
}

func (f *feedback) cancel() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *feedback) revert() {
	f.label = f.base
	f.background = ""
	f.color = ""
	f.timer = nil
}

func (f *feedback) flashing() bool { return f.timer != nil }

func quickAddKey(cardID string) string { return string(TargetQuickAdd) + ":" + cardID }

func (p *Page) wireActions() {
	p.buttons[ActionAddToCart] = newFeedback(LabelAddToCart)
	p.buttons[ActionWishlist] = newFeedback(LabelWishlist)
	if p.product.Bundle != nil {
		p.buttons[ActionAddBundle] = newFeedback(LabelAddBundle)
	}
	for _, c := range p.product.Carousels {
		for _, card := range c.Cards {
			p.buttons[quickAddKey(card.ID)] = newFeedback(LabelQuickAdd)
		}
	}
}

func (p *Page) flash(key, label, background, color string, d time.Duration) {
	f, ok := p.buttons[key]
	if !ok {
		return
	}
	f.cancel()
	f.label, f.background, f.color = label, background, color
	var t Timer
	t = p.sched.AfterFunc(d, func() {
		if f.timer == t {
			f.revert()
		}
	})
	f.timer = t
}

// AddToCart adds the selected quantity to the cart.
func (p *Page) AddToCart() {
	n := p.state.Quantity
	p.addItems(n, ActionAddToCart)
	p.Notify(fmt.Sprintf("Added %d item(s) to cart!", n), KindSuccess)
	p.flash(ActionAddToCart, "Added!", toneSuccess, "", cartFeedback)
}

// AddBundleToCart adds the fixed bundle. It reports false when the product has no bundle.
func (p *Page) AddBundleToCart() bool {
	if p.product.Bundle == nil {
		return false
	}
	p.addItems(domain.BundleSize, ActionAddBundle)
	p.Notify("Bundle added to cart!", KindSuccess)
	p.flash(ActionAddBundle, "Bundle Added!", toneSuccess, "", cartFeedback)
	return true
}

// QuickAdd adds one of a carousel card's product. Each card flashes independently.
func (p *Page) QuickAdd(cardID string) bool {
	key := quickAddKey(cardID)
	if _, ok := p.buttons[key]; !ok {
		return false
	}
	p.addItems(1, string(TargetQuickAdd))
	p.flash(key, "Added!", toneSuccess, "", cartFeedback)
	p.Notify("Product added to cart!", KindSuccess)
	return true
}

// AddToWishlist only acknowledges the press; there is no wishlist counter.
func (p *Page) AddToWishlist() {
	p.Notify("Added to wishlist!", KindSuccess)
	p.flash(ActionWishlist, "♥ Added to Wishlist", "", toneAccent, wishlistFeedback)
}

func (p *Page) addItems(n int, source string) {
	p.state.CartCount += n
	p.metrics.cartAdd(n, source)
}

// CartLabel is the text of the header cart badge.
func (p *Page) CartLabel() string {
	return fmt.Sprintf("Cart (%d)", p.state.CartCount)
}
