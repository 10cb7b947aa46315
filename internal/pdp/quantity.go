package pdp

import "github.com/hanko-field/pdp/internal/domain"

// Increase adds one unless the quantity is already at the maximum.
func (p *Page) Increase() {
	if p.state.Quantity < domain.MaxQuantity {
		p.state.Quantity++
	}
}

// Decrease removes one unless the quantity is already at the minimum.
func (p *Page) Decrease() {
	if p.state.Quantity > domain.MinQuantity {
		p.state.Quantity--
	}
}

// SetQuantityInput applies text typed into the quantity field. The value is not persisted until the next save.
func (p *Page) SetQuantityInput(text string) int {
	p.state.Quantity = domain.ParseQuantity(text)
	return p.state.Quantity
}
